package recipes

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/mikepea/foodgram/pkg/foodgram/logging"
	"github.com/mikepea/foodgram/pkg/foodgram/metrics"
	"github.com/mikepea/foodgram/pkg/foodgram/models"
)

// Relation is a per-user set of recipes: favorites or the shopping cart.
type Relation struct {
	service *Service
	kind    string
	row     func(userID, recipeID uint) interface{}
}

// Add puts a recipe into the user's set and returns the recipe. Adding a
// recipe already in the set succeeds without changes.
func (r *Relation) Add(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	recipe, err := r.service.getRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	res := r.service.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(r.row(userID, recipeID))
	if res.Error != nil {
		return nil, fmt.Errorf("add %s: %w", r.kind, res.Error)
	}
	if res.RowsAffected > 0 {
		metrics.RecordToggle(r.kind, "add")
		logging.Ctx(ctx).Debug().Str("kind", r.kind).Uint("user_id", userID).Uint("recipe_id", recipeID).Msg("Recipe added")
	}
	return recipe, nil
}

// Remove takes a recipe out of the user's set. Removing a recipe that is
// not in the set succeeds without changes.
func (r *Relation) Remove(ctx context.Context, userID, recipeID uint) error {
	if _, err := r.service.getRecipe(ctx, recipeID); err != nil {
		return err
	}

	res := r.service.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(r.row(0, 0))
	if res.Error != nil {
		return fmt.Errorf("remove %s: %w", r.kind, res.Error)
	}
	if res.RowsAffected > 0 {
		metrics.RecordToggle(r.kind, "remove")
	}
	return nil
}

// Contains returns which of recipeIDs are in the user's set.
func (r *Relation) Contains(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if userID == 0 || len(recipeIDs) == 0 {
		return set, nil
	}
	var ids []uint
	err := r.service.db.WithContext(ctx).
		Model(r.row(0, 0)).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("load %s set: %w", r.kind, err)
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
