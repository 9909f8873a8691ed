// Package recipes implements the recipe aggregate: validated create and
// update with full replacement of tags and ingredients, deletion, filtered
// listing and the favorite / shopping cart toggles.
package recipes

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mikepea/foodgram/pkg/foodgram/apperrors"
	"github.com/mikepea/foodgram/pkg/foodgram/database"
	"github.com/mikepea/foodgram/pkg/foodgram/logging"
	"github.com/mikepea/foodgram/pkg/foodgram/metrics"
	"github.com/mikepea/foodgram/pkg/foodgram/models"
	"github.com/mikepea/foodgram/pkg/foodgram/pagination"
	"github.com/mikepea/foodgram/pkg/foodgram/storage"
)

// IngredientAmount references a catalog ingredient with the amount used.
type IngredientAmount struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeInput is the write model for create and update. Image is a base64
// data URI; on update an empty Image keeps the stored one.
type RecipeInput struct {
	Name        string
	Image       string
	Text        string
	CookingTime int
	Tags        []uint
	Ingredients []IngredientAmount
}

// Service implements recipe writes and reads
type Service struct {
	db    *gorm.DB
	store storage.Store

	Favorites *Relation
	Cart      *Relation
}

// NewService creates a recipe service writing images to store
func NewService(db *gorm.DB, store storage.Store) *Service {
	s := &Service{db: db, store: store}
	s.Favorites = &Relation{service: s, kind: "favorite", row: func(userID, recipeID uint) interface{} {
		return &models.Favorite{UserID: userID, RecipeID: recipeID}
	}}
	s.Cart = &Relation{service: s, kind: "cart", row: func(userID, recipeID uint) interface{} {
		return &models.CartEntry{UserID: userID, RecipeID: recipeID}
	}}
	return s
}

// transaction runs fn with the isolation level used for recipe writes.
func (s *Service) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if opts := database.TxOptions(s.db); opts != nil {
		return s.db.WithContext(ctx).Transaction(fn, opts)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *Service) getRecipe(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Recipe")
		}
		return nil, fmt.Errorf("load recipe %d: %w", id, err)
	}
	return &recipe, nil
}

// preload loads everything the full response shape needs.
func preload(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

// Get returns a recipe with its author, tags and ingredients.
func (s *Service) Get(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := preload(s.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Recipe")
		}
		return nil, fmt.Errorf("load recipe %d: %w", id, err)
	}
	return &recipe, nil
}

// List returns one page of recipes matching filter, newest first.
func (s *Service) List(ctx context.Context, viewerID uint, filter Filter, p pagination.Params) ([]models.Recipe, int64, error) {
	root := s.db.WithContext(ctx)
	query := filter.Apply(root, root.Model(&models.Recipe{}), viewerID).Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}

	var recipes []models.Recipe
	err := preload(query).
		Order("recipes.pub_date DESC").
		Order("recipes.id DESC").
		Scopes(p.Scope).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, count, nil
}

// Create validates input, stores the image and writes the recipe with its
// tags and ingredients in one transaction.
func (s *Service) Create(ctx context.Context, authorID uint, in RecipeInput) (*models.Recipe, error) {
	in, img, err := s.validate(ctx, in, true)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.store.Save(ctx, storage.ObjectName(img.Ext), img.ContentType, img.Data)
	if err != nil {
		return nil, fmt.Errorf("save recipe image: %w", err)
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        in.Name,
		Image:       imageURL,
		Text:        in.Text,
		CookingTime: in.CookingTime,
	}
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return err
		}
		if err := replaceTags(tx, recipe.ID, in.Tags); err != nil {
			return err
		}
		return replaceIngredients(tx, recipe.ID, in.Ingredients)
	})
	if err != nil {
		s.discardImage(ctx, imageURL)
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	metrics.RecordRecipeWrite("create")
	logging.Ctx(ctx).Info().Uint("recipe_id", recipe.ID).Uint("author_id", authorID).Msg("Recipe created")
	return s.Get(ctx, recipe.ID)
}

// Update replaces the recipe's fields, tags and ingredients. Only the author
// may update; pub_date is never changed.
func (s *Service) Update(ctx context.Context, recipeID, editorID uint, in RecipeInput) (*models.Recipe, error) {
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != editorID {
		return nil, apperrors.Permission("Only the author can modify this recipe")
	}

	in, img, err := s.validate(ctx, in, false)
	if err != nil {
		return nil, err
	}

	oldImage := recipe.Image
	newImage := ""
	if img != nil {
		newImage, err = s.store.Save(ctx, storage.ObjectName(img.Ext), img.ContentType, img.Data)
		if err != nil {
			return nil, fmt.Errorf("save recipe image: %w", err)
		}
		recipe.Image = newImage
	}

	recipe.Name = in.Name
	recipe.Text = in.Text
	recipe.CookingTime = in.CookingTime
	err = s.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(recipe).
			Select("name", "text", "cooking_time", "image", "updated_at").
			Updates(recipe).Error; err != nil {
			return err
		}
		if err := replaceTags(tx, recipe.ID, in.Tags); err != nil {
			return err
		}
		return replaceIngredients(tx, recipe.ID, in.Ingredients)
	})
	if err != nil {
		if newImage != "" {
			s.discardImage(ctx, newImage)
		}
		return nil, fmt.Errorf("update recipe %d: %w", recipeID, err)
	}
	if newImage != "" {
		s.discardImage(ctx, oldImage)
	}

	metrics.RecordRecipeWrite("update")
	logging.Ctx(ctx).Info().Uint("recipe_id", recipe.ID).Msg("Recipe updated")
	return s.Get(ctx, recipe.ID)
}

// Delete removes a recipe with its tag and ingredient rows, favorites and
// cart entries. Only the author may delete.
func (s *Service) Delete(ctx context.Context, recipeID, editorID uint) error {
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return err
	}
	if recipe.AuthorID != editorID {
		return apperrors.Permission("Only the author can delete this recipe")
	}

	if err := s.transaction(ctx, func(tx *gorm.DB) error {
		return DeleteCascade(tx, []uint{recipe.ID})
	}); err != nil {
		return fmt.Errorf("delete recipe %d: %w", recipeID, err)
	}
	s.discardImage(ctx, recipe.Image)

	metrics.RecordRecipeWrite("delete")
	logging.Ctx(ctx).Info().Uint("recipe_id", recipe.ID).Msg("Recipe deleted")
	return nil
}

// DeleteCascade deletes recipes and every row referencing them. It must run
// inside a transaction.
func DeleteCascade(tx *gorm.DB, recipeIDs []uint) error {
	if len(recipeIDs) == 0 {
		return nil
	}
	for _, model := range []interface{}{
		&models.RecipeTag{},
		&models.RecipeIngredient{},
		&models.Favorite{},
		&models.CartEntry{},
	} {
		if err := tx.Where("recipe_id IN ?", recipeIDs).Delete(model).Error; err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", recipeIDs).Delete(&models.Recipe{}).Error
}

// discardImage removes a stored image; failures are logged and otherwise ignored.
func (s *Service) discardImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.store.Delete(ctx, url); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("image", url).Msg("Failed to remove recipe image")
	}
}
