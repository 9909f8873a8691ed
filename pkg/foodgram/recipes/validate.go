package recipes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mikepea/foodgram/pkg/foodgram/apperrors"
	"github.com/mikepea/foodgram/pkg/foodgram/models"
	"github.com/mikepea/foodgram/pkg/foodgram/storage"
)

const (
	maxNameLength  = 200
	minCookingTime = 1
	minAmount      = 1
)

// validate checks every field of in and returns all problems at once.
// Duplicate tag ids are collapsed; duplicate ingredient ids are rejected.
// The decoded image is nil when none was supplied and requireImage is false.
func (s *Service) validate(ctx context.Context, in RecipeInput, requireImage bool) (RecipeInput, *storage.Image, error) {
	verr := &apperrors.ValidationError{}

	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		verr.Add("name", "This field is required")
	case len([]rune(in.Name)) > maxNameLength:
		verr.Add("name", fmt.Sprintf("Must be at most %d characters", maxNameLength))
	}
	if strings.TrimSpace(in.Text) == "" {
		verr.Add("text", "This field is required")
	}
	if in.CookingTime < minCookingTime {
		verr.Add("cooking_time", fmt.Sprintf("Must be at least %d", minCookingTime))
	}

	in.Tags = uniqueIDs(in.Tags)
	if len(in.Tags) == 0 {
		verr.Add("tags", "At least one tag is required")
	} else if err := s.checkTags(ctx, in.Tags, verr); err != nil {
		return in, nil, err
	}

	if len(in.Ingredients) == 0 {
		verr.Add("ingredients", "At least one ingredient is required")
	} else {
		seen := make(map[uint]int, len(in.Ingredients))
		ids := make([]uint, 0, len(in.Ingredients))
		for i, item := range in.Ingredients {
			if item.Amount < minAmount {
				verr.Add(fmt.Sprintf("ingredients[%d].amount", i), fmt.Sprintf("Must be at least %d", minAmount))
			}
			seen[item.ID]++
			switch seen[item.ID] {
			case 1:
				ids = append(ids, item.ID)
			case 2:
				verr.Add("ingredients", fmt.Sprintf("duplicate ingredient %d", item.ID))
			}
		}
		if err := s.checkIngredients(ctx, ids, verr); err != nil {
			return in, nil, err
		}
	}

	var img *storage.Image
	switch {
	case in.Image != "":
		decoded, err := storage.DecodeDataURI(in.Image)
		if err != nil {
			verr.Add("image", imageMessage(err))
		}
		img = decoded
	case requireImage:
		verr.Add("image", "This field is required")
	}

	if !verr.Empty() {
		return in, nil, verr
	}
	return in, img, nil
}

func (s *Service) checkTags(ctx context.Context, ids []uint, verr *apperrors.ValidationError) error {
	var found []uint
	if err := s.db.WithContext(ctx).Model(&models.Tag{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("resolve tags: %w", err)
	}
	for _, id := range missing(ids, found) {
		verr.Add("tags", fmt.Sprintf("tag %d does not exist", id))
	}
	return nil
}

func (s *Service) checkIngredients(ctx context.Context, ids []uint, verr *apperrors.ValidationError) error {
	var found []uint
	if err := s.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("resolve ingredients: %w", err)
	}
	for _, id := range missing(ids, found) {
		verr.Add("ingredients", fmt.Sprintf("ingredient %d does not exist", id))
	}
	return nil
}

func imageMessage(err error) string {
	switch {
	case errors.Is(err, storage.ErrImageTooLarge):
		return fmt.Sprintf("Image must be at most %d bytes", storage.MaxImageSize)
	case errors.Is(err, storage.ErrUnsupportedImage):
		return "Unsupported image type"
	default:
		return "Invalid image data"
	}
}

// uniqueIDs drops repeated ids, keeping first occurrences in order.
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func missing(want, found []uint) []uint {
	have := make(map[uint]bool, len(found))
	for _, id := range found {
		have[id] = true
	}
	var out []uint
	for _, id := range want {
		if !have[id] {
			out = append(out, id)
		}
	}
	return out
}
