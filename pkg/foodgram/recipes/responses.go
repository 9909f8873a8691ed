package recipes

import (
	"context"
	"fmt"
	"time"

	"github.com/mikepea/foodgram/pkg/foodgram/models"
	"github.com/mikepea/foodgram/pkg/foodgram/tags"
	"github.com/mikepea/foodgram/pkg/foodgram/users"
)

// IngredientInRecipeResponse is an ingredient line of a recipe
type IngredientInRecipeResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeResponse is the full recipe shape returned by list, detail and writes
type RecipeResponse struct {
	ID               uint                         `json:"id"`
	Tags             []tags.TagResponse           `json:"tags"`
	Author           users.UserResponse           `json:"author"`
	Ingredients      []IngredientInRecipeResponse `json:"ingredients"`
	IsFavorited      bool                         `json:"is_favorited"`
	IsInShoppingCart bool                         `json:"is_in_shopping_cart"`
	Name             string                       `json:"name"`
	Image            string                       `json:"image"`
	Text             string                       `json:"text"`
	CookingTime      int                          `json:"cooking_time"`
	PubDate          time.Time                    `json:"pub_date"`
}

// Present renders recipes with the flags computed for viewerID (0 for anonymous).
func (s *Service) Present(ctx context.Context, viewerID uint, recipes []models.Recipe) ([]RecipeResponse, error) {
	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	favorited, err := s.Favorites.Contains(ctx, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := s.Cart.Contains(ctx, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := users.SubscribedSet(s.db.WithContext(ctx), viewerID, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}

	out := make([]RecipeResponse, len(recipes))
	for i, r := range recipes {
		resp := RecipeResponse{
			ID:               r.ID,
			Tags:             make([]tags.TagResponse, len(r.Tags)),
			Author:           users.NewUserResponse(r.Author, subscribed[r.AuthorID]),
			Ingredients:      make([]IngredientInRecipeResponse, len(r.Ingredients)),
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
			PubDate:          r.PubDate,
		}
		for j, tag := range r.Tags {
			resp.Tags[j] = tags.NewTagResponse(tag)
		}
		for j, line := range r.Ingredients {
			resp.Ingredients[j] = IngredientInRecipeResponse{
				ID:              line.IngredientID,
				Name:            line.Ingredient.Name,
				MeasurementUnit: line.Ingredient.MeasurementUnit,
				Amount:          line.Amount,
			}
		}
		out[i] = resp
	}
	return out, nil
}

// PresentOne renders a single recipe for viewerID.
func (s *Service) PresentOne(ctx context.Context, viewerID uint, recipe *models.Recipe) (RecipeResponse, error) {
	out, err := s.Present(ctx, viewerID, []models.Recipe{*recipe})
	if err != nil {
		return RecipeResponse{}, err
	}
	return out[0], nil
}
