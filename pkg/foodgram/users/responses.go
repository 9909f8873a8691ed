package users

import (
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/models"
)

// UserResponse is the public profile of a user as seen by the viewer
type UserResponse struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// ShortRecipeResponse is the compact recipe shape used by toggles and subscriptions
type ShortRecipeResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// SubscriptionResponse is a followed author with their latest recipes
type SubscriptionResponse struct {
	UserResponse
	Recipes      []ShortRecipeResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

func NewUserResponse(user models.User, subscribed bool) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: subscribed,
	}
}

func NewShortRecipeResponse(recipe models.Recipe) ShortRecipeResponse {
	return ShortRecipeResponse{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
	}
}

// SubscribedSet returns which of authorIDs the viewer follows. An anonymous
// viewer (id 0) follows nobody.
func SubscribedSet(db *gorm.DB, viewerID uint, authorIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if viewerID == 0 || len(authorIDs) == 0 {
		return set, nil
	}

	var followed []uint
	err := db.Model(&models.Following{}).
		Where("subscriber_id = ? AND author_id IN ?", viewerID, authorIDs).
		Pluck("author_id", &followed).Error
	if err != nil {
		return nil, err
	}
	for _, id := range followed {
		set[id] = true
	}
	return set, nil
}
