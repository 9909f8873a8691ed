package models

import "time"

// Favorite marks a recipe as favorited by a user.
// The same table answers "favorites of a user" and "users who favorited a recipe".
type Favorite struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	RecipeID  uint      `gorm:"primaryKey;autoIncrement:false;index" json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CartEntry puts a recipe into a user's shopping cart
type CartEntry struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	RecipeID  uint      `gorm:"primaryKey;autoIncrement:false;index" json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the historical table name of the cart relation
func (CartEntry) TableName() string {
	return "shopping_cart"
}
