// Package shoppinglist aggregates the ingredients of every recipe in a
// user's cart into a downloadable CSV.
package shoppinglist

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/models"
)

// Header is the first row of every exported list.
var Header = []string{"Ingredient", "Unit", "Amount"}

// Item is the total amount of one ingredient across the cart
type Item struct {
	Name   string `json:"name"`
	Unit   string `json:"measurement_unit"`
	Amount int64  `json:"amount"`
}

// Builder computes shopping lists
type Builder struct {
	db *gorm.DB
}

// NewBuilder creates a shopping list builder
func NewBuilder(db *gorm.DB) *Builder {
	return &Builder{db: db}
}

// Build sums ingredient amounts over the user's cart, grouped by name and
// unit and ordered by name then unit. An empty cart yields no items.
func (b *Builder) Build(ctx context.Context, userID uint) ([]Item, error) {
	items := []Item{}
	err := b.db.WithContext(ctx).
		Model(&models.CartEntry{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = shopping_cart.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_cart.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("build shopping list: %w", err)
	}
	return items, nil
}

// WriteCSV writes items as UTF-8 CSV preceded by Header.
func WriteCSV(w io.Writer, items []Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, item := range items {
		if err := cw.Write([]string{item.Name, item.Unit, strconv.FormatInt(item.Amount, 10)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
