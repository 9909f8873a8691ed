package recipes

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mikepea/foodgram/pkg/foodgram/models"
)

// replaceTags makes tagIDs the complete tag set of a recipe.
func replaceTags(tx *gorm.DB, recipeID uint, tagIDs []uint) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
		return err
	}
	rows := make([]models.RecipeTag, len(tagIDs))
	for i, id := range tagIDs {
		rows[i] = models.RecipeTag{RecipeID: recipeID, TagID: id}
	}
	return tx.Create(&rows).Error
}

// replaceIngredients makes items the complete ingredient list of a recipe,
// in request order.
func replaceIngredients(tx *gorm.DB, recipeID uint, items []IngredientAmount) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return err
	}
	rows := make([]models.RecipeIngredient, len(items))
	for i, item := range items {
		rows[i] = models.RecipeIngredient{RecipeID: recipeID, IngredientID: item.ID, Amount: item.Amount}
	}
	return tx.Omit(clause.Associations).Create(&rows).Error
}
