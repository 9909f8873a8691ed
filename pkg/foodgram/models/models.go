package models

import "gorm.io/gorm"

// AllModels returns all models for migration
// Note: User must be migrated first as recipes and relations reference it
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&AuthToken{},
		&Following{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&RecipeTag{},
		&RecipeIngredient{},
		&Favorite{},
		&CartEntry{},
	}
}

// AutoMigrate runs GORM auto-migration for all models.
// The recipe_tags join table is registered explicitly so that tag rows can be
// written directly while Preload("Tags") keeps working.
func AutoMigrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Recipe{}, "Tags", &RecipeTag{}); err != nil {
		return err
	}
	return db.AutoMigrate(AllModels()...)
}
