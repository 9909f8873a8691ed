package models

import "time"

// Ingredient is catalog data: a product and the unit it is measured in
type Ingredient struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Name            string    `gorm:"uniqueIndex;size:200;not null" json:"name"`
	MeasurementUnit string    `gorm:"size:50;not null" json:"measurement_unit"`
}
