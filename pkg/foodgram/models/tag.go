package models

import "time"

// Tag is catalog data used to classify recipes (breakfast, lunch, ...)
type Tag struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"uniqueIndex;size:30;not null" json:"name"`
	Color     string    `gorm:"uniqueIndex;size:7;not null" json:"color"` // HEX code, e.g. #E26C2D
	Slug      string    `gorm:"uniqueIndex;size:30;not null" json:"slug"`
}
