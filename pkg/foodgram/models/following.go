package models

import "time"

// Following is a directed subscription of Subscriber to Author's recipes.
// A user never follows themselves and each pair exists at most once.
type Following struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	SubscriberID uint      `gorm:"not null;uniqueIndex:idx_subscriber_author" json:"subscriber_id"`
	AuthorID     uint      `gorm:"not null;uniqueIndex:idx_subscriber_author;index" json:"author_id"`

	// Relationships
	Subscriber User `gorm:"foreignKey:SubscriberID" json:"subscriber,omitempty"`
	Author     User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
