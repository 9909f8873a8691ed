package models

import "time"

// AuthToken is an opaque login token ("Authorization: Token <key>").
// Only the SHA-256 hash of the key is stored.
type AuthToken struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	KeyHash    string     `gorm:"uniqueIndex;not null" json:"-"`
	KeyPrefix  string     `gorm:"not null" json:"key_prefix"` // First few chars for identification
	LastUsedAt *time.Time `json:"last_used_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
