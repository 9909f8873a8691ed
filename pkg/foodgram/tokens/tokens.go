// Package tokens implements opaque login tokens ("Authorization: Token <key>")
// and the middleware that accepts them alongside JWTs.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/models"
)

const (
	// KeyLength is the length of the generated key in bytes (20 bytes = 40 hex chars)
	KeyLength = 20
	// KeyPrefixLength is the number of characters to store as prefix for identification
	KeyPrefixLength = 8
)

// generateKey generates a new random token key
func generateKey() (string, error) {
	bytes := make([]byte, KeyLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// hashKey creates a SHA-256 hash of the key
func hashKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// Issue creates and stores a new token for userID, returning the plain key.
// The key is never stored and cannot be recovered later.
func Issue(db *gorm.DB, userID uint) (string, error) {
	key, err := generateKey()
	if err != nil {
		return "", err
	}
	token := models.AuthToken{
		UserID:    userID,
		KeyHash:   hashKey(key),
		KeyPrefix: key[:KeyPrefixLength],
	}
	if err := db.Create(&token).Error; err != nil {
		return "", err
	}
	return key, nil
}

// Lookup finds the stored token for key.
func Lookup(db *gorm.DB, key string) (*models.AuthToken, error) {
	var token models.AuthToken
	if err := db.Where("key_hash = ?", hashKey(key)).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// Revoke deletes the stored token for key. Revoking an unknown key is not an error.
func Revoke(db *gorm.DB, key string) error {
	return db.Where("key_hash = ?", hashKey(key)).Delete(&models.AuthToken{}).Error
}

// UpdateLastUsed updates the last_used_at timestamp for a token
func UpdateLastUsed(db *gorm.DB, tokenID uint) error {
	return db.Model(&models.AuthToken{}).Where("id = ?", tokenID).Update("last_used_at", time.Now()).Error
}
