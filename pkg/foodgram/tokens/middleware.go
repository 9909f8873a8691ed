package tokens

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/apperrors"
	"github.com/mikepea/foodgram/pkg/foodgram/auth"
	"github.com/mikepea/foodgram/pkg/foodgram/logging"
	"github.com/mikepea/foodgram/pkg/foodgram/models"
)

const contextKeyTokenKey = "auth_token_key"

// credentials extracts the scheme and credential from the Authorization header.
func credentials(header string) (scheme, value string, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	scheme = strings.ToLower(parts[0])
	if scheme != "bearer" && scheme != "token" {
		return "", "", false
	}
	value = strings.TrimSpace(parts[1])
	return scheme, value, value != ""
}

// authenticate resolves the Authorization header to a user. JWTs contain dots,
// token keys are hex strings without dots. Both paths load the user row, so
// deleted users are rejected and the role comes from the database.
func authenticate(c *gin.Context, db *gorm.DB, header string) error {
	scheme, value, ok := credentials(header)
	if !ok {
		return apperrors.Unauthenticated("Invalid authorization header format")
	}

	if scheme == "bearer" && strings.Contains(value, ".") {
		claims, err := auth.ValidateToken(value)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				return apperrors.Unauthenticated("Token has expired")
			}
			return apperrors.Unauthenticated("Invalid token")
		}
		return setActiveUser(c, db, claims.UserID)
	}

	token, err := Lookup(db, value)
	if err != nil {
		return apperrors.Unauthenticated("Invalid token")
	}
	if err := setActiveUser(c, db, token.UserID); err != nil {
		return err
	}

	if err := UpdateLastUsed(db, token.ID); err != nil {
		logging.Ctx(c.Request.Context()).Warn().Err(err).Uint("token_id", token.ID).Msg("Failed to update token last_used_at")
	}
	c.Set(contextKeyTokenKey, value)
	return nil
}

func setActiveUser(c *gin.Context, db *gorm.DB, userID uint) error {
	var user models.User
	if err := db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Unauthenticated("User not found")
		}
		return err
	}
	auth.SetUser(c, user.ID, user.Email, string(user.SystemRole))
	return nil
}

// CombinedAuthMiddleware authenticates via "Bearer <jwt>", "Token <key>" or "Bearer <key>".
func CombinedAuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			apperrors.Respond(c, apperrors.ErrAuthenticationRequired)
			return
		}

		if err := authenticate(c, db, authHeader); err != nil {
			apperrors.Respond(c, err)
			return
		}

		c.Next()
	}
}

// OptionalAuthMiddleware behaves like CombinedAuthMiddleware but lets requests
// without an Authorization header through anonymously. Invalid credentials are
// still rejected.
func OptionalAuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		if err := authenticate(c, db, authHeader); err != nil {
			apperrors.Respond(c, err)
			return
		}

		c.Next()
	}
}

// ActiveUser reloads the user placed in the context by auth.AuthMiddleware,
// rejecting deleted accounts and refreshing the system role.
func ActiveUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c)
		if !ok {
			apperrors.Respond(c, apperrors.ErrAuthenticationRequired)
			return
		}
		if err := setActiveUser(c, db, userID); err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.Next()
	}
}

// RequireUser rejects anonymous requests that passed OptionalAuthMiddleware.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.GetUserID(c); !ok {
			apperrors.Respond(c, apperrors.ErrAuthenticationRequired)
			return
		}
		c.Next()
	}
}
