package tokens

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/apperrors"
	"github.com/mikepea/foodgram/pkg/foodgram/auth"
	"github.com/mikepea/foodgram/pkg/foodgram/validation"
)

// Handler handles token login and logout
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new tokens handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// LoginRequest represents the token login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the plain token key; it is only shown once
type LoginResponse struct {
	AuthToken string `json:"auth_token"`
}

// Login exchanges credentials for a token
// @Summary Obtain an auth token
// @Description Authenticate with email and password to receive an opaque token for "Authorization: Token <key>"
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Router /auth/token/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, validation.Translate(err))
		return
	}

	user, ok := auth.Authenticate(h.db, req.Email, req.Password)
	if !ok {
		apperrors.Respond(c, apperrors.NewValidationError("non_field_errors", "Unable to log in with provided credentials."))
		return
	}

	key, err := Issue(h.db, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{AuthToken: key})
}

// Logout deletes the token used to authenticate the request
// @Summary Revoke the current auth token
// @Tags auth
// @Success 204
// @Failure 401 {object} map[string]string "Authentication required"
// @Security TokenAuth
// @Router /auth/token/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	if key, ok := c.Get(contextKeyTokenKey); ok {
		if err := Revoke(h.db, key.(string)); err != nil {
			apperrors.Respond(c, err)
			return
		}
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers token routes; logout requires authentication
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/token/login", h.Login)
	rg.POST("/token/logout", CombinedAuthMiddleware(h.db), h.Logout)
}
