package users

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/apperrors"
	"github.com/mikepea/foodgram/pkg/foodgram/auth"
	"github.com/mikepea/foodgram/pkg/foodgram/pagination"
	"github.com/mikepea/foodgram/pkg/foodgram/tokens"
	"github.com/mikepea/foodgram/pkg/foodgram/validation"
)

// Handler handles user and subscription requests
type Handler struct {
	db      *gorm.DB
	service *Service
}

// NewHandler creates a new users handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db, service: NewService(db)}
}

// SetPasswordRequest represents the password change request body
type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=150"`
}

// ParseID parses a positive numeric path parameter.
func ParseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// recipesLimit reads ?recipes_limit=; absent means unlimited.
func recipesLimit(c *gin.Context) (int, error) {
	raw := c.Query("recipes_limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.NewValidationError("recipes_limit", "A non-negative integer is required")
	}
	return n, nil
}

// List returns registered users
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} pagination.Page[UserResponse]
// @Router /users [get]
func (h *Handler) List(c *gin.Context) {
	p, err := pagination.Parse(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	viewerID, _ := auth.GetUserID(c)

	users, count, err := h.service.List(c.Request.Context(), viewerID, p)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, pagination.NewPage(c, p, count, users))
}

// Create registers a user without issuing a token
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param request body auth.RegisterRequest true "User details"
// @Success 201 {object} UserResponse
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 409 {object} map[string]string "Email or username already registered"
// @Router /users [post]
func (h *Handler) Create(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, validation.Translate(err))
		return
	}

	user, err := auth.CreateUser(h.db.WithContext(c.Request.Context()), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewUserResponse(*user, false))
}

// Get returns a user profile
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} UserResponse
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	viewerID, _ := auth.GetUserID(c)

	user, err := h.service.Profile(c.Request.Context(), viewerID, id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Me returns the current user's public profile
// @Summary Get current user profile
// @Tags users
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} map[string]string "Authentication required"
// @Security BearerAuth
// @Router /users/me [get]
func (h *Handler) Me(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	user, err := h.service.Profile(c.Request.Context(), userID, userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetPassword changes the current user's password
// @Summary Change password
// @Tags users
// @Accept json
// @Param request body SetPasswordRequest true "Current and new password"
// @Success 204
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Security BearerAuth
// @Router /users/set_password [post]
func (h *Handler) SetPassword(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, validation.Translate(err))
		return
	}

	if err := h.service.SetPassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Subscriptions lists the authors the current user follows
// @Summary List subscriptions
// @Tags users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param recipes_limit query int false "Maximum recipes per author"
// @Success 200 {object} pagination.Page[SubscriptionResponse]
// @Security BearerAuth
// @Router /users/subscriptions [get]
func (h *Handler) Subscriptions(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	p, err := pagination.Parse(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	limit, err := recipesLimit(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	subs, count, err := h.service.Subscriptions(c.Request.Context(), userID, p, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, pagination.NewPage(c, p, count, subs))
}

// Subscribe follows an author
// @Summary Subscribe to an author
// @Tags users
// @Produce json
// @Param id path int true "Author ID"
// @Param recipes_limit query int false "Maximum recipes in the response"
// @Success 201 {object} SubscriptionResponse
// @Failure 400 {object} map[string]interface{} "Cannot follow yourself or already following"
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /users/{id}/subscribe [post]
func (h *Handler) Subscribe(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	authorID, ok := ParseID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	limit, err := recipesLimit(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	author, err := h.service.Follow(c.Request.Context(), userID, authorID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	sub, err := h.service.Subscription(c.Request.Context(), *author, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// Unsubscribe stops following an author
// @Summary Unsubscribe from an author
// @Tags users
// @Param id path int true "Author ID"
// @Success 204
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /users/{id}/subscribe [delete]
func (h *Handler) Unsubscribe(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	authorID, ok := ParseID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := h.service.Unfollow(c.Request.Context(), userID, authorID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers user routes. The group must run
// tokens.OptionalAuthMiddleware so viewers are known on public reads.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.GET("", h.List)
	users.POST("", h.Create)
	users.GET("/me", tokens.RequireUser(), h.Me)
	users.POST("/set_password", tokens.RequireUser(), h.SetPassword)
	users.GET("/subscriptions", tokens.RequireUser(), h.Subscriptions)
	users.GET("/:id", h.Get)
	users.POST("/:id/subscribe", tokens.RequireUser(), h.Subscribe)
	users.DELETE("/:id/subscribe", tokens.RequireUser(), h.Unsubscribe)
}
