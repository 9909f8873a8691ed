// Package admin is the administrator console: catalog management, user
// management and site statistics.
package admin

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/apperrors"
	"github.com/mikepea/foodgram/pkg/foodgram/auth"
	"github.com/mikepea/foodgram/pkg/foodgram/importexport"
	"github.com/mikepea/foodgram/pkg/foodgram/ingredients"
	"github.com/mikepea/foodgram/pkg/foodgram/logging"
	"github.com/mikepea/foodgram/pkg/foodgram/models"
	"github.com/mikepea/foodgram/pkg/foodgram/recipes"
	"github.com/mikepea/foodgram/pkg/foodgram/storage"
	"github.com/mikepea/foodgram/pkg/foodgram/tags"
	"github.com/mikepea/foodgram/pkg/foodgram/tokens"
	"github.com/mikepea/foodgram/pkg/foodgram/users"
	"github.com/mikepea/foodgram/pkg/foodgram/validation"
)

// Handler handles admin requests
type Handler struct {
	db    *gorm.DB
	store storage.Store
}

// NewHandler creates a new admin handler. Images of recipes removed with
// a user are deleted from store.
func NewHandler(db *gorm.DB, store storage.Store) *Handler {
	return &Handler{db: db, store: store}
}

// UserResponse represents user data in admin responses
type UserResponse struct {
	ID              uint   `json:"id"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	SystemRole      string `json:"system_role"`
	CreatedAt       string `json:"created_at"`
	RecipeCount     int64  `json:"recipe_count"`
	SubscriberCount int64  `json:"subscriber_count"`
}

// UpdateUserRequest represents the request to update a user
type UpdateUserRequest struct {
	FirstName  *string `json:"first_name" binding:"omitempty,max=150"`
	LastName   *string `json:"last_name" binding:"omitempty,max=150"`
	SystemRole *string `json:"system_role" binding:"omitempty,oneof=admin user"`
}

// StatsResponse represents site statistics
type StatsResponse struct {
	TotalUsers       int64 `json:"total_users"`
	AdminUsers       int64 `json:"admin_users"`
	TotalRecipes     int64 `json:"total_recipes"`
	TotalTags        int64 `json:"total_tags"`
	TotalIngredients int64 `json:"total_ingredients"`
	TotalFavorites   int64 `json:"total_favorites"`
	TotalCartEntries int64 `json:"total_cart_entries"`
	TotalFollowings  int64 `json:"total_followings"`
	ActiveTokens     int64 `json:"active_tokens"`
}

func (h *Handler) userResponse(ctx context.Context, user models.User) UserResponse {
	db := h.db.WithContext(ctx)
	var recipeCount, subscriberCount int64
	db.Model(&models.Recipe{}).Where("author_id = ?", user.ID).Count(&recipeCount)
	db.Model(&models.Following{}).Where("author_id = ?", user.ID).Count(&subscriberCount)

	return UserResponse{
		ID:              user.ID,
		Email:           user.Email,
		Username:        user.Username,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		SystemRole:      string(user.SystemRole),
		CreatedAt:       user.CreatedAt.UTC().Format(time.RFC3339),
		RecipeCount:     recipeCount,
		SubscriberCount: subscriberCount,
	}
}

func (h *Handler) findUser(c *gin.Context) (*models.User, bool) {
	id, ok := users.ParseID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return nil, false
	}
	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, id).Error; err != nil {
		apperrors.Respond(c, notFound(err))
		return nil, false
	}
	return &user, true
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("User")
	}
	return err
}

// ListUsers returns all users (admin only)
// @Summary List users with counts
// @Tags admin
// @Produce json
// @Param q query string false "Search email or username"
// @Param role query string false "Filter by system role"
// @Success 200 {array} UserResponse
// @Security BearerAuth
// @Router /admin/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()
	query := h.db.WithContext(ctx).Order("created_at DESC")

	if search := strings.TrimSpace(c.Query("q")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(username) LIKE ?", like, like)
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("system_role = ?", role)
	}

	var list []models.User
	if err := query.Find(&list).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	responses := make([]UserResponse, len(list))
	for i, user := range list {
		responses[i] = h.userResponse(ctx, user)
	}
	c.JSON(http.StatusOK, responses)
}

// GetUser returns a single user by ID (admin only)
// @Summary Get a user
// @Tags admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} UserResponse
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /admin/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	user, ok := h.findUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.userResponse(c.Request.Context(), *user))
}

// UpdateUser updates a user's name or role (admin only)
// @Summary Update a user
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body UpdateUserRequest true "Fields to change"
// @Success 200 {object} UserResponse
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /admin/users/{id} [put]
func (h *Handler) UpdateUser(c *gin.Context) {
	user, ok := h.findUser(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, validation.Translate(err))
		return
	}

	currentUserID, _ := auth.GetUserID(c)
	if user.ID == currentUserID && req.SystemRole != nil && *req.SystemRole != string(models.SystemRoleAdmin) {
		apperrors.Respond(c, apperrors.NewValidationError("system_role", "Cannot demote yourself"))
		return
	}

	updates := make(map[string]interface{})
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.SystemRole != nil {
		updates["system_role"] = *req.SystemRole
	}

	ctx := c.Request.Context()
	if len(updates) > 0 {
		if err := h.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			apperrors.Respond(c, err)
			return
		}
		logging.Ctx(ctx).Info().Uint("target_user_id", user.ID).Msg("User updated by admin")
	}

	h.db.WithContext(ctx).First(user, user.ID)
	c.JSON(http.StatusOK, h.userResponse(ctx, *user))
}

// DeleteUser deletes a user with their recipes and relations (admin only)
// @Summary Delete a user
// @Tags admin
// @Param id path int true "User ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]interface{} "Cannot delete yourself"
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	user, ok := h.findUser(c)
	if !ok {
		return
	}

	currentUserID, _ := auth.GetUserID(c)
	if user.ID == currentUserID {
		apperrors.Respond(c, apperrors.NewValidationError("id", "Cannot delete yourself"))
		return
	}

	ctx := c.Request.Context()
	var owned []models.Recipe
	if err := h.db.WithContext(ctx).Select("id", "image").Where("author_id = ?", user.ID).Find(&owned).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}
	recipeIDs := make([]uint, len(owned))
	for i, r := range owned {
		recipeIDs[i] = r.ID
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := recipes.DeleteCascade(tx, recipeIDs); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.CartEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("subscriber_id = ? OR author_id = ?", user.ID, user.ID).Delete(&models.Following{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.AuthToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	for _, r := range owned {
		if err := h.store.Delete(ctx, r.Image); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("image", r.Image).Msg("Failed to remove recipe image")
		}
	}
	logging.Ctx(ctx).Info().Uint("target_user_id", user.ID).Int("recipes", len(owned)).Msg("User deleted by admin")
	c.Status(http.StatusNoContent)
}

// GetStats returns site-wide statistics (admin only)
// @Summary Site statistics
// @Tags admin
// @Produce json
// @Success 200 {object} StatsResponse
// @Security BearerAuth
// @Router /admin/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	db := h.db.WithContext(c.Request.Context())
	var stats StatsResponse

	db.Model(&models.User{}).Count(&stats.TotalUsers)
	db.Model(&models.User{}).Where("system_role = ?", models.SystemRoleAdmin).Count(&stats.AdminUsers)
	db.Model(&models.Recipe{}).Count(&stats.TotalRecipes)
	db.Model(&models.Tag{}).Count(&stats.TotalTags)
	db.Model(&models.Ingredient{}).Count(&stats.TotalIngredients)
	db.Model(&models.Favorite{}).Count(&stats.TotalFavorites)
	db.Model(&models.CartEntry{}).Count(&stats.TotalCartEntries)
	db.Model(&models.Following{}).Count(&stats.TotalFollowings)
	db.Model(&models.AuthToken{}).Count(&stats.ActiveTokens)

	c.JSON(http.StatusOK, stats)
}

// RegisterRoutes registers admin routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats", h.GetStats)
	rg.GET("/users", h.ListUsers)
	rg.GET("/users/:id", h.GetUser)
	rg.PUT("/users/:id", h.UpdateUser)
	rg.DELETE("/users/:id", h.DeleteUser)
}

// Mount registers the whole admin console under /admin, restricted to
// administrators authenticated with a JWT. The role is checked against the
// stored user, not the token claims.
func Mount(rg *gin.RouterGroup, db *gorm.DB, store storage.Store) {
	group := rg.Group("/admin")
	group.Use(auth.AuthMiddleware(), tokens.ActiveUser(db), auth.RequireAdmin())

	NewHandler(db, store).RegisterRoutes(group)
	tags.NewHandler(db).RegisterAdminRoutes(group)
	ingredients.NewHandler(db).RegisterAdminRoutes(group)
	importexport.NewHandler(db).RegisterRoutes(group)
}
