package tags

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/apperrors"
	"github.com/mikepea/foodgram/pkg/foodgram/logging"
	"github.com/mikepea/foodgram/pkg/foodgram/models"
	"github.com/mikepea/foodgram/pkg/foodgram/validation"
)

// Handler handles tag-related requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new tags handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// TagResponse represents a tag in API responses
type TagResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

// TagRequest represents the request to create or replace a tag
type TagRequest struct {
	Name  string `json:"name" binding:"required,max=30"`
	Color string `json:"color" binding:"required,hexcolor,max=7"`
	Slug  string `json:"slug" binding:"required,max=30,slug"`
}

func NewTagResponse(tag models.Tag) TagResponse {
	return TagResponse{
		ID:    tag.ID,
		Name:  tag.Name,
		Color: tag.Color,
		Slug:  tag.Slug,
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// List returns all tags
// @Summary List tags
// @Tags tags
// @Produce json
// @Success 200 {array} TagResponse
// @Router /tags [get]
func (h *Handler) List(c *gin.Context) {
	var tags []models.Tag
	if err := h.db.Order("name").Find(&tags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
		return
	}

	responses := make([]TagResponse, len(tags))
	for i, tag := range tags {
		responses[i] = NewTagResponse(tag)
	}
	c.JSON(http.StatusOK, responses)
}

// Get returns a single tag
// @Summary Get a tag
// @Tags tags
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} TagResponse
// @Failure 404 {object} map[string]string "Tag not found"
// @Router /tags/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	var tag models.Tag
	if err := h.db.First(&tag, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}
	c.JSON(http.StatusOK, NewTagResponse(tag))
}

func normalize(req *TagRequest) {
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)
	req.Color = strings.ToUpper(strings.TrimSpace(req.Color))
}

// Create adds a tag
// @Summary Create a tag
// @Tags admin
// @Accept json
// @Produce json
// @Param request body TagRequest true "Tag"
// @Success 201 {object} TagResponse
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 409 {object} map[string]string "Name, color or slug already used"
// @Security BearerAuth
// @Router /admin/tags [post]
func (h *Handler) Create(c *gin.Context) {
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, validation.Translate(err))
		return
	}
	normalize(&req)

	tag := models.Tag{Name: req.Name, Color: req.Color, Slug: req.Slug}
	if err := h.db.Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			apperrors.Respond(c, apperrors.Conflictf("Tag name, color or slug already in use"))
			return
		}
		apperrors.Respond(c, err)
		return
	}

	logging.Ctx(c.Request.Context()).Info().Uint("tag_id", tag.ID).Str("slug", tag.Slug).Msg("Tag created")
	c.JSON(http.StatusCreated, NewTagResponse(tag))
}

// Update replaces a tag's fields
// @Summary Update a tag
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Tag ID"
// @Param request body TagRequest true "Tag"
// @Success 200 {object} TagResponse
// @Failure 404 {object} map[string]string "Tag not found"
// @Failure 409 {object} map[string]string "Name, color or slug already used"
// @Security BearerAuth
// @Router /admin/tags/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, validation.Translate(err))
		return
	}
	normalize(&req)

	var tag models.Tag
	if err := h.db.First(&tag, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	tag.Name, tag.Color, tag.Slug = req.Name, req.Color, req.Slug
	if err := h.db.Save(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			apperrors.Respond(c, apperrors.Conflictf("Tag name, color or slug already in use"))
			return
		}
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, NewTagResponse(tag))
}

// Delete removes a tag and detaches it from recipes
// @Summary Delete a tag
// @Tags admin
// @Param id path int true "Tag ID"
// @Success 204
// @Failure 404 {object} map[string]string "Tag not found"
// @Security BearerAuth
// @Router /admin/tags/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var tag models.Tag
		if err := tx.First(&tag, id).Error; err != nil {
			return err
		}
		if err := tx.Where("tag_id = ?", id).Delete(&models.RecipeTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
			return
		}
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers public tag routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tags", h.List)
	rg.GET("/tags/:id", h.Get)
}

// RegisterAdminRoutes registers tag management routes on an admin-only group
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/tags", h.Create)
	rg.PUT("/tags/:id", h.Update)
	rg.DELETE("/tags/:id", h.Delete)
}
