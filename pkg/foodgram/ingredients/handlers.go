package ingredients

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/apperrors"
	"github.com/mikepea/foodgram/pkg/foodgram/models"
	"github.com/mikepea/foodgram/pkg/foodgram/validation"
)

// Handler handles ingredient catalog requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new ingredients handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// IngredientResponse represents an ingredient in API responses
type IngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// IngredientRequest represents the request to add an ingredient
type IngredientRequest struct {
	Name            string `json:"name" binding:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" binding:"required,max=50"`
}

func NewIngredientResponse(ing models.Ingredient) IngredientResponse {
	return IngredientResponse{ID: ing.ID, Name: ing.Name, MeasurementUnit: ing.MeasurementUnit}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// NamePrefix filters ingredients whose name starts with prefix, ignoring case.
func NamePrefix(prefix string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" {
			return db
		}
		pattern := likeEscaper.Replace(strings.ToLower(prefix)) + "%"
		return db.Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern)
	}
}

// List returns the catalog, optionally filtered by name prefix
// @Summary List ingredients
// @Tags ingredients
// @Produce json
// @Param name query string false "Case-insensitive name prefix"
// @Success 200 {array} IngredientResponse
// @Router /ingredients [get]
func (h *Handler) List(c *gin.Context) {
	var ingredients []models.Ingredient
	if err := h.db.Scopes(NamePrefix(c.Query("name"))).Order("name").Find(&ingredients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ingredients"})
		return
	}

	responses := make([]IngredientResponse, len(ingredients))
	for i, ing := range ingredients {
		responses[i] = NewIngredientResponse(ing)
	}
	c.JSON(http.StatusOK, responses)
}

// Get returns a single ingredient
// @Summary Get an ingredient
// @Tags ingredients
// @Produce json
// @Param id path int true "Ingredient ID"
// @Success 200 {object} IngredientResponse
// @Failure 404 {object} map[string]string "Ingredient not found"
// @Router /ingredients/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ingredient not found"})
		return
	}

	var ing models.Ingredient
	if err := h.db.First(&ing, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ingredient not found"})
		return
	}
	c.JSON(http.StatusOK, NewIngredientResponse(ing))
}

// Create adds an ingredient to the catalog
// @Summary Create an ingredient
// @Tags admin
// @Accept json
// @Produce json
// @Param request body IngredientRequest true "Ingredient"
// @Success 201 {object} IngredientResponse
// @Failure 409 {object} map[string]string "Ingredient already exists"
// @Security BearerAuth
// @Router /admin/ingredients [post]
func (h *Handler) Create(c *gin.Context) {
	var req IngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, validation.Translate(err))
		return
	}

	ing := models.Ingredient{
		Name:            strings.TrimSpace(req.Name),
		MeasurementUnit: strings.TrimSpace(req.MeasurementUnit),
	}
	if err := h.db.Create(&ing).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			apperrors.Respond(c, apperrors.Conflictf("Ingredient %q already exists", ing.Name))
			return
		}
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewIngredientResponse(ing))
}

// Delete removes an unused ingredient
// @Summary Delete an ingredient
// @Tags admin
// @Param id path int true "Ingredient ID"
// @Success 204
// @Failure 404 {object} map[string]string "Ingredient not found"
// @Failure 409 {object} map[string]string "Ingredient is used by recipes"
// @Security BearerAuth
// @Router /admin/ingredients/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ingredient not found"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var ing models.Ingredient
		if err := tx.First(&ing, id).Error; err != nil {
			return apperrors.NotFound("Ingredient")
		}
		var used int64
		if err := tx.Model(&models.RecipeIngredient{}).Where("ingredient_id = ?", id).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return apperrors.Conflictf("Ingredient is used by %d recipe(s)", used)
		}
		return tx.Delete(&ing).Error
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers public ingredient routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ingredients", h.List)
	rg.GET("/ingredients/:id", h.Get)
}

// RegisterAdminRoutes registers ingredient management routes on an admin-only group
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/ingredients", h.Create)
	rg.DELETE("/ingredients/:id", h.Delete)
}
