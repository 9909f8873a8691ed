package importexport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/apperrors"
	"github.com/mikepea/foodgram/pkg/foodgram/models"
	"github.com/mikepea/foodgram/pkg/foodgram/validation"
)

// Handler serves catalog import and export for administrators
type Handler struct {
	db       *gorm.DB
	importer *Importer
}

// NewHandler creates a new import/export handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db, importer: NewImporter(db)}
}

// ImportIngredients loads ingredients from a JSON array
// @Summary Import ingredients
// @Tags admin
// @Accept json
// @Produce json
// @Param request body []IngredientRecord true "Ingredients"
// @Success 200 {object} Result
// @Failure 400 {object} map[string]interface{} "Malformed body"
// @Security BearerAuth
// @Router /admin/ingredients/import [post]
func (h *Handler) ImportIngredients(c *gin.Context) {
	var records []IngredientRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		apperrors.Respond(c, validation.Translate(err))
		return
	}

	res, err := h.importer.ImportIngredients(c.Request.Context(), records)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ImportTags loads tags from a JSON array
// @Summary Import tags
// @Tags admin
// @Accept json
// @Produce json
// @Param request body []TagRecord true "Tags"
// @Success 200 {object} Result
// @Failure 400 {object} map[string]interface{} "Malformed body"
// @Security BearerAuth
// @Router /admin/tags/import [post]
func (h *Handler) ImportTags(c *gin.Context) {
	var records []TagRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		apperrors.Respond(c, validation.Translate(err))
		return
	}

	res, err := h.importer.ImportTags(c.Request.Context(), records)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ExportIngredients dumps the ingredient catalog as a JSON attachment
// @Summary Export ingredients
// @Tags admin
// @Produce json
// @Success 200 {array} IngredientRecord
// @Security BearerAuth
// @Router /admin/ingredients/export [get]
func (h *Handler) ExportIngredients(c *gin.Context) {
	var ingredients []models.Ingredient
	if err := h.db.WithContext(c.Request.Context()).Order("name").Find(&ingredients).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	records := make([]IngredientRecord, len(ingredients))
	for i, ing := range ingredients {
		records[i] = IngredientRecord{Name: ing.Name, MeasurementUnit: ing.MeasurementUnit}
	}
	c.Header("Content-Disposition", `attachment; filename="ingredients.json"`)
	c.JSON(http.StatusOK, records)
}

// ExportTags dumps all tags as a JSON attachment
// @Summary Export tags
// @Tags admin
// @Produce json
// @Success 200 {array} TagRecord
// @Security BearerAuth
// @Router /admin/tags/export [get]
func (h *Handler) ExportTags(c *gin.Context) {
	var tags []models.Tag
	if err := h.db.WithContext(c.Request.Context()).Order("name").Find(&tags).Error; err != nil {
		apperrors.Respond(c, err)
		return
	}

	records := make([]TagRecord, len(tags))
	for i, tag := range tags {
		records[i] = TagRecord{Name: tag.Name, Color: tag.Color, Slug: tag.Slug}
	}
	c.Header("Content-Disposition", `attachment; filename="tags.json"`)
	c.JSON(http.StatusOK, records)
}

// RegisterRoutes registers import/export routes on an admin group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ingredients/import", h.ImportIngredients)
	rg.GET("/ingredients/export", h.ExportIngredients)
	rg.POST("/tags/import", h.ImportTags)
	rg.GET("/tags/export", h.ExportTags)
}
