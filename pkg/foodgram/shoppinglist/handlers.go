package shoppinglist

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/apperrors"
	"github.com/mikepea/foodgram/pkg/foodgram/auth"
	"github.com/mikepea/foodgram/pkg/foodgram/logging"
	"github.com/mikepea/foodgram/pkg/foodgram/metrics"
	"github.com/mikepea/foodgram/pkg/foodgram/tokens"
)

// Filename is the attachment name of the downloaded list.
const Filename = "shopping_list.csv"

// Handler serves the shopping list download
type Handler struct {
	builder *Builder
}

// NewHandler creates a new shopping list handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{builder: NewBuilder(db)}
}

// Download returns the aggregated shopping list as CSV
// @Summary Download the shopping list
// @Description Sums the ingredients of every recipe in the cart, grouped by name and unit.
// @Tags recipes
// @Produce text/csv
// @Success 200 {string} string "CSV file"
// @Failure 401 {object} map[string]string "Authentication required"
// @Security BearerAuth
// @Router /recipes/download_shopping_cart [get]
func (h *Handler) Download(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	items, err := h.builder.Build(c.Request.Context(), userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, items); err != nil {
		apperrors.Respond(c, err)
		return
	}

	metrics.ShoppingListExports.Inc()
	logging.Ctx(c.Request.Context()).Debug().Uint("user_id", userID).Int("items", len(items)).Msg("Shopping list exported")

	c.Header("Content-Disposition", `attachment; filename="`+Filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// RegisterRoutes registers the download route. The group must run
// tokens.OptionalAuthMiddleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/recipes/download_shopping_cart", tokens.RequireUser(), h.Download)
}
