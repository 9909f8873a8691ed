package recipes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/apperrors"
	"github.com/mikepea/foodgram/pkg/foodgram/auth"
	"github.com/mikepea/foodgram/pkg/foodgram/pagination"
	"github.com/mikepea/foodgram/pkg/foodgram/storage"
	"github.com/mikepea/foodgram/pkg/foodgram/tokens"
	"github.com/mikepea/foodgram/pkg/foodgram/users"
	"github.com/mikepea/foodgram/pkg/foodgram/validation"
)

// Handler handles recipe requests
type Handler struct {
	service *Service
}

// NewHandler creates a new recipes handler
func NewHandler(db *gorm.DB, store storage.Store) *Handler {
	return &Handler{service: NewService(db, store)}
}

// RecipeRequest represents the body of recipe create and update requests
type RecipeRequest struct {
	Name        string             `json:"name"`
	Image       string             `json:"image"`
	Text        string             `json:"text"`
	CookingTime int                `json:"cooking_time"`
	Tags        []uint             `json:"tags"`
	Ingredients []IngredientAmount `json:"ingredients"`
}

func (r RecipeRequest) input() RecipeInput {
	return RecipeInput{
		Name:        r.Name,
		Image:       r.Image,
		Text:        r.Text,
		CookingTime: r.CookingTime,
		Tags:        r.Tags,
		Ingredients: r.Ingredients,
	}
}

func recipeID(c *gin.Context) (uint, bool) {
	id, ok := users.ParseID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
	}
	return id, ok
}

func (h *Handler) respond(c *gin.Context, status int, viewerID uint, id uint) {
	ctx := c.Request.Context()
	recipe, err := h.service.Get(ctx, id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	resp, err := h.service.PresentOne(ctx, viewerID, recipe)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(status, resp)
}

// List returns recipes, newest first
// @Summary List recipes
// @Tags recipes
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param author query int false "Author ID"
// @Param tags query []string false "Tag slugs (any match)" collectionFormat(multi)
// @Param is_favorited query int false "Only the viewer's favorites (0 or 1)"
// @Param is_in_shopping_cart query int false "Only recipes in the viewer's cart (0 or 1)"
// @Success 200 {object} pagination.Page[RecipeResponse]
// @Router /recipes [get]
func (h *Handler) List(c *gin.Context) {
	p, err := pagination.Parse(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	filter, err := ParseFilter(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	viewerID, _ := auth.GetUserID(c)

	ctx := c.Request.Context()
	recipes, count, err := h.service.List(ctx, viewerID, filter, p)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	results, err := h.service.Present(ctx, viewerID, recipes)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, pagination.NewPage(c, p, count, results))
}

// Get returns a single recipe
// @Summary Get a recipe
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} RecipeResponse
// @Failure 404 {object} map[string]string "Recipe not found"
// @Router /recipes/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	viewerID, _ := auth.GetUserID(c)
	h.respond(c, http.StatusOK, viewerID, id)
}

// Create publishes a recipe
// @Summary Create a recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Param request body RecipeRequest true "Recipe"
// @Success 201 {object} RecipeResponse
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 401 {object} map[string]string "Authentication required"
// @Security BearerAuth
// @Router /recipes [post]
func (h *Handler) Create(c *gin.Context) {
	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, validation.Translate(err))
		return
	}
	userID, _ := auth.GetUserID(c)

	recipe, err := h.service.Create(c.Request.Context(), userID, req.input())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	resp, err := h.service.PresentOne(c.Request.Context(), userID, recipe)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Update replaces a recipe's content
// @Summary Update a recipe
// @Description Replaces fields, tags and ingredients. The image is kept when omitted.
// @Tags recipes
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param request body RecipeRequest true "Recipe"
// @Success 200 {object} RecipeResponse
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 404 {object} map[string]string "Recipe not found"
// @Security BearerAuth
// @Router /recipes/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, validation.Translate(err))
		return
	}
	userID, _ := auth.GetUserID(c)

	recipe, err := h.service.Update(c.Request.Context(), id, userID, req.input())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	resp, err := h.service.PresentOne(c.Request.Context(), userID, recipe)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete removes a recipe
// @Summary Delete a recipe
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string "Not the author"
// @Failure 404 {object} map[string]string "Recipe not found"
// @Security BearerAuth
// @Router /recipes/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	userID, _ := auth.GetUserID(c)

	if err := h.service.Delete(c.Request.Context(), id, userID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) add(rel *Relation) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := recipeID(c)
		if !ok {
			return
		}
		userID, _ := auth.GetUserID(c)

		recipe, err := rel.Add(c.Request.Context(), userID, id)
		if err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, users.NewShortRecipeResponse(*recipe))
	}
}

func (h *Handler) remove(rel *Relation) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := recipeID(c)
		if !ok {
			return
		}
		userID, _ := auth.GetUserID(c)

		if err := rel.Remove(c.Request.Context(), userID, id); err != nil {
			apperrors.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// AddFavorite marks a recipe as favorite
// @Summary Add a recipe to favorites
// @Description Adding an existing favorite succeeds without change.
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 201 {object} users.ShortRecipeResponse
// @Failure 404 {object} map[string]string "Recipe not found"
// @Security BearerAuth
// @Router /recipes/{id}/favorite [post]
func (h *Handler) AddFavorite(c *gin.Context) { h.add(h.service.Favorites)(c) }

// RemoveFavorite unmarks a favorite recipe
// @Summary Remove a recipe from favorites
// @Description Removing a recipe that is not a favorite succeeds without change.
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Recipe not found"
// @Security BearerAuth
// @Router /recipes/{id}/favorite [delete]
func (h *Handler) RemoveFavorite(c *gin.Context) { h.remove(h.service.Favorites)(c) }

// AddToCart puts a recipe into the shopping cart
// @Summary Add a recipe to the shopping cart
// @Description Adding a recipe already in the cart succeeds without change.
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 201 {object} users.ShortRecipeResponse
// @Failure 404 {object} map[string]string "Recipe not found"
// @Security BearerAuth
// @Router /recipes/{id}/shopping_cart [post]
func (h *Handler) AddToCart(c *gin.Context) { h.add(h.service.Cart)(c) }

// RemoveFromCart takes a recipe out of the shopping cart
// @Summary Remove a recipe from the shopping cart
// @Description Removing a recipe that is not in the cart succeeds without change.
// @Tags recipes
// @Param id path int true "Recipe ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Recipe not found"
// @Security BearerAuth
// @Router /recipes/{id}/shopping_cart [delete]
func (h *Handler) RemoveFromCart(c *gin.Context) { h.remove(h.service.Cart)(c) }

// RegisterRoutes registers recipe routes. The group must run
// tokens.OptionalAuthMiddleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	recipes := rg.Group("/recipes")
	recipes.GET("", h.List)
	recipes.POST("", tokens.RequireUser(), h.Create)
	recipes.GET("/:id", h.Get)
	recipes.PATCH("/:id", tokens.RequireUser(), h.Update)
	recipes.DELETE("/:id", tokens.RequireUser(), h.Delete)
	recipes.POST("/:id/favorite", tokens.RequireUser(), h.AddFavorite)
	recipes.DELETE("/:id/favorite", tokens.RequireUser(), h.RemoveFavorite)
	recipes.POST("/:id/shopping_cart", tokens.RequireUser(), h.AddToCart)
	recipes.DELETE("/:id/shopping_cart", tokens.RequireUser(), h.RemoveFromCart)
}
