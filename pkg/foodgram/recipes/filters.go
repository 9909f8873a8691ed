package recipes

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/apperrors"
	"github.com/mikepea/foodgram/pkg/foodgram/models"
)

// Filter narrows the recipe list. Zero values disable a criterion.
type Filter struct {
	AuthorID         uint
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
}

// ParseFilter reads author, tags (repeated), is_favorited and
// is_in_shopping_cart from the query string.
func ParseFilter(c *gin.Context) (Filter, error) {
	var f Filter
	verr := &apperrors.ValidationError{}

	if raw := c.Query("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			verr.Add("author", "Must be a positive integer")
		}
		f.AuthorID = uint(id)
	}

	for _, raw := range c.QueryArray("tags") {
		for _, slug := range strings.Split(raw, ",") {
			if slug = strings.TrimSpace(slug); slug != "" {
				f.TagSlugs = append(f.TagSlugs, slug)
			}
		}
	}

	var err error
	if f.IsFavorited, err = parseFlag(c.Query("is_favorited")); err != nil {
		verr.Add("is_favorited", "Must be 0 or 1")
	}
	if f.IsInShoppingCart, err = parseFlag(c.Query("is_in_shopping_cart")); err != nil {
		verr.Add("is_in_shopping_cart", "Must be 0 or 1")
	}

	return f, verr.OrNil()
}

func parseFlag(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "", "0", "false":
		return false, nil
	case "1", "true":
		return true, nil
	default:
		return false, strconv.ErrSyntax
	}
}

// Apply adds the filter conditions to query. Subqueries are built from root
// so they do not share query's statement. Tags match if the recipe has any
// of them; the favorite and cart flags are ignored for anonymous viewers.
func (f Filter) Apply(root, query *gorm.DB, viewerID uint) *gorm.DB {
	if f.AuthorID != 0 {
		query = query.Where("recipes.author_id = ?", f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		tagged := root.Model(&models.RecipeTag{}).
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if viewerID == 0 {
		return query
	}
	if f.IsFavorited {
		query = query.Where("recipes.id IN (?)", root.Model(&models.Favorite{}).
			Select("recipe_id").
			Where("user_id = ?", viewerID))
	}
	if f.IsInShoppingCart {
		query = query.Where("recipes.id IN (?)", root.Model(&models.CartEntry{}).
			Select("recipe_id").
			Where("user_id = ?", viewerID))
	}
	return query
}
