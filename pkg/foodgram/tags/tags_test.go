package tags

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/database"
	"github.com/mikepea/foodgram/pkg/foodgram/models"
	"github.com/mikepea/foodgram/pkg/foodgram/validation"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.Open(database.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func createTestTag(t *testing.T, db *gorm.DB, name, color, slug string) models.Tag {
	tag := models.Tag{Name: name, Color: color, Slug: slug}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("Failed to create test tag: %v", err)
	}
	return tag
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validation.Register()
	r := gin.New()
	h := NewHandler(db)
	h.RegisterRoutes(r.Group("/api"))
	h.RegisterAdminRoutes(r.Group("/api/admin"))
	return r
}

func send(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListTagsOrderedByName(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createTestTag(t, db, "Lunch", "#49B64E", "lunch")
	createTestTag(t, db, "Breakfast", "#E26C2D", "breakfast")

	w := send(router, "GET", "/api/tags", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var tags []TagResponse
	json.Unmarshal(w.Body.Bytes(), &tags)
	if len(tags) != 2 {
		t.Fatalf("Expected 2 tags, got %d", len(tags))
	}
	if tags[0].Slug != "breakfast" || tags[1].Slug != "lunch" {
		t.Errorf("Expected tags ordered by name, got %+v", tags)
	}
}

func TestGetTag(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	tag := createTestTag(t, db, "Dinner", "#8775D2", "dinner")

	w := send(router, "GET", fmt.Sprintf("/api/tags/%d", tag.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp TagResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Color != "#8775D2" {
		t.Errorf("Expected color #8775D2, got %s", resp.Color)
	}

	if w := send(router, "GET", "/api/tags/999", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCreateTag(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	w := send(router, "POST", "/api/admin/tags", TagRequest{Name: "Dessert", Color: "#ff00aa", Slug: "dessert"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp TagResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Color != "#FF00AA" {
		t.Errorf("Expected upper-cased color, got %s", resp.Color)
	}

	// Duplicate slug
	w = send(router, "POST", "/api/admin/tags", TagRequest{Name: "Other", Color: "#000000", Slug: "dessert"})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestCreateTagValidation(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	w := send(router, "POST", "/api/admin/tags", TagRequest{Name: "Bad", Color: "red", Slug: "bad slug"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	var resp struct {
		Fields map[string][]string `json:"fields"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if _, ok := resp.Fields["color"]; !ok {
		t.Errorf("Expected color error, got %v", resp.Fields)
	}
	if _, ok := resp.Fields["slug"]; !ok {
		t.Errorf("Expected slug error, got %v", resp.Fields)
	}
}

func TestUpdateTag(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	tag := createTestTag(t, db, "Dinner", "#8775D2", "dinner")

	w := send(router, "PUT", fmt.Sprintf("/api/admin/tags/%d", tag.ID), TagRequest{Name: "Supper", Color: "#8775D2", Slug: "supper"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var reloaded models.Tag
	db.First(&reloaded, tag.ID)
	if reloaded.Slug != "supper" || reloaded.Name != "Supper" {
		t.Errorf("Expected tag to be updated, got %+v", reloaded)
	}
}

func TestDeleteTagDetachesRecipes(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	tag := createTestTag(t, db, "Dinner", "#8775D2", "dinner")
	author := models.User{Email: "a@example.com", Username: "a", PasswordHash: "x"}
	db.Create(&author)
	recipe := models.Recipe{AuthorID: author.ID, Name: "Stew", Image: "x", Text: "t", CookingTime: 60}
	db.Create(&recipe)
	db.Create(&models.RecipeTag{RecipeID: recipe.ID, TagID: tag.ID})

	w := send(router, "DELETE", fmt.Sprintf("/api/admin/tags/%d", tag.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", w.Code)
	}

	var links int64
	db.Model(&models.RecipeTag{}).Count(&links)
	if links != 0 {
		t.Errorf("Expected recipe_tags to be cleared, got %d", links)
	}

	if w := send(router, "DELETE", fmt.Sprintf("/api/admin/tags/%d", tag.ID), nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", w.Code)
	}
}
