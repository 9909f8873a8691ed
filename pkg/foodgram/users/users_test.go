package users

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/auth"
	"github.com/mikepea/foodgram/pkg/foodgram/database"
	"github.com/mikepea/foodgram/pkg/foodgram/models"
	"github.com/mikepea/foodgram/pkg/foodgram/pagination"
	"github.com/mikepea/foodgram/pkg/foodgram/tokens"
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

func createTestUser(t *testing.T, db *gorm.DB, username string) models.User {
	hash, _ := auth.HashPassword("password123")
	user := models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "First",
		LastName:     "Last",
		PasswordHash: hash,
		SystemRole:   models.SystemRoleUser,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func createRecipes(t *testing.T, db *gorm.DB, author models.User, n int) {
	for i := 0; i < n; i++ {
		recipe := models.Recipe{
			AuthorID:    author.ID,
			Name:        fmt.Sprintf("%s recipe %d", author.Username, i),
			Image:       "/media/recipes/x.png",
			Text:        "text",
			CookingTime: 10,
		}
		if err := db.Create(&recipe).Error; err != nil {
			t.Fatalf("Failed to create recipe: %v", err)
		}
	}
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validation.Register()
	pagination.Configure(pagination.DefaultPageSize, pagination.DefaultMaxSize, "")
	r := gin.New()
	api := r.Group("/api")
	api.Use(tokens.OptionalAuthMiddleware(db))
	NewHandler(db).RegisterRoutes(api)
	return r
}

func getAuthHeader(user models.User) string {
	token, _ := auth.GenerateToken(user.ID, user.Email, string(user.SystemRole))
	return "Bearer " + token
}

func do(router *gin.Engine, method, path string, user *models.User, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", getAuthHeader(*user))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAndListUsers(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	w := do(router, "POST", "/api/users", nil, auth.RegisterRequest{
		Email: "new@example.com", Username: "newbie", FirstName: "New", LastName: "Cook", Password: "password123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	createTestUser(t, db, "second")

	w = do(router, "GET", "/api/users", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var page pagination.Page[UserResponse]
	json.Unmarshal(w.Body.Bytes(), &page)
	if page.Count != 2 || len(page.Results) != 2 {
		t.Errorf("Expected 2 users, got count=%d len=%d", page.Count, len(page.Results))
	}
}

func TestGetUserIsSubscribed(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	reader := createTestUser(t, db, "reader")
	author := createTestUser(t, db, "author")
	db.Create(&models.Following{SubscriberID: reader.ID, AuthorID: author.ID})

	path := fmt.Sprintf("/api/users/%d", author.ID)

	var profile UserResponse
	json.Unmarshal(do(router, "GET", path, &reader, nil).Body.Bytes(), &profile)
	if !profile.IsSubscribed {
		t.Error("Expected is_subscribed to be true for follower")
	}

	profile = UserResponse{}
	json.Unmarshal(do(router, "GET", path, nil, nil).Body.Bytes(), &profile)
	if profile.IsSubscribed {
		t.Error("Expected is_subscribed to be false for anonymous viewer")
	}
	if profile.Username != "author" {
		t.Errorf("Expected username author, got %s", profile.Username)
	}

	if w := do(router, "GET", "/api/users/999", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestMeRequiresAuth(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "me")

	if w := do(router, "GET", "/api/users/me", nil, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}

	w := do(router, "GET", "/api/users/me", &user, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var profile UserResponse
	json.Unmarshal(w.Body.Bytes(), &profile)
	if profile.ID != user.ID {
		t.Errorf("Expected id %d, got %d", user.ID, profile.ID)
	}
}

func TestSetPassword(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "cook")

	w := do(router, "POST", "/api/users/set_password", &user, SetPasswordRequest{CurrentPassword: "wrong", NewPassword: "newpassword1"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for wrong current password, got %d", w.Code)
	}

	w = do(router, "POST", "/api/users/set_password", &user, SetPasswordRequest{CurrentPassword: "password123", NewPassword: "newpassword1"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d: %s", w.Code, w.Body.String())
	}

	var reloaded models.User
	db.First(&reloaded, user.ID)
	if !auth.CheckPassword("newpassword1", reloaded.PasswordHash) {
		t.Error("Expected new password to be stored")
	}
}

func TestSubscribeFlow(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	reader := createTestUser(t, db, "reader")
	author := createTestUser(t, db, "author")
	createRecipes(t, db, author, 3)

	path := fmt.Sprintf("/api/users/%d/subscribe?recipes_limit=2", author.ID)

	w := do(router, "POST", path, &reader, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var sub SubscriptionResponse
	json.Unmarshal(w.Body.Bytes(), &sub)
	if !sub.IsSubscribed || sub.RecipesCount != 3 || len(sub.Recipes) != 2 {
		t.Errorf("Unexpected subscription response: %+v", sub)
	}

	// Second subscribe is rejected
	if w := do(router, "POST", path, &reader, nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for duplicate subscription, got %d", w.Code)
	}

	w = do(router, "GET", "/api/users/subscriptions?recipes_limit=1", &reader, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var page pagination.Page[SubscriptionResponse]
	json.Unmarshal(w.Body.Bytes(), &page)
	if page.Count != 1 || len(page.Results[0].Recipes) != 1 || page.Results[0].RecipesCount != 3 {
		t.Errorf("Unexpected subscriptions page: %+v", page)
	}

	if w := do(router, "DELETE", path, &reader, nil); w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	// Unsubscribing again is a silent no-op
	if w := do(router, "DELETE", path, &reader, nil); w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204 for repeated unsubscribe, got %d", w.Code)
	}

	var count int64
	db.Model(&models.Following{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no followings, got %d", count)
	}
}

func TestSubscribeErrors(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	reader := createTestUser(t, db, "reader")

	if w := do(router, "POST", fmt.Sprintf("/api/users/%d/subscribe", reader.ID), &reader, nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 when following yourself, got %d", w.Code)
	}
	if w := do(router, "POST", "/api/users/999/subscribe", &reader, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing author, got %d", w.Code)
	}
	if w := do(router, "POST", fmt.Sprintf("/api/users/%d/subscribe", reader.ID), nil, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for anonymous subscribe, got %d", w.Code)
	}
	if w := do(router, "GET", "/api/users/subscriptions?recipes_limit=abc", &reader, nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad recipes_limit, got %d", w.Code)
	}
}
