package tokens

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/auth"
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

func createTestUser(t *testing.T, db *gorm.DB) models.User {
	hash, _ := auth.HashPassword("password123")
	user := models.User{
		Email:        "cook@example.com",
		Username:     "cook",
		FirstName:    "Test",
		LastName:     "Cook",
		PasswordHash: hash,
		SystemRole:   models.SystemRoleUser,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validation.Register()
	r := gin.New()
	NewHandler(db).RegisterRoutes(r.Group("/auth"))

	whoami := func(c *gin.Context) {
		id, ok := auth.GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "authenticated": ok})
	}
	r.GET("/private", CombinedAuthMiddleware(db), whoami)
	r.GET("/public", OptionalAuthMiddleware(db), whoami)
	r.GET("/mixed", OptionalAuthMiddleware(db), RequireUser(), whoami)
	return r
}

func login(t *testing.T, router *gin.Engine) string {
	body, _ := json.Marshal(LoginRequest{Email: "cook@example.com", Password: "password123"})
	req, _ := http.NewRequest("POST", "/auth/token/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var response LoginResponse
	json.Unmarshal(resp.Body.Bytes(), &response)
	return response.AuthToken
}

func get(router *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestTokenLoginStoresHash(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db)
	router := setupTestRouter(db)

	key := login(t, router)
	if len(key) != KeyLength*2 {
		t.Fatalf("Expected %d char key, got %q", KeyLength*2, key)
	}

	var stored models.AuthToken
	db.First(&stored)
	if stored.KeyHash == key {
		t.Error("Key must not be stored in plain text")
	}
	if stored.KeyPrefix != key[:KeyPrefixLength] {
		t.Errorf("Expected prefix %s, got %s", key[:KeyPrefixLength], stored.KeyPrefix)
	}
}

func TestTokenLoginWrongPassword(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db)
	router := setupTestRouter(db)

	body, _ := json.Marshal(LoginRequest{Email: "cook@example.com", Password: "nope"})
	req, _ := http.NewRequest("POST", "/auth/token/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}
}

func TestCombinedAuthAcceptsBothSchemes(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	router := setupTestRouter(db)

	key := login(t, router)
	jwt, _ := auth.GenerateToken(user.ID, user.Email, string(user.SystemRole))

	for _, header := range []string{"Token " + key, "Bearer " + key, "Bearer " + jwt} {
		resp := get(router, "/private", header)
		if resp.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d: %s", header[:6], resp.Code, resp.Body.String())
		}
	}

	var stored models.AuthToken
	db.First(&stored)
	if stored.LastUsedAt == nil {
		t.Error("Expected last_used_at to be set after token use")
	}
}

func TestCombinedAuthRejects(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	for _, header := range []string{"", "Token deadbeef", "Basic abc", "Bearer a.b.c"} {
		resp := get(router, "/private", header)
		if resp.Code != http.StatusUnauthorized {
			t.Errorf("%q: expected status 401, got %d", header, resp.Code)
		}
	}
}

func TestOptionalAuth(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db)
	router := setupTestRouter(db)

	resp := get(router, "/public", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected anonymous access, got %d", resp.Code)
	}
	var body map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &body)
	if body["authenticated"] != false {
		t.Error("Expected anonymous request")
	}

	if resp := get(router, "/public", "Token bogus"); resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected invalid credentials to be rejected, got %d", resp.Code)
	}

	if resp := get(router, "/mixed", ""); resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected RequireUser to reject anonymous, got %d", resp.Code)
	}

	key := login(t, router)
	if resp := get(router, "/mixed", "Token "+key); resp.Code != http.StatusOK {
		t.Errorf("Expected authenticated access, got %d", resp.Code)
	}
}

func TestTokenLogout(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db)
	router := setupTestRouter(db)

	key := login(t, router)

	req, _ := http.NewRequest("POST", "/auth/token/logout", nil)
	req.Header.Set("Authorization", "Token "+key)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", resp.Code)
	}

	if resp := get(router, "/private", "Token "+key); resp.Code != http.StatusUnauthorized {
		t.Errorf("Expected revoked token to be rejected, got %d", resp.Code)
	}
}

func TestDeletedUserCredentialsRejected(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	router := setupTestRouter(db)

	key := login(t, router)
	jwt, _ := auth.GenerateToken(user.ID, user.Email, string(user.SystemRole))

	if err := db.Delete(&user).Error; err != nil {
		t.Fatalf("Failed to delete user: %v", err)
	}

	for _, header := range []string{"Bearer " + jwt, "Token " + key} {
		for _, path := range []string{"/private", "/public", "/mixed"} {
			resp := get(router, path, header)
			if resp.Code != http.StatusUnauthorized {
				t.Errorf("%s %s: expected status 401, got %d", path, header[:6], resp.Code)
				continue
			}
			var body map[string]string
			json.Unmarshal(resp.Body.Bytes(), &body)
			if body["error"] != "User not found" {
				t.Errorf("%s %s: expected 'User not found', got %q", path, header[:6], body["error"])
			}
		}
	}
}

func TestJWTRoleComesFromDatabase(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/role", CombinedAuthMiddleware(db), func(c *gin.Context) {
		role, _ := c.Get(auth.ContextKeySystemRole)
		c.JSON(http.StatusOK, gin.H{"role": role})
	})

	jwt, _ := auth.GenerateToken(user.ID, user.Email, string(models.SystemRoleAdmin))
	resp := get(r, "/role", "Bearer "+jwt)
	var body map[string]string
	json.Unmarshal(resp.Body.Bytes(), &body)
	if body["role"] != string(models.SystemRoleUser) {
		t.Errorf("Expected stored role %q, got %q", models.SystemRoleUser, body["role"])
	}
}
