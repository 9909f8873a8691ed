package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("cooking_time", "must be at least 1"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("create recipe: %w", NewValidationError("tags", "required")), http.StatusBadRequest},
		{"unauthenticated", ErrAuthenticationRequired, http.StatusUnauthorized},
		{"permission", Permission("only the author can edit this recipe"), http.StatusForbidden},
		{"not found", NotFound("recipe"), http.StatusNotFound},
		{"gorm not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), http.StatusNotFound},
		{"conflict", Conflictf("tag %q already exists", "dinner"), http.StatusConflict},
		{"duplicated key", gorm.ErrDuplicatedKey, http.StatusConflict},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestValidationErrorAccumulates(t *testing.T) {
	v := &ValidationError{}
	assert.True(t, v.Empty())
	assert.NoError(t, v.OrNil())

	v.Add("ingredients", "duplicate ingredient")
	v.Add("ingredients", "amount must be at least 1")
	v.Add("tags", "required")

	require.Error(t, v.OrNil())
	assert.Len(t, v.Fields["ingredients"], 2)
	assert.Equal(t, "validation failed: ingredients: duplicate ingredient; amount must be at least 1, tags: required", v.Error())
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", NewValidationError("tags", "required"), http.StatusBadRequest, "Validation failed"},
		{"unauthenticated", ErrAuthenticationRequired, http.StatusUnauthorized, "Authentication required"},
		{"rejected credentials", Unauthenticated("Token has expired"), http.StatusUnauthorized, "Token has expired"},
		{"not found", fmt.Errorf("load recipe: %w", NotFound("Recipe")), http.StatusNotFound, "Recipe not found"},
		{"gorm not found", gorm.ErrRecordNotFound, http.StatusNotFound, "Not found"},
		{"conflict", Conflictf("Tag %q already exists", "dinner"), http.StatusConflict, `Tag "dinner" already exists`},
		{"forbidden", Permission("Only the author can edit this recipe"), http.StatusForbidden, "Only the author can edit this recipe"},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/recipes/1", nil)

			Respond(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["error"])
			if tt.status == http.StatusBadRequest {
				assert.Contains(t, body, "fields")
			}
		})
	}
}
