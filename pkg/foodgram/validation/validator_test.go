package validation

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikepea/foodgram/pkg/foodgram/apperrors"
)

type ingredientAmount struct {
	ID     uint `json:"id" binding:"required"`
	Amount int  `json:"amount" binding:"required,min=1"`
}

type sampleRequest struct {
	Name        string             `json:"name" binding:"required,max=10"`
	Color       string             `json:"color" binding:"required,hexcolor"`
	Slug        string             `json:"slug" binding:"required,slug"`
	Ingredients []ingredientAmount `json:"ingredients" binding:"required,min=1,dive"`
}

func bind(t *testing.T, body string) error {
	Register()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var req sampleRequest
	return c.ShouldBindJSON(&req)
}

func TestTranslateFieldErrors(t *testing.T) {
	err := Translate(bind(t, `{"name":"far too long a name","color":"red","slug":"bad slug!","ingredients":[{"id":1,"amount":0}]}`))

	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "name")
	assert.Equal(t, []string{"Enter a valid HEX color, e.g. #E26C2D"}, verr.Fields["color"])
	assert.Contains(t, verr.Fields, "slug")
	assert.Contains(t, verr.Fields, "ingredients[0].amount")
}

func TestTranslateValidPayload(t *testing.T) {
	err := bind(t, `{"name":"Dinner","color":"#49B64E","slug":"dinner","ingredients":[{"id":1,"amount":2}]}`)
	assert.NoError(t, err)
	assert.NoError(t, Translate(err))
}

func TestTranslateMalformedJSON(t *testing.T) {
	err := Translate(bind(t, `{"name":`))

	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "body")
}

func TestTranslateTypeMismatch(t *testing.T) {
	err := Translate(bind(t, `{"name":"x","color":"#fff","slug":"x","ingredients":"nope"}`))

	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "ingredients")
}

func TestIsSlug(t *testing.T) {
	assert.True(t, IsSlug("quick_dinner-2"))
	assert.False(t, IsSlug("quick dinner"))
	assert.False(t, IsSlug(""))
}

func TestStandaloneValidator(t *testing.T) {
	v := New()
	type tag struct {
		Slug string `json:"slug" validate:"slug"`
	}
	assert.NoError(t, v.Struct(tag{Slug: "lunch"}))
	assert.Error(t, v.Struct(tag{Slug: "lunch!"}))
}
