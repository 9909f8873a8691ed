// Package validation wires go-playground/validator into gin's binding engine
// and translates binding failures into field-level API errors.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/mikepea/foodgram/pkg/foodgram/apperrors"
)

var (
	registerOnce sync.Once
	slugPattern  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Register installs JSON field naming and the custom "slug" tag on gin's validator.
// It is safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		configure(v)
	})
}

// New returns a standalone validator configured like gin's engine, for
// validating values that do not come from a request body.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	configure(v)
	return v
}

func configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
}

// IsSlug reports whether s is a valid tag slug.
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

var messageTemplates = map[string]string{
	"required": "This field is required",
	"email":    "Enter a valid email address",
	"hexcolor": "Enter a valid HEX color, e.g. #E26C2D",
	"slug":     "Only letters, digits, hyphens and underscores are allowed",
	"dive":     "Invalid item",
}

var messageWithParam = map[string]string{
	"oneof": "Must be one of: %s",
	"gte":   "Must be greater than or equal to %s",
	"lte":   "Must be less than or equal to %s",
}

// Translate converts an error from ShouldBind* into a *apperrors.ValidationError.
// Errors that are not binding failures are returned unchanged.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := &apperrors.ValidationError{}
		for _, fe := range verrs {
			out.Add(fieldPath(fe), message(fe))
		}
		return out
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return apperrors.NewValidationError(field, fmt.Sprintf("Expected %s", typeErr.Type.String()))
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return apperrors.NewValidationError("body", "Malformed JSON body")
	}
	return apperrors.NewValidationError("body", err.Error())
}

// fieldPath drops the root struct name: RecipeRequest.ingredients[0].amount -> ingredients[0].amount
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	if msg, ok := messageTemplates[fe.Tag()]; ok {
		return msg
	}
	if tmpl, ok := messageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Param())
	}

	isString := fe.Kind() == reflect.String
	isSlice := fe.Kind() == reflect.Slice
	switch fe.Tag() {
	case "min":
		if isString {
			return fmt.Sprintf("Ensure this field has at least %s characters", fe.Param())
		}
		if isSlice {
			return fmt.Sprintf("Ensure this list has at least %s items", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("Ensure this field has no more than %s characters", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("Failed %s validation", fe.Tag())
	}
}
