// Package apperrors defines the error kinds shared by services and the
// helper that maps them onto HTTP responses.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/logging"
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
)

// ValidationError carries field-level messages for a rejected payload.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns a ValidationError with a single field message.
func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// Add records a message for field.
func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], msg)
}

// Empty reports whether no messages were recorded.
func (v *ValidationError) Empty() bool {
	return len(v.Fields) == 0
}

// OrNil returns v when it holds messages and nil otherwise.
func (v *ValidationError) OrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(v.Fields[k], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// kindError attaches a client-facing message to one of the sentinel kinds.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// NotFound reports a missing entity, e.g. NotFound("Recipe") -> "Recipe not found".
func NotFound(entity string) error {
	return &kindError{kind: ErrNotFound, msg: entity + " not found"}
}

// Unauthenticated reports rejected or missing credentials with a reason.
func Unauthenticated(reason string) error {
	return &kindError{kind: ErrAuthenticationRequired, msg: reason}
}

// Permission reports a forbidden action with a reason.
func Permission(reason string) error {
	return &kindError{kind: ErrPermissionDenied, msg: reason}
}

// Conflictf reports a uniqueness conflict with a formatted reason.
func Conflictf(format string, args ...any) error {
	return &kindError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

// message returns the client-facing message carried by err, or fallback.
func message(err error, fallback string) string {
	var kerr *kindError
	if errors.As(err, &kerr) {
		return kerr.msg
	}
	return fallback
}

// Status returns the HTTP status for err.
func Status(err error) int {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes the JSON error body for err and aborts the request.
func Respond(c *gin.Context, err error) {
	status := Status(err)
	switch status {
	case http.StatusBadRequest:
		var verr *ValidationError
		errors.As(err, &verr)
		c.AbortWithStatusJSON(status, gin.H{"error": "Validation failed", "fields": verr.Fields})
	case http.StatusUnauthorized:
		c.AbortWithStatusJSON(status, gin.H{"error": message(err, "Authentication required")})
	case http.StatusNotFound:
		c.AbortWithStatusJSON(status, gin.H{"error": message(err, "Not found")})
	case http.StatusForbidden:
		c.AbortWithStatusJSON(status, gin.H{"error": message(err, "You do not have permission to perform this action")})
	case http.StatusConflict:
		c.AbortWithStatusJSON(status, gin.H{"error": message(err, "Already exists")})
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.AbortWithStatusJSON(status, gin.H{"error": "Internal server error"})
	}
}
