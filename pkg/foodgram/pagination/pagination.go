// Package pagination implements page-number pagination with the
// {"count","next","previous","results"} response envelope.
package pagination

import (
	"math"
	"net/url"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mikepea/foodgram/pkg/foodgram/apperrors"
)

const (
	DefaultPageSize = 6
	DefaultMaxSize  = 100

	// MaxOffset bounds (page-1)*limit so offsets and next links never overflow.
	MaxOffset = math.MaxInt32
)

var (
	mu       sync.RWMutex
	pageSize = DefaultPageSize
	maxSize  = DefaultMaxSize
	baseURL  string
)

// Configure sets the default and maximum page size and the external base URL
// used for next/previous links. An empty base URL derives links from the request.
func Configure(defaultSize, maximum int, base string) {
	mu.Lock()
	defer mu.Unlock()
	if defaultSize > 0 {
		pageSize = defaultSize
	}
	if maximum > 0 {
		maxSize = maximum
	}
	baseURL = base
}

// Params is a parsed page request.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Scope applies LIMIT/OFFSET to a query.
func (p Params) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(p.Offset()).Limit(p.Limit)
}

// Parse reads ?page= and ?limit= from the request. Limits above the maximum are clamped.
func Parse(c *gin.Context) (Params, error) {
	mu.RLock()
	p := Params{Page: 1, Limit: pageSize}
	limitCap := maxSize
	mu.RUnlock()

	verr := &apperrors.ValidationError{}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			verr.Add("page", "A positive integer is required")
		} else {
			p.Page = n
		}
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			verr.Add("limit", "A positive integer is required")
		} else {
			p.Limit = min(n, limitCap)
		}
	}
	if verr.Empty() && p.Page-1 > MaxOffset/p.Limit {
		verr.Add("page", "Page number is too large")
	}
	if err := verr.OrNil(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Page is the paginated response envelope.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPage builds the envelope, linking to neighbouring pages with the
// request's other query parameters preserved.
func NewPage[T any](c *gin.Context, p Params, count int64, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	page := Page[T]{Count: count, Results: results}
	if int64(p.Page)*int64(p.Limit) < count {
		link := pageURL(c, p.Page+1)
		page.Next = &link
	}
	if p.Page > 1 {
		link := pageURL(c, p.Page-1)
		page.Previous = &link
	}
	return page
}

func pageURL(c *gin.Context, n int) string {
	mu.RLock()
	base := baseURL
	mu.RUnlock()

	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
			scheme = fwd
		}
		base = scheme + "://" + c.Request.Host
	}

	q := c.Request.URL.Query()
	if n == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u := url.URL{Path: c.Request.URL.Path, RawQuery: q.Encode()}
	return base + u.String()
}
