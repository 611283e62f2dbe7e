package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	MinLimit     = 1

	paginationKey = "pagination"
)

// Pagination holds the normalized list parameters for one request.
type Pagination struct {
	Limit  int
	Offset int
	Sort   string
}

// PaginationAndSort moves limit, offset and sort out of the query string into the
// request context, so the remaining query keys can be used as filter criteria.
// limit defaults to 10 and is clamped to [1,100]; offset defaults to 0 and is
// never negative. Integers too large for int saturate before clamping.
// Non-integer values abort with 400.
func PaginationAndSort() gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Request.URL.Query()

		limit, err := intParam(q.Get("limit"), q.Has("limit"), DefaultLimit)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		offset, err := intParam(q.Get("offset"), q.Has("offset"), 0)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "offset must be an integer"})
			return
		}

		p := Pagination{
			Limit:  clamp(limit, MinLimit, MaxLimit),
			Offset: offset,
			Sort:   q.Get("sort"),
		}
		if p.Offset < 0 {
			p.Offset = 0
		}

		q.Del("limit")
		q.Del("offset")
		q.Del("sort")
		c.Request.URL.RawQuery = q.Encode()

		c.Set(paginationKey, p)
		c.Next()
	}
}

// PaginationFrom returns the parameters stored by PaginationAndSort, or the defaults.
func PaginationFrom(c *gin.Context) Pagination {
	if v, ok := c.Get(paginationKey); ok {
		if p, ok := v.(Pagination); ok {
			return p
		}
	}
	return Pagination{Limit: DefaultLimit}
}

func intParam(raw string, present bool, def int) (int, error) {
	if !present || raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	// Atoi saturates to the nearest int on overflow; the caller clamps it.
	if errors.Is(err, strconv.ErrRange) {
		return n, nil
	}
	return n, err
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
