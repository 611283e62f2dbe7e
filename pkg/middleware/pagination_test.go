package middleware

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type paginationResult struct {
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
	Sort   string            `json:"sort"`
	Query  map[string]string `json:"query"`
}

func paginationRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/users", PaginationAndSort(), func(c *gin.Context) {
		p := PaginationFrom(c)
		q := map[string]string{}
		for k := range c.Request.URL.Query() {
			q[k] = c.Query(k)
		}
		c.JSON(http.StatusOK, paginationResult{Limit: p.Limit, Offset: p.Offset, Sort: p.Sort, Query: q})
	})
	return r
}

func getPagination(t *testing.T, r *gin.Engine, rawQuery string) (int, paginationResult, string) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users?"+rawQuery, nil))
	var res paginationResult
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	}
	return w.Code, res, w.Body.String()
}

func TestPaginationAndSort_Defaults(t *testing.T) {
	code, res, _ := getPagination(t, paginationRouter(), "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 10, res.Limit)
	require.Equal(t, 0, res.Offset)
	require.Equal(t, "", res.Sort)
	require.Empty(t, res.Query)
}

func TestPaginationAndSort_Limits(t *testing.T) {
	r := paginationRouter()
	cases := map[string]int{
		"limit=5":    5,
		"limit=100":  100,
		"limit=101":  100,
		"limit=1000": 100,
		"limit=0":    1,
		"limit=-3":   1,
		"limit=":     10,

		"limit=99999999999999999999":  100,
		"limit=-99999999999999999999": 1,
	}
	for raw, want := range cases {
		code, res, _ := getPagination(t, r, raw)
		require.Equal(t, http.StatusOK, code, raw)
		require.Equal(t, want, res.Limit, raw)
	}
}

func TestPaginationAndSort_Offsets(t *testing.T) {
	r := paginationRouter()
	cases := map[string]int{
		"offset=20": 20,
		"offset=0":  0,
		"offset=-5": 0,

		"offset=99999999999999999999":  math.MaxInt,
		"offset=-99999999999999999999": 0,
	}
	for raw, want := range cases {
		code, res, _ := getPagination(t, r, raw)
		require.Equal(t, http.StatusOK, code, raw)
		require.Equal(t, want, res.Offset, raw)
	}
}

func TestPaginationAndSort_RejectsNonInteger(t *testing.T) {
	r := paginationRouter()

	code, _, body := getPagination(t, r, "limit=ten")
	require.Equal(t, http.StatusBadRequest, code)
	require.JSONEq(t, `{"error":"limit must be an integer"}`, body)

	code, _, body = getPagination(t, r, "offset=1.5")
	require.Equal(t, http.StatusBadRequest, code)
	require.JSONEq(t, `{"error":"offset must be an integer"}`, body)
}

func TestPaginationAndSort_StripsParamsKeepsFilters(t *testing.T) {
	code, res, _ := getPagination(t, paginationRouter(), "limit=2&offset=4&sort=-email&email=a%40b.io&plan=pro")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 2, res.Limit)
	require.Equal(t, 4, res.Offset)
	require.Equal(t, "-email", res.Sort)
	require.Equal(t, map[string]string{"email": "a@b.io", "plan": "pro"}, res.Query)
}

func TestPaginationAndSort_Idempotent(t *testing.T) {
	r := paginationRouter()
	_, first, _ := getPagination(t, r, "limit=1000&offset=3&sort=email&x=1")
	_, second, _ := getPagination(t, r, "limit=1000&offset=3&sort=email&x=1")
	require.Equal(t, first, second)
}

func TestPaginationFrom_WithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	require.Equal(t, Pagination{Limit: DefaultLimit}, PaginationFrom(c))
}
