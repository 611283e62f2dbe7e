package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/gogotex/backend/go-users/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))

	r := gin.New()
	r.Use(RateLimitMiddleware(10, 2)) // generous rate
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ok", nil))
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest("GET", "/ok", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, http.StatusOK, w2.Code)
	require.Equal(t, before+2, testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory")))
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	r := gin.New()
	// very low rate to force rejections
	r.Use(RateLimitMiddleware(0.5, 1))
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest("GET", "/limited", nil))
	require.Equal(t, http.StatusOK, w1.Code)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest("GET", "/limited", nil))
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
	require.Equal(t, "1", w2.Header().Get("Retry-After"))

	// one token is back after two seconds at 0.5 rps
	time.Sleep(2100 * time.Millisecond)
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, httptest.NewRequest("GET", "/limited", nil))
	require.Equal(t, http.StatusOK, w3.Code)
}

func TestRateLimitMiddleware_SeparatesClients(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(0.5, 1))
	r.GET("/u", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	req := func(addr string) int {
		rq := httptest.NewRequest("GET", "/u", nil)
		rq.RemoteAddr = addr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, rq)
		return w.Code
	}

	require.Equal(t, http.StatusOK, req("10.0.0.1:1234"))
	require.Equal(t, http.StatusTooManyRequests, req("10.0.0.1:1234"))
	require.Equal(t, http.StatusOK, req("10.0.0.2:1234"))
}

func TestRateLimitMiddleware_InstancesDoNotShareBuckets(t *testing.T) {
	a := gin.New()
	a.Use(RateLimitMiddleware(0.5, 1))
	a.GET("/a", func(c *gin.Context) { c.Status(200) })
	b := gin.New()
	b.Use(RateLimitMiddleware(0.5, 1))
	b.GET("/b", func(c *gin.Context) { c.Status(200) })

	wa := httptest.NewRecorder()
	a.ServeHTTP(wa, httptest.NewRequest("GET", "/a", nil))
	wb := httptest.NewRecorder()
	b.ServeHTTP(wb, httptest.NewRequest("GET", "/b", nil))

	require.Equal(t, http.StatusOK, wa.Code)
	require.Equal(t, http.StatusOK, wb.Code)
}

func TestLimiterStore_SweepsIdleClients(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	s := newLimiterStore(1, 1, time.Minute)
	s.now = func() time.Time { return clock }
	s.lastSweep.Store(clock.UnixNano())

	count := func() int {
		n := 0
		s.m.Range(func(_, _ interface{}) bool { n++; return true })
		return n
	}

	a := s.get("ip:10.0.0.1")
	require.Same(t, a, s.get("ip:10.0.0.1"))
	clock = clock.Add(30 * time.Second)
	s.get("ip:10.0.0.2")
	require.Equal(t, 2, count())

	// .1 has been idle for 80s, .2 only for 50s
	clock = clock.Add(50 * time.Second)
	s.get("ip:10.0.0.3")
	require.Equal(t, 2, count())
	_, ok := s.m.Load("ip:10.0.0.1")
	require.False(t, ok)

	// a swept client starts again with a fresh bucket
	require.NotSame(t, a, s.get("ip:10.0.0.1"))
}
