package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check pings one dependency. A nil error means it is reachable.
type Check func(ctx context.Context) error

// RegisterHealth wires /health (liveness) and /ready (dependency pings).
// /ready returns 503 when any check fails.
func RegisterHealth(r *gin.Engine, checks map[string]Check, timeout time.Duration) {
	started := time.Now()
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		ready := true
		deps := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = err.Error()
				ready = false
				continue
			}
			deps[name] = "ok"
		}

		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(started).String()})
	})
}
