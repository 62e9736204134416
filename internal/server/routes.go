package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"socialgraph/internal/config"
	"socialgraph/internal/identity"
)

// NewEngine returns a gin engine with recovery, request IDs, structured
// request logging and CORS for cfg.AllowOrigins.
func NewEngine(cfg config.ServerConfig, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(log))

	if len(cfg.AllowOrigins) > 0 {
		headers := append([]string{"Accept", "Authorization", "Content-Type", HeaderRequestID}, identity.PrincipalHeaders...)
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
			AllowHeaders:     headers,
			ExposeHeaders:    []string{HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	return r
}

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

const healthTimeout = 3 * time.Second

// HealthHandler runs every check and answers 503 when any of them fails.
func HealthHandler(service string, checks map[string]Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = "down: " + err.Error()
				continue
			}
			results[name] = "up"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":  state,
			"service": service,
			"checks":  results,
		})
	}
}

// DatabaseCheck adapts a store reporting health as a status map.
func DatabaseCheck(db interface{ Health() map[string]string }) Check {
	return func(context.Context) error {
		stats := db.Health()
		if stats["status"] != "up" {
			return errors.New(stats["error"])
		}
		return nil
	}
}
