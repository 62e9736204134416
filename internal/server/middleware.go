package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"socialgraph/internal/identity"
)

// HeaderRequestID carries the request ID between gateway, services and
// clients.
const HeaderRequestID = "X-Request-ID"

// RequestIDMiddleware reuses an incoming request ID or generates one, and
// forwards it on the request so proxied calls share it.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Request.Header.Set(HeaderRequestID, requestID)
		c.Writer.Header().Set(HeaderRequestID, requestID)

		c.Next()
	}
}

// LoggingMiddleware logs one line per request. The level follows the
// response status.
func LoggingMiddleware(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", float64(time.Since(start).Microseconds()) / 1000,
			"client_ip", c.ClientIP(),
			"response_size", c.Writer.Size(),
		}

		if query := c.Request.URL.RawQuery; query != "" {
			attrs = append(attrs, "query", query)
		}
		if principal := c.Request.Header.Get(identity.HeaderUserID); principal != "" {
			attrs = append(attrs, "principal", principal)
		}
		if u, ok := identity.CurrentUser(c); ok {
			attrs = append(attrs, "user_id", u.ID)
		}
		if upstream := c.GetString("upstream_service"); upstream != "" {
			attrs = append(attrs, "upstream_service", upstream)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			log.ErrorContext(ctx, "Request failed", attrs...)
		case status >= 400:
			log.WarnContext(ctx, "Request rejected", attrs...)
		default:
			log.InfoContext(ctx, "Request completed", attrs...)
		}
	}
}
