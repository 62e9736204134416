// Package gateway implements the API gateway: it turns session cookies
// into trusted identity headers and routes /api calls to the owning
// service found through Consul.
package gateway

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"socialgraph/internal/config"
	"socialgraph/internal/consul"
	"socialgraph/internal/server"
	"socialgraph/internal/session"
)

// SetupRouter configures and returns the gateway router
func SetupRouter(cfg *config.Config, discovery consul.ServiceDiscovery, sessions session.Manager, health map[string]server.Check, log *slog.Logger) *gin.Engine {
	r := server.NewEngine(cfg.Server, log)

	r.GET("/health", server.HealthHandler(cfg.Service, health))

	authMW := SessionMiddleware(sessions, cfg.Session.CookieName, log)
	sh := NewSessionHandler(sessions, cfg.Session, log)
	auth := r.Group("/auth")
	{
		auth.GET("/session", authMW, sh.Me)
		auth.DELETE("/session", authMW, sh.Logout)
		if cfg.Session.DevLogin {
			auth.POST("/dev-login", sh.DevLogin)
		}
	}

	proxy := NewProxyHandler(discovery, log)
	api := r.Group("/api", authMW)
	api.Any("/*path", proxy.Proxy)

	return r
}
