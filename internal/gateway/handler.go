package gateway

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"socialgraph/internal/consul"
)

// Upstream service names as registered in Consul.
const (
	SocialService = "social-service"
	PostsService  = "posts-service"
	FilesService  = "files-service"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// upstreamFor picks the service owning path, which has the /api prefix
// already removed. Author timelines live with posts even though they sit
// under /users.
func upstreamFor(path string) (string, bool) {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	switch segs[0] {
	case "users":
		if len(segs) == 3 && segs[2] == "posts" {
			return PostsService, true
		}
		return SocialService, true
	case "follows", "notifications":
		return SocialService, true
	case "posts", "feed":
		return PostsService, true
	case "files":
		return FilesService, true
	}
	return "", false
}

// ProxyHandler handles reverse proxy requests to backend services
type ProxyHandler struct {
	discovery consul.ServiceDiscovery
	log       *slog.Logger
}

// NewProxyHandler creates a new proxy handler
func NewProxyHandler(discovery consul.ServiceDiscovery, log *slog.Logger) *ProxyHandler {
	return &ProxyHandler{discovery: discovery, log: log}
}

// Proxy forwards /api/<path> to <path> on the owning service.
func (h *ProxyHandler) Proxy(c *gin.Context) {
	path := c.Param("path")
	serviceName, ok := upstreamFor(path)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: "route not found", Code: "NOT_FOUND"})
		return
	}
	c.Set("upstream_service", serviceName)

	instance, err := h.discovery.DiscoverOne(c.Request.Context(), serviceName)
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "Failed to discover service",
			"service", serviceName,
			"error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Success: false,
			Error:   fmt.Sprintf("service %s unavailable", serviceName),
			Code:    "UNAVAILABLE",
		})
		return
	}

	targetURL, err := url.Parse(instance.URL())
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "Failed to parse target URL", "target", instance.URL(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: "internal server error", Code: "INTERNAL"})
		return
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(targetURL)
			r.Out.URL.Path = path
			r.Out.URL.RawPath = ""
			r.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			h.log.ErrorContext(r.Context(), "Proxy error", "service", serviceName, "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"success":false,"error":"bad gateway","code":"BAD_GATEWAY"}`))
		},
	}

	h.log.DebugContext(c.Request.Context(), "Proxying request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"upstream", targetURL.Host+path)

	proxy.ServeHTTP(c.Writer, c.Request)
}
