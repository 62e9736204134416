package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"socialgraph/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	srv := New(config.ServerConfig{Port: 8082, ReadTimeout: time.Second}, http.NotFoundHandler())

	if srv.Addr != ":8082" {
		t.Errorf("Addr = %q, want :8082", srv.Addr)
	}
	if srv.ReadTimeout != time.Second || srv.ReadHeaderTimeout != 5*time.Second {
		t.Errorf("unexpected timeouts: read=%v header=%v", srv.ReadTimeout, srv.ReadHeaderTimeout)
	}
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		checks     map[string]Check
		wantStatus int
		wantState  string
	}{
		{
			name:       "all up",
			checks:     map[string]Check{"database": func(context.Context) error { return nil }},
			wantStatus: http.StatusOK,
			wantState:  "healthy",
		},
		{
			name: "one down",
			checks: map[string]Check{
				"database": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return errors.New("connection refused") },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", HealthHandler("social-service", tt.checks))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var body struct {
				Status  string            `json:"status"`
				Service string            `json:"service"`
				Checks  map[string]string `json:"checks"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}
			if body.Status != tt.wantState || body.Service != "social-service" {
				t.Errorf("unexpected body %+v", body)
			}
			if len(body.Checks) != len(tt.checks) {
				t.Errorf("Expected %d checks, got %d", len(tt.checks), len(body.Checks))
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.Request.Header.Get(HeaderRequestID))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	generated := w.Header().Get(HeaderRequestID)
	if _, err := uuid.Parse(generated); err != nil {
		t.Fatalf("expected a generated UUID, got %q", generated)
	}
	if w.Body.String() != generated {
		t.Errorf("request header %q does not match response header %q", w.Body.String(), generated)
	}

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderRequestID, incoming)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(HeaderRequestID); got != incoming {
		t.Errorf("Expected incoming request ID %q to be reused, got %q", incoming, got)
	}

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid\nInjected: 1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(HeaderRequestID); strings.Contains(got, "Injected") {
		t.Errorf("malformed request ID was propagated: %q", got)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestIDMiddleware(), LoggingMiddleware(log))
	r.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "success"}) })
	r.GET("/missing", func(c *gin.Context) { c.AbortWithStatus(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/ok?x=1", nil)
	req.Header.Set("X-User-ID", "ext-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log line: %v", err)
	}
	if entry["level"] != "INFO" || entry["path"] != "/ok" || entry["query"] != "x=1" {
		t.Errorf("unexpected log entry %v", entry)
	}
	if entry["principal"] != "ext-1" {
		t.Errorf("Expected principal ext-1 in log entry, got %v", entry["principal"])
	}
	if entry["response_size"].(float64) <= 0 {
		t.Errorf("Expected response size to be captured, got %v", entry["response_size"])
	}

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	if !strings.Contains(buf.String(), `"level":"WARN"`) || !strings.Contains(buf.String(), `"status":404`) {
		t.Errorf("Expected a WARN entry for 404, got %s", buf.String())
	}
}

func TestNewEngine_CORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := NewEngine(config.ServerConfig{AllowOrigins: []string{"http://localhost:5173"}}, discardLogger())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204 for preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("Expected CORS Allow-Credentials header")
	}
}

type healthMap map[string]string

func (h healthMap) Health() map[string]string { return h }

func TestDatabaseCheck(t *testing.T) {
	if err := DatabaseCheck(healthMap{"status": "up"})(context.Background()); err != nil {
		t.Errorf("Expected nil for healthy database, got %v", err)
	}
	err := DatabaseCheck(healthMap{"status": "down", "error": "timeout"})(context.Background())
	if err == nil || err.Error() != "timeout" {
		t.Errorf("Expected timeout error, got %v", err)
	}
}
