package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupRouter(r Resolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	NewHandler(r).RegisterRoutes(e.Group(""))
	e.GET("/optional", OptionalUser(r), func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"handle": u.Handle})
	})
	return e
}

func TestRequireUser_MissingPrincipal(t *testing.T) {
	router := setupRouter(newTestResolver(newMemStore()))

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestSync_CreatesUserFromHeaders(t *testing.T) {
	store := newMemStore()
	router := setupRouter(newTestResolver(store))

	req := httptest.NewRequest(http.MethodPost, "/users/sync", nil)
	req.Header.Set(HeaderUserID, "ext-42")
	req.Header.Set(HeaderEmail, "marie@example.com")
	req.Header.Set(HeaderFirstName, "Marie")
	req.Header.Set(HeaderLastName, "Curie")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Data == nil || resp.Data.Handle != "marie" || resp.Data.Name != "Marie Curie" {
		t.Errorf("unexpected user %+v", resp.Data)
	}
	if store.inserts != 1 {
		t.Errorf("inserts = %d, want 1", store.inserts)
	}
}

func TestOptionalUser(t *testing.T) {
	router := setupRouter(newTestResolver(newMemStore()))

	t.Run("anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/optional", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["anonymous"] != true {
			t.Errorf("expected anonymous response, got %v", body)
		}
	})

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/optional", nil)
		req.Header.Set(HeaderUserID, "ext-7")
		req.Header.Set(HeaderUsername, "Kay")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["handle"] != "kay" {
			t.Errorf("expected handle kay, got %v", body)
		}
	})

	t.Run("handle taken falls back to anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/optional", nil)
		req.Header.Set(HeaderUserID, "ext-8")
		req.Header.Set(HeaderUsername, "kay")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["anonymous"] != true {
			t.Errorf("expected anonymous response, got %v", body)
		}
	})

	t.Run("handle taken still rejects writes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users/sync", nil)
		req.Header.Set(HeaderUserID, "ext-8")
		req.Header.Set(HeaderUsername, "kay")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("Expected status %d, got %d", http.StatusConflict, w.Code)
		}
	})
}

func TestSetPrincipalHeaders_ReplacesExisting(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderUserID, "forged")
	h.Set(HeaderUsername, "forged")

	SetPrincipalHeaders(h, &Principal{ExternalID: "real", Email: "r@example.com"})

	if got := h.Get(HeaderUserID); got != "real" {
		t.Errorf("%s = %q, want real", HeaderUserID, got)
	}
	if got := h.Get(HeaderUsername); got != "" {
		t.Errorf("%s = %q, want empty", HeaderUsername, got)
	}

	SetPrincipalHeaders(h, nil)
	if _, err := PrincipalFromHeaders(h); err == nil {
		t.Error("expected ErrNotAuthenticated after clearing headers")
	}
}

func TestRequirePrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.GET("/p", RequirePrincipal(), func(c *gin.Context) {
		p, _ := CurrentPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"id": p.ExternalID})
	})

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set(HeaderUserID, "ext_1")
	w = httptest.NewRecorder()
	e.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body["id"] != "ext_1" {
		t.Errorf("Expected id ext_1, got %q", body["id"])
	}
}
