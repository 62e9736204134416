package gateway

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"socialgraph/internal/config"
	"socialgraph/internal/consul"
	"socialgraph/internal/identity"
	"socialgraph/internal/server"
	"socialgraph/internal/session"
)

type staticDiscovery map[string]*consul.ServiceInstance

func (d staticDiscovery) DiscoverOne(_ context.Context, serviceName string) (*consul.ServiceInstance, error) {
	if inst, ok := d[serviceName]; ok {
		return inst, nil
	}
	return nil, errors.New("no healthy instances found for service: " + serviceName)
}

func instanceFor(t *testing.T, srv *httptest.Server) *consul.ServiceInstance {
	t.Helper()
	host, port, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("split %s: %v", srv.URL, err)
	}
	p, _ := strconv.Atoi(port)
	return &consul.ServiceInstance{Address: host, Port: p}
}

// proxyRecorder adds CloseNotify to the recorder; httputil.ReverseProxy
// requires it through gin's writer.
type proxyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newProxyRecorder() *proxyRecorder {
	return &proxyRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
}

func (r *proxyRecorder) CloseNotify() <-chan bool { return r.closed }

func testConfig(devLogin bool) *config.Config {
	return &config.Config{
		Service: "api-gateway",
		Session: config.SessionConfig{CookieName: "session_id", MaxAge: time.Hour, DevLogin: devLogin},
	}
}

func TestUpstreamFor(t *testing.T) {
	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{"/users/me", SocialService, true},
		{"/users/alice/counts", SocialService, true},
		{"/users/0b6f7c2e-0000-0000-0000-000000000000/posts", PostsService, true},
		{"/follows/abc/toggle", SocialService, true},
		{"/notifications/unread-count", SocialService, true},
		{"/posts", PostsService, true},
		{"/feed", PostsService, true},
		{"/files/images", FilesService, true},
		{"/admin", "", false},
		{"/", "", false},
	}
	for _, tt := range tests {
		got, ok := upstreamFor(tt.path)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("upstreamFor(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestProxy_RewritesPathAndForwardsIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var gotPath, gotQuery, gotUser, gotRequestID string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotUser = r.Header.Get(identity.HeaderUserID)
		gotRequestID = r.Header.Get(server.HeaderRequestID)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer upstream.Close()

	mgr := &mockSessionManager{
		getFunc: func(ctx context.Context, sessionID string) (*session.Session, error) {
			return validSession(sessionID), nil
		},
	}
	r := SetupRouter(testConfig(false), staticDiscovery{SocialService: instanceFor(t, upstream)}, mgr, nil, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/follows/123/toggle?x=1", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "s1"})
	w := newProxyRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotPath != "/follows/123/toggle" || gotQuery != "x=1" {
		t.Errorf("upstream saw %q?%q", gotPath, gotQuery)
	}
	if gotUser != "test-user-id" {
		t.Errorf("upstream saw X-User-ID %q", gotUser)
	}
	if gotRequestID == "" || gotRequestID != w.Header().Get(server.HeaderRequestID) {
		t.Errorf("request id not propagated: upstream %q, response %q", gotRequestID, w.Header().Get(server.HeaderRequestID))
	}
}

func TestProxy_Errors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	closed := httptest.NewServer(http.NotFoundHandler())
	deadInstance := instanceFor(t, closed)
	closed.Close()

	r := SetupRouter(testConfig(false), staticDiscovery{PostsService: deadInstance}, &mockSessionManager{}, nil, discardLogger())

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"unknown route", "/api/admin", http.StatusNotFound},
		{"service not registered", "/api/files/images", http.StatusServiceUnavailable},
		{"upstream down", "/api/feed", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newProxyRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus == http.StatusBadGateway && !strings.Contains(w.Body.String(), "BAD_GATEWAY") {
				t.Errorf("Expected BAD_GATEWAY body, got %s", w.Body.String())
			}
		})
	}
}

func TestSessionEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mgr := &mockSessionManager{}
	r := SetupRouter(testConfig(true), staticDiscovery{}, mgr, nil, discardLogger())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/dev-login", strings.NewReader(`{"email":"x@example.com"}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without external_id, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/dev-login", strings.NewReader(`{"external_id":"user_1","username":"alice"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "session_id" || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies %+v", cookies)
	}

	req = httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"external_id":"user_1"`) {
		t.Errorf("GET /auth/session = %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodDelete, "/auth/session", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 on logout, got %d", w.Code)
	}
	if len(mgr.deleted) != 1 || mgr.deleted[0] != cookies[0].Value {
		t.Errorf("deleted = %v", mgr.deleted)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/session", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without session, got %d", w.Code)
	}
}

func TestDevLoginDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := SetupRouter(testConfig(false), staticDiscovery{}, &mockSessionManager{}, nil, discardLogger())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/dev-login", strings.NewReader(`{"external_id":"u"}`)))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 when dev login is disabled, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	checks := map[string]server.Check{"redis": func(context.Context) error { return nil }}
	r := SetupRouter(testConfig(false), staticDiscovery{}, &mockSessionManager{}, checks, discardLogger())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestDevLogin_StoreUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := SetupRouter(testConfig(true), staticDiscovery{}, &mockSessionManager{failNext: true}, nil, discardLogger())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/dev-login", strings.NewReader(`{"external_id":"u"}`)))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}
