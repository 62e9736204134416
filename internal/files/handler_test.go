package files

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"socialgraph/internal/identity"
)

func setupRouter(store *fakeStorage) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(store, nil)).RegisterRoutes(r.Group(""))
	return r
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestUploadImageHandler(t *testing.T) {
	store := newFakeStorage()
	router := setupRouter(store)

	body, contentType := multipartBody(t, "file", "me.png", "pngdata")
	req := httptest.NewRequest(http.MethodPost, "/files/images", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(identity.HeaderUserID, "user_1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	var resp UploadImageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !resp.Success || !strings.HasPrefix(resp.URL, "https://media.test/bucket/images/user_1/") {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(store.objects) != 1 {
		t.Errorf("expected one stored object, got %d", len(store.objects))
	}
}

func TestUploadImageHandler_Unauthenticated(t *testing.T) {
	router := setupRouter(newFakeStorage())

	body, contentType := multipartBody(t, "file", "me.png", "pngdata")
	req := httptest.NewRequest(http.MethodPost, "/files/images", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestUploadImageHandler_MissingFile(t *testing.T) {
	router := setupRouter(newFakeStorage())

	body, contentType := multipartBody(t, "other", "me.png", "pngdata")
	req := httptest.NewRequest(http.MethodPost, "/files/images", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(identity.HeaderUserID, "user_1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestDeleteFileHandler(t *testing.T) {
	store := newFakeStorage()
	router := setupRouter(store)

	req := httptest.NewRequest(http.MethodDelete, "/files/images/user_1/a.png", nil)
	req.Header.Set(identity.HeaderUserID, "user_1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodDelete, "/files/images/user_2/a.png", nil)
	req.Header.Set(identity.HeaderUserID, "user_1")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status %d, got %d", http.StatusForbidden, w.Code)
	}
}

func TestGenerateUploadURLHandler_InvalidBody(t *testing.T) {
	router := setupRouter(newFakeStorage())

	req := httptest.NewRequest(http.MethodPost, "/files/upload-url", strings.NewReader(`{"filename":""}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(identity.HeaderUserID, "user_1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}
