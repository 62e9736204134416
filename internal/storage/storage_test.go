package storage

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"socialgraph/internal/config"
)

func TestValidate(t *testing.T) {
	err := validate(config.S3Config{Endpoint: "minio:9000"})
	if err == nil {
		t.Fatal("expected error for incomplete config")
	}
	for _, key := range []string{"S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET_NAME"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q should mention %s", err, key)
		}
	}

	ok := config.S3Config{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "s", Bucket: "b"}
	if err := validate(ok); err != nil {
		t.Errorf("validate() = %v, want nil", err)
	}
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		endpoint string
		ssl      bool
		want     string
	}{
		{"minio:9000", false, "http://minio:9000"},
		{"s3.example.com", true, "https://s3.example.com"},
		{"https://cdn.example.com/", false, "https://cdn.example.com"},
	}
	for _, tt := range tests {
		if got := endpointURL(tt.endpoint, tt.ssl); got != tt.want {
			t.Errorf("endpointURL(%q, %v) = %q, want %q", tt.endpoint, tt.ssl, got, tt.want)
		}
	}
}

func TestPresignAndObjectURL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// No request reaches the endpoint: presigning is local and the bucket
	// check only logs a warning.
	svc, err := New(ctx, config.S3Config{
		Endpoint:       "127.0.0.1:1",
		PublicEndpoint: "media.example.com",
		AccessKey:      "key",
		SecretKey:      "secret",
		Bucket:         "images",
		Region:         "us-east-1",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := svc.ObjectURL("images/u1/a.png"); got != "http://media.example.com/images/images/u1/a.png" {
		t.Errorf("ObjectURL() = %q", got)
	}

	url, err := svc.GeneratePresignedUploadURL(ctx, "uploads/u1/a.png", "image/png", time.Minute)
	if err != nil {
		t.Fatalf("GeneratePresignedUploadURL: %v", err)
	}
	if !strings.HasPrefix(url, "http://media.example.com/images/uploads/u1/a.png?") {
		t.Errorf("presigned URL %q not signed for the public endpoint", url)
	}
	if !strings.Contains(url, "X-Amz-Signature=") {
		t.Errorf("presigned URL %q has no signature", url)
	}

	if _, err := svc.GeneratePresignedUploadURL(ctx, "k", "image/png", 0); err == nil {
		t.Error("expected error for non-positive TTL")
	}
}
