// Package files is the media collaborator: it stores binary payloads in the
// object store and hands back stable URLs. Payload formats are not inspected.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"socialgraph/internal/storage"
)

var (
	ErrInvalidFilename = errors.New("invalid filename")
	ErrFileTooLarge    = fmt.Errorf("file exceeds %d bytes", MaxUploadSize)
	ErrEmptyFile       = errors.New("file is empty")
	// ErrForbidden is returned when a caller deletes an object outside
	// their own prefix.
	ErrForbidden = errors.New("file belongs to another user")
)

// Service handles business logic for file operations
type Service struct {
	storage storage.Service
	log     *slog.Logger
}

// NewService creates a new files service
func NewService(storage storage.Service, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{storage: storage, log: log}
}

// ValidateFilename checks if filename is safe and valid
func ValidateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("%w: filename cannot be empty", ErrInvalidFilename)
	}
	if len(filename) > MaxFilenameLength {
		return fmt.Errorf("%w: filename too long (max %d characters)", ErrInvalidFilename, MaxFilenameLength)
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: filename contains invalid characters", ErrInvalidFilename)
	}
	return nil
}

// UploadImage stores an image owned by ownerID and returns its public URL.
func (s *Service) UploadImage(ctx context.Context, ownerID, filename, contentType string, body io.Reader, size int64) (*UploadImageResponse, error) {
	if size == 0 {
		return nil, ErrEmptyFile
	}
	if size > MaxUploadSize {
		return nil, ErrFileTooLarge
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := objectKey(imagesPrefix, ownerID, filename)
	url, err := s.storage.Upload(ctx, key, contentType, body, size)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	s.log.InfoContext(ctx, "Image uploaded", "key", key, "owner", ownerID, "size", size)
	return &UploadImageResponse{Success: true, URL: url, FileKey: key}, nil
}

// GenerateUploadURL creates a presigned URL for a client-side upload
func (s *Service) GenerateUploadURL(ctx context.Context, ownerID string, req *GenerateUploadURLRequest) (*GenerateUploadURLResponse, error) {
	if err := ValidateFilename(req.Filename); err != nil {
		return nil, err
	}

	key := objectKey(uploadsPrefix, ownerID, req.Filename)
	uploadURL, err := s.storage.GeneratePresignedUploadURL(ctx, key, req.ContentType, UploadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate upload URL: %w", err)
	}

	return &GenerateUploadURLResponse{
		UploadURL: uploadURL,
		FileKey:   key,
		PublicURL: s.storage.ObjectURL(key),
		ExpiresAt: time.Now().Add(UploadURLTTL).Unix(),
	}, nil
}

// DeleteFile removes one of ownerID's objects from storage
func (s *Service) DeleteFile(ctx context.Context, ownerID, fileKey string) error {
	fileKey = strings.TrimPrefix(fileKey, "/")
	if fileKey == "" {
		return fmt.Errorf("%w: file key cannot be empty", ErrInvalidFilename)
	}
	if path.Clean(fileKey) != fileKey || !ownedBy(fileKey, ownerID) {
		return ErrForbidden
	}

	if err := s.storage.DeleteFile(ctx, fileKey); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	s.log.InfoContext(ctx, "File deleted", "key", fileKey, "owner", ownerID)
	return nil
}

// HealthCheck checks storage service health
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.storage.Health(ctx)
}

// objectKey builds "<prefix>/<owner>/<uuid><ext>" so keys never collide and
// never carry client-controlled path segments.
func objectKey(prefix, ownerID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 16 || strings.ContainsAny(ext, "/\\ ") {
		ext = ""
	}
	return fmt.Sprintf("%s/%s/%s%s", prefix, ownerSegment(ownerID), uuid.NewString(), ext)
}

func ownedBy(key, ownerID string) bool {
	owner := ownerSegment(ownerID)
	for _, prefix := range []string{imagesPrefix, uploadsPrefix} {
		if strings.HasPrefix(key, prefix+"/"+owner+"/") {
			return true
		}
	}
	return false
}

func ownerSegment(ownerID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, ownerID)
}
