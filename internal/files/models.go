package files

import "time"

// UploadImageResponse is returned after a direct image upload
type UploadImageResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	FileKey string `json:"file_key"`
}

// GenerateUploadURLRequest represents request for upload URL generation
type GenerateUploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// GenerateUploadURLResponse represents response with presigned upload URL
type GenerateUploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	FileKey   string `json:"file_key"`
	PublicURL string `json:"public_url"`
	ExpiresAt int64  `json:"expires_at"` // Unix timestamp
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Constants for file operations
const (
	MaxFilenameLength = 255
	MaxUploadSize     = 10 << 20 // 10MB
	UploadURLTTL      = 15 * time.Minute

	imagesPrefix  = "images"
	uploadsPrefix = "uploads"
)
