package files

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"socialgraph/internal/identity"
)

// Handler handles HTTP requests for files service
type Handler struct {
	service *Service
}

// NewHandler creates a new files handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// UploadImage handles POST /files/images (multipart field "file")
func (h *Handler) UploadImage(c *gin.Context) {
	p, _ := identity.CurrentPrincipal(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(c, ErrFileTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "File is required",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	resp, err := h.service.UploadImage(c.Request.Context(), p.ExternalID, fh.Filename, fh.Header.Get("Content-Type"), f, fh.Size)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GenerateUploadURL handles POST /files/upload-url
func (h *Handler) GenerateUploadURL(c *gin.Context) {
	p, _ := identity.CurrentPrincipal(c)

	var req GenerateUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	response, err := h.service.GenerateUploadURL(c.Request.Context(), p.ExternalID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// DeleteFile handles DELETE /files/*key
func (h *Handler) DeleteFile(c *gin.Context) {
	p, _ := identity.CurrentPrincipal(c)
	fileKey := c.Param("key")

	if err := h.service.DeleteFile(c.Request.Context(), p.ExternalID, fileKey); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "File deleted successfully",
		"file_key": fileKey,
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidFilename), errors.Is(err, ErrEmptyFile):
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error(), Code: "INVALID_REQUEST"})
	case errors.Is(err, ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Success: false, Error: err.Error(), Code: "FILE_TOO_LARGE"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Success: false, Error: err.Error(), Code: "FORBIDDEN"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: "Storage operation failed", Code: "STORAGE"})
	}
}
