package files

import (
	"github.com/gin-gonic/gin"

	"socialgraph/internal/identity"
)

// RegisterRoutes mounts the files endpoints on rg. Every route needs a
// gateway-asserted principal.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	filesGroup := rg.Group("/files", identity.RequirePrincipal())
	{
		filesGroup.POST("/images", h.UploadImage)
		filesGroup.POST("/upload-url", h.GenerateUploadURL)
		filesGroup.DELETE("/*key", h.DeleteFile)
	}
}
