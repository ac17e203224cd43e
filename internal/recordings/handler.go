package recordings

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liveclass/backend/pkg/response"
)

// Handler handles recording HTTP endpoints.
type Handler struct {
	pipeline *Pipeline
	logger   *zap.Logger
}

// NewHandler creates a recordings handler.
func NewHandler(p *Pipeline, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{pipeline: p, logger: logger}
}

// Register mounts the recording routes on rg, including the legacy aliases.
func (h *Handler) Register(rg gin.IRoutes) {
	rg.GET("/sessions/:id/recordings", h.List)
	rg.GET("/sessions/:id/recordings/stream_urls", h.StreamURLs)
	rg.POST("/sessions/:id/recordings/store", h.Store)
	rg.POST("/sessions/:id/store-recordings", h.Store)
	rg.POST("/sessions/:id/recordings/download", h.DownloadLocal)
	rg.POST("/sessions/:id/download-recordings-local", h.DownloadLocal)
}

// List handles GET /sessions/:id/recordings.
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	files, err := h.pipeline.List(ctx, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	blobs, err := h.pipeline.StoredBlobs(ctx, c.Param("id"))
	if err != nil {
		h.logger.Warn("list stored blobs failed", zap.String("session_id", c.Param("id")), zap.Error(err))
		blobs = []string{}
	}
	response.OK(c, gin.H{"recordings": files, "stored_blobs": blobs})
}

// StreamURLs handles GET /sessions/:id/recordings/stream_urls.
func (h *Handler) StreamURLs(c *gin.Context) {
	urls, err := h.pipeline.StreamURLs(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"recordings_with_streams": urls})
}

// Store handles POST /sessions/:id/recordings/store.
func (h *Handler) Store(c *gin.Context) {
	stored, err := h.pipeline.Store(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"stored": stored})
}

// DownloadLocal handles POST /sessions/:id/recordings/download.
func (h *Handler) DownloadLocal(c *gin.Context) {
	paths, err := h.pipeline.DownloadLocal(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"downloaded_files": paths})
}
