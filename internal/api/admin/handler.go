// Package admin exposes the document management endpoints: upload, listing
// and deletion.
package admin

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"assistant/internal/domain"
)

// Ingestor is the ingestion pipeline surface the handler drives.
type Ingestor interface {
	SaveUpload(filename string, r io.Reader) (string, error)
	IngestFile(ctx context.Context, filename string) error
	DeleteByName(ctx context.Context, name string) (bool, error)
	ListDocuments(ctx context.Context, limit int) ([]domain.DocumentInfo, error)
}

// Handler handles document management requests.
type Handler struct {
	pipeline Ingestor
	logger   *zap.Logger
}

// NewHandler creates an admin handler.
func NewHandler(pipeline Ingestor, logger *zap.Logger) *Handler {
	return &Handler{pipeline: pipeline, logger: logger}
}

// RegisterRoutes registers document routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/documents", h.UploadDocument)
	r.GET("/documents", h.ListDocuments)
	r.DELETE("/documents/:name", h.DeleteDocument)
}

// UploadDocument saves the uploaded file and runs the ingestion pipeline.
func (h *Handler) UploadDocument(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "file is required"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}
	defer src.Close()

	if _, err := h.pipeline.SaveUpload(file.Filename, src); err != nil {
		h.logger.Error("failed to save upload", zap.String("filename", file.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file"})
		return
	}

	if err := h.pipeline.IngestFile(c.Request.Context(), file.Filename); err != nil {
		if errors.Is(err, domain.ErrUnsupportedFile) || errors.Is(err, domain.ErrExtraction) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "failed to process document"})
			return
		}
		h.logger.Error("failed to index document", zap.String("filename", file.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to index document"})
		return
	}

	c.JSON(http.StatusOK, domain.DocumentUploadResponse{Success: true, Filename: file.Filename})
}

// ListDocuments returns the source-deduplicated document listing.
func (h *Handler) ListDocuments(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "limit must be a positive integer"})
		return
	}

	docs, err := h.pipeline.ListDocuments(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list documents", zap.Error(err))
		// Listing degrades to an empty page when the index is unavailable.
		docs = []domain.DocumentInfo{}
	}
	c.JSON(http.StatusOK, domain.DocumentListResponse{Documents: docs})
}

// DeleteDocument removes a document's chunks and backing file by name.
func (h *Handler) DeleteDocument(c *gin.Context) {
	name := c.Param("name")

	deleted, err := h.pipeline.DeleteByName(c.Request.Context(), name)
	if err != nil {
		h.logger.Error("failed to delete document", zap.String("name", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete document"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "document '" + name + "' not found"})
		return
	}

	c.JSON(http.StatusOK, domain.DocumentDeleteResponse{Success: true, Deleted: name})
}
