// Package chat exposes the conversation endpoint. A conversation-level
// cache wraps the whole orchestration graph: a hit returns the cached
// response without touching retrieval or generation at all.
package chat

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"assistant/internal/cache"
	"assistant/internal/domain"
	"assistant/internal/graph"
)

// GraphRunner executes the orchestration state machine for one turn.
type GraphRunner interface {
	Run(ctx context.Context, st *graph.RAGState) error
}

// Cache is the subset of the cache layer the handler uses.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) bool
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) bool
}

// Handler handles conversation requests.
type Handler struct {
	graph           GraphRunner
	cache           Cache
	conversationTTL time.Duration
	logger          *zap.Logger
}

// NewHandler creates a chat handler.
func NewHandler(g GraphRunner, c Cache, conversationTTL time.Duration, logger *zap.Logger) *Handler {
	return &Handler{graph: g, cache: c, conversationTTL: conversationTTL, logger: logger}
}

// RegisterRoutes registers chat routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/conversation", h.Conversation)
}

// Conversation runs one turn. The response is always 200 with an answer
// payload, even when generation degraded to an error string.
func (h *Handler) Conversation(c *gin.Context) {
	var req domain.ConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	key := cache.ConversationKey(req.Prompt)

	var cached domain.ConversationResponse
	if h.cache.GetJSON(ctx, key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	st := &graph.RAGState{Query: req.Prompt, ThreadID: req.ThreadID}
	if err := h.graph.Run(ctx, st); err != nil {
		h.logger.Error("conversation turn failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process conversation"})
		return
	}

	resp := domain.ConversationResponse{
		Answer:          st.Answer,
		DocumentSources: st.DocumentSources(),
	}
	// Fallback answers are returned but not cached, so a transient model
	// outage does not pin an error answer for the whole TTL.
	if !st.Degraded {
		h.cache.SetJSON(ctx, key, resp, h.conversationTTL)
	}
	c.JSON(http.StatusOK, resp)
}
