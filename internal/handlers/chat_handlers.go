package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/supercur/supercur-api/internal/client/completion"
)

const chatTimeout = 30 * time.Second

// ChatHandler exposes the completion backend directly for the dashboard
// playground. Unlike the summarizer it is session-gated and not billed
// against an API key.
type ChatHandler struct {
	completion completion.Client
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(comp completion.Client) *ChatHandler {
	return &ChatHandler{completion: comp}
}

// ChatRequest is the body for POST /chat.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse carries the model's reply.
type ChatResponse struct {
	Content string `json:"content"`
}

// Chat forwards a single message to the completion backend and returns
// the model text verbatim.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "message is required in the request body", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), chatTimeout)
	defer cancel()

	content, err := h.completion.Complete(ctx, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, ChatResponse{Content: content})
}
