package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/supercur/supercur-api/internal/apierror"
	"github.com/supercur/supercur-api/internal/auth"
	"github.com/supercur/supercur-api/internal/client/github"
)

// summaryTimeout bounds the whole fetch-and-generate pipeline for one
// request. GitHub and the model each retry internally, so this is the
// outer ceiling.
const summaryTimeout = 60 * time.Second

// SummaryHandler handles the API-key-gated summarize operation.
type SummaryHandler struct {
	common *CommonServices
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(common *CommonServices) *SummaryHandler {
	return &SummaryHandler{common: common}
}

// SummarizeRequest is the body for POST /repo-summary.
type SummarizeRequest struct {
	GithubURL string `json:"githubUrl" binding:"required"`
}

// Summarize validates the caller's API key, bills one request against
// it, then fetches and summarizes the repository. Usage is reserved
// before the upstream work starts and is not refunded on failure.
func (h *SummaryHandler) Summarize(c *gin.Context) {
	apiKey := auth.BearerAPIKey(c)
	if apiKey == "" {
		respondError(c, apierror.New(apierror.KindUnauthenticated, "API key required"))
		return
	}

	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	// Format errors fail fast, before the key is billed.
	if _, err := github.ParseRepoURL(req.GithubURL); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), summaryTimeout)
	defer cancel()

	if _, err := h.common.APIKeyService.ValidateKey(ctx, apiKey); err != nil {
		// On this route a bearer credential that cannot be a key is an
		// authentication failure, not a request-validation error.
		if apierror.IsKind(err, apierror.KindInvalidKeyFormat) {
			err = apierror.New(apierror.KindUnauthenticated, "Invalid or missing API key")
		}
		respondError(c, err)
		return
	}

	if err := h.common.APIKeyService.ReserveUsage(ctx, apiKey); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.common.SummaryService.Summarize(ctx, req.GithubURL)
	if err != nil {
		respondError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, result)
}
