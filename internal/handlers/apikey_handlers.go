package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/supercur/supercur-api/internal/auth"
	"github.com/supercur/supercur-api/internal/db"
	"github.com/supercur/supercur-api/internal/services"
)

// APIKeyHandler handles the dashboard API key operations.
type APIKeyHandler struct {
	common *CommonServices
}

// NewAPIKeyHandler creates a new API key handler.
func NewAPIKeyHandler(common *CommonServices) *APIKeyHandler {
	return &APIKeyHandler{common: common}
}

// CreateAPIKeyRequest is the body for POST /api-keys.
type CreateAPIKeyRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateAPIKeyRequest is the body for PUT /api-keys/:api_key_id. Nil
// fields are left unchanged.
type UpdateAPIKeyRequest struct {
	Name         *string `json:"name"`
	MonthlyLimit *int32  `json:"monthly_limit"`
}

// ValidateAPIKeyRequest is the body for POST /api-keys/validate.
type ValidateAPIKeyRequest struct {
	APIKey string `json:"apiKey" binding:"required"`
}

// ValidateAPIKeyResponse reports the outcome of a key validation.
type ValidateAPIKeyResponse struct {
	IsValid bool   `json:"isValid"`
	UserID  string `json:"userId,omitempty"`
}

// SuccessResponse acknowledges a mutation with no payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// APIKeyResponse is the wire shape of a key record. The plaintext
// secret is included; the dashboard shows owners their own keys.
type APIKeyResponse struct {
	ID           uuid.UUID `json:"id"`
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	Usage        int32     `json:"usage"`
	MonthlyLimit int32     `json:"monthly_limit"`
	CreatedAt    string    `json:"created_at"`
}

func toAPIKeyResponse(key db.ApiKey) APIKeyResponse {
	return APIKeyResponse{
		ID:           key.ID,
		Key:          key.Key,
		Name:         key.Name,
		Usage:        key.Usage,
		MonthlyLimit: key.MonthlyLimit,
		CreatedAt:    key.CreatedAt.Time.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ListAPIKeys returns the caller's keys, newest first.
func (h *APIKeyHandler) ListAPIKeys(c *gin.Context) {
	userID := c.GetString(auth.UserIDKey)

	keys, err := h.common.APIKeyService.ListAPIKeys(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]APIKeyResponse, 0, len(keys))
	for _, key := range keys {
		response = append(response, toAPIKeyResponse(key))
	}
	sendSuccess(c, http.StatusOK, response)
}

// CreateAPIKey issues a new key for the caller.
func (h *APIKeyHandler) CreateAPIKey(c *gin.Context) {
	userID := c.GetString(auth.UserIDKey)

	var req CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	key, err := h.common.APIKeyService.CreateAPIKey(c.Request.Context(), userID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	sendSuccess(c, http.StatusCreated, toAPIKeyResponse(key))
}

// UpdateAPIKey edits a key's name and/or monthly limit.
func (h *APIKeyHandler) UpdateAPIKey(c *gin.Context) {
	userID := c.GetString(auth.UserIDKey)

	keyID, err := uuid.Parse(c.Param("api_key_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid API key ID format", err)
		return
	}

	var req UpdateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	err = h.common.APIKeyService.UpdateAPIKey(c.Request.Context(), services.UpdateAPIKeyParams{
		ID:           keyID,
		UserID:       userID,
		Name:         req.Name,
		MonthlyLimit: req.MonthlyLimit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, SuccessResponse{Success: true})
}

// DeleteAPIKey removes a key. Deletion revokes it immediately.
func (h *APIKeyHandler) DeleteAPIKey(c *gin.Context) {
	userID := c.GetString(auth.UserIDKey)

	keyID, err := uuid.Parse(c.Param("api_key_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid API key ID format", err)
		return
	}

	if err := h.common.APIKeyService.DeleteAPIKey(c.Request.Context(), keyID, userID); err != nil {
		respondError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, SuccessResponse{Success: true})
}

// ValidateAPIKey checks a key supplied in the body and confirms it
// belongs to the caller. Wrong-owner keys are rejected outright rather
// than reported as merely invalid.
func (h *APIKeyHandler) ValidateAPIKey(c *gin.Context) {
	userID := c.GetString(auth.UserIDKey)

	var req ValidateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	validation, err := h.common.APIKeyService.ValidateKeyForOwner(c.Request.Context(), req.APIKey, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, ValidateAPIKeyResponse{
		IsValid: validation.Valid,
		UserID:  validation.UserID,
	})
}
