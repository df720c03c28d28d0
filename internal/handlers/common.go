package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/supercur/supercur-api/internal/apierror"
	"github.com/supercur/supercur-api/internal/logger"
	"github.com/supercur/supercur-api/internal/services"
)

// CommonServices holds the shared dependencies used across handlers.
type CommonServices struct {
	APIKeyService  *services.APIKeyService
	SummaryService *services.SummaryService
}

// NewCommonServices creates a new instance of CommonServices.
func NewCommonServices(apiKeys *services.APIKeyService, summaries *services.SummaryService) *CommonServices {
	return &CommonServices{
		APIKeyService:  apiKeys,
		SummaryService: summaries,
	}
}

// ErrorResponse represents a standard error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func sendError(c *gin.Context, statusCode int, message string, err error) {
	correlationID := c.GetString("correlationID")

	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.String("correlation_id", correlationID),
	)

	c.JSON(statusCode, ErrorResponse{
		Error:         message,
		CorrelationID: correlationID,
	})
}

// respondError maps a service error onto the wire via its kind. Unknown
// errors become an opaque 500 so internals never leak to callers.
func respondError(c *gin.Context, err error) {
	apiErr := apierror.FromError(err)
	status := apiErr.HTTPStatus()

	if status >= http.StatusInternalServerError {
		sendError(c, status, apiErr.Message, apiErr.Err)
		return
	}

	logger.Debug(apiErr.Message,
		zap.String("kind", string(apiErr.Kind)),
		zap.String("path", c.Request.URL.Path),
		zap.String("correlation_id", c.GetString("correlationID")),
	)
	c.JSON(status, ErrorResponse{Error: apiErr.Message})
}

func sendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}
