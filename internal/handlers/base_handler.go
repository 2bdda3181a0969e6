package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curricula-hub/access-service/internal/config"
	"github.com/curricula-hub/access-service/internal/services"
	"github.com/curricula-hub/access-service/internal/utils"
	"github.com/curricula-hub/access-service/internal/validator"
)

// ErrorResponse is the API error shape.
type ErrorResponse struct {
	Message string                     `json:"error"`
	Details string                     `json:"details,omitempty"`
	Fields  validator.ValidationErrors `json:"fields,omitempty"`
}

// SuccessResponse wraps generic success payloads.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c.Request.Context(), h.logger).Info(msg, args...)
}

func (h BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err)
	utils.FromContext(c.Request.Context(), h.logger).Error(msg, args...)
}

// handleServiceError maps service failures onto the HTTP conventions:
// 400 for validation and provider-rejected input, 404 for unknown accounts,
// 500 for configuration or unexpected errors.
func (h BaseHandler) handleServiceError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: verrs.Error(),
			Fields:  verrs,
		})
		return
	}

	var provErr *services.ProvisioningError
	if errors.As(err, &provErr) {
		// Provider message passes through verbatim to keep the diagnostic.
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: provErr.Message,
		})
		return
	}

	if errors.Is(err, services.ErrAccountNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Account not found",
		})
		return
	}

	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		h.LogError(c, err, "configuration error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Server configuration error",
			Details: cfgErr.Error(),
		})
		return
	}

	h.LogError(c, err, "unexpected service error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Message: "Internal server error",
		Details: err.Error(),
	})
}
