package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curricula-hub/access-service/internal/metrics"
	"github.com/curricula-hub/access-service/internal/models"
	"github.com/curricula-hub/access-service/internal/services"
	"github.com/curricula-hub/access-service/internal/utils"
)

type AccessHandler struct {
	BaseHandler
	accessService services.AccessService
}

func NewAccessHandler(accessService services.AccessService, logger utils.Logger) *AccessHandler {
	return &AccessHandler{
		BaseHandler:   NewBaseHandler(logger),
		accessService: accessService,
	}
}

// AccessCheckResponse reports the guard outcome for the viewer.
type AccessCheckResponse struct {
	Decision services.Decision  `json:"decision"`
	Role     models.AccountRole `json:"role,omitempty"`
}

// CheckAccess evaluates the guard for the current viewer. An unresolved
// session yields a pending decision with HTTP 200, never a 401; the caller
// decides how to render pending.
// @Summary Check viewer access
// @Tags access
// @Produce json
// @Param required_role query string false "Minimum role tier"
// @Param require_manage_users query bool false "Require the manage-users capability"
// @Success 200 {object} AccessCheckResponse
// @Failure 400 {object} ErrorResponse
// @Router /access/check [get]
func (h *AccessHandler) CheckAccess(c *gin.Context) {
	var req services.AccessRequirement

	if roleStr := c.Query("required_role"); roleStr != "" {
		if !models.ValidRole(roleStr) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Unknown role: " + roleStr,
			})
			return
		}
		role := models.AccountRole(roleStr)
		req.RequiredRole = &role
	}
	req.RequireManageUsers = c.Query("require_manage_users") == "true"

	viewer, _ := GetAccountFromContext(c)
	decision := h.accessService.Check(viewer, req)
	metrics.AccessDecisionsTotal.WithLabelValues(string(decision)).Inc()

	resp := AccessCheckResponse{Decision: decision}
	if viewer != nil {
		resp.Role = viewer.Role
	}
	c.JSON(http.StatusOK, resp)
}
