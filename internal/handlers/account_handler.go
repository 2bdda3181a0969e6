package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/curricula-hub/access-service/internal/models"
	"github.com/curricula-hub/access-service/internal/repositories"
	"github.com/curricula-hub/access-service/internal/services"
	"github.com/curricula-hub/access-service/internal/utils"
	"github.com/curricula-hub/access-service/internal/validator"
)

type AccountHandler struct {
	BaseHandler
	accountService services.AccountService
	exportService  services.ExportService
	validator      *validator.Validator
}

func NewAccountHandler(
	accountService services.AccountService,
	exportService services.ExportService,
	v *validator.Validator,
	logger utils.Logger,
) *AccountHandler {
	return &AccountHandler{
		BaseHandler:    NewBaseHandler(logger),
		accountService: accountService,
		exportService:  exportService,
		validator:      v,
	}
}

// CreateAccount provisions a new account, password-activated or
// invitation-pending.
// @Summary Create or invite an account
// @Tags accounts
// @Accept json
// @Produce json
// @Param account body services.CreateAccountRequest true "Account data"
// @Success 200 {object} services.CreateAccountResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req services.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating account", "email", req.Email)

	resp, err := h.accountService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListAccounts lists profile rows, newest first, with derived subscription
// status.
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 50, max: 100)"
// @Param q query string false "Search query (email or display name)"
// @Param role query string false "Filter by role tier"
// @Param status query string false "Filter by status"
// @Success 200 {object} services.AccountListResponse
// @Failure 500 {object} ErrorResponse
// @Router /accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	h.LogRequest(c, "Listing accounts")

	resp, err := h.accountService.List(c.Request.Context(), h.parseAccountFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetAccount retrieves one account.
// @Summary Get account by ID
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} services.AccountResponse
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	id := c.Param("id")

	resp, err := h.accountService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateAccount applies a partial field set to an account.
// @Summary Update account
// @Tags accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param account body services.UpdateAccountRequest true "Fields to update"
// @Success 200 {object} models.Account
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	id := c.Param("id")

	var req services.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating account", "account_id", id)

	account, err := h.accountService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// SetSuspended flips the suspend toggle.
// @Summary Suspend or reactivate account
// @Tags accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param body body validator.SetSuspendedRequest true "Target state"
// @Success 200 {object} models.Account
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{id}/suspended [put]
func (h *AccountHandler) SetSuspended(c *gin.Context) {
	id := c.Param("id")

	var req validator.SetSuspendedRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Suspended == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Field 'suspended' is required",
		})
		return
	}

	h.LogRequest(c, "Setting account suspension", "account_id", id, "suspended", *req.Suspended)

	account, err := h.accountService.SetSuspended(c.Request.Context(), id, *req.Suspended)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// DeleteAccount removes the local profile row. The response warns that the
// identity provider record may need separate removal.
// @Summary Delete account (local projection only)
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} services.DeleteAccountResponse
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	id := c.Param("id")

	h.LogRequest(c, "Deleting account", "account_id", id)

	resp, err := h.accountService.Delete(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ResendInvite re-triggers the invitation email for an existing account.
// @Summary Resend invitation email
// @Tags accounts
// @Accept json
// @Produce json
// @Param body body validator.EmailRequest true "Target email"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /accounts/resend-invite [post]
func (h *AccountHandler) ResendInvite(c *gin.Context) {
	var req validator.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Resending invite", "email", req.Email)

	if err := h.accountService.ResendInvite(c.Request.Context(), req.Email); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Invite resent."})
}

// SendPasswordReset dispatches a password reset email.
// @Summary Send password reset email
// @Tags accounts
// @Accept json
// @Produce json
// @Param body body validator.EmailRequest true "Target email"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /accounts/password-reset [post]
func (h *AccountHandler) SendPasswordReset(c *gin.Context) {
	var req validator.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Sending password reset", "email", req.Email)

	if err := h.accountService.SendPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password reset email sent."})
}

// ListPurchases returns the read-only purchase rows for an account.
// @Summary List account purchases
// @Tags accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {array} models.Purchase
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{id}/purchases [get]
func (h *AccountHandler) ListPurchases(c *gin.Context) {
	id := c.Param("id")

	purchases, err := h.accountService.ListPurchases(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}

// ExportAccounts downloads the account roster as a spreadsheet.
// @Summary Export accounts as .xlsx
// @Tags accounts
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 500 {object} ErrorResponse
// @Router /accounts/export [get]
func (h *AccountHandler) ExportAccounts(c *gin.Context) {
	h.LogRequest(c, "Exporting accounts")

	data, err := h.exportService.ExportAccounts(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("accounts-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ===== HELPER METHODS =====

func (h *AccountHandler) parseAccountFilters(c *gin.Context) repositories.AccountFilters {
	page := 1
	size := 50

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if sizeStr := c.Query("size"); sizeStr != "" {
		if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
			size = s
		}
	}

	filters := repositories.AccountFilters{
		Query:  c.Query("q"),
		Limit:  size,
		Offset: (page - 1) * size,
	}

	if roleStr := c.Query("role"); roleStr != "" && models.ValidRole(roleStr) {
		role := models.AccountRole(roleStr)
		filters.Role = &role
	}
	if statusStr := c.Query("status"); statusStr != "" && models.ValidStatus(statusStr) {
		status := models.AccountStatus(statusStr)
		filters.Status = &status
	}

	return filters
}
