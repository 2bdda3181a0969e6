package services

import (
	"context"

	"github.com/curricula-hub/access-service/internal/models"
	"github.com/curricula-hub/access-service/internal/repositories"
	"github.com/curricula-hub/access-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use validator types for request DTOs
type CreateAccountRequest = validator.AccountCreateRequest
type UpdateAccountRequest = validator.AccountUpdateRequest

type CreatedAccount struct {
	ID          string             `json:"id"`
	Email       string             `json:"email"`
	DisplayName *string            `json:"display_name"`
	Role        models.AccountRole `json:"role"`
}

type CreateAccountResponse struct {
	Success bool           `json:"success"`
	User    CreatedAccount `json:"user"`
	Invited bool           `json:"invited"`
}

type AccountResponse struct {
	*models.Account
	SubscriptionStatus models.SubscriptionStatus `json:"subscription_status"`
}

type AccountListResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	Size     int                `json:"size"`
}

type DeleteAccountResponse struct {
	Success bool `json:"success"`
	// The identity provider record is not removed automatically; the
	// operator may need a separate manual step.
	IdentityRemovalRequired bool   `json:"identity_removal_required"`
	Message                 string `json:"message"`
}

// ===== ACCESS CHECK TYPES =====

// Decision is the guard outcome. Pending is a first-class third outcome used
// while the viewer's session has not resolved yet; callers render nothing
// rather than flashing a denial.
type Decision string

const (
	DecisionPending Decision = "pending"
	DecisionDenied  Decision = "deny"
	DecisionAllowed Decision = "allow"
)

// AccessRequirement describes what a protected surface requires.
type AccessRequirement struct {
	// RequiredRole grants access iff the viewer's tier index >= the
	// required tier index. Nil means no hierarchical requirement.
	RequiredRole *models.AccountRole

	// RequireManageUsers gates the user-management capability via the
	// disjunctive check (super-admin email, admin/superuser role, or the
	// can_manage_users flag).
	RequireManageUsers bool
}

// ===== SERVICE INTERFACES =====

// AccountService owns provisioning, administrative mutations and the status
// state machine.
type AccountService interface {
	Create(ctx context.Context, req *CreateAccountRequest) (*CreateAccountResponse, error)
	GetByID(ctx context.Context, id string) (*AccountResponse, error)
	List(ctx context.Context, filters repositories.AccountFilters) (*AccountListResponse, error)
	Update(ctx context.Context, id string, req *UpdateAccountRequest) (*models.Account, error)

	// SetSuspended flips between exactly suspended and active. An account
	// that was invited before suspension returns to active, not invited.
	SetSuspended(ctx context.Context, id string, suspended bool) (*models.Account, error)

	// Delete removes the local projection only; identity-provider cleanup
	// is a separate manual step surfaced in the response.
	Delete(ctx context.Context, id string) (*DeleteAccountResponse, error)

	// Fire-and-forget dispatches; neither mutates any stored field.
	ResendInvite(ctx context.Context, email string) error
	SendPasswordReset(ctx context.Context, email string) error

	ListPurchases(ctx context.Context, accountID string) ([]*models.Purchase, error)
}

// AccessService is the pure authorization guard.
type AccessService interface {
	// Check decides allow/deny/pending for the viewer. A nil viewer means
	// the session has not resolved and yields pending.
	Check(viewer *models.Account, req AccessRequirement) Decision
}

// ExportService renders the account roster for download.
type ExportService interface {
	ExportAccounts(ctx context.Context) ([]byte, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Account() AccountService
	Access() AccessService
	Export() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
