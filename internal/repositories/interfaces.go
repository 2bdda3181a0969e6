package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/curricula-hub/access-service/internal/models"
)

// ErrNotFound is returned by read operations when no record matches.
var ErrNotFound = errors.New("record not found")

// AccountFilters defines filters for profile queries.
type AccountFilters struct {
	Query  string                // Search query for email or display name
	Role   *models.AccountRole   // Filter by role tier
	Status *models.AccountStatus // Filter by status
	Limit  int                   // Page size
	Offset int                   // Offset for pagination
}

// ProfileRepository owns the local profile projection (the Account fields not
// owned by the identity provider).
type ProfileRepository interface {
	// Upsert inserts or fully replaces the projection row keyed by id.
	Upsert(ctx context.Context, account *models.Account) error

	GetByID(ctx context.Context, id string) (*models.Account, error)
	List(ctx context.Context, filters AccountFilters) ([]*models.Account, int64, error)
	Update(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, id string) error
}

// PurchaseRepository reads the commerce system's purchase rows. No write path.
type PurchaseRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.Purchase, error)
	ListByUsers(ctx context.Context, userIDs []string) (map[string][]*models.Purchase, error)
}

// IdentityRecord is the identity provider's view of a user. Identity fields
// (id, email) are authoritative here, profile fields in the local projection.
type IdentityRecord struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IdentityRepository talks to the external identity provider. Email dispatch
// operations are fire-and-forget: success means the provider accepted the
// request, not that the email was delivered.
type IdentityRepository interface {
	// CreateWithPassword creates an immediately usable identity.
	CreateWithPassword(ctx context.Context, email, password, displayName string, role models.AccountRole) (*IdentityRecord, error)

	// Invite creates a pending identity and dispatches the invitation email
	// with a redirect target to the password-set page.
	Invite(ctx context.Context, email, displayName string, role models.AccountRole, redirectTo string) (*IdentityRecord, error)

	// ResendInvite re-dispatches the invitation email for an existing identity.
	ResendInvite(ctx context.Context, email, redirectTo string) error

	// SendPasswordReset dispatches a password reset email.
	SendPasswordReset(ctx context.Context, email, redirectTo string) error

	GetByEmail(ctx context.Context, email string) (*IdentityRecord, error)

	// ExistsByEmail is the duplicate pre-check used before provisioning. The
	// result is cached briefly, so a false answer is advisory: the provider
	// still rejects duplicates authoritatively.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// Repository aggregates all repositories behind one access point.
type Repository interface {
	Profile() ProfileRepository
	Purchase() PurchaseRepository
	Identity() IdentityRepository

	Ping(ctx context.Context) error
	Close() error
}
