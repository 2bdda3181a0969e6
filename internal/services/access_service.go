package services

import (
	"strings"

	"github.com/curricula-hub/access-service/internal/models"
)

// accessService implements the authorization guard. Check is a pure function
// of the viewer's account: no I/O, no clock.
type accessService struct {
	// Migration shim: this address is granted manage-users regardless of
	// stored role, until the seeded superuser row replaces it. Empty
	// disables the bypass.
	superAdminEmail string
}

func NewAccessService(superAdminEmail string) AccessService {
	return &accessService{superAdminEmail: superAdminEmail}
}

// Check decides allow/deny/pending.
//
// A nil viewer means the session has not resolved yet and yields pending,
// a third outcome distinct from allow and deny so callers can render nothing
// instead of flashing a denial before auth settles.
//
// The manage-users requirement is a disjunction, not a hierarchy: any one of
// the conditions suffices. The role requirement compares tier indexes over
// the full five-tier order; an unknown or missing role behaves as viewer.
func (s *accessService) Check(viewer *models.Account, req AccessRequirement) Decision {
	if viewer == nil {
		return DecisionPending
	}

	if req.RequireManageUsers && !s.canManageUsers(viewer) {
		return DecisionDenied
	}

	if req.RequiredRole != nil && !viewer.Role.AtLeast(*req.RequiredRole) {
		return DecisionDenied
	}

	return DecisionAllowed
}

func (s *accessService) canManageUsers(viewer *models.Account) bool {
	if s.superAdminEmail != "" && strings.EqualFold(viewer.EmailOrEmpty(), s.superAdminEmail) {
		return true
	}
	return viewer.Role == models.RoleAdmin ||
		viewer.Role == models.RoleSuperuser ||
		viewer.CanManageUsers
}
