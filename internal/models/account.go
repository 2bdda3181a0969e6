package models

import (
	"time"

	"gorm.io/datatypes"
)

type AccountRole string
type Role = AccountRole // Alias for compatibility

const (
	RoleViewer    AccountRole = "viewer"
	RoleStudent   AccountRole = "student"
	RoleTeacher   AccountRole = "teacher"
	RoleAdmin     AccountRole = "admin"
	RoleSuperuser AccountRole = "superuser"
)

// roleOrder is the single source of truth for hierarchical role comparison.
// All five tiers participate; relative order of viewer/teacher/admin matches
// the legacy three-tier check.
var roleOrder = map[AccountRole]int{
	RoleViewer:    0,
	RoleStudent:   1,
	RoleTeacher:   2,
	RoleAdmin:     3,
	RoleSuperuser: 4,
}

// Level returns the hierarchy index of the role. Unknown or empty roles are
// treated as the lowest tier (viewer).
func (r AccountRole) Level() int {
	if level, ok := roleOrder[r]; ok {
		return level
	}
	return roleOrder[RoleViewer]
}

// AtLeast reports whether the role meets or exceeds the required tier.
func (r AccountRole) AtLeast(required AccountRole) bool {
	return r.Level() >= required.Level()
}

// ParseRole maps a raw string onto a defined role tier. Unknown values fall
// back to viewer.
func ParseRole(s string) AccountRole {
	role := AccountRole(s)
	if _, ok := roleOrder[role]; ok {
		return role
	}
	return RoleViewer
}

// ValidRole reports whether s names one of the five defined tiers.
func ValidRole(s string) bool {
	_, ok := roleOrder[AccountRole(s)]
	return ok
}

type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusInvited   AccountStatus = "invited"
	StatusSuspended AccountStatus = "suspended"
)

// ParseStatus maps a raw string onto a defined status. Unknown values fall
// back to invited (the invitation path's initial state).
func ParseStatus(s string) AccountStatus {
	switch AccountStatus(s) {
	case StatusActive, StatusInvited, StatusSuspended:
		return AccountStatus(s)
	}
	return StatusInvited
}

// ValidStatus reports whether s names one of the three defined statuses.
func ValidStatus(s string) bool {
	switch AccountStatus(s) {
	case StatusActive, StatusInvited, StatusSuspended:
		return true
	}
	return false
}

// Account is the local profile projection of an identity-provider user.
// ID matches the identity provider's user record and is never reused.
type Account struct {
	ID          string        `json:"id" gorm:"primaryKey;size:255"`
	Email       *string       `json:"email" gorm:"uniqueIndex;size:255"`
	DisplayName *string       `json:"display_name" gorm:"size:100"`
	Role        AccountRole   `json:"role" gorm:"size:20;not null;default:viewer"`
	Status      AccountStatus `json:"status" gorm:"size:20"`

	// Capability flags, additive with role tier
	CanEditActivities   bool `json:"can_edit_activities" gorm:"default:false"`
	CanEditLessons      bool `json:"can_edit_lessons" gorm:"default:false"`
	CanManageYearGroups bool `json:"can_manage_year_groups" gorm:"default:false"`
	CanManageUsers      bool `json:"can_manage_users" gorm:"default:false"`

	// Nil means unrestricted
	AllowedYearGroups datatypes.JSONSlice[string] `json:"allowed_year_groups"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Account) TableName() string {
	return "profiles"
}

// EffectiveStatus treats a missing status as active for accounts that predate
// the status column.
func (a *Account) EffectiveStatus() AccountStatus {
	if a.Status == "" {
		return StatusActive
	}
	return a.Status
}

// EmailOrEmpty returns the confirmed email, or "" while the identity provider
// has not confirmed one yet.
func (a *Account) EmailOrEmpty() string {
	if a.Email == nil {
		return ""
	}
	return *a.Email
}
