package validator

// AccountCreateRequest is the provisioning input. Unknown role/status values
// are not rejected here; they fall back to viewer/invited downstream, matching
// the admin form's lenient contract.
type AccountCreateRequest struct {
	Email       string  `json:"email" validate:"required"`
	Password    string  `json:"password" validate:"omitempty,min=6"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
	Role        string  `json:"role"`
	Status      string  `json:"status"`

	// Nil means "compute the default": invite whenever no password was
	// supplied and the status resolves to invited.
	SendInviteEmail *bool `json:"send_invite_email"`
}

// AccountUpdateRequest carries a partial field set; nil fields are untouched.
// Role and status come from admin dropdowns, so unknown values are rejected
// rather than silently coerced.
type AccountUpdateRequest struct {
	DisplayName         *string   `json:"display_name" validate:"omitempty,max=100"`
	Role                *string   `json:"role" validate:"omitempty,account_role"`
	Status              *string   `json:"status" validate:"omitempty,account_status"`
	CanEditActivities   *bool     `json:"can_edit_activities"`
	CanEditLessons      *bool     `json:"can_edit_lessons"`
	CanManageYearGroups *bool     `json:"can_manage_year_groups"`
	CanManageUsers      *bool     `json:"can_manage_users"`
	AllowedYearGroups   *[]string `json:"allowed_year_groups"`
}

// EmailRequest addresses an existing account by email (resend invite,
// password reset).
type EmailRequest struct {
	Email string `json:"email" validate:"required"`
}

// SetSuspendedRequest flips the suspend toggle.
type SetSuspendedRequest struct {
	Suspended *bool `json:"suspended" validate:"required"`
}
