package models

import "testing"

func TestAccountRole_AtLeast(t *testing.T) {
	tests := []struct {
		name     string
		role     AccountRole
		required AccountRole
		want     bool
	}{
		{name: "admin meets teacher", role: RoleAdmin, required: RoleTeacher, want: true},
		{name: "admin meets admin", role: RoleAdmin, required: RoleAdmin, want: true},
		{name: "teacher below admin", role: RoleTeacher, required: RoleAdmin, want: false},
		{name: "viewer below teacher", role: RoleViewer, required: RoleTeacher, want: false},
		{name: "student below teacher", role: RoleStudent, required: RoleTeacher, want: false},
		{name: "student meets viewer", role: RoleStudent, required: RoleViewer, want: true},
		{name: "superuser meets admin", role: RoleSuperuser, required: RoleAdmin, want: true},
		{name: "admin below superuser", role: RoleAdmin, required: RoleSuperuser, want: false},
		{name: "unknown role behaves as viewer", role: "moderator", required: RoleViewer, want: true},
		{name: "unknown role below student", role: "moderator", required: RoleStudent, want: false},
		{name: "empty role behaves as viewer", role: "", required: RoleTeacher, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.AtLeast(tt.required); got != tt.want {
				t.Fatalf("AtLeast(%q, %q) = %v, want %v", tt.role, tt.required, got, tt.want)
			}
		})
	}
}

func TestAccountRole_Level_Order(t *testing.T) {
	ordered := []AccountRole{RoleViewer, RoleStudent, RoleTeacher, RoleAdmin, RoleSuperuser}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Level() >= ordered[i].Level() {
			t.Fatalf("expected %s < %s in tier order", ordered[i-1], ordered[i])
		}
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want AccountRole
	}{
		{"admin", RoleAdmin},
		{"superuser", RoleSuperuser},
		{"student", RoleStudent},
		{"", RoleViewer},
		{"ADMIN", RoleViewer},
		{"owner", RoleViewer},
	}
	for _, tt := range tests {
		if got := ParseRole(tt.in); got != tt.want {
			t.Fatalf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want AccountStatus
	}{
		{"active", StatusActive},
		{"suspended", StatusSuspended},
		{"invited", StatusInvited},
		{"", StatusInvited},
		{"banned", StatusInvited},
	}
	for _, tt := range tests {
		if got := ParseStatus(tt.in); got != tt.want {
			t.Fatalf("ParseStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAccount_EffectiveStatus(t *testing.T) {
	a := &Account{}
	if got := a.EffectiveStatus(); got != StatusActive {
		t.Fatalf("empty status should read as active, got %q", got)
	}

	a.Status = StatusSuspended
	if got := a.EffectiveStatus(); got != StatusSuspended {
		t.Fatalf("expected suspended, got %q", got)
	}
}

func TestAccount_EmailOrEmpty(t *testing.T) {
	a := &Account{}
	if got := a.EmailOrEmpty(); got != "" {
		t.Fatalf("expected empty email, got %q", got)
	}

	email := "teacher@school.test"
	a.Email = &email
	if got := a.EmailOrEmpty(); got != email {
		t.Fatalf("expected %q, got %q", email, got)
	}
}
