package models

import (
	"testing"

	"github.com/google/uuid"
)

// TestUserRoleValid verifies that only the three backend roles are accepted.
func TestUserRoleValid(t *testing.T) {
	tests := []struct {
		name string
		role UserRole
		want bool
	}{
		{name: "admin role", role: UserRoleAdmin, want: true},
		{name: "user role", role: UserRoleUser, want: true},
		{name: "guest role", role: UserRoleGuest, want: true},
		{name: "empty role", role: UserRole(""), want: false},
		{name: "unknown role", role: UserRole("superadmin"), want: false},
		{name: "uppercase ADMIN", role: UserRole("ADMIN"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.Valid(); got != tt.want {
				t.Errorf("UserRole(%q).Valid() = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

// TestUserNeeds2FASetup verifies 2FA setup detection based on
// TOTPEnabled and TOTPSecret fields.
func TestUserNeeds2FASetup(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXP"

	tests := []struct {
		name        string
		totpSecret  *string
		totpEnabled bool
		want        bool
	}{
		{name: "no secret and not enabled", totpSecret: nil, totpEnabled: false, want: true},
		{name: "secret set but not enabled", totpSecret: &secret, totpEnabled: false, want: true},
		{name: "secret set and enabled", totpSecret: &secret, totpEnabled: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{TOTPSecret: tt.totpSecret, TOTPEnabled: tt.totpEnabled}
			if got := u.Needs2FASetup(); got != tt.want {
				t.Errorf("Needs2FASetup() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserPrincipal(t *testing.T) {
	id := uuid.MustParse("6f1c2a8e-8a7d-4f57-9a51-2a3c0a2c9b11")
	u := &User{ID: id}
	if got := u.Principal(); got != Principal("6f1c2a8e-8a7d-4f57-9a51-2a3c0a2c9b11") {
		t.Errorf("Principal() = %q", got)
	}
}
