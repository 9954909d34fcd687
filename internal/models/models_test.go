package models

import (
	"testing"
	"time"
)

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleSuperAdmin, RoleSystemAdmin, RoleServiceEngineer} {
		if !r.Valid() {
			t.Errorf("Role(%q).Valid() = false, want true", r)
		}
	}
	for _, r := range []Role{"", "admin", "super admin", "Janitor"} {
		if r.Valid() {
			t.Errorf("Role(%q).Valid() = true, want false", r)
		}
	}
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("System Admin")
	if !ok || r != RoleSystemAdmin {
		t.Errorf("ParseRole(\"System Admin\") = %q, %v", r, ok)
	}
	if _, ok := ParseRole("nobody"); ok {
		t.Error("ParseRole(\"nobody\") accepted an unknown role")
	}
}

func TestIsBootstrap(t *testing.T) {
	a := &Account{Username: BootstrapUsername}
	if !a.IsBootstrap() {
		t.Error("bootstrap sentinel not recognized")
	}
	// Encrypted usernames never match the sentinel literal.
	b := &Account{Username: "ENC:c3VwZXJfYWRtaW4="}
	if b.IsBootstrap() {
		t.Error("encrypted row misidentified as bootstrap")
	}
}

func TestSessionClockArithmetic(t *testing.T) {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s := &Session{LoginTime: start, LastActivity: start}

	mid := start.Add(20 * time.Minute)
	s.Touch(mid)

	now := start.Add(45 * time.Minute)
	if got := s.IdleFor(now); got != 25*time.Minute {
		t.Errorf("IdleFor = %v, want 25m", got)
	}
	if got := s.Age(now); got != 45*time.Minute {
		t.Errorf("Age = %v, want 45m", got)
	}
}
