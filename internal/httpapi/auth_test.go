package httpapi

import (
	"context"
	"strings"
	"testing"
	"time"

	"dukapos/backend/internal/domain"
	"dukapos/backend/internal/store/memory"
)

func newTestAuth(t *testing.T) *AuthManager {
	t.Helper()
	return NewAuthManager("test-secret-key", time.Hour, memory.NewSeeded())
}

func TestLoginAndParseTokenRoundTrip(t *testing.T) {
	auth := newTestAuth(t)

	resp, err := auth.Login(domain.LoginRequest{Username: "Admin ", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Role != "admin" {
		t.Fatalf("expected admin role, got %q", resp.Role)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	auth := newTestAuth(t)

	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "nope"}); err == nil {
		t.Fatalf("expected login failure")
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "ghost", Password: "admin123"}); err == nil {
		t.Fatalf("expected login failure for unknown user")
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	auth := newTestAuth(t)
	other := NewAuthManager("a-completely-different-secret", time.Hour, memory.NewSeeded())

	resp, err := other.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := auth.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	auth := newTestAuth(t)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := auth.ParseToken(token); err == nil {
			t.Fatalf("expected rejection for %q", token)
		}
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	auth := newTestAuth(t)

	token, err := auth.sign("admin", "admin", time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := auth.ParseToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestCreateStaffValidation(t *testing.T) {
	auth := newTestAuth(t)

	cases := []domain.StaffCreateRequest{
		{Username: "ab", Password: "secret123"},
		{Username: "has space", Password: "secret123"},
		{Username: "validname", Password: "short"},
		{Username: "staff", Password: "secret123"}, // already seeded
	}
	for _, req := range cases {
		if _, err := auth.CreateStaff(req); err == nil {
			t.Fatalf("expected validation failure for %+v", req)
		}
	}

	staff, err := auth.CreateStaff(domain.StaffCreateRequest{Username: "NewClerk", Password: "secret123"})
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}
	if staff.Username != "newclerk" || staff.Role != "staff" || !staff.Active {
		t.Fatalf("unexpected staff: %+v", staff)
	}

	if _, err := auth.Login(domain.LoginRequest{Username: "newclerk", Password: "secret123"}); err != nil {
		t.Fatalf("new staff login: %v", err)
	}
}

func TestBootstrapUpgradesPlainTextPasswords(t *testing.T) {
	repo := memory.NewSeeded()
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"}); err != nil {
		t.Fatalf("login after bootstrap: %v", err)
	}

	// The seeded plain-text password must have been rewritten as a bcrypt hash.
	auth.mu.RLock()
	stored := auth.users["admin"].password
	auth.mu.RUnlock()
	if !strings.HasPrefix(stored, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", stored)
	}
}

func TestCreateStaffRejectsAccountExistingInStore(t *testing.T) {
	repo := memory.NewSeeded()
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	// An account written straight to the store, as another process would.
	if err := repo.CreateUser(context.Background(), domain.UserAccount{
		Username:  "outsider",
		Password:  "plainpass",
		Role:      "staff",
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if _, err := auth.CreateStaff(domain.StaffCreateRequest{Username: "outsider", Password: "secret123"}); err == nil {
		t.Fatalf("expected duplicate username rejection")
	}
}
