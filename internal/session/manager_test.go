package session

import (
	"errors"
	"testing"
	"time"
)

var testSecret = []byte("unit-test-signing-secret")

func newTestManager(t *testing.T, clock func() time.Time) *Manager {
	t.Helper()
	manager, err := NewManager(ManagerConfig{
		SigningSecret: testSecret,
		TokenTTL:      time.Hour,
		Clock:         clock,
	})
	if err != nil {
		t.Fatalf("unexpected manager error: %v", err)
	}
	return manager
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	manager := newTestManager(t, nil)

	token, expiresIn, err := manager.Issue("dietitian-7", "ayse@example.com", "Ayşe Yılmaz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expiresIn != int64(time.Hour.Seconds()) {
		t.Fatalf("expected one hour expiry, got %d", expiresIn)
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "dietitian-7" {
		t.Fatalf("unexpected user id: %q", claims.UserID)
	}
	if claims.UserEmail != "ayse@example.com" {
		t.Fatalf("unexpected email: %q", claims.UserEmail)
	}
}

func TestIssueRejectsEmptyUserID(t *testing.T) {
	manager := newTestManager(t, nil)

	if _, _, err := manager.Issue("   ", "", ""); !errors.Is(err, ErrMissingUserID) {
		t.Fatalf("expected ErrMissingUserID, got %v", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	issuedAt := time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)
	now := issuedAt
	manager := newTestManager(t, func() time.Time { return now })

	token, _, err := manager.Issue("dietitian-7", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now = issuedAt.Add(2 * time.Hour)
	if _, err := manager.Validate(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	manager := newTestManager(t, nil)
	other, err := NewManager(ManagerConfig{SigningSecret: []byte("a-different-secret")})
	if err != nil {
		t.Fatalf("unexpected manager error: %v", err)
	}

	token, _, err := other.Issue("dietitian-7", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateRejectsEmptyToken(t *testing.T) {
	manager := newTestManager(t, nil)
	if _, err := manager.Validate("  "); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestResolveTenantIDPrefixesUser(t *testing.T) {
	claims := Claims{UserID: "dietitian-7"}
	if got := ResolveTenantID(&claims); got != "user-dietitian-7" {
		t.Fatalf("unexpected tenant: %q", got)
	}
}

func TestResolveTenantIDFallsBackWhenAnonymous(t *testing.T) {
	if got := ResolveTenantID(nil); got != FallbackTenantID {
		t.Fatalf("expected fallback for nil claims, got %q", got)
	}
	blank := Claims{UserID: "   "}
	if got := ResolveTenantID(&blank); got != FallbackTenantID {
		t.Fatalf("expected fallback for blank user, got %q", got)
	}
}
