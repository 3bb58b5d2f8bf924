package auth

import (
	"context"
	"testing"
	"time"
)

func newTestManager() *Manager {
	return &Manager{
		Secret:     []byte("test-secret"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
		Issuer:     "petshop-backend",
	}
}

func TestAccessTokenCarriesSession(t *testing.T) {
	m := newTestManager()
	token, err := m.NewAccessToken(Session{UserID: "u-123", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("NewAccessToken error: %v", err)
	}

	claims, err := m.ParseKind(token, TokenAccess)
	if err != nil {
		t.Fatalf("ParseKind error: %v", err)
	}
	s := claims.Session()
	if s.UserID != "u-123" || !s.IsAdmin() {
		t.Fatalf("unexpected session: %+v", s)
	}
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	m := newTestManager()
	token, err := m.NewRefreshToken(Session{UserID: "u-1", Role: RoleCustomer})
	if err != nil {
		t.Fatalf("NewRefreshToken error: %v", err)
	}
	if _, err := m.ParseKind(token, TokenAccess); err == nil {
		t.Fatalf("expected refresh token to be rejected as access token")
	}
}

func TestParseRejectsForeignSecret(t *testing.T) {
	m := newTestManager()
	token, err := m.NewAccessToken(Session{UserID: "u-1", Role: RoleCustomer})
	if err != nil {
		t.Fatalf("NewAccessToken error: %v", err)
	}
	other := newTestManager()
	other.Secret = []byte("another-secret")
	if _, err := other.Parse(token); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestSessionContext(t *testing.T) {
	if _, ok := SessionFromContext(context.Background()); ok {
		t.Fatalf("expected no session in empty context")
	}
	ctx := WithSession(context.Background(), Session{UserID: "u-9", Role: RoleCustomer})
	s, ok := SessionFromContext(ctx)
	if !ok || s.UserID != "u-9" || s.IsAdmin() {
		t.Fatalf("unexpected session: %+v (ok=%v)", s, ok)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3nha-forte")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if err := ComparePassword(hash, "s3nha-forte"); err != nil {
		t.Fatalf("ComparePassword error: %v", err)
	}
	if err := ComparePassword(hash, "errada"); err == nil {
		t.Fatalf("expected mismatch error")
	}
	if _, err := HashPassword(""); err == nil {
		t.Fatalf("expected error for empty password")
	}
}
