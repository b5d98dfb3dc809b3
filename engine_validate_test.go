package shopauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAuthenticateRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	engine := newTestEngine(t, store, nil)

	record := seedVerified(t, engine, store, "alice@example.com", "hunter42x")

	login, err := engine.Login(ctx, "alice@example.com", "hunter42x")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	identity, err := engine.Authenticate(ctx, "Bearer "+login.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if identity.ID != record.ID {
		t.Fatalf("expected identity %s, got %s", record.ID, identity.ID)
	}
	if identity.PasswordHash != "" || identity.PendingCode != "" {
		t.Fatal("authenticated identity must not carry hash or pending code")
	}
}

func TestAuthenticateRejectsBadHeaders(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t, newFakeStore(), nil)

	for _, header := range []string{
		"",
		"Bearer",
		"Bearer ",
		"Basic abc",
		"Bearer not-a-token",
	} {
		if _, err := engine.Authenticate(ctx, header); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated for %q, got %v", header, err)
		}
	}
}

func TestAuthenticateRejectsDeletedIdentity(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	engine := newTestEngine(t, store, nil)

	record := seedVerified(t, engine, store, "bob@example.com", "hunter42x")
	login, err := engine.Login(ctx, "bob@example.com", "hunter42x")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// Record deletion is the only way to revoke an unexpired token.
	store.mu.Lock()
	delete(store.byID, record.ID)
	delete(store.byEmail, record.Email)
	store.mu.Unlock()

	if _, err := engine.Authenticate(ctx, "Bearer "+login.AccessToken); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for deleted identity, got %v", err)
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	manager := newJWTManager(t, func() time.Time { return clock })

	engine := newTestEngine(t, store, nil)
	engine.jwtManager = manager

	seedVerified(t, engine, store, "carol@example.com", "hunter42x")
	login, err := engine.Login(ctx, "carol@example.com", "hunter42x")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, err := engine.Authenticate(ctx, "Bearer "+login.AccessToken); err != nil {
		t.Fatalf("expected fresh token accepted, got %v", err)
	}

	clock = clock.Add(16 * time.Minute)
	if _, err := engine.Authenticate(ctx, "Bearer "+login.AccessToken); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	engine := newTestEngine(t, newFakeStore(), nil)

	if err := engine.RequireAdmin(nil); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for nil identity, got %v", err)
	}
	if err := engine.RequireAdmin(&Identity{ID: "u1"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}
	if err := engine.RequireAdmin(&Identity{ID: "u1", IsAdmin: true}); err != nil {
		t.Fatalf("expected admin accepted, got %v", err)
	}
}

func TestRefreshIdentity(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	engine := newTestEngine(t, store, nil)

	record := seedVerified(t, engine, store, "dave@example.com", "hunter42x")
	login, err := engine.Login(ctx, "dave@example.com", "hunter42x")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	identity, err := engine.RefreshIdentity(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshIdentity failed: %v", err)
	}
	if identity.ID != record.ID {
		t.Fatalf("expected identity %s, got %s", record.ID, identity.ID)
	}
	if identity.PasswordHash != "" {
		t.Fatal("refresh-resolved identity must not carry the hash")
	}

	if _, err := engine.RefreshIdentity(ctx, "garbage"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected garbage refresh token rejected, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	engine := newTestEngine(t, store, nil)

	seedVerified(t, engine, store, "erin@example.com", "hunter42x")
	if _, err := store.Upsert(ctx, &Identity{Email: "pending@example.com", Name: "Pending"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	// Unknown email and wrong password collapse to the same error.
	if _, err := engine.Login(ctx, "nobody@example.com", "hunter42x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	if _, err := engine.Login(ctx, "erin@example.com", "wrongpass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := engine.Login(ctx, "pending@example.com", "anything1"); !errors.Is(err, ErrAccountUnverified) {
		t.Fatalf("expected ErrAccountUnverified, got %v", err)
	}
	if _, err := engine.Login(ctx, "erin@example.com", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected empty password rejected, got %v", err)
	}
}

func TestLoginNormalizesEmail(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	engine := newTestEngine(t, store, nil)

	seedVerified(t, engine, store, "frank@example.com", "hunter42x")

	if _, err := engine.Login(ctx, "  Frank@Example.COM ", "hunter42x"); err != nil {
		t.Fatalf("expected case-insensitive login, got %v", err)
	}
}
