package shopauth

import (
	"context"
	"errors"
	"testing"
)

func seedVerified(t *testing.T, engine *Engine, store *fakeStore, email, plaintext string) *Identity {
	t.Helper()

	hash, err := engine.hasher.Hash(plaintext)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	record, err := store.Upsert(context.Background(), &Identity{
		Email:        email,
		Name:         "Seed",
		PasswordHash: hash,
		IsVerified:   true,
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return record
}

func TestPasswordResetFullFlow(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	courier := &fakeCourier{}
	engine := newTestEngine(t, store, courier)
	fixCode(engine, "654321")

	seedVerified(t, engine, store, "alice@example.com", "oldpass1x")

	if err := engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if courier.count() != 1 {
		t.Fatalf("expected 1 delivery, got %d", courier.count())
	}

	if err := engine.VerifyResetCode(ctx, "alice@example.com", "654321"); err != nil {
		t.Fatalf("VerifyResetCode failed: %v", err)
	}

	if err := engine.ConfirmPasswordReset(ctx, "alice@example.com", "654321", "newpass2x"); err != nil {
		t.Fatalf("ConfirmPasswordReset failed: %v", err)
	}

	if _, err := engine.Login(ctx, "alice@example.com", "oldpass1x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
	if _, err := engine.Login(ctx, "alice@example.com", "newpass2x"); err != nil {
		t.Fatalf("expected new password accepted, got %v", err)
	}

	record := store.get(t, "alice@example.com")
	if !record.IsVerified {
		t.Fatal("reset must not clear the verified flag")
	}
	if record.PendingCode != "" {
		t.Fatal("expected pending code cleared after reset")
	}
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	courier := &fakeCourier{}
	engine := newTestEngine(t, store, courier)

	if err := engine.RequestPasswordReset(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("expected silent success for unknown email, got %v", err)
	}
	if courier.count() != 0 {
		t.Fatal("expected no delivery for unknown email")
	}
}

func TestPasswordResetUnverifiedIsSilent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	courier := &fakeCourier{}
	engine := newTestEngine(t, store, courier)

	if _, err := store.Upsert(ctx, &Identity{Email: "pending@example.com", Name: "Pending"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := engine.RequestPasswordReset(ctx, "pending@example.com"); err != nil {
		t.Fatalf("expected silent success for unverified record, got %v", err)
	}
	if courier.count() != 0 {
		t.Fatal("expected no delivery for unverified record")
	}

	record := store.get(t, "pending@example.com")
	if record.HasPendingCode() {
		t.Fatal("expected no code issued for unverified record")
	}
}

func TestPasswordResetWrongCode(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	engine := newTestEngine(t, store, nil)
	fixCode(engine, "654321")

	seedVerified(t, engine, store, "bob@example.com", "oldpass1x")

	if err := engine.RequestPasswordReset(ctx, "bob@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	if err := engine.ConfirmPasswordReset(ctx, "bob@example.com", "000000", "newpass2x"); !errors.Is(err, ErrCodeInvalidOrExpired) {
		t.Fatalf("expected wrong code rejection, got %v", err)
	}

	// Old password untouched after a failed attempt.
	if _, err := engine.Login(ctx, "bob@example.com", "oldpass1x"); err != nil {
		t.Fatalf("expected old password still valid, got %v", err)
	}
}

func TestPasswordResetWeakReplacement(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	engine := newTestEngine(t, store, nil)
	fixCode(engine, "654321")

	seedVerified(t, engine, store, "carol@example.com", "oldpass1x")

	if err := engine.RequestPasswordReset(ctx, "carol@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	if err := engine.ConfirmPasswordReset(ctx, "carol@example.com", "654321", "weak"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	// The code survives the policy rejection and still confirms.
	if err := engine.ConfirmPasswordReset(ctx, "carol@example.com", "654321", "newpass2x"); err != nil {
		t.Fatalf("expected confirm after policy rejection, got %v", err)
	}
}

func TestPasswordResetCodeSingleUse(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	engine := newTestEngine(t, store, nil)
	fixCode(engine, "654321")

	seedVerified(t, engine, store, "dave@example.com", "oldpass1x")

	if err := engine.RequestPasswordReset(ctx, "dave@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if err := engine.ConfirmPasswordReset(ctx, "dave@example.com", "654321", "newpass2x"); err != nil {
		t.Fatalf("ConfirmPasswordReset failed: %v", err)
	}

	if err := engine.ConfirmPasswordReset(ctx, "dave@example.com", "654321", "third3rd"); !errors.Is(err, ErrCodeInvalidOrExpired) {
		t.Fatalf("expected replayed code to fail, got %v", err)
	}
	if _, err := engine.Login(ctx, "dave@example.com", "newpass2x"); err != nil {
		t.Fatalf("expected first replacement to stand, got %v", err)
	}
}
