package shopauth

import (
	"context"
	"strings"
	"time"
)

// Address is a shipping-address snapshot attached to an identity. The list on
// a record is append-only from the owner's perspective.
type Address struct {
	FullName      string `json:"fullName"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	StreetAddress string `json:"address"`
	City          string `json:"city"`
	PostalCode    string `json:"pincode"`
}

// Identity is the persisted record kept per registrant.
//
// Invariants maintained by the engine and stores:
//   - Email is unique case-insensitively and stored lower-cased and trimmed.
//   - PendingCode and PendingCodeExpiresAt are set and cleared together.
//   - IsVerified is never true while PasswordHash is empty.
type Identity struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	PasswordHash         string    `json:"passwordHash,omitempty"`
	IsAdmin              bool      `json:"isAdmin"`
	IsVerified           bool      `json:"isVerified"`
	PendingCode          string    `json:"pendingCode,omitempty"`
	PendingCodeExpiresAt time.Time `json:"pendingCodeExpiresAt,omitempty"`
	Addresses            []Address `json:"addresses"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// HasPendingCode reports whether a registration or reset is in flight.
func (i *Identity) HasPendingCode() bool {
	return i != nil && i.PendingCode != ""
}

// Clone returns a deep copy of the record.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	out := *i
	out.Addresses = append([]Address(nil), i.Addresses...)
	return &out
}

// Profile is the reduced identity projection handed back to clients. It never
// carries the password hash or a pending code.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	Addresses []Address `json:"addresses"`
}

// Profile projects the record into its client-facing form.
func (i *Identity) Profile() Profile {
	if i == nil {
		return Profile{}
	}
	return Profile{
		ID:        i.ID,
		Name:      i.Name,
		Email:     i.Email,
		IsAdmin:   i.IsAdmin,
		Addresses: append([]Address(nil), i.Addresses...),
	}
}

// NormalizeEmail lower-cases and trims an email for use as a lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CredentialStore is the persistence contract the engine builds on. A
// Redis-backed implementation ships in package redistore; tests use in-memory
// fakes.
//
// Lookups return [ErrIdentityNotFound] when no record exists and wrap backend
// failures in [ErrStoreUnavailable]. Emails passed in are already normalized.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByID(ctx context.Context, id string) (*Identity, error)

	// Upsert inserts or replaces the record, assigning an ID on first insert
	// and enforcing case-insensitive email uniqueness.
	Upsert(ctx context.Context, identity *Identity) (*Identity, error)

	// ConsumePendingCode atomically finalizes a code-gated password set: the
	// update applies only if the stored pending code still equals code and is
	// unexpired. The store must guarantee that of any number of racing calls
	// at most one succeeds; the rest fail with [ErrCodeInvalidOrExpired].
	// On success the password hash is replaced, the pending code and expiry
	// are cleared, and the verified flag is set when markVerified is true.
	ConsumePendingCode(ctx context.Context, email, code, newPasswordHash string, markVerified bool) (*Identity, error)
}

// Courier delivers transactional mail. The engine treats delivery failure as
// non-fatal: it is logged and audited but never fails the triggering request.
type Courier interface {
	Send(ctx context.Context, toAddress, subject, htmlBody string) error
}

// LoginResult is returned by [Engine.Login] and [Engine.CompleteRegistration].
// The refresh token is intended for cookie delivery only and must not appear
// in response bodies.
type LoginResult struct {
	Profile      Profile
	AccessToken  string
	RefreshToken string
}
