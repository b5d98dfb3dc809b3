package shopauth

import (
	"context"
	"strings"
)

// AddAddress appends a shipping-address snapshot to the identity's list.
// Addresses are append-only from the owner's perspective; nothing in the
// auth flows removes or rewrites one.
func (e *Engine) AddAddress(ctx context.Context, identityID string, address Address) (*Identity, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	if strings.TrimSpace(address.FullName) == "" || strings.TrimSpace(address.StreetAddress) == "" {
		return nil, ErrInvalidAddress
	}

	identity, err := e.store.FindByID(ctx, identityID)
	if err != nil {
		return nil, err
	}

	identity.Addresses = append(identity.Addresses, address)

	updated, err := e.store.Upsert(ctx, identity)
	if err != nil {
		return nil, err
	}

	e.emitAudit(ctx, auditEventAddressAdded, true, updated.ID, updated.Email, nil, nil)

	sanitized := updated.Clone()
	sanitized.PasswordHash = ""
	sanitized.PendingCode = ""
	return sanitized, nil
}
