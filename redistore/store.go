package redistore

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/phitku/shopauth"
)

const (
	identityKeyPrefix = "aid"
	emailKeyPrefix    = "aem"
	consumeMaxRetries = 4
)

// ErrEmailConflict reports an Upsert whose email index already points at a
// different identity. The engine never triggers it on the normal flows (it
// always loads by email first); it exists to keep the uniqueness invariant
// honest under misuse.
var ErrEmailConflict = errors.New("email already bound to another identity")

// Store is a Redis-backed [shopauth.CredentialStore]. Each identity is a JSON
// document under aid:<id>; a lower-cased email index under aem:<email> maps
// to the id and enforces case-insensitive uniqueness.
type Store struct {
	redis *redis.Client
}

// New creates a Store on the given client.
func New(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func identityKey(id string) string {
	return identityKeyPrefix + ":" + id
}

func emailKey(email string) string {
	return emailKeyPrefix + ":" + email
}

// FindByEmail resolves the email index, then loads the document.
func (s *Store) FindByEmail(ctx context.Context, email string) (*shopauth.Identity, error) {
	id, err := s.redis.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shopauth.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %v", shopauth.ErrStoreUnavailable, err)
	}
	return s.FindByID(ctx, id)
}

// FindByID loads an identity document.
func (s *Store) FindByID(ctx context.Context, id string) (*shopauth.Identity, error) {
	data, err := s.redis.Get(ctx, identityKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shopauth.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %v", shopauth.ErrStoreUnavailable, err)
	}
	return decodeIdentity(data)
}

// Upsert inserts or replaces the record. A missing ID marks a first insert:
// an id is assigned and CreatedAt stamped. The email index is claimed inside
// a WATCH transaction so two concurrent first inserts for the same email
// cannot both create a record.
func (s *Store) Upsert(ctx context.Context, identity *shopauth.Identity) (*shopauth.Identity, error) {
	if identity == nil {
		return nil, errors.New("nil identity")
	}

	record := identity.Clone()
	record.Email = shopauth.NormalizeEmail(record.Email)
	if record.Email == "" {
		return nil, errors.New("identity email required")
	}

	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	emKey := emailKey(record.Email)

	err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
		owner, err := tx.Get(ctx, emKey).Result()
		switch {
		case errors.Is(err, redis.Nil):
			// Unclaimed email; claim it below.
		case err != nil:
			return err
		case owner != record.ID:
			return ErrEmailConflict
		}

		encoded, err := json.Marshal(record)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, emKey, record.ID, 0)
			pipe.Set(ctx, identityKey(record.ID), encoded, 0)
			return nil
		})
		return err
	}, emKey)
	if err != nil {
		if errors.Is(err, ErrEmailConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", shopauth.ErrStoreUnavailable, err)
	}

	return record, nil
}

// ConsumePendingCode finalizes a code-gated password set as one conditional
// update: inside a WATCH on the identity document, the stored pending code is
// compared (trim-exact, constant time) and checked against its expiry, and
// only then is the document rewritten with the new hash and a cleared code.
// A concurrent consumer that commits first invalidates this transaction, so
// of any number of racing calls exactly one can succeed.
func (s *Store) ConsumePendingCode(ctx context.Context, email, code, newPasswordHash string, markVerified bool) (*shopauth.Identity, error) {
	id, err := s.redis.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shopauth.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: %v", shopauth.ErrStoreUnavailable, err)
	}

	key := identityKey(id)
	submitted := strings.TrimSpace(code)

	for i := 0; i < consumeMaxRetries; i++ {
		var updated *shopauth.Identity

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return shopauth.ErrIdentityNotFound
				}
				return err
			}

			record, err := decodeIdentity(data)
			if err != nil {
				return err
			}

			stored := strings.TrimSpace(record.PendingCode)
			if stored == "" {
				return shopauth.ErrCodeInvalidOrExpired
			}
			if subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) != 1 {
				return shopauth.ErrCodeInvalidOrExpired
			}
			if !time.Now().Before(record.PendingCodeExpiresAt) {
				return shopauth.ErrCodeInvalidOrExpired
			}

			record.PasswordHash = newPasswordHash
			if markVerified {
				record.IsVerified = true
			}
			record.PendingCode = ""
			record.PendingCodeExpiresAt = time.Time{}
			record.UpdatedAt = time.Now().UTC()

			encoded, err := json.Marshal(record)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				return nil
			})
			if err != nil {
				return err
			}

			updated = record
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, shopauth.ErrIdentityNotFound),
				errors.Is(err, shopauth.ErrCodeInvalidOrExpired):
				return nil, err
			default:
				return nil, fmt.Errorf("%w: %v", shopauth.ErrStoreUnavailable, err)
			}
		}

		return updated, nil
	}

	// Every retry lost the WATCH race; whoever won consumed the code.
	return nil, shopauth.ErrCodeInvalidOrExpired
}

func decodeIdentity(data []byte) (*shopauth.Identity, error) {
	var record shopauth.Identity
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode identity record: %w", err)
	}
	return &record, nil
}
