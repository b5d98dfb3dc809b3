package password

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	minLength = 8
	// Symbols allowed alongside letters and digits. Mirrors the storefront's
	// client-side policy so server and UI reject the same inputs.
	allowedSymbols = "@$!%*#?&"
)

// ErrPolicy reports a password failing the minimum-strength policy.
var ErrPolicy = errors.New("password must be 8+ characters with at least one letter and one digit")

// Config tunes bcrypt hashing. Cost is tunable independently of the policy.
type Config struct {
	Cost int
}

// Hasher is a bcrypt-backed adaptive salted password hasher.
type Hasher struct {
	config Config
}

// NewHasher validates cfg and returns a ready hasher.
func NewHasher(cfg Config) (*Hasher, error) {
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	return &Hasher{config: cfg}, nil
}

// Hash derives a salted digest of the plaintext. Policy checking is the
// caller's concern; Hash accepts any input bcrypt accepts.
func (h *Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.config.Cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Compare reports whether plaintext matches the stored digest. Any
// malformed-digest error counts as a mismatch.
func (h *Hasher) Compare(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// CheckPolicy enforces the minimum-strength policy: at least 8 characters
// drawn from letters, digits, and a small symbol set, with at least one
// letter and at least one digit.
func CheckPolicy(plaintext string) error {
	if len(plaintext) < minLength {
		return ErrPolicy
	}

	var hasLetter, hasDigit bool
	for _, r := range plaintext {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(allowedSymbols, r):
		default:
			return ErrPolicy
		}
	}

	if !hasLetter || !hasDigit {
		return ErrPolicy
	}
	return nil
}
