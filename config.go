package shopauth

import (
	"errors"
	"time"
)

// Config carries every tunable of the engine. Zero values are not usable;
// start from [DefaultConfig] and override.
type Config struct {
	OTP      OTPConfig
	JWT      JWTConfig
	Password PasswordConfig
	Limits   LimitsConfig
	Audit    AuditConfig
	Metrics  MetricsConfig

	// Production hardens cookie issuance (Secure flag) and is reported to the
	// HTTP layer. Local development leaves it false.
	Production bool
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig tunes one-time-code issuance and verification.
type OTPConfig struct {
	// Digits is the code length. Codes are drawn uniformly from the full
	// fixed-width range, so a 6-digit code is always exactly 6 characters.
	Digits int
	// CodeTTL is the validity window from issuance. The code is invalid at
	// and after issuance time + CodeTTL.
	CodeTTL time.Duration
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig tunes token signing. Secret must be present at startup; a missing
// secret aborts [Builder.Build] rather than being handled per-request.
type JWTConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig tunes bcrypt hashing. Cost is independent of the strength
// policy, which is fixed (8+ chars, letter and digit required).
type PasswordConfig struct {
	BcryptCost int
}

/*
====================================
LIMITS CONFIG
====================================
*/

// LimitsConfig tunes the Redis attempt throttles. Both throttles are keyed
// per normalized email, with an additional per-IP issuance counter when the
// caller attaches an IP via [WithClientIP]. Disabled limits are skipped; the
// engine also skips all throttling when built without a Redis client.
type LimitsConfig struct {
	EnableIssueThrottle   bool
	EnableConfirmThrottle bool
	// MaxIssuesPerWindow caps code issuance per email (and per IP) within
	// IssueWindow.
	MaxIssuesPerWindow int
	IssueWindow        time.Duration
	// MaxConfirmAttempts caps verify/consume attempts per email within
	// ConfirmWindow, closing the 10^Digits brute-force surface.
	MaxConfirmAttempts int
	ConfirmWindow      time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig tunes the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig tunes the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the settings the storefront runs with: 6-digit codes
// valid 10 minutes, 15-minute access tokens, 30-day refresh tokens, bcrypt
// cost 10, and confirm attempts capped at 5 per code window.
func DefaultConfig() Config {
	return Config{
		OTP: OTPConfig{
			Digits:  6,
			CodeTTL: 10 * time.Minute,
		},
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 30 * 24 * time.Hour,
			Issuer:     "shopauth",
		},
		Password: PasswordConfig{
			BcryptCost: 10,
		},
		Limits: LimitsConfig{
			EnableIssueThrottle:   true,
			EnableConfirmThrottle: true,
			MaxIssuesPerWindow:    5,
			IssueWindow:           10 * time.Minute,
			MaxConfirmAttempts:    5,
			ConfirmWindow:         10 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return errors.New("OTP.Digits must be between 4 and 10")
	}
	if c.OTP.CodeTTL <= 0 {
		return errors.New("OTP.CodeTTL must be positive")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT.Secret must be at least 32 bytes")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT TTLs must be positive")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT.RefreshTTL must not be shorter than JWT.AccessTTL")
	}
	if c.Password.BcryptCost < 4 || c.Password.BcryptCost > 31 {
		return errors.New("Password.BcryptCost out of bcrypt range")
	}
	if c.Limits.EnableIssueThrottle {
		if c.Limits.MaxIssuesPerWindow <= 0 || c.Limits.IssueWindow <= 0 {
			return errors.New("issue throttle requires positive budget and window")
		}
	}
	if c.Limits.EnableConfirmThrottle {
		if c.Limits.MaxConfirmAttempts <= 0 || c.Limits.ConfirmWindow <= 0 {
			return errors.New("confirm throttle requires positive budget and window")
		}
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be positive when audit is enabled")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = append([]byte(nil), cfg.JWT.Secret...)
	return out
}
