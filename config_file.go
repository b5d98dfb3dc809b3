package shopauth

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML shape of a config file. Durations are Go duration
// strings ("10m", "720h"). Absent sections keep their defaults.
type fileConfig struct {
	Production *bool `yaml:"production"`
	OTP        struct {
		Digits  *int   `yaml:"digits"`
		CodeTTL string `yaml:"code_ttl"`
	} `yaml:"otp"`
	JWT struct {
		Secret     string `yaml:"secret"`
		AccessTTL  string `yaml:"access_ttl"`
		RefreshTTL string `yaml:"refresh_ttl"`
		Issuer     string `yaml:"issuer"`
	} `yaml:"jwt"`
	Password struct {
		BcryptCost *int `yaml:"bcrypt_cost"`
	} `yaml:"password"`
	Limits struct {
		IssueThrottle      *bool  `yaml:"issue_throttle"`
		ConfirmThrottle    *bool  `yaml:"confirm_throttle"`
		MaxIssuesPerWindow *int   `yaml:"max_issues_per_window"`
		IssueWindow        string `yaml:"issue_window"`
		MaxConfirmAttempts *int   `yaml:"max_confirm_attempts"`
		ConfirmWindow      string `yaml:"confirm_window"`
	} `yaml:"limits"`
	Audit struct {
		Enabled    *bool `yaml:"enabled"`
		BufferSize *int  `yaml:"buffer_size"`
		DropIfFull *bool `yaml:"drop_if_full"`
	} `yaml:"audit"`
	Metrics struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// LoadConfigFile reads a YAML config file over [DefaultConfig]. The result is
// not validated; [Builder.Build] validates the final assembled config.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	if fc.Production != nil {
		cfg.Production = *fc.Production
	}
	if fc.OTP.Digits != nil {
		cfg.OTP.Digits = *fc.OTP.Digits
	}
	if err := overrideDuration(&cfg.OTP.CodeTTL, fc.OTP.CodeTTL, "otp.code_ttl"); err != nil {
		return cfg, err
	}
	if fc.JWT.Secret != "" {
		cfg.JWT.Secret = []byte(fc.JWT.Secret)
	}
	if err := overrideDuration(&cfg.JWT.AccessTTL, fc.JWT.AccessTTL, "jwt.access_ttl"); err != nil {
		return cfg, err
	}
	if err := overrideDuration(&cfg.JWT.RefreshTTL, fc.JWT.RefreshTTL, "jwt.refresh_ttl"); err != nil {
		return cfg, err
	}
	if fc.JWT.Issuer != "" {
		cfg.JWT.Issuer = fc.JWT.Issuer
	}
	if fc.Password.BcryptCost != nil {
		cfg.Password.BcryptCost = *fc.Password.BcryptCost
	}
	if fc.Limits.IssueThrottle != nil {
		cfg.Limits.EnableIssueThrottle = *fc.Limits.IssueThrottle
	}
	if fc.Limits.ConfirmThrottle != nil {
		cfg.Limits.EnableConfirmThrottle = *fc.Limits.ConfirmThrottle
	}
	if fc.Limits.MaxIssuesPerWindow != nil {
		cfg.Limits.MaxIssuesPerWindow = *fc.Limits.MaxIssuesPerWindow
	}
	if err := overrideDuration(&cfg.Limits.IssueWindow, fc.Limits.IssueWindow, "limits.issue_window"); err != nil {
		return cfg, err
	}
	if fc.Limits.MaxConfirmAttempts != nil {
		cfg.Limits.MaxConfirmAttempts = *fc.Limits.MaxConfirmAttempts
	}
	if err := overrideDuration(&cfg.Limits.ConfirmWindow, fc.Limits.ConfirmWindow, "limits.confirm_window"); err != nil {
		return cfg, err
	}
	if fc.Audit.Enabled != nil {
		cfg.Audit.Enabled = *fc.Audit.Enabled
	}
	if fc.Audit.BufferSize != nil {
		cfg.Audit.BufferSize = *fc.Audit.BufferSize
	}
	if fc.Audit.DropIfFull != nil {
		cfg.Audit.DropIfFull = *fc.Audit.DropIfFull
	}
	if fc.Metrics.Enabled != nil {
		cfg.Metrics.Enabled = *fc.Metrics.Enabled
	}

	return cfg, nil
}

func overrideDuration(dst *time.Duration, raw, field string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration for %s: %w", field, err)
	}
	*dst = d
	return nil
}
