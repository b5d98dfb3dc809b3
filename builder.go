package shopauth

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/phitku/shopauth/internal/rate"
	"github.com/phitku/shopauth/jwt"
	"github.com/phitku/shopauth/password"
)

// Builder assembles an [Engine]. Collaborators are supplied explicitly —
// there are no package-level clients or module-load side effects; lifecycle
// belongs to the process that calls Build and Close.
type Builder struct {
	config  Config
	redis   *redis.Client
	store   CredentialStore
	courier Courier

	auditSink AuditSink

	built bool
}

// New starts a builder from [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore supplies the credential store. Required.
func (b *Builder) WithStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithCourier supplies the outbound-mail collaborator. Optional: without one
// the engine still runs and codes are only observable through the store,
// which is how most tests operate.
func (b *Builder) WithCourier(courier Courier) *Builder {
	b.courier = courier
	return b
}

// WithRedis supplies the client backing the attempt throttles. Optional:
// without it all throttling is skipped, regardless of Limits config.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithAuditSink supplies the audit event consumer.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the engine. A missing or short
// signing secret fails here, at startup, never per-request.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("credential store required")
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		Secret:     cfg.JWT.Secret,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Issuer:     cfg.JWT.Issuer,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Config{Cost: cfg.Password.BcryptCost})
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if b.redis != nil && (cfg.Limits.EnableIssueThrottle || cfg.Limits.EnableConfirmThrottle) {
		limiter = rate.New(b.redis, rate.Config{
			EnableIssueThrottle:   cfg.Limits.EnableIssueThrottle,
			EnableConfirmThrottle: cfg.Limits.EnableConfirmThrottle,
			MaxIssuesPerWindow:    cfg.Limits.MaxIssuesPerWindow,
			IssueWindow:           cfg.Limits.IssueWindow,
			MaxConfirmAttempts:    cfg.Limits.MaxConfirmAttempts,
			ConfirmWindow:         cfg.Limits.ConfirmWindow,
		})
	}

	engine := &Engine{
		config:     cfg,
		store:      b.store,
		courier:    b.courier,
		limiter:    limiter,
		audit:      newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:    NewMetrics(cfg.Metrics),
		hasher:     hasher,
		jwtManager: jwtManager,
	}

	b.built = true
	return engine, nil
}
