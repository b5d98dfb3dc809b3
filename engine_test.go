package shopauth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/phitku/shopauth/jwt"
)

// Shared fixtures for the engine flow tests. The store and courier fakes are
// in-memory; Redis-backed behavior is covered in package redistore and
// internal/rate.

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte(strings.Repeat("s", 32))
	// Lowest bcrypt cost keeps the flow tests fast.
	cfg.Password.BcryptCost = 4
	cfg.Audit.Enabled = false
	return cfg
}

func newTestEngine(t *testing.T, store CredentialStore, courier Courier) *Engine {
	t.Helper()

	builder := New().WithConfig(testConfig()).WithStore(store)
	if courier != nil {
		builder = builder.WithCourier(courier)
	}

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

// fixCode pins the generated code so tests can submit it.
func fixCode(engine *Engine, code string) {
	engine.newCode = func(int) (string, error) {
		return code, nil
	}
}

// fixClock pins the engine clock. The returned setter moves it.
func fixClock(engine *Engine, start time.Time) func(time.Time) {
	current := start
	engine.now = func() time.Time {
		return current
	}
	return func(at time.Time) {
		current = at
	}
}

type fakeStore struct {
	mu      sync.Mutex
	byID    map[string]*Identity
	byEmail map[string]string

	// now drives the consume expiry gate; nil means time.Now.
	now func() time.Time

	failAll bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byID:    make(map[string]*Identity),
		byEmail: make(map[string]string),
	}
}

func (s *fakeStore) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAll {
		return nil, ErrStoreUnavailable
	}

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAll {
		return nil, ErrStoreUnavailable
	}

	identity, ok := s.byID[id]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	return identity.Clone(), nil
}

func (s *fakeStore) Upsert(_ context.Context, identity *Identity) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAll {
		return nil, ErrStoreUnavailable
	}

	record := identity.Clone()
	record.Email = NormalizeEmail(record.Email)
	if record.ID == "" {
		record.ID = uuid.NewString()
		record.CreatedAt = s.clock()
	}
	record.UpdatedAt = s.clock()

	s.byID[record.ID] = record
	s.byEmail[record.Email] = record.ID
	return record.Clone(), nil
}

func (s *fakeStore) ConsumePendingCode(_ context.Context, email, code, newPasswordHash string, markVerified bool) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAll {
		return nil, ErrStoreUnavailable
	}

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	record := s.byID[id]

	stored := strings.TrimSpace(record.PendingCode)
	if stored == "" || stored != strings.TrimSpace(code) {
		return nil, ErrCodeInvalidOrExpired
	}
	if !s.clock().Before(record.PendingCodeExpiresAt) {
		return nil, ErrCodeInvalidOrExpired
	}

	record.PasswordHash = newPasswordHash
	if markVerified {
		record.IsVerified = true
	}
	record.PendingCode = ""
	record.PendingCodeExpiresAt = time.Time{}
	record.UpdatedAt = s.clock()

	return record.Clone(), nil
}

// get returns the raw stored record for assertions.
func (s *fakeStore) get(t *testing.T, email string) *Identity {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		t.Fatalf("no record for %s", email)
	}
	return s.byID[id].Clone()
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeCourier struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

func (c *fakeCourier) Send(_ context.Context, toAddress, subject, htmlBody string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fail != nil {
		return c.fail
	}
	c.sent = append(c.sent, sentMail{To: toAddress, Subject: subject, Body: htmlBody})
	return nil
}

func (c *fakeCourier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *fakeCourier) last(t *testing.T) sentMail {
	t.Helper()

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		t.Fatal("no mail sent")
	}
	return c.sent[len(c.sent)-1]
}

func newJWTManager(t *testing.T, timeFunc func() time.Time) *jwt.Manager {
	t.Helper()

	manager, err := jwt.NewManager(jwt.Config{
		Secret:     []byte(strings.Repeat("s", 32)),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 30 * 24 * time.Hour,
		Issuer:     "shopauth",
		TimeFunc:   timeFunc,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return manager
}
