package shopauth

import "sync/atomic"

// MetricID identifies a single counter in the in-process metrics system.
type MetricID uint16

const (
	// MetricCodeIssued counts successfully issued verification codes
	// (registration and reset combined).
	MetricCodeIssued MetricID = iota
	// MetricCodeVerifySuccess counts successful non-consuming code checks.
	MetricCodeVerifySuccess
	// MetricCodeVerifyFailure counts failed code checks (mismatch, expired,
	// no pending code).
	MetricCodeVerifyFailure
	// MetricCodeConsumed counts successful consuming checks (password set).
	MetricCodeConsumed
	// MetricCodeRateLimited counts throttled issue/confirm attempts.
	MetricCodeRateLimited
	// MetricRegistrationCompleted counts identities reaching verified state.
	MetricRegistrationCompleted
	// MetricPasswordResetCompleted counts completed password resets.
	MetricPasswordResetCompleted
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess
	// MetricLoginFailure counts rejected logins.
	MetricLoginFailure
	// MetricAuthenticateSuccess counts bearer tokens resolved to an identity.
	MetricAuthenticateSuccess
	// MetricAuthenticateFailure counts rejected bearer tokens.
	MetricAuthenticateFailure
	// MetricDeliveryFailure counts swallowed outbound-mail failures.
	MetricDeliveryFailure
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters for engine operations. A nil or disabled
// Metrics turns every operation into a no-op.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a [Metrics] instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counting is active.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	return s
}
