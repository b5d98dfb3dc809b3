package rate

import "errors"

var (
	// ErrRateLimited reports that the fixed-window budget for a key is spent.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps transport failures talking to the counter backend.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
