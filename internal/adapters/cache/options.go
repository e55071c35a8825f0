package cache

import "time"

// Option applies a configuration option to a cache backend.
type Option func(*settings)

type settings struct {
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

func newSettings(opts []Option) settings {
	s := settings{prefix: "gridiron", now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithTTL expires entries after ttl. Zero keeps entries until invalidated.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithPrefix sets the Redis key prefix.
func WithPrefix(prefix string) Option {
	return func(s *settings) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithClock replaces the clock used for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}
