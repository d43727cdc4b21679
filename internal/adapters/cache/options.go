package cache

import "time"

// Default store configuration constants.
const (
	defaultCapacity      = 5_000
	defaultEvictionBatch = 50
)

type options struct {
	capacity      int
	evictionBatch int
	now           func() time.Time
}

func defaultOptions() options {
	return options{
		capacity:      defaultCapacity,
		evictionBatch: defaultEvictionBatch,
		now:           time.Now,
	}
}

// Option applies a configuration option to a Store or to every store of a Cache.
type Option func(*options)

// WithCapacity bounds the number of entries per store.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithEvictionBatch sets how many of the oldest entries are dropped at once
// when a store is full.
func WithEvictionBatch(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.evictionBatch = n
		}
	}
}

// WithClock injects the time source used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
