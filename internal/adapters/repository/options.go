package repository

import "time"

// Option applies a configuration option to the BoltStore.
type Option func(*BoltStore)

// WithBucket sets the bucket events are kept in.
func WithBucket(name string) Option {
	return func(s *BoltStore) {
		if name != "" {
			s.bucket = []byte(name)
		}
	}
}

// WithOpenTimeout bounds how long opening waits for the file lock.
func WithOpenTimeout(d time.Duration) Option {
	return func(s *BoltStore) {
		if d > 0 {
			s.openTimeout = d
		}
	}
}
