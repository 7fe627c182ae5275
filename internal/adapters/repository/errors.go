package repository

import "errors"

// Sentinel kinds for event store errors.
var (
	ErrNotFound     = errors.New("event not found")
	ErrConflict     = errors.New("event already exists")
	ErrInvalidEvent = errors.New("invalid event")
	ErrClosed       = errors.New("store closed")
)
