package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/okian/calgrid/internal/domain/model"
)

const (
	defaultBucket      = "events"
	defaultOpenTimeout = time.Second
	dbFileMode         = 0o600
)

// BoltStore persists events in a bbolt file, one JSON value per id.
type BoltStore struct {
	db          *bolt.DB
	bucket      []byte
	openTimeout time.Duration
	closed      atomic.Bool
}

// OpenBoltStore opens (creating if needed) the database at path.
func OpenBoltStore(path string, opts ...Option) (*BoltStore, error) {
	s := &BoltStore{
		bucket:      []byte(defaultBucket),
		openTimeout: defaultOpenTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := bolt.Open(path, dbFileMode, &bolt.Options{Timeout: s.openTimeout})
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(s.bucket); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.db = db
	return s, nil
}

func (s *BoltStore) view(fn func(tx *bolt.Tx) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return closedErr(s.db.View(fn))
}

func (s *BoltStore) update(fn func(tx *bolt.Tx) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return closedErr(s.db.Update(fn))
}

// closedErr maps bbolt's not-open error for calls racing with Close.
func closedErr(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

func (s *BoltStore) put(ev model.Event, mustExist, mustNotExist bool) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.ID, err)
	}
	return s.update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		exists := b.Get([]byte(ev.ID)) != nil
		switch {
		case mustExist && !exists:
			return ErrNotFound
		case mustNotExist && exists:
			return ErrConflict
		}
		return b.Put([]byte(ev.ID), raw)
	})
}

func (s *BoltStore) Create(_ context.Context, ev model.Event) (model.Event, error) {
	ev, err := prepare(ev)
	if err != nil {
		return model.Event{}, err
	}
	if err := s.put(ev, false, true); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

func (s *BoltStore) Upsert(_ context.Context, ev model.Event) error {
	ev, err := prepare(ev)
	if err != nil {
		return err
	}
	return s.put(ev, false, false)
}

func (s *BoltStore) Update(_ context.Context, ev model.Event) (model.Event, error) {
	if err := Validate(ev); err != nil {
		return model.Event{}, err
	}
	if err := s.put(ev, true, false); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

func (s *BoltStore) Get(_ context.Context, id string) (model.Event, error) {
	var ev model.Event
	err := s.view(func(tx *bolt.Tx) error {
		raw := tx.Bucket(s.bucket).Get([]byte(id))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &ev)
	})
	if err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

func (s *BoltStore) Delete(_ context.Context, id string) error {
	return s.update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(id))
	})
}

func (s *BoltStore) scan(keep func(model.Event) bool) ([]model.Event, error) {
	out := make([]model.Event, 0)
	err := s.view(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, v []byte) error {
			var ev model.Event
			if err := json.Unmarshal(v, &ev); err != nil {
				return fmt.Errorf("decode event %s: %w", k, err)
			}
			if keep(ev) {
				out = append(out, ev)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortEvents(out)
	return out, nil
}

func (s *BoltStore) List(_ context.Context) ([]model.Event, error) {
	return s.scan(func(model.Event) bool { return true })
}

func (s *BoltStore) InRange(_ context.Context, from, to time.Time) ([]model.Event, error) {
	return s.scan(func(ev model.Event) bool { return overlaps(ev, from, to) })
}

func (s *BoltStore) Count(_ context.Context) int {
	n := 0
	_ = s.view(func(tx *bolt.Tx) error {
		n = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return n
}

// Close releases the database file. Later calls return ErrClosed.
func (s *BoltStore) Close() error {
	if s.db == nil || !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}
