// Package memstore keeps Session slots in a bounded in-process LRU.
// Suitable for a single replica or local development; slots are lost on restart.
package memstore

import (
	"context"
	"errors"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kedaara/performance-hub/internal/ports"
)

// DefaultCapacity bounds the number of live sessions kept in memory.
const DefaultCapacity = 10_000

type entry struct {
	data      []byte
	expiresAt time.Time
}

// SessionStore is an in-memory ports.SessionStore.
// The LRU's own TTL is a ceiling; each slot also carries its own expiry.
type SessionStore struct {
	cache *lru.LRU[string, entry]
	now   func() time.Time
}

var _ ports.SessionStore = (*SessionStore)(nil)

// Options configures the store.
type Options struct {
	Capacity int
	// MaxTTL is the longest lifetime any slot may have.
	MaxTTL time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewSessionStore creates an in-memory store.
func NewSessionStore(opts Options) *SessionStore {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SessionStore{
		cache: lru.NewLRU[string, entry](opts.Capacity, nil, opts.MaxTTL),
		now:   opts.Now,
	}
}

func (s *SessionStore) Save(_ context.Context, id string, data []byte, ttl time.Duration) error {
	if id == "" {
		return errors.New("session ID cannot be empty")
	}
	if ttl <= 0 {
		return errors.New("session ttl must be positive")
	}
	s.cache.Add(id, entry{data: slices.Clone(data), expiresAt: s.now().Add(ttl)})
	return nil
}

func (s *SessionStore) Load(_ context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, ports.ErrSessionNotFound
	}
	e, ok := s.cache.Get(id)
	if !ok {
		return nil, ports.ErrSessionNotFound
	}
	if !s.now().Before(e.expiresAt) {
		s.cache.Remove(id)
		return nil, ports.ErrSessionNotFound
	}
	return slices.Clone(e.data), nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	if id != "" {
		s.cache.Remove(id)
	}
	return nil
}

// Ping always succeeds.
func (s *SessionStore) Ping(context.Context) error { return nil }

// Len reports the number of slots currently held.
func (s *SessionStore) Len() int { return s.cache.Len() }
