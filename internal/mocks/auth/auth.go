package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	domainauth "github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.SSOProvider   = (*MockSSOProvider)(nil)
	_ ports.SessionStore  = (*MemorySessionStore)(nil)
	_ ports.Authenticator = (*StubAuthenticator)(nil)
)

// MockSSOProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockSSOProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	AuthURL     string
	DefaultUser domainauth.Identity

	mu        sync.Mutex
	callCount int
}

// NewMockSSOProvider creates a MockSSOProvider with sensible defaults.
func NewMockSSOProvider() *MockSSOProvider {
	return &MockSSOProvider{
		AuthURL: "https://mock-idp/auth",
		DefaultUser: domainauth.Identity{
			UserID: "mock-user-1",
			Email:  "mock.user@kedaara.com",
			Groups: []string{"kph-employees"},
		},
	}
}

func (m *MockSSOProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}
	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()
	return m.AuthURL, fmt.Sprintf("state-%d", n), fmt.Sprintf("nonce-%d", n), nil
}

func (m *MockSSOProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	user := m.DefaultUser
	user.Groups = slices.Clone(user.Groups)
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
// Set the *Err fields to simulate storage failures.
type MemorySessionStore struct {
	mu    sync.Mutex
	slots map[string][]byte
	ttls  map[string]time.Duration

	LoadErr   error
	SaveErr   error
	DeleteErr error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		slots: make(map[string][]byte),
		ttls:  make(map[string]time.Duration),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, id string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if id == "" {
		return errors.New("session ID cannot be empty")
	}
	m.slots[id] = slices.Clone(data)
	m.ttls[id] = ttl
	return nil
}

func (m *MemorySessionStore) Load(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	data, ok := m.slots[id]
	if !ok {
		return nil, ports.ErrSessionNotFound
	}
	return slices.Clone(data), nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.slots, id)
	delete(m.ttls, id)
	return nil
}

// Put writes raw slot content, bypassing encoding. Useful for corrupt-value tests.
func (m *MemorySessionStore) Put(id string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[id] = slices.Clone(data)
}

// IDs returns the ids of all stored slots, sorted.
func (m *MemorySessionStore) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.slots))
}

// TTL returns the ttl the slot was saved with.
func (m *MemorySessionStore) TTL(id string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[id]
}

// StubAuthenticator accepts the credential Password for any identifier and
// returns the role the caller selected, or DefaultRole when none was selected.
type StubAuthenticator struct {
	Password    string
	DefaultRole domainauth.Role
	Calls       int
}

func (s *StubAuthenticator) Authenticate(_ context.Context, creds ports.Credentials) (domainauth.Principal, error) {
	s.Calls++
	if creds.Secret != s.Password {
		return domainauth.Principal{}, domainauth.NewAuthenticationError(domainauth.FailureInvalidCredentials, nil)
	}
	role := creds.Role
	if role == "" {
		role = s.DefaultRole
	}
	if !role.Valid() {
		return domainauth.Principal{}, domainauth.NewAuthenticationError(domainauth.FailureInvalidRole, nil)
	}
	return domainauth.Principal{Identifier: creds.Identifier, Role: role}, nil
}
