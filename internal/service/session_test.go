package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/mocks"
	authmocks "github.com/kedaara/performance-hub/internal/mocks/auth"
	"github.com/kedaara/performance-hub/internal/ports"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	ids := []string{"sess-1", "sess-2", "sess-3", "sess-4"}
	i := 0
	return func() string {
		id := ids[i]
		i++
		return id
	}
}

func newTestService(t *testing.T, opts SessionServiceOptions) *SessionService {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	if opts.NewID == nil {
		opts.NewID = sequentialIDs()
	}
	svc, err := NewSessionService(opts)
	require.NoError(t, err)
	return svc
}

func TestNewSessionService_Validation(t *testing.T) {
	_, err := NewSessionService(SessionServiceOptions{})
	require.Error(t, err)

	_, err = NewSessionService(SessionServiceOptions{Sessions: authmocks.NewMemorySessionStore()})
	require.Error(t, err)

	_, err = NewSessionService(SessionServiceOptions{
		Sessions: authmocks.NewMemorySessionStore(),
		SSO:      authmocks.NewMockSSOProvider(),
	})
	require.Error(t, err, "SSO without a role mapper is rejected")

	svc, err := NewSessionService(SessionServiceOptions{
		Sessions:      authmocks.NewMemorySessionStore(),
		Authenticator: &authmocks.StubAuthenticator{Password: "pw"},
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionTTL, svc.ttl)
	assert.False(t, svc.SSOEnabled())
}

func TestSessionService_Login_Success(t *testing.T) {
	store := authmocks.NewMemorySessionStore()
	svc := newTestService(t, SessionServiceOptions{
		Authenticator: &authmocks.StubAuthenticator{Password: "pw"},
		Sessions:      store,
		TTL:           time.Hour,
	})
	ctx := context.Background()

	res, err := svc.Login(ctx, "", LoginInput{Identifier: " hr@kedaara.com ", Credential: "pw", Role: "HR Lead"})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", res.SessionID)
	assert.Equal(t, domainauth.Principal{Identifier: "hr@kedaara.com", Role: domainauth.RoleHRLead}, res.Principal)
	assert.Equal(t, testNow.Add(time.Hour), res.ExpiresAt)
	assert.Equal(t, time.Hour, store.TTL("sess-1"))

	got := svc.CurrentPrincipal(ctx, res.SessionID)
	require.NotNil(t, got)
	assert.Equal(t, res.Principal, *got)
}

func TestSessionService_Login_ReplacesPriorSession(t *testing.T) {
	store := authmocks.NewMemorySessionStore()
	svc := newTestService(t, SessionServiceOptions{
		Authenticator: &authmocks.StubAuthenticator{Password: "pw"},
		Sessions:      store,
	})
	ctx := context.Background()

	first, err := svc.Login(ctx, "", LoginInput{Identifier: "a@x.com", Credential: "pw", Role: "Employee"})
	require.NoError(t, err)

	second, err := svc.Login(ctx, first.SessionID, LoginInput{Identifier: "b@x.com", Credential: "pw", Role: "Mentor"})
	require.NoError(t, err)

	assert.Nil(t, svc.CurrentPrincipal(ctx, first.SessionID))
	got := svc.CurrentPrincipal(ctx, second.SessionID)
	require.NotNil(t, got)
	assert.Equal(t, domainauth.Principal{Identifier: "b@x.com", Role: domainauth.RoleMentor}, *got)
	assert.Equal(t, []string{second.SessionID}, store.IDs())
}

func TestSessionService_Login_FailureLeavesPriorSession(t *testing.T) {
	store := authmocks.NewMemorySessionStore()
	svc := newTestService(t, SessionServiceOptions{
		Authenticator: &authmocks.StubAuthenticator{Password: "pw"},
		Sessions:      store,
	})
	ctx := context.Background()

	first, err := svc.Login(ctx, "", LoginInput{Identifier: "a@x.com", Credential: "pw", Role: "Employee"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, first.SessionID, LoginInput{Identifier: "b@x.com", Credential: "wrong", Role: "Mentor"})
	require.Error(t, err)

	var authErr *domainauth.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, domainauth.FailureInvalidCredentials, authErr.Reason)

	got := svc.CurrentPrincipal(ctx, first.SessionID)
	require.NotNil(t, got)
	assert.Equal(t, "a@x.com", got.Identifier)
	assert.Equal(t, []string{first.SessionID}, store.IDs())
}

func TestSessionService_Login_InputErrors(t *testing.T) {
	stub := &authmocks.StubAuthenticator{Password: "pw"}
	svc := newTestService(t, SessionServiceOptions{
		Authenticator: stub,
		Sessions:      authmocks.NewMemorySessionStore(),
	})

	tests := []struct {
		name   string
		in     LoginInput
		reason domainauth.AuthenticationFailure
	}{
		{"empty identifier", LoginInput{Identifier: "  ", Credential: "pw"}, domainauth.FailureInvalidInput},
		{"empty credential", LoginInput{Identifier: "a@x.com"}, domainauth.FailureInvalidInput},
		{"unknown role", LoginInput{Identifier: "a@x.com", Credential: "pw", Role: "Intern"}, domainauth.FailureInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), "", tt.in)
			var authErr *domainauth.AuthenticationError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.reason, authErr.Reason)
		})
	}
	assert.Zero(t, stub.Calls, "the collaborator is not consulted for malformed input")
}

func TestSessionService_Login_CollaboratorErrorIsUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	authn := mocks.NewMockAuthenticator(ctrl)
	store := mocks.NewMockSessionStore(ctrl)

	authn.EXPECT().
		Authenticate(gomock.Any(), ports.Credentials{Identifier: "a@x.com", Secret: "pw"}).
		Return(domainauth.Principal{}, errors.New("dial tcp: connection refused"))

	svc := newTestService(t, SessionServiceOptions{Authenticator: authn, Sessions: store})

	_, err := svc.Login(context.Background(), "old", LoginInput{Identifier: "a@x.com", Credential: "pw"})
	var authErr *domainauth.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, domainauth.FailureUnavailable, authErr.Reason)
}

func TestSessionService_Login_SaveThenDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	authn := mocks.NewMockAuthenticator(ctrl)
	store := mocks.NewMockSessionStore(ctrl)

	principal := domainauth.Principal{Identifier: "root@x.com", Role: domainauth.RoleSystemAdministrator}
	data, err := domainauth.EncodePrincipal(principal)
	require.NoError(t, err)

	authn.EXPECT().Authenticate(gomock.Any(), gomock.Any()).Return(principal, nil)
	gomock.InOrder(
		store.EXPECT().Save(gomock.Any(), "sess-1", data, DefaultSessionTTL).Return(nil),
		store.EXPECT().Delete(gomock.Any(), "old").Return(errors.New("redis down")),
	)

	svc := newTestService(t, SessionServiceOptions{Authenticator: authn, Sessions: store})

	res, err := svc.Login(context.Background(), "old", LoginInput{Identifier: "root@x.com", Credential: "pw"})
	require.NoError(t, err, "failing to delete the prior slot does not fail the login")
	assert.Equal(t, principal, res.Principal)
}

func TestSessionService_Login_SaveFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	authn := mocks.NewMockAuthenticator(ctrl)
	store := mocks.NewMockSessionStore(ctrl)

	authn.EXPECT().Authenticate(gomock.Any(), gomock.Any()).
		Return(domainauth.Principal{Identifier: "a@x.com", Role: domainauth.RoleEmployee}, nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
	// No Delete expectation: the prior session must survive.

	svc := newTestService(t, SessionServiceOptions{Authenticator: authn, Sessions: store})

	_, err := svc.Login(context.Background(), "old", LoginInput{Identifier: "a@x.com", Credential: "pw"})
	var authErr *domainauth.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, domainauth.FailureUnavailable, authErr.Reason)
}

func TestSessionService_Logout(t *testing.T) {
	store := authmocks.NewMemorySessionStore()
	svc := newTestService(t, SessionServiceOptions{
		Authenticator: &authmocks.StubAuthenticator{Password: "pw"},
		Sessions:      store,
	})
	ctx := context.Background()

	res, err := svc.Login(ctx, "", LoginInput{Identifier: "a@x.com", Credential: "pw", Role: "Employee"})
	require.NoError(t, err)

	svc.Logout(ctx, res.SessionID)
	assert.Nil(t, svc.CurrentPrincipal(ctx, res.SessionID))

	// Idempotent, and storage failures are swallowed.
	svc.Logout(ctx, res.SessionID)
	svc.Logout(ctx, "")
	store.DeleteErr = errors.New("redis down")
	svc.Logout(ctx, "anything")
}

func TestSessionService_CurrentPrincipal_CorruptSlotsAreDeleted(t *testing.T) {
	corrupt := map[string][]byte{
		"not json":           []byte("{not json"),
		"missing identifier": []byte(`{"role":"Employee"}`),
		"unknown role":       []byte(`{"identifier":"a@x.com","role":"Intern"}`),
		"empty":              []byte(""),
	}
	for name, data := range corrupt {
		t.Run(name, func(t *testing.T) {
			store := authmocks.NewMemorySessionStore()
			store.Put("sid", data)
			svc := newTestService(t, SessionServiceOptions{
				Authenticator: &authmocks.StubAuthenticator{Password: "pw"},
				Sessions:      store,
			})

			assert.Nil(t, svc.CurrentPrincipal(context.Background(), "sid"))
			assert.Empty(t, store.IDs())
		})
	}
}

func TestSessionService_CurrentPrincipal_StorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	store.EXPECT().Load(gomock.Any(), "sid").Return(nil, errors.New("redis down"))

	svc := newTestService(t, SessionServiceOptions{
		Authenticator: &authmocks.StubAuthenticator{Password: "pw"},
		Sessions:      store,
	})

	assert.Nil(t, svc.CurrentPrincipal(context.Background(), "sid"))
	assert.Nil(t, svc.CurrentPrincipal(context.Background(), ""))
}

func ssoService(t *testing.T, provider *authmocks.MockSSOProvider, store ports.SessionStore) *SessionService {
	t.Helper()
	return newTestService(t, SessionServiceOptions{
		SSO:      provider,
		Sessions: store,
		Roles:    staticRoles{"kph-admins": domainauth.RoleSystemAdministrator, "kph-employees": domainauth.RoleEmployee},
		TTL:      8 * time.Hour,
	})
}

type staticRoles map[string]domainauth.Role

func (m staticRoles) Map(groups []string) (domainauth.Role, bool) {
	for _, g := range groups {
		if r, ok := m[g]; ok {
			return r, true
		}
	}
	return "", false
}

func TestSessionService_BeginSSO(t *testing.T) {
	svc := ssoService(t, authmocks.NewMockSSOProvider(), authmocks.NewMemorySessionStore())

	res, err := svc.BeginSSO(context.Background(), "http://localhost:8080/auth/callback")
	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", res.AuthURL)
	assert.Equal(t, "state-1", res.State)
	assert.Equal(t, "nonce-1", res.Nonce)

	_, err = svc.BeginSSO(context.Background(), "")
	require.Error(t, err)
}

func TestSessionService_CompleteSSO(t *testing.T) {
	provider := authmocks.NewMockSSOProvider()
	provider.ExchangeFunc = func(_ context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
		assert.Equal(t, ports.ExchangeInput{Code: "c", State: "s", Nonce: "n"}, in)
		return domainauth.Identity{
			UserID:    "u1",
			Email:     "root@kedaara.com",
			Groups:    []string{"kph-admins"},
			ExpiresAt: testNow.Add(time.Hour),
		}, nil
	}
	store := authmocks.NewMemorySessionStore()
	svc := ssoService(t, provider, store)

	res, err := svc.CompleteSSO(context.Background(), "", SSOInput{Code: "c", State: "s", Nonce: "n"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.Principal{Identifier: "root@kedaara.com", Role: domainauth.RoleSystemAdministrator}, res.Principal)
	assert.Equal(t, time.Hour, store.TTL(res.SessionID), "session never outlives the IdP token")
}

func TestSessionService_CompleteSSO_Failures(t *testing.T) {
	t.Run("no mapped group", func(t *testing.T) {
		provider := authmocks.NewMockSSOProvider()
		provider.DefaultUser.Groups = []string{"contractors"}
		store := authmocks.NewMemorySessionStore()
		svc := ssoService(t, provider, store)

		_, err := svc.CompleteSSO(context.Background(), "", SSOInput{Code: "c", State: "s", Nonce: "n"})
		var authErr *domainauth.AuthenticationError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, domainauth.FailureNoRole, authErr.Reason)
		assert.Empty(t, store.IDs())
	})

	t.Run("exchange error", func(t *testing.T) {
		provider := authmocks.NewMockSSOProvider()
		provider.ExchangeFunc = func(context.Context, ports.ExchangeInput) (domainauth.Identity, error) {
			return domainauth.Identity{}, errors.New("invalid nonce")
		}
		svc := ssoService(t, provider, authmocks.NewMemorySessionStore())

		_, err := svc.CompleteSSO(context.Background(), "", SSOInput{Code: "c", State: "s", Nonce: "n"})
		var authErr *domainauth.AuthenticationError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, domainauth.FailureInvalidCredentials, authErr.Reason)
	})

	t.Run("missing parameters", func(t *testing.T) {
		svc := ssoService(t, authmocks.NewMockSSOProvider(), authmocks.NewMemorySessionStore())
		_, err := svc.CompleteSSO(context.Background(), "", SSOInput{Code: "c"})
		require.Error(t, err)
	})

	t.Run("not configured", func(t *testing.T) {
		svc := newTestService(t, SessionServiceOptions{
			Authenticator: &authmocks.StubAuthenticator{Password: "pw"},
			Sessions:      authmocks.NewMemorySessionStore(),
		})
		_, err := svc.BeginSSO(context.Background(), "/cb")
		require.Error(t, err)
		_, err = svc.CompleteSSO(context.Background(), "", SSOInput{Code: "c", State: "s", Nonce: "n"})
		require.Error(t, err)
	})
}

type pingingStore struct {
	*authmocks.MemorySessionStore
	err error
}

func (p pingingStore) Ping(context.Context) error { return p.err }

type pingingAuthenticator struct {
	authmocks.StubAuthenticator
	err error
}

func (p *pingingAuthenticator) Ping(context.Context) error { return p.err }

func TestSessionService_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		svc := newTestService(t, SessionServiceOptions{
			Authenticator: &pingingAuthenticator{},
			Sessions:      pingingStore{MemorySessionStore: authmocks.NewMemorySessionStore()},
		})
		require.NoError(t, svc.Health(context.Background()))
	})

	t.Run("collaborator down", func(t *testing.T) {
		svc := newTestService(t, SessionServiceOptions{
			Authenticator: &pingingAuthenticator{err: errors.New("503")},
			Sessions:      pingingStore{MemorySessionStore: authmocks.NewMemorySessionStore()},
		})
		err := svc.Health(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth collaborator")
	})

	t.Run("store down", func(t *testing.T) {
		svc := newTestService(t, SessionServiceOptions{
			Authenticator: &authmocks.StubAuthenticator{},
			Sessions:      pingingStore{MemorySessionStore: authmocks.NewMemorySessionStore(), err: errors.New("refused")},
		})
		err := svc.Health(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "session store")
	})

	t.Run("nothing to check", func(t *testing.T) {
		svc := newTestService(t, SessionServiceOptions{
			Authenticator: &authmocks.StubAuthenticator{},
			Sessions:      authmocks.NewMemorySessionStore(),
		})
		require.NoError(t, svc.Health(context.Background()))
	})
}
