package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	performancehub "github.com/kedaara/performance-hub"
	domainauth "github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/service"
)

const testCSRFToken = "test-csrf-token"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter builds the full router over the embedded frontend.
func newTestRouter(t *testing.T, sessions SessionService) http.Handler {
	t.Helper()
	h, err := NewRouter(RouterServices{
		Sessions:   sessions,
		TemplateFS: performancehub.TemplateFS(),
		StaticFS:   performancehub.StaticFS(),
		Logger:     discardLogger(),
	})
	require.NoError(t, err)
	return h
}

// browser keeps cookies across requests the way a real browser would.
type browser struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, h http.Handler) *browser {
	t.Helper()
	return &browser{
		t:       t,
		handler: h,
		cookies: map[string]*http.Cookie{
			DefaultCSRFCookieName: {Name: DefaultCSRFCookieName, Value: testCSRFToken},
		},
	}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	b.t.Helper()
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set(DefaultCSRFFieldName, testCSRFToken)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) login(identifier, credential, role string) *httptest.ResponseRecorder {
	b.t.Helper()
	return b.post("/login", url.Values{
		"identifier": {identifier},
		"credential": {credential},
		"role":       {role},
	})
}

func (b *browser) sessionID() string {
	if c, ok := b.cookies[DefaultSessionCookieName]; ok {
		return c.Value
	}
	return ""
}

// fakeSessions is a hand-rolled SessionService for handler tests.
type fakeSessions struct {
	mu sync.Mutex

	principals map[string]*domainauth.Principal
	loginFunc  func(ctx context.Context, prior string, in service.LoginInput) (*service.LoginResult, error)
	sso        bool
	beginFunc  func(ctx context.Context, redirectURL string) (*service.BeginSSOResult, error)
	finishFunc func(ctx context.Context, prior string, in service.SSOInput) (*service.LoginResult, error)
	healthErr  error

	loggedOut []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{principals: map[string]*domainauth.Principal{}}
}

func (f *fakeSessions) Login(ctx context.Context, prior string, in service.LoginInput) (*service.LoginResult, error) {
	if f.loginFunc != nil {
		return f.loginFunc(ctx, prior, in)
	}
	return nil, domainauth.NewAuthenticationError(domainauth.FailureInvalidCredentials, nil)
}

func (f *fakeSessions) Logout(_ context.Context, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = append(f.loggedOut, id)
	delete(f.principals, id)
}

func (f *fakeSessions) CurrentPrincipal(_ context.Context, id string) *domainauth.Principal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.principals[id]
}

func (f *fakeSessions) SSOEnabled() bool { return f.sso }

func (f *fakeSessions) BeginSSO(ctx context.Context, redirectURL string) (*service.BeginSSOResult, error) {
	return f.beginFunc(ctx, redirectURL)
}

func (f *fakeSessions) CompleteSSO(ctx context.Context, prior string, in service.SSOInput) (*service.LoginResult, error) {
	return f.finishFunc(ctx, prior, in)
}

func (f *fakeSessions) Health(context.Context) error { return f.healthErr }

func (f *fakeSessions) signIn(id string, p domainauth.Principal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.principals[id] = &p
}
