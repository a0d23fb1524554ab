package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/domain/nav"
	"github.com/kedaara/performance-hub/internal/domain/routing"
	"github.com/kedaara/performance-hub/internal/service"
)

// SessionService defines the session operations the HTTP layer depends on.
type SessionService interface {
	Login(ctx context.Context, priorSessionID string, in service.LoginInput) (*service.LoginResult, error)
	Logout(ctx context.Context, sessionID string)
	CurrentPrincipal(ctx context.Context, sessionID string) *domainauth.Principal
	SSOEnabled() bool
	BeginSSO(ctx context.Context, redirectURL string) (*service.BeginSSOResult, error)
	CompleteSSO(ctx context.Context, priorSessionID string, in service.SSOInput) (*service.LoginResult, error)
	Health(ctx context.Context) error
}

// AuthHandlers provides HTTP handlers for login, logout and SSO.
type AuthHandlers struct {
	Svc     SessionService
	UI      *UIHandlers
	Cookies CookieConfig
	// CallbackURL is the absolute SSO redirect URL. Derived from the request when empty.
	CallbackURL string
	Logger      *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// LoginForm renders the login screen.
// GET /login.
// A signed-in user is sent to their landing screen instead.
func (h *AuthHandlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if p, ok := PrincipalFromContext(r.Context()); ok {
		if target, found := nav.DefaultPath(p.Role); found {
			redirect(w, r, target)
			return
		}
	}
	h.renderLogin(w, r, http.StatusOK, loginFormState{})
}

type loginFormState struct {
	identifier string
	role       string
	message    string
}

func (h *AuthHandlers) renderLogin(w http.ResponseWriter, r *http.Request, status int, st loginFormState) {
	page := h.UI.newPage(r, h.UI.descriptor(routing.PathLogin))
	page.Form.Identifier = st.identifier
	page.Form.Role = st.role
	page.ErrorMessage = st.message
	page.SSOEnabled = h.Svc.SSOEnabled()
	h.UI.render(w, r, status, page)
}

// Login authenticates the submitted form.
// POST /login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, loginFormState{message: LoginFailedMessage})
		return
	}

	in := service.LoginInput{
		Identifier: firstFormValue(r, "identifier", "email"),
		Credential: firstFormValue(r, "credential", "password"),
		Role:       r.PostForm.Get("role"),
	}

	res, err := h.Svc.Login(r.Context(), h.Cookies.sessionID(r), in)
	if err != nil {
		h.logLoginFailure(r, err)
		h.renderLogin(w, r, http.StatusUnauthorized, loginFormState{
			identifier: strings.TrimSpace(in.Identifier),
			role:       in.Role,
			message:    LoginFailedMessage,
		})
		return
	}

	h.Cookies.setSession(w, r, res.SessionID, res.ExpiresAt)
	redirect(w, r, landingPath(res.Principal.Role))
}

// Logout invalidates the session and returns to the login screen.
// POST /logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.Svc.Logout(r.Context(), h.Cookies.sessionID(r))
	h.Cookies.clear(w, r, h.Cookies.name())
	w.Header().Set("Cache-Control", "no-store")
	redirect(w, r, routing.PathLogin)
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"principal":     p,
		"default_path":  landingPath(p.Role),
	})
}

// BeginSSO starts the single sign-on flow.
// GET /auth/sso.
func (h *AuthHandlers) BeginSSO(w http.ResponseWriter, r *http.Request) {
	if !h.Svc.SSOEnabled() {
		h.UI.NotFound(w, r)
		return
	}

	result, err := h.Svc.BeginSSO(r.Context(), h.callbackURL(r))
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin sso failed", "error", err)
		h.renderLogin(w, r, http.StatusBadGateway, loginFormState{message: LoginFailedMessage})
		return
	}

	h.Cookies.setTemporary(w, r, oauthStateCookie, result.State)
	h.Cookies.setTemporary(w, r, oauthNonceCookie, result.Nonce)
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the single sign-on flow.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	if !h.Svc.SSOEnabled() {
		h.UI.NotFound(w, r)
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if code == "" || state == "" || err != nil || stateCookie.Value != state {
		h.logger().InfoContext(r.Context(), "sso callback rejected", "reason", "invalid_state")
		h.finishSSOFailure(w, r)
		return
	}
	nonceCookie, err := r.Cookie(oauthNonceCookie)
	if err != nil {
		h.logger().InfoContext(r.Context(), "sso callback rejected", "reason", "missing_nonce")
		h.finishSSOFailure(w, r)
		return
	}

	res, err := h.Svc.CompleteSSO(r.Context(), h.Cookies.sessionID(r), service.SSOInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		h.logLoginFailure(r, err)
		h.finishSSOFailure(w, r)
		return
	}

	h.clearSSOCookies(w, r)
	h.Cookies.setSession(w, r, res.SessionID, res.ExpiresAt)
	http.Redirect(w, r, landingPath(res.Principal.Role), http.StatusSeeOther)
}

func (h *AuthHandlers) finishSSOFailure(w http.ResponseWriter, r *http.Request) {
	h.clearSSOCookies(w, r)
	h.renderLogin(w, r, http.StatusUnauthorized, loginFormState{message: LoginFailedMessage})
}

func (h *AuthHandlers) clearSSOCookies(w http.ResponseWriter, r *http.Request) {
	h.Cookies.clear(w, r, oauthStateCookie)
	h.Cookies.clear(w, r, oauthNonceCookie)
}

func (h *AuthHandlers) callbackURL(r *http.Request) string {
	if h.CallbackURL != "" {
		return h.CallbackURL
	}
	scheme := "http"
	if isSecureRequest(r) {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: "/auth/callback"}
	return u.String()
}

// logLoginFailure records the failure reason; the browser only ever sees LoginFailedMessage.
func (h *AuthHandlers) logLoginFailure(r *http.Request, err error) {
	reason := "unknown"
	var authErr *domainauth.AuthenticationError
	if errors.As(err, &authErr) {
		reason = string(authErr.Reason)
	}
	level := slog.LevelInfo
	if reason == string(domainauth.FailureUnavailable) {
		level = slog.LevelWarn
	}
	h.logger().Log(r.Context(), level, "login failed", "reason", reason, "error", err)
}

// landingPath returns the role's default screen, falling back to the login page.
func landingPath(role domainauth.Role) string {
	if p, ok := nav.DefaultPath(role); ok {
		return p
	}
	return routing.PathLogin
}

func firstFormValue(r *http.Request, keys ...string) string {
	for _, k := range keys {
		if v := r.PostForm.Get(k); v != "" {
			return v
		}
	}
	return ""
}
