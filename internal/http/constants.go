package httpx

import "github.com/kedaara/performance-hub/internal/domain/nav"

const (
	// DefaultSessionCookieName is the cookie holding the opaque session id.
	DefaultSessionCookieName = "kph_session"

	oauthStateCookie = "kph_oauth_state"
	oauthNonceCookie = "kph_oauth_nonce"
	oauthCookieTTL   = 600 // seconds

	// LoginFailedMessage is shown for every rejected login, whatever the reason.
	LoginFailedMessage = "Login failed. Please check your credentials and try again."

	screenNotFound = "not-found"
)

// ContentTemplateFor returns the body template for a screen.
func ContentTemplateFor(screen string) string {
	if screen == "" {
		screen = screenNotFound
	}
	return screen + "-content"
}

// ChromeTemplateFor returns the chrome template for a role layout. Pages
// without a layout get the general chrome.
func ChromeTemplateFor(layout string) string {
	if layout == "" {
		layout = string(nav.LayoutGeneral)
	}
	return "chrome-" + layout
}
