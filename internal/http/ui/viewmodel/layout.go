// Package viewmodel holds the typed data handed to HTML templates.
package viewmodel

// User represents the signed-in principal exposed to templates.
type User struct {
	Identifier string
	Role       string
}

// NavItem is one rendered navigation link.
type NavItem struct {
	Label  string
	Path   string
	Active bool
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPath     string
	Screen          string
	CSRFToken       string
	IsAuthenticated bool
	// Chrome names the role layout: "admin", "hr-lead" or "general".
	// Empty renders the bare, unauthenticated chrome.
	Chrome string
	Nav    []NavItem
	User   *User
}

// LayoutProvider exposes layout metadata for renderer utilities.
type LayoutProvider interface {
	LayoutData() *Layout
}

// Page is the data of a full screen.
type Page struct {
	Layout
	// Form carries values re-rendered into the login form.
	Form LoginForm
	// ErrorMessage is shown above the form when set.
	ErrorMessage string
	SSOEnabled   bool
}

// LayoutData implements LayoutProvider.
func (p *Page) LayoutData() *Layout { return &p.Layout }

// LoginForm is the sticky state of the login form.
type LoginForm struct {
	Identifier string
	Role       string
	Roles      []string
}
