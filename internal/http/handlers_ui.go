package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/domain/nav"
	"github.com/kedaara/performance-hub/internal/domain/routing"
	"github.com/kedaara/performance-hub/internal/http/ui/viewmodel"
)

const appTitle = "Kedaara Performance Hub"

// UIHandlers renders the portal screens inside the role's chrome.
type UIHandlers struct {
	Renderer *TemplateRenderer
	Table    *routing.Table
	Logger   *slog.Logger
}

func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Screen returns a handler rendering the screen bound to d.
// Access is enforced by RequireAccess before this runs.
func (h *UIHandlers) Screen(d routing.Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusOK, h.newPage(r, d))
	}
}

// NotFound renders the not-found screen with a 404.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	d := routing.Descriptor{Path: r.URL.Path, Screen: screenNotFound, Title: "Page not found"}
	h.render(w, r, http.StatusNotFound, h.newPage(r, d))
}

func (h *UIHandlers) descriptor(path string) routing.Descriptor {
	if h.Table != nil {
		if d, ok := h.Table.Lookup(path); ok {
			return d
		}
	}
	return routing.Descriptor{Path: path, Screen: screenNotFound}
}

// newPage builds the page chrome for the request's principal.
func (h *UIHandlers) newPage(r *http.Request, d routing.Descriptor) *viewmodel.Page {
	page := &viewmodel.Page{
		Layout: viewmodel.Layout{
			Title:       d.Title + " · " + appTitle,
			PageTitle:   d.Title,
			CurrentPath: r.URL.Path,
			Screen:      d.Screen,
			CSRFToken:   GetCSRFToken(r),
		},
	}
	if d.Title == "" {
		page.Title = appTitle
	}
	for _, role := range domainauth.AllRoles() {
		page.Form.Roles = append(page.Form.Roles, role.String())
	}

	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		return page
	}
	page.IsAuthenticated = true
	page.User = &viewmodel.User{Identifier: p.Identifier, Role: p.Role.String()}
	page.Chrome = string(nav.LayoutFor(p.Role))
	for _, e := range nav.For(p.Role) {
		page.Nav = append(page.Nav, viewmodel.NavItem{
			Label:  e.Label,
			Path:   e.Path,
			Active: e.IsActive(r.URL.Path),
		})
	}
	return page
}

// render writes the full layout, or only the content fragment for htmx swaps.
func (h *UIHandlers) render(w http.ResponseWriter, r *http.Request, status int, page *viewmodel.Page) {
	if h.Renderer == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	var err error
	if WantsPartial(r) {
		err = h.Renderer.RenderPartial(w, status, page)
	} else {
		err = h.Renderer.RenderFull(w, status, page)
	}
	if err != nil {
		h.logger().ErrorContext(r.Context(), "render failed", "screen", page.Screen, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
