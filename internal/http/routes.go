package httpx

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/kedaara/performance-hub/internal/domain/routing"
)

const (
	templateDirOnDisk = "frontend/templates"
	staticDirOnDisk   = "frontend/static"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions SessionService
	// Table defaults to routing.DefaultTable().
	Table   *routing.Table
	Cookies CookieConfig
	// SSOCallbackURL is the absolute /auth/callback URL registered with the IdP.
	SSOCallbackURL string
	// TemplateFS and StaticFS default to the embedded frontend.
	TemplateFS fs.FS
	StaticFS   fs.FS
	IsDev      bool         // Re-parse templates and serve static files from disk
	Logger     *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates the portal router: every descriptor of the route table
// behind its guard, the auth endpoints, probes and static assets.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	table := services.Table
	if table == nil {
		table = routing.DefaultTable()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}

	templateFS, staticFS := services.TemplateFS, services.StaticFS
	if services.IsDev {
		templateFS = preferDisk(templateDirOnDisk, templateFS)
		staticFS = preferDisk(staticDirOnDisk, staticFS)
	}
	renderer, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS,
		DevMode:    services.IsDev,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	ui := &UIHandlers{Renderer: renderer, Table: table, Logger: logger}
	auth := &AuthHandlers{
		Svc:         services.Sessions,
		UI:          ui,
		Cookies:     services.Cookies,
		CallbackURL: services.SSOCallbackURL,
		Logger:      logger,
	}
	health := &HealthHandlers{Checker: services.Sessions, Logger: logger}

	mux := http.NewServeMux()
	registerScreenRoutes(mux, table, ui, auth, logger)
	registerAuthRoutes(mux, auth)
	mux.HandleFunc("GET /healthz", health.Live)
	mux.HandleFunc("GET /readyz", health.Ready)
	if staticFS != nil {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}
	mux.Handle("GET /{$}", http.RedirectHandler(routing.PathLogin, http.StatusSeeOther))
	mux.HandleFunc("/", ui.NotFound)

	var h http.Handler = mux
	h = CSRFProtection(CSRFConfig{CookieDomain: services.Cookies.Domain})(h)
	h = LoadPrincipal(services.Sessions, services.Cookies)(h)
	h = Recover(logger)(h)
	h = Logging(logger)(h)
	return h, nil
}

// registerScreenRoutes mounts one GET route per descriptor, each behind its guard.
func registerScreenRoutes(
	mux *http.ServeMux,
	table *routing.Table,
	ui *UIHandlers,
	auth *AuthHandlers,
	logger *slog.Logger,
) {
	for _, d := range table.Descriptors() {
		var screen http.Handler = ui.Screen(d)
		if d.Path == routing.PathLogin {
			screen = http.HandlerFunc(auth.LoginForm)
		}
		mux.Handle("GET "+d.Path, RequireAccess(d, logger)(screen))
	}
}

func registerAuthRoutes(mux *http.ServeMux, auth *AuthHandlers) {
	mux.HandleFunc("POST "+routing.PathLogin, auth.Login)
	mux.HandleFunc("POST /logout", auth.Logout)
	mux.HandleFunc("GET /auth/status", auth.Status)
	mux.HandleFunc("GET /auth/sso", auth.BeginSSO)
	mux.HandleFunc("GET /auth/callback", auth.Callback)
}

// preferDisk serves dir from disk when it exists so edits show up without a rebuild.
func preferDisk(dir string, fallback fs.FS) fs.FS {
	if st, err := os.Stat(dir); err == nil && st.IsDir() {
		return os.DirFS(dir)
	}
	return fallback
}
