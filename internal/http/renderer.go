package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"github.com/kedaara/performance-hub/internal/http/ui/viewmodel"
)

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	fsys    fs.FS
	devMode bool
	logger  *slog.Logger

	mu sync.RWMutex
	t  *template.Template
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS // Filesystem containing templates (required)
	// DevMode re-parses templates on every render.
	DevMode bool
	Logger  *slog.Logger
}

// NewTemplateRenderer constructs a renderer by parsing templates from the provided config.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &TemplateRenderer{fsys: cfg.TemplateFS, devMode: cfg.DevMode, logger: logger}
	t, err := r.parse()
	if err != nil {
		logger.Error("template parsing failed", slog.Any("error", err), slog.String("phase", "initialization"))
		return nil, err
	}
	r.t = t
	return r, nil
}

func (r *TemplateRenderer) parse() (*template.Template, error) {
	var t *template.Template
	include := func(name string, data any) (template.HTML, error) {
		var buf bytes.Buffer
		if err := t.ExecuteTemplate(&buf, name, data); err != nil {
			return "", err
		}
		// #nosec G203 - produced by our own html/template set; values are already escaped.
		return template.HTML(buf.String()), nil
	}
	funcs := template.FuncMap{
		"sectionTmpl": ContentTemplateFor,
		"renderSection": func(screen string, data any) (template.HTML, error) {
			return include(ContentTemplateFor(screen), data)
		},
		"renderChrome": func(layout string, data any) (template.HTML, error) {
			return include(ChromeTemplateFor(layout), data)
		},
	}
	var err error
	t, err = template.New("root").Funcs(funcs).ParseFS(r.fsys, "*.tmpl", "pages/*.tmpl")
	return t, err
}

func (r *TemplateRenderer) current() (*template.Template, error) {
	if r.devMode {
		t, err := r.parse()
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.t = t
		r.mu.Unlock()
		return t, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.t, nil
}

// RenderFull renders the full page (layout + screen body).
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, status int, data viewmodel.LayoutProvider) error {
	return r.renderTemplate(w, status, "layout", data)
}

// RenderPartial renders only the main content area.
func (r *TemplateRenderer) RenderPartial(w http.ResponseWriter, status int, data viewmodel.LayoutProvider) error {
	return r.renderTemplate(w, status, "content", data)
}

// Has reports whether a template with the given name exists.
func (r *TemplateRenderer) Has(name string) bool {
	t, err := r.current()
	return err == nil && t.Lookup(name) != nil
}

func (r *TemplateRenderer) renderTemplate(w http.ResponseWriter, status int, name string, data any) error {
	t, err := r.current()
	if err != nil {
		r.logTemplateError(name, err)
		return err
	}

	var buf bytes.Buffer
	if execErr := t.ExecuteTemplate(&buf, name, data); execErr != nil {
		r.logTemplateError(name, execErr)
		return execErr
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != 0 {
		w.WriteHeader(status)
	}
	if _, writeErr := buf.WriteTo(w); writeErr != nil {
		r.logger.Error("failed to write rendered template",
			slog.String("template", name),
			slog.Any("error", writeErr),
		)
		return writeErr
	}
	return nil
}

func (r *TemplateRenderer) logTemplateError(name string, err error) {
	r.logger.Error("template execution failed",
		slog.String("template", name),
		slog.Any("error", err),
	)
}
