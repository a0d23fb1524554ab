// Package performancehub provides embedded assets for production builds.
package performancehub

import (
	"embed"
	"io/fs"
)

// In dev mode templates and static files are read from disk instead.

//go:embed all:frontend/static
var staticFS embed.FS

//go:embed all:frontend/templates
var templateFS embed.FS

// StaticFS returns the embedded static assets rooted at frontend/static.
func StaticFS() fs.FS { return mustSub(staticFS, "frontend/static") }

// TemplateFS returns the embedded templates rooted at frontend/templates.
func TemplateFS() fs.FS { return mustSub(templateFS, "frontend/templates") }

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err) //nolint:forbidigo // embedded paths are fixed at build time
	}
	return sub
}
