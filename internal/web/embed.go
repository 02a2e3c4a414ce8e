// Package web serves the editor frontend when it has been built into the
// binary.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// The frontend build writes its output to dist/ before the server is compiled.
//
//go:embed dist/*
var staticFiles embed.FS

// Frontend returns the embedded frontend and whether it contains an index.html.
func Frontend() (fs.FS, bool) {
	dist, err := fs.Sub(staticFiles, "dist")
	if err != nil {
		return nil, false
	}
	return dist, HasIndex(dist)
}

// HasIndex reports whether files holds a frontend entry point.
func HasIndex(files fs.FS) bool {
	info, err := fs.Stat(files, "index.html")
	return err == nil && !info.IsDir()
}

// RegisterStaticRoutes serves files for every path outside /api. Unknown
// paths get index.html so the frontend router can resolve figure links.
func RegisterStaticRoutes(e *echo.Echo, files fs.FS) {
	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Root:       ".",
		Index:      "index.html",
		HTML5:      true,
		Filesystem: http.FS(files),
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/api/")
		},
	}))
}
