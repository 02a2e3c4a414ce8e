package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newFrontendServer() *echo.Echo {
	files := fstest.MapFS{
		"index.html":    {Data: []byte("<html>editor</html>")},
		"assets/app.js": {Data: []byte("console.log('figure')")},
	}
	e := echo.New()
	RegisterStaticRoutes(e, files)
	e.GET("/api/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStaticRoutes(t *testing.T) {
	e := newFrontendServer()

	tests := []struct {
		name string
		path string
		want string
	}{
		{"asset", "/assets/app.js", "console.log('figure')"},
		{"root", "/", "<html>editor</html>"},
		{"frontend route", "/figure/42", "<html>editor</html>"},
		{"api untouched", "/api/health", "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(e, tt.path)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestUnknownAPIPathIsNotRewritten(t *testing.T) {
	rec := get(newFrontendServer(), "/api/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHasIndex(t *testing.T) {
	assert.True(t, HasIndex(fstest.MapFS{"index.html": {Data: []byte("x")}}))
	assert.False(t, HasIndex(fstest.MapFS{"README.md": {Data: []byte("x")}}))

	_, ok := Frontend()
	assert.False(t, ok)
}
