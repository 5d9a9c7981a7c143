package handler

import (
	"inspector/config"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStaticEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	base := t.TempDir()
	public := filepath.Join(base, "public")
	require.NoError(t, os.MkdirAll(filepath.Join(public, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(public, "index.html"), []byte("<h1>home</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(public, "css", "index.html"), []byte("css index"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(public, "css", "site.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "secret.txt"), []byte("top secret"), 0o644))

	conf := config.Default()
	conf.Inspector.PublicDir = public
	h := NewStaticHandler(conf)

	r := gin.New()
	r.GET("/", h.Index)
	r.NoRoute(h.Fallback)
	return r
}

func TestStatic_Serve(t *testing.T) {
	r := newStaticEngine(t)

	tests := []struct {
		name   string
		method string
		path   string
		status int
		body   string
	}{
		{"index", http.MethodGet, "/", http.StatusOK, "<h1>home</h1>"},
		{"file", http.MethodGet, "/css/site.css", http.StatusOK, "body{}"},
		{"directory index", http.MethodGet, "/css", http.StatusOK, "css index"},
		{"missing", http.MethodGet, "/nope.js", http.StatusNotFound, ""},
		{"post is not static", http.MethodPost, "/css/site.css", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestStatic_NoTraversal(t *testing.T) {
	r := newStaticEngine(t)

	for _, p := range []string{"/../secret.txt", "/css/../../secret.txt", "/%2e%2e/secret.txt"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, p)
		assert.NotContains(t, w.Body.String(), "top secret", p)
	}
}
