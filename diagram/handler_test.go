package diagram

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/nest"
)

func TestHandler(t *testing.T) {
	m := NewMermaid("Game")
	installGame(t, nest.WithObserver(m))

	srv := httptest.NewServer(Handler(m))
	t.Cleanup(srv.Close)

	tests := []struct {
		name     string
		path     string
		status   int
		contains string
	}{
		{"root", "/", http.StatusOK, "<h2>root</h2>"},
		{"index", "/index.html", http.StatusOK, "<h2>level</h2>"},
		{"type page", "/ptr_diagram_timer.html", http.StatusOK, "<h2>*diagram.timer</h2>"},
		{"unknown page", "/ptr_diagram_unknown.html", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)

			Handler(m).ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)

			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
				assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			}
		})
	}

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
