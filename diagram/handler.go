package diagram

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler serves the pages of a Mermaid writer from memory:
//
//	GET /             index page
//	GET /index.html   index page
//	GET /{page}       page of one type, e.g. /ptr_app_Service.html
func Handler(m *Mermaid) http.Handler {
	r := chi.NewRouter()

	index := func(w http.ResponseWriter, _ *http.Request) {
		serve(w, m.RenderIndex)
	}

	r.Get("/", index)
	r.Get("/"+indexFile, index)
	r.Get("/{page}", func(w http.ResponseWriter, req *http.Request) {
		name, ok := m.typeForFile(chi.URLParam(req, "page"))
		if !ok {
			http.NotFound(w, req)

			return
		}

		serve(w, func(out io.Writer) error {
			return m.RenderType(out, name)
		})
	})

	return r
}

func serve(w http.ResponseWriter, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
