// ABOUTME: Liveness, readiness and API reference endpoints
// ABOUTME: The reference page is Markdown rendered to HTML with goldmark

package api

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed docs/api.md
var apiReference []byte

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>FitLife API</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
code, pre { background: #f4f4f4; border-radius: 4px; }
pre { padding: .75rem; overflow-x: auto; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ddd; padding: .25rem .5rem; }
</style>
</head>
<body>
{{.}}
</body>
</html>
`))

func renderDocs(logger *slog.Logger) []byte {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert(apiReference, &body); err != nil {
		logger.Error("failed to convert api reference", "error", err)
		body.Reset()
		body.WriteString("<p>No se pudo generar la documentación.</p>")
	}

	var page bytes.Buffer
	if err := docsPage.Execute(&page, template.HTML(body.String())); err != nil {
		logger.Error("failed to render docs page", "error", err)
		return body.Bytes()
	}
	return page.Bytes()
}

// handleHealth returns 200 OK if the server is alive.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the database answers.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("database unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleDocs serves the API reference.
func (h *Handler) handleDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.docs)
}
