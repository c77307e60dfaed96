// Package site serves the landing page of the cost service.
package site

import (
	"context"
	"net/http"
)

// Register attaches the landing page to mux. Paths other than / are 404;
// methods other than GET and HEAD on / are 405.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/", NewRootHandler().HandleRoot)
}

// RootHandler handles root path requests
type RootHandler struct{}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// HandleRoot handles GET / with a page linking the API docs and endpoints.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write([]byte(indexHTML))
}

const indexHTML = `<!doctype html>
<html>
  <head><meta charset="utf-8"><title>tariffa</title></head>
  <body>
    <h1>tariffa</h1>
    <p>Cost engine for security services.</p>
    <ul>
      <li><a href="/api-docs">API docs</a> (<a href="/openapi.yaml">openapi.yaml</a>)</li>
      <li><code>POST /v1/quotes</code></li>
      <li><code>POST /v1/reconciliations</code>, <code>GET /v1/reconciliations/{id}</code></li>
      <li><a href="/v1/holidays">GET /v1/holidays</a></li>
      <li><a href="/stats">/stats</a>, <a href="/healthz">/healthz</a></li>
    </ul>
  </body>
</html>`
