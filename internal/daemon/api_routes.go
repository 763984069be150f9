package daemon

import (
	"net/http"

	"beacon/internal/metrics"
)

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", a.Health)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/v1/sessions", a.Sessions)
	mux.HandleFunc("/v1/sessions/", a.SessionByID)
	mux.HandleFunc("/v1/target", a.Target)
	mux.HandleFunc("/v1/reply", a.Reply)
	// Everything else is the hook surface: POST /{EventType}.
	mux.HandleFunc("/", a.Hooks)
}
