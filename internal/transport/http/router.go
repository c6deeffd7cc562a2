// Package httptransport assembles the public router. Handlers stay in their
// domain packages; this is wiring only.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	registryhandler "terrier/internal/registry/handler"
)

// NewRouter wires all public endpoints.
func NewRouter(registry *registryhandler.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	registry.Register(r)
	return r
}
