package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/vaultsocial/internal/httpserver/deps"
	"github.com/MrSnakeDoc/vaultsocial/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/vaultsocial/internal/httpserver/mw"
)

func init() { Register(registerProbes) }

// registerProbes mounts liveness, readiness and the operator endpoints.
// Everything but /healthz is restricted to the admin networks.
func registerProbes(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	r.Group(func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AdminCIDRs, d.TrustProxy, d.Logger))
		r.Get("/readyz", handlers.Readyz(d))
		r.Get("/infra", handlers.Infra(d))
		r.Handle("/metrics", promhttp.Handler())
		r.Post("/prune", handlers.Prune(d))
	})
}
