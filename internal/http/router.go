// Package http composes the service router: middleware chain, public
// endpoints, and the authenticated API surface.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apphandler "origen/internal/application/handler"
	personhandler "origen/internal/person/handler"
	"origen/internal/platform/middleware"
	"origen/internal/platform/token"
	registryhandler "origen/internal/registry/handler"
	staffhandler "origen/internal/staff/handler"
	tenanthandler "origen/internal/tenant/handler"
	verificationhandler "origen/internal/verification/handler"
)

// Dependencies carries the wired handlers for router composition.
type Dependencies struct {
	Logger        *slog.Logger
	Tokens        *token.Manager
	Tenants       *tenanthandler.Handler
	Staff         *staffhandler.Handler
	Applications  *apphandler.Handler
	Persons       *personhandler.Handler
	Verifications *verificationhandler.Handler
	Registry      *registryhandler.Handler
}

// NewRouter builds the service router. Tenant onboarding and staff login are
// public; every other route requires a staff token.
func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	deps.Tenants.RegisterPublic(r)
	deps.Staff.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Tokens, deps.Logger))
		deps.Tenants.Register(r)
		deps.Staff.Register(r)
		deps.Applications.Register(r)
		deps.Persons.Register(r)
		deps.Verifications.Register(r)
		if deps.Registry != nil {
			deps.Registry.Register(r)
		}
	})
	return r
}
