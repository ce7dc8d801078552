package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"

	"github.com/cloudemu/engine/internal/api/handlers"
	mw "github.com/cloudemu/engine/internal/api/middleware"
)

type Dependencies struct {
	Verifier        mw.TokenVerifier
	CORSOrigins     []string
	// TrustProxy takes the client address from forwarding headers. Enable it
	// only behind a proxy that overwrites them.
	TrustProxy      bool
	AuthHandler     *handlers.AuthHandler
	ComputeHandler  *handlers.ComputeHandler
	DatabaseHandler *handlers.DatabaseHandler
	HealthHandler   *handlers.HealthHandler
	Metrics         http.Handler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	if dep.TrustProxy {
		r.Use(chimid.RealIP)
	}
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS(dep.CORSOrigins))

	r.Get("/healthz", dep.HealthHandler.Liveness)
	r.Get("/readyz", dep.HealthHandler.Readiness)
	if dep.Metrics != nil {
		r.Handle("/metrics", dep.Metrics)
	}

	// The console route sits outside Compress and RateLimit: the response
	// writer must stay hijackable and sessions are long-lived.
	r.Get("/ec2/instances/{id}/console", dep.ComputeHandler.Console)

	r.Group(func(rest chi.Router) {
		rest.Use(mw.RateLimit(10, 20))
		rest.Use(chimid.Compress(5))

		rest.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", dep.AuthHandler.Register)
			ar.Post("/login", dep.AuthHandler.Login)
			ar.With(mw.Auth(dep.Verifier)).Get("/me", dep.AuthHandler.Me)
		})

		rest.Route("/ec2/instances", func(er chi.Router) {
			er.Post("/", dep.ComputeHandler.Create)
			er.Get("/", dep.ComputeHandler.List)
			er.Get("/{id}", dep.ComputeHandler.Get)
			er.Post("/{id}/start", dep.ComputeHandler.Start)
			er.Post("/{id}/stop", dep.ComputeHandler.Stop)
			er.Delete("/{id}", dep.ComputeHandler.Delete)
		})

		rest.Route("/rds", func(dr chi.Router) {
			dr.Post("/", dep.DatabaseHandler.Create)
			dr.Get("/", dep.DatabaseHandler.List)
			dr.Get("/{id}", dep.DatabaseHandler.Get)
			dr.Post("/{id}/start", dep.DatabaseHandler.Start)
			dr.Post("/{id}/stop", dep.DatabaseHandler.Stop)
			dr.Delete("/{id}", dep.DatabaseHandler.Delete)
		})
	})

	return r
}
