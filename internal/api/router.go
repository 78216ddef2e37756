package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/daap14/imsweb/internal/api/handler"
	"github.com/daap14/imsweb/internal/api/middleware"
	"github.com/daap14/imsweb/internal/session"
)

// Pages registers the server-rendered dashboard on the router.
type Pages interface {
	Register(r chi.Router)
}

// Instrumentation wraps every request and serves the scrape endpoint.
type Instrumentation interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Backend     handler.BackendChecker
	Audit       handler.AuditSink
	Version     string
	OpenAPISpec []byte
	Sessions    *session.Reader
	Relay       handler.Relay
	Metrics     Instrumentation
	Pages       Pages
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(middleware.Session(deps.Sessions))

	healthHandler := handler.NewHealthHandler(deps.Backend, deps.Audit, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	if deps.Relay != nil {
		relayHandler := handler.NewRelayHandler(deps.Relay)
		r.Route("/relay", func(r chi.Router) {
			r.Get("/session", relayHandler.Session)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession)
				r.Use(chimiddleware.AllowContentType("application/json"))

				r.Route("/items", func(r chi.Router) {
					r.Get("/", relayHandler.ListItems)
					r.Post("/", relayHandler.AddItem)
					r.Put("/{id}", relayHandler.UpdateItem)
					r.Delete("/{id}", relayHandler.DeleteItem)
				})
				r.Route("/users", func(r chi.Router) {
					r.Get("/", relayHandler.ListUsers)
					r.Post("/", relayHandler.AddUser)
					r.Put("/{id}", relayHandler.UpdateUser)
					r.Delete("/{id}", relayHandler.DeleteUser)
				})
			})
		})
	}

	if deps.Pages != nil {
		deps.Pages.Register(r)
	}

	return r
}
