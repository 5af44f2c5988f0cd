package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/team-registration/internal/auth"
)

// NewRouter builds the full HTTP surface around h.
func NewRouter(h *RegistrationHandler, roles *auth.Directory, clientVersion string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(logger))
	r.Use(CORS)

	r.Get("/health", HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Use(Identity(roles))
		r.Use(SecurityToken(h.tokens, clientVersion, logger))

		r.Get("/security-token", h.SecurityToken)
		r.Get("/stats", h.Stats)
		r.Get("/activity", h.RecentActivity)

		// Only the chat gateway, an admin identity, may relay messages on
		// behalf of chat authors.
		r.Route("/chat", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Post("/", h.ChatMessage)
			r.Post("/ready", h.ChatReady)
		})

		r.Route("/config", func(r chi.Router) {
			r.Get("/", h.GetConfig)
			r.With(RequireAdmin).Patch("/", h.UpdateConfig)
		})

		r.Route("/registrations", func(r chi.Router) {
			r.Get("/", h.ListRegistrations)
			r.Get("/{id}", h.GetRegistration)

			r.Group(func(r chi.Router) {
				r.Use(RequireAuth)
				r.Post("/", h.CreateRegistration)
				r.Patch("/{id}", h.UpdateRegistration)
				r.Delete("/{id}", h.DeleteRegistration)
			})
		})
	})

	return r
}
