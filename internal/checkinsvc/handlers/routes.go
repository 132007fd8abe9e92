package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/httprate"
)

// SetRoutes mounts the API at the root and again under /api, the paths the
// static front end calls. Unknown paths and methods both answer 405, except
// OPTIONS which succeeds on any path.
func (h *Handler) SetRoutes(r *chi.Mux) {
	r.NotFound(h.MethodNotAllowedHandler)
	r.MethodNotAllowed(h.MethodNotAllowedHandler)

	r.Get("/health", h.HealthHandler)

	// one limiter shared by both mounts
	var limiter func(http.Handler) http.Handler
	if h.rateLimit > 0 {
		limiter = httprate.LimitByIP(h.rateLimit, 1*time.Minute)
	}

	r.Group(h.apiRoutes(limiter))
	r.Route("/api", func(r chi.Router) {
		h.apiRoutes(limiter)(r)
		r.Options("/*", h.OptionsHandler)
	})

	// after the /api mount, Mount refuses a path already covered by /*
	r.Options("/*", h.OptionsHandler)
}

func (h *Handler) apiRoutes(limiter func(http.Handler) http.Handler) func(r chi.Router) {
	return func(r chi.Router) {
		// public routes here
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter)
			}

			r.Post("/login", h.LoginHandler)
			r.Post("/checkins", h.CreateCheckinHandler)
		})

		r.Options("/login", h.OptionsHandler)
		r.Options("/checkins", h.OptionsHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(h.Authenticator)

			r.Get("/checkins", h.ListCheckinsHandler)
			r.Patch("/checkins", h.UpdateCheckinHandler)
			r.Delete("/checkins", h.DeleteCheckinHandler)
		})
	}
}
