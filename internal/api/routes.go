package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the API router.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/inbound/email", h.InboundEmail)

		r.Route("/review-queue", func(r chi.Router) {
			r.Get("/", h.ListReviewQueue)
			r.Post("/{id}/approve", h.ApproveReview)
			r.Post("/{id}/reject", h.RejectReview)
		})

		r.Get("/email-logs/{id}", h.GetEmailLog)

		r.Get("/publishers/{id}", h.GetPublisher)
	})

	return r
}
