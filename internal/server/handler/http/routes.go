package http

import (
	"net/http"

	"github.com/atinyakov/twofzip/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the smsgate HTTP handler.
//
// Routes:
//
//	POST /text                 → smsHandler.Text (form bodies only)
//	GET  /api/deliveries/{id}  → smsHandler.Delivery
//	GET  /healthz              → Health
func NewRouter(smsHandler *SMSHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Get("/healthz", Health)

	r.With(chiMiddleware.AllowContentType("application/x-www-form-urlencoded")).
		Post("/text", smsHandler.Text)

	r.Route("/api", func(r chi.Router) {
		r.Get("/deliveries/{id}", smsHandler.Delivery)
	})

	return r
}
