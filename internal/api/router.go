// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bankcards/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(cardHandler *handler.CardHandler, userHandler *handler.UserHandler, resolver CallerResolver, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)                       // Add a request ID to the context
	r.Use(middleware.RealIP)                          // Use the real IP address
	r.Use(middleware.Logger)                          // Log HTTP requests
	r.Use(middleware.Recoverer)                       // Recover from panics and return 500
	r.Use(middleware.Timeout(handler.DefaultTimeout)) // Set a default timeout for requests

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Post("/auth/login", userHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(RequireCaller(resolver))

		// Card API routes
		r.Route("/cards", func(r chi.Router) {
			r.Get("/", cardHandler.ListOwnCards)
			r.Post("/", cardHandler.CreateCard)
			r.Get("/all", cardHandler.ListAllCards)
			// Transfer involves two cards, so it is not nested under a card id
			r.Post("/transfer", cardHandler.Transfer)

			r.Route("/{cardID}", func(r chi.Router) {
				r.Get("/", cardHandler.GetCard)
				r.Delete("/", cardHandler.DeleteCard)
				r.Get("/balance", cardHandler.GetBalance)
				r.Get("/transfers", cardHandler.GetTransferHistory)
				r.Put("/block", cardHandler.BlockCard)
				r.Put("/activate", cardHandler.ActivateCard)
				r.Post("/request-block", cardHandler.RequestBlock)
			})
		})

		// User API routes
		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.ListUsers)
			r.Post("/", userHandler.CreateUser)
			r.Get("/{userID}", userHandler.GetUser)
			r.Delete("/{userID}", userHandler.DeleteUser)
		})
	})

	logger.Debug("HTTP routes registered")
	return r
}
