package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/whisperbox/whisperbox-be/internal/api/handlers"
	"github.com/whisperbox/whisperbox-be/internal/auth"
	"github.com/whisperbox/whisperbox-be/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(tokens *auth.Manager, userService services.UserServiceProvider, messageService services.MessageServiceProvider, baseURL string) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Page-level routing between the public and authenticated areas.
	r.Use(tokens.PageGuard())

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, tokens, baseURL)
	messageHandler := handlers.NewMessageHandler(messageService)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/register", userHandler.Register)
		r.Post("/verify-code", userHandler.VerifyCode)
		r.Post("/resend-code", userHandler.ResendCode)
		r.Post("/sign-in", userHandler.SignIn)
		r.Post("/send-message", messageHandler.SendMessage)

		// Session-protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(tokens.Middleware())

			r.Post("/sign-out", userHandler.SignOut)
			r.Get("/me", userHandler.GetMe)
			r.Get("/accept-messages", messageHandler.GetAccepting)
			r.Post("/accept-messages", messageHandler.SetAccepting)
			r.Get("/get-messages", messageHandler.GetMessages)
			r.Delete("/delete-message/{id}", messageHandler.DeleteMessage)
		})
	})

	return r
}
