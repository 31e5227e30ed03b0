package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mydebts/mydebts-be/internal/api/handlers"
	"github.com/mydebts/mydebts-be/internal/auth"
	"github.com/mydebts/mydebts-be/internal/captcha"
	"github.com/mydebts/mydebts-be/internal/services"
	"github.com/mydebts/mydebts-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(hub *websocket.Hub, debtService services.DebtServiceProvider, userService services.UserServiceProvider, verifier captcha.Verifier, frontendOrigin string) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{frontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	debtHandler := handlers.NewDebtHandler(debtService)
	userHandler := handlers.NewUserHandler(userService, verifier)
	wsHandler := handlers.NewWebSocketHandler(hub, debtService)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.Post("/forgot-password", userHandler.ForgotPassword)
			r.Post("/reset-password", userHandler.ResetPassword)
		})

		// Everything below requires a session.
		r.Group(func(r chi.Router) {
			r.Use(auth.JWTMiddleware())

			r.Get("/users/me", userHandler.GetMe)

			r.Route("/debts", func(r chi.Router) {
				r.Get("/", debtHandler.GetAll)
				r.Post("/", debtHandler.Create)
				r.Get("/columns", debtHandler.GetColumns)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", debtHandler.Get)
					r.Put("/", debtHandler.Update)
					r.Delete("/", debtHandler.Delete)
					r.Post("/paid", debtHandler.MarkPaid)
				})
			})
		})

		// WebSocket endpoint authenticates via token query parameter.
		r.Get("/ws", wsHandler.Serve)
	})

	return r
}
