package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/trickspot/backend/internal/api/handlers"
	"github.com/trickspot/backend/internal/api/middleware"
	"github.com/trickspot/backend/internal/service"
	"github.com/trickspot/backend/internal/storage"
	"github.com/trickspot/backend/internal/websocket"
)

func NewRouter(services *service.Services, hub *websocket.Hub, videoStorage storage.VideoStorage) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth)
	battleHandler := handlers.NewBattleHandler(services.Battle, services.Submission)
	achievementHandler := handlers.NewAchievementHandler(services.Achievement)
	pointsHandler := handlers.NewPointsHandler(services.Points)
	notificationHandler := handlers.NewNotificationHandler(services.Notification)
	uploadHandler := handlers.NewUploadHandler(videoStorage)
	eventsHandler := handlers.NewEventsHandler(services.Scoring)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/telegram", authHandler.TelegramLogin)
			r.Post("/refresh", authHandler.Refresh)

			// Protected auth routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Auth))
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// Public battle reads (share links work without a login)
		r.Get("/battles", battleHandler.List)
		r.Get("/battles/{id}", battleHandler.Get)
		r.Get("/battles/{id}/participants", battleHandler.Participants)
		r.Get("/battles/{id}/judges", battleHandler.Judges)
		r.Get("/achievements", achievementHandler.List)

		// Scoring boundary for the feed service; network-internal only.
		r.Post("/internal/events", eventsHandler.Handle)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))

			// Battle routes. Registered flat: the read-only battle routes
			// above are public, so a mounted subrouter would collide.
			r.Post("/battles", battleHandler.Create)
			r.Post("/battles/{id}/join", battleHandler.Join)
			r.Post("/battles/{id}/start", battleHandler.Start)
			r.Post("/battles/{id}/cancel", battleHandler.Cancel)
			r.Post("/battles/{id}/judges", battleHandler.AddJudge)
			r.Post("/battles/{id}/submit", battleHandler.Submit)
			r.Get("/battles/{id}/videos", battleHandler.Videos)
			r.Post("/battles/{id}/videos/{videoId}/judge", battleHandler.Judge)

			// Upload routes
			r.Post("/uploads/videos", uploadHandler.UploadVideo)

			// Achievement routes
			r.Get("/achievements/progress", achievementHandler.Progress)

			// Points routes
			r.Route("/points", func(r chi.Router) {
				r.Get("/balance", pointsHandler.Balance)
				r.Get("/transactions", pointsHandler.Transactions)
			})

			// Notification routes
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Post("/{id}/read", notificationHandler.MarkRead)
			})
		})

		// WebSocket endpoint
		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
