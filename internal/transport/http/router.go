// Package http собирает публичный REST-роутер chatbot-сервиса.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"chatbot-service/internal/service"
	"chatbot-service/internal/transport/http/handlers"
	"chatbot-service/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	// BasePath — префикс всех роутов, например "/api";
	// пустой — роуты регистрируются на корне.
	BasePath string
	// AllowedOrigins — CORS-allowlist; пустой выключает CORS.
	AllowedOrigins []string
	Cookies        handlers.CookieOptions
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),                 // безопасно ловим паники
		middleware.RequestID(),               // X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger),      // request-scoped логгер + access-лог
		middleware.CORS(opts.AllowedOrigins), // браузерные клиенты с cookies
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc, opts.Cookies)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, svc)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, svc)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, svc *service.Service) {
	// auth: register/login/refresh доступны без токена.
	r.Post("/auth/register", h.RegisterUser)
	r.Post("/auth/login", h.LoginUser)
	r.Post("/auth/refresh", h.RefreshToken)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(svc))

		r.Post("/auth/logout", h.LogoutUser)
		r.Put("/auth/password", h.ChangePassword)

		// chat: все операции только от имени владельца сессии.
		r.Post("/chat/session", h.CreateSession)
		r.Put("/chat/session/{sessionID}", h.RenameSession)
		r.Delete("/chat/session/{sessionID}", h.DeleteSession)
		r.Post("/chat/message", h.SendMessage)
		r.Post("/chat/message/{sessionID}", h.SendMessage)
		r.Get("/chat/history", h.History)
	})
}
