package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	logctx "chatbot-service/internal/pkg/log"
	"chatbot-service/internal/transport/http/httperr"
)

// Recover перехватывает panic и отвечает 500/internal в едином формате.
// Детали паники не утекают на клиент.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelError, "panic",
						slog.String("path", r.URL.Path),
						slog.Any("reason", rec),
					)
					httperr.WriteError(w, r, fmt.Errorf("internal"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
