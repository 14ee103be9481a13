package middleware

import (
	"context"
	"net/http"
	"strings"

	"chatbot-service/internal/service"
	"chatbot-service/internal/transport/http/httperr"
)

// ctxKeyIdentity — ключ контекста с данными аутентифицированного пользователя.
const ctxKeyIdentity ctxKey = 1

// accessCookie — имя cookie с access-токеном (для браузерных клиентов).
const accessCookie = "access_token"

// TokenValidator проверяет access-токен и возвращает данные пользователя.
type TokenValidator interface {
	ValidateAccessToken(token string) (service.Identity, error)
}

// RequireAuth извлекает access-токен (Authorization: Bearer — приоритетно,
// иначе cookie access_token), валидирует его и кладёт Identity в контекст.
// Запрос без валидного токена завершается 401.
func RequireAuth(v TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(accessCookie); err == nil {
					token = c.Value
				}
			}

			if token == "" {
				httperr.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			identity, err := v.ValidateAccessToken(token)
			if err != nil {
				httperr.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyIdentity, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom возвращает Identity из контекста. Второе значение — false,
// если запрос не проходил через RequireAuth.
func IdentityFrom(ctx context.Context) (service.Identity, bool) {
	identity, ok := ctx.Value(ctxKeyIdentity).(service.Identity)
	return identity, ok
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}

	return ""
}
