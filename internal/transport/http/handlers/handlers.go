// handlers реализует REST-эндпойнты chatbot-сервиса поверх бизнес-логики
// пакета service. Формат ошибок единый — см. httperr.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"chatbot-service/internal/service"
)

// CookieOptions — настройки выдачи auth-cookie браузерным клиентам.
type CookieOptions struct {
	// Secure выключают только в локальной разработке без TLS.
	Secure bool
	// RefreshTTL — срок жизни refresh-cookie.
	RefreshTTL time.Duration
	// AccessTTL — срок жизни access-cookie.
	AccessTTL time.Duration
}

// Handlers агрегирует зависимости REST-слоя.
type Handlers struct {
	svc     *service.Service
	cookies CookieOptions
}

func New(svc *service.Service, cookies CookieOptions) *Handlers {
	return &Handlers{svc: svc, cookies: cookies}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: неизвестные поля запрещены.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
