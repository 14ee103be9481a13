// httperr стандартизирует ответы об ошибках HTTP-слоя.
// На вход принимает ошибку бизнес-логики (сентинелы пакета service),
// на выход даёт корректный HTTP-статус и краткое безопасное message
// без утечки внутренних деталей.
package httperr

import (
	"encoding/json"
	"errors"
	"net/http"

	"chatbot-service/internal/service"
)

// APIError — единый формат ошибки для фронта.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку бизнес-логики в HTTP-статус и
// унифицированное тело ответа.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal, чтобы не
//     послать "200 OK" с телом ошибки и не замаскировать баг;
//   - сентинелы service маппятся по таблице ниже;
//   - прочее — 500/internal (без деталей).
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := base(err)

	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет статус/тело и добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// base — маппинг сентинелов service -> HTTP/код/сообщение:
//   - ErrInvalidArgument -> 400 (битые входные данные);
//   - ErrUserExists -> 409 (конфликт уникальности username/email);
//   - ErrInvalidCredentials/ErrInvalidToken/ErrTokenExpired -> 401;
//   - ErrUserNotFound/ErrNotFound -> 404;
//   - прочее -> 500/internal.
func base(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, service.ErrUserExists):
		return http.StatusConflict, "already_exists", "already exists"
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
