package handlers

import (
	"net/http"
	"time"

	"chatbot-service/internal/models"
	"chatbot-service/internal/service"
	"chatbot-service/internal/transport/http/httperr"
	"chatbot-service/internal/transport/http/middleware"
)

// Имена auth-cookie. Access-cookie читает middleware.RequireAuth,
// refresh-cookie — только /auth/refresh.
const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

type loginRequest struct {
	// Identifier — username или email; клиенты могут прислать логин
	// и в полях username/email — берётся первое непустое.
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

// login возвращает первый непустой вариант логина.
func (r loginRequest) login() string {
	for _, v := range []string{r.Identifier, r.Username, r.Email} {
		if v != "" {
			return v
		}
	}

	return ""
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type authResponse struct {
	User            models.PublicUser `json:"user"`
	AccessToken     string            `json:"accessToken"`
	RefreshToken    string            `json:"refreshToken"`
	AccessExpiresAt time.Time         `json:"accessExpiresAt"`
}

// RegisterUser — POST /auth/register.
// Токены при регистрации не выдаются: клиент логинится отдельно.
func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	user, err := h.svc.RegisterUser(r.Context(), in.Username, in.Email, in.FullName, in.Password)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user.Public())
}

// LoginUser — POST /auth/login.
// Токены уходят и в теле, и в HttpOnly cookies (для браузера).
func (h *Handlers) LoginUser(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	user, pair, err := h.svc.LoginUser(r.Context(), in.login(), in.Password)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	h.setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, authResponse{
		User:            user.Public(),
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		AccessExpiresAt: pair.AccessExpiresAt,
	})
}

// RefreshToken — POST /auth/refresh.
// Refresh-токен берётся из тела, иначе из cookie.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeStrict(r, &in); err != nil {
			httperr.WriteError(w, r, service.ErrInvalidArgument)
			return
		}
	}

	token := in.RefreshToken
	if token == "" {
		if c, err := r.Cookie(refreshCookie); err == nil {
			token = c.Value
		}
	}

	if token == "" {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	user, pair, err := h.svc.RefreshTokens(r.Context(), token)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	h.setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, authResponse{
		User:            user.Public(),
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		AccessExpiresAt: pair.AccessExpiresAt,
	})
}

// LogoutUser — POST /auth/logout (требует аутентификации).
// Идемпотентен: повторный вызов тоже отвечает 204.
func (h *Handlers) LogoutUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	if err := h.svc.LogoutUser(r.Context(), identity.UserID); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	h.clearAuthCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword — PUT /auth/password (требует аутентификации).
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in changePasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	if err := h.svc.ChangePassword(r.Context(), identity.UserID, in.OldPassword, in.NewPassword); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// setAuthCookies выставляет HttpOnly cookies с токенами.
func (h *Handlers) setAuthCookies(w http.ResponseWriter, pair *models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(h.cookies.AccessTTL / time.Second),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(h.cookies.RefreshTTL / time.Second),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearAuthCookies сбрасывает auth-cookies (logout).
func (h *Handlers) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookie, refreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cookies.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
