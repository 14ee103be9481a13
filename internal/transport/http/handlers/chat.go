package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"chatbot-service/internal/models"
	"chatbot-service/internal/service"
	"chatbot-service/internal/transport/http/httperr"
	"chatbot-service/internal/transport/http/middleware"
)

type createSessionRequest struct {
	Title string `json:"title"`
}

type renameSessionRequest struct {
	Title string `json:"title"`
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

type sessionResponse struct {
	SessionID string    `json:"sessionId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type sessionSummaryResponse struct {
	SessionID     string          `json:"sessionId"`
	Title         string          `json:"title"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	TotalMessages int             `json:"totalMessages"`
	LastMessage   *models.Message `json:"lastMessage,omitempty"`
}

type sessionListResponse struct {
	Sessions []sessionSummaryResponse `json:"sessions"`
}

type chatReplyResponse struct {
	SessionID     string           `json:"sessionId"`
	Title         string           `json:"title"`
	Reply         models.Message   `json:"reply"`
	Messages      []models.Message `json:"messages"`
	TotalMessages int              `json:"totalMessages"`
}

type historyResponse struct {
	SessionID     string           `json:"sessionId"`
	Title         string           `json:"title"`
	TotalMessages int              `json:"totalMessages"`
	Page          int              `json:"page"`
	Limit         int              `json:"limit"`
	Messages      []models.Message `json:"messages"`
}

// CreateSession — POST /chat/session.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in createSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeStrict(r, &in); err != nil {
			httperr.WriteError(w, r, service.ErrInvalidArgument)
			return
		}
	}

	session, err := h.svc.CreateSession(r.Context(), identity.UserID, in.Title)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: session.ID,
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	})
}

// RenameSession — PUT /chat/session/{sessionID}.
func (h *Handlers) RenameSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in renameSessionRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if err := h.svc.RenameSession(r.Context(), identity.UserID, sessionID, in.Title); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteSession — DELETE /chat/session/{sessionID}.
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if err := h.svc.DeleteSession(r.Context(), identity.UserID, sessionID); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SendMessage — POST /chat/message и POST /chat/message/{sessionID}.
// Без sessionID сообщение начинает новую сессию.
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in sendMessageRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")

	reply, err := h.svc.SendMessage(r.Context(), identity.UserID, sessionID, in.Message)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatReplyResponse{
		SessionID:     reply.SessionID,
		Title:         reply.SessionTitle,
		Reply:         reply.Reply,
		Messages:      reply.Recent,
		TotalMessages: reply.TotalMessages,
	})
}

// History — GET /chat/history.
// Без sessionId возвращает список сессий; с sessionId — страницу
// сообщений (постранично с конца истории: page=1 — самые свежие).
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	q := r.URL.Query()
	sessionID := q.Get("sessionId")

	if sessionID == "" {
		items, err := h.svc.ListSessions(r.Context(), identity.UserID)
		if err != nil {
			httperr.WriteError(w, r, err)
			return
		}

		out := sessionListResponse{Sessions: make([]sessionSummaryResponse, 0, len(items))}
		for _, item := range items {
			out.Sessions = append(out.Sessions, sessionSummaryResponse{
				SessionID:     item.ID,
				Title:         item.Title,
				UpdatedAt:     item.UpdatedAt,
				TotalMessages: item.TotalMessages,
				LastMessage:   item.LastMessage,
			})
		}

		writeJSON(w, http.StatusOK, out)
		return
	}

	page, err := queryInt(q.Get("page"), 1)
	if err != nil {
		httperr.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	limit, err := queryInt(q.Get("limit"), 0)
	if err != nil {
		httperr.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	history, err := h.svc.SessionHistory(r.Context(), identity.UserID, sessionID, page, limit)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{
		SessionID:     history.SessionID,
		Title:         history.SessionTitle,
		TotalMessages: history.TotalMessages,
		Page:          history.Page,
		Limit:         history.Limit,
		Messages:      history.Messages,
	})
}

// queryInt парсит необязательный числовой query-параметр.
func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, service.ErrInvalidArgument
	}

	return v, nil
}
