package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatbot-service/internal/models"
	"chatbot-service/internal/storage"
)

// defaultSessionTitle — заголовок новой сессии, пока пользователь его
// не переименовал.
const defaultSessionTitle = "New Chat"

// maxMessageLen — верхняя граница длины одного сообщения.
const maxMessageLen = 4000

// CreateSession создаёт пустую чат-сессию владельца.
func (s *Service) CreateSession(ctx context.Context, ownerID uuid.UUID, title string) (*models.ChatSession, error) {
	const op = "service.chat.CreateSession"

	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultSessionTitle
	}

	session, err := s.chats.CreateSession(ctx, &models.ChatSession{
		UserID: ownerID,
		Title:  title,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}

// SendMessage записывает сообщение пользователя, подбирает ответ бота и
// дописывает оба сообщения в историю одной атомарной операцией.
// Пустой sessionID означает «начать новую сессию».
// Возвращает ответ бота и хвост истории (последние RecentWindow сообщений).
func (s *Service) SendMessage(ctx context.Context, ownerID uuid.UUID, sessionID, text string) (*models.ChatReply, error) {
	const op = "service.chat.SendMessage"

	trimmed := strings.TrimSpace(text)
	if trimmed == "" || len([]rune(text)) > maxMessageLen {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if sessionID == "" {
		session, err := s.CreateSession(ctx, ownerID, "")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		sessionID = session.ID
	}

	now := time.Now().UTC()
	userMsg := models.Message{
		Sender: models.SenderUser,
		Text:   text,
		Time:   now,
	}
	botMsg := models.Message{
		Sender: models.SenderBot,
		Text:   s.replies.Resolve(text),
		Time:   now,
	}

	session, err := s.chats.AppendMessages(ctx, sessionID, ownerID, []models.Message{userMsg, botMsg})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	total := len(session.Messages)

	window := s.chat.RecentWindow
	if window <= 0 {
		window = 10
	}

	start := total - window
	if start < 0 {
		start = 0
	}

	return &models.ChatReply{
		SessionID:     session.ID,
		SessionTitle:  session.Title,
		Reply:         session.Messages[total-1],
		Recent:        session.Messages[start:],
		TotalMessages: total,
	}, nil
}

// ListSessions возвращает сводки сессий владельца, самые свежие сверху.
func (s *Service) ListSessions(ctx context.Context, ownerID uuid.UUID) ([]models.SessionSummary, error) {
	const op = "service.chat.ListSessions"

	limit := s.chat.MaxSessions
	if limit <= 0 {
		limit = 100
	}

	items, err := s.chats.ListSessions(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

// SessionHistory возвращает страницу истории сессии.
// Страницы отсчитываются с конца: page=1 — самые свежие limit сообщений,
// page=2 — предыдущие и так далее; внутри страницы порядок хронологический.
// Страница за пределами истории — пустая, не ошибка.
func (s *Service) SessionHistory(ctx context.Context, ownerID uuid.UUID, sessionID string, page, limit int) (*models.MessagesPage, error) {
	const op = "service.chat.SessionHistory"

	if page <= 0 {
		page = 1
	}

	if limit <= 0 {
		limit = s.chat.DefaultPageSize
	}
	if max := s.chat.MaxPageSize; max > 0 && limit > max {
		limit = max
	}

	session, err := s.chats.SessionByID(ctx, sessionID, ownerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	total := len(session.Messages)

	start := total - page*limit
	if start < 0 {
		start = 0
	}

	end := total - (page-1)*limit
	if end < 0 {
		end = 0
	}

	msgs := []models.Message{}
	if start < end {
		msgs = session.Messages[start:end]
	}

	return &models.MessagesPage{
		SessionID:     session.ID,
		SessionTitle:  session.Title,
		TotalMessages: total,
		Page:          page,
		Limit:         limit,
		Messages:      msgs,
	}, nil
}

// RenameSession меняет заголовок сессии.
func (s *Service) RenameSession(ctx context.Context, ownerID uuid.UUID, sessionID, title string) error {
	const op = "service.chat.RenameSession"

	title = strings.TrimSpace(title)
	if title == "" || len([]rune(title)) > 200 {
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if err := s.chats.RenameSession(ctx, sessionID, ownerID, title); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteSession удаляет сессию вместе с историей.
func (s *Service) DeleteSession(ctx context.Context, ownerID uuid.UUID, sessionID string) error {
	const op = "service.chat.DeleteSession"

	if err := s.chats.DeleteSession(ctx, sessionID, ownerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
