// Package storage задаёт контракты хранилищ chatbot-сервиса.
//
// Пользователи и состояние refresh-токена живут в PostgreSQL
// (internal/storage/postgres), чат-сессии — в MongoDB
// (internal/storage/mongo). Бизнес-логика зависит только от интерфейсов
// этого пакета и сентинельных ошибок ниже.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"chatbot-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/сессия).
	// Для сессий покрывает и случай «существует, но принадлежит другому
	// пользователю»: фильтр (id, owner) делает эти случаи неразличимыми.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (username/email).
	ErrAlreadyExists = errors.New("already exists")
	// ErrTokenMismatch — CAS-замена refresh-токена не прошла: хранимое
	// значение не равно предъявленному.
	ErrTokenMismatch = errors.New("refresh token mismatch")
)

// UserStorage выполняет операции над пользователями и их refresh-состоянием.
type UserStorage interface {
	// SaveUser создаёт нового пользователя.
	// При нарушении уникальности username/email — ErrAlreadyExists.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UserByLogin находит пользователя по username ИЛИ email.
	UserByLogin(ctx context.Context, identifier string) (*models.User, error)

	// SetRefreshToken безусловно записывает хэш нового refresh-токена
	// (логин: прежний токен, если был, перетирается).
	SetRefreshToken(ctx context.Context, userID uuid.UUID, hash string, expiresAt time.Time) error
	// SwapRefreshToken атомарно заменяет хэш refresh-токена по принципу
	// compare-and-swap: замена происходит только если хранимое значение
	// равно oldHash; иначе — ErrTokenMismatch.
	SwapRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error
	// ClearRefreshToken сбрасывает refresh-состояние пользователя.
	// Идемпотентна: отсутствие токена ошибкой не считается.
	ClearRefreshToken(ctx context.Context, userID uuid.UUID) error
	// UpdatePassword заменяет хэш пароля.
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	// ClearExpiredRefreshTokens сбрасывает refresh-состояние у всех
	// пользователей с истёкшим токеном (фоновый janitor).
	ClearExpiredRefreshTokens(ctx context.Context, now time.Time) error
}

// ChatStorage выполняет операции над чат-сессиями.
// Каждая операция фильтрует по паре (sessionID, ownerID).
type ChatStorage interface {
	// CreateSession создаёт пустую сессию и возвращает её с заполненным ID.
	CreateSession(ctx context.Context, session *models.ChatSession) (*models.ChatSession, error)
	// SessionByID возвращает сессию целиком (включая сообщения).
	SessionByID(ctx context.Context, sessionID string, ownerID uuid.UUID) (*models.ChatSession, error)
	// AppendMessages дописывает сообщения в конец истории ОДНИМ атомарным
	// обновлением и возвращает сессию после записи.
	AppendMessages(ctx context.Context, sessionID string, ownerID uuid.UUID, msgs []models.Message) (*models.ChatSession, error)
	// ListSessions возвращает сводки сессий владельца, самые свежие сверху,
	// не более limit штук.
	ListSessions(ctx context.Context, ownerID uuid.UUID, limit int) ([]models.SessionSummary, error)
	// RenameSession меняет заголовок сессии.
	RenameSession(ctx context.Context, sessionID string, ownerID uuid.UUID, title string) error
	// DeleteSession удаляет сессию вместе с сообщениями.
	DeleteSession(ctx context.Context, sessionID string, ownerID uuid.UUID) error
}
