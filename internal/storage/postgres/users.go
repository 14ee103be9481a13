package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"chatbot-service/internal/models"
	"chatbot-service/internal/storage"
)

// userColumns — единый список колонок для выборок пользователя.
const userColumns = `id, username, email, full_name, password_hash,
	COALESCE(refresh_token_hash, ''), COALESCE(refresh_expires_at, 'epoch'::timestamptz),
	created_at, updated_at`

// scanUser читает строку users в модель.
func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.RefreshTokenHash,
		&user.RefreshExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// SaveUser создаёт нового пользователя.
// Нарушение уникальности username/email — storage.ErrAlreadyExists.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users(id, username, email, full_name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByLogin находит пользователя по username ИЛИ email.
// Колонки CITEXT, так что сравнение регистронезависимое.
func (s *Storage) UserByLogin(ctx context.Context, identifier string) (*models.User, error) {
	const op = "storage.postgres.UserByLogin"

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $1`

	user, err := scanUser(s.db.QueryRow(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// SetRefreshToken безусловно записывает refresh-состояние пользователя.
func (s *Storage) SetRefreshToken(ctx context.Context, userID uuid.UUID, hash string, expiresAt time.Time) error {
	const op = "storage.postgres.SetRefreshToken"

	query := `
		UPDATE users
		SET refresh_token_hash = $2, refresh_expires_at = $3, updated_at = now()
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, userID, hash, expiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// SwapRefreshToken атомарно заменяет refresh-токен (compare-and-swap):
// одна команда UPDATE с условием на текущее значение хэша. Если хранимое
// значение уже другое (ротация конкурентом, logout, повтор старого токена) —
// storage.ErrTokenMismatch.
func (s *Storage) SwapRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error {
	const op = "storage.postgres.SwapRefreshToken"

	query := `
		UPDATE users
		SET refresh_token_hash = $3, refresh_expires_at = $4, updated_at = now()
		WHERE id = $1 AND refresh_token_hash = $2
	`

	cmdTag, err := s.db.Exec(ctx, query, userID, oldHash, newHash, expiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrTokenMismatch)
	}

	return nil
}

// ClearRefreshToken сбрасывает refresh-состояние. Идемпотентна:
// повторный вызов (или вызов без выпущенного токена) — не ошибка.
func (s *Storage) ClearRefreshToken(ctx context.Context, userID uuid.UUID) error {
	const op = "storage.postgres.ClearRefreshToken"

	query := `
		UPDATE users
		SET refresh_token_hash = NULL, refresh_expires_at = NULL, updated_at = now()
		WHERE id = $1
	`

	if _, err := s.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdatePassword заменяет хэш пароля пользователя.
func (s *Storage) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	const op = "storage.postgres.UpdatePassword"

	query := `
		UPDATE users
		SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// ClearExpiredRefreshTokens сбрасывает refresh-состояние у пользователей
// с истёкшим токеном.
func (s *Storage) ClearExpiredRefreshTokens(ctx context.Context, now time.Time) error {
	const op = "storage.postgres.ClearExpiredRefreshTokens"

	query := `
		UPDATE users
		SET refresh_token_hash = NULL, refresh_expires_at = NULL
		WHERE refresh_token_hash IS NOT NULL AND refresh_expires_at <= $1
	`

	if _, err := s.db.Exec(ctx, query, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
