package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"chatbot-service/internal/models"
	"chatbot-service/internal/pkg/log"
	"chatbot-service/internal/pkg/redact"
	"chatbot-service/internal/storage"
)

// RegisterUser регистрирует нового пользователя.
// Токены при регистрации не выпускаются — клиент логинится отдельно.
func (s *Service) RegisterUser(ctx context.Context, username, email, fullName, password string) (*models.User, error) {
	const op = "service.auth.RegisterUser"

	username = strings.ToLower(strings.TrimSpace(username))
	if err := validateUsername(username); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Полное имя обязательно: пустое после обрезки — ошибка валидации.
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if err := validatePassword(password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        normEmail,
		FullName:     fullName,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_registered",
		slog.String("username", user.Username),
		slog.String("email", redact.Email(user.Email)),
	)

	return user, nil
}

// LoginUser выполняет вход по username или email плюс пароль.
// Неизвестный логин и неверный пароль различаются намеренно:
// первый — ErrUserNotFound, второй — ErrInvalidCredentials.
func (s *Service) LoginUser(ctx context.Context, identifier, password string) (*models.User, *models.TokenPair, error) {
	const op = "service.auth.LoginUser"

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	user, err := s.users.UserByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		// Email в логах только в замаскированном виде.
		log.From(ctx).Warn("login_wrong_password",
			slog.String("email", redact.Email(user.Email)),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, pair, nil
}

// LogoutUser отзывает refresh-токен пользователя. Идемпотентна:
// повторный logout или logout без активного токена — не ошибка.
func (s *Service) LogoutUser(ctx context.Context, userID uuid.UUID) error {
	const op = "service.auth.LogoutUser"

	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if s.rcache != nil && user.RefreshTokenHash != "" {
		// Кэш вспомогательный: его недоступность не мешает logout.
		_ = s.rcache.MarkRevoked(ctx, user.RefreshTokenHash)
	}

	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ChangePassword меняет пароль после проверки текущего.
// Выпущенные токены остаются действительными до своего истечения.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	const op = "service.auth.ChangePassword"

	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, oldPassword) {
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if err := validatePassword(newPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// hashPassword хэширует пароль с помощью bcrypt.
func hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateUsername проверяет username: 3..32 символа, буквы/цифры/._-.
func validateUsername(username string) error {
	const op = "service.auth.validateUsername"

	runes := []rune(username)
	if len(runes) < 3 || len(runes) > 32 {
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	for _, r := range runes {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
		case r == '.' || r == '_' || r == '-':
		default:
			return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}
	}

	return nil
}

// validateEmail проверяет базовый формат email и нормализует регистр.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	return strings.ToLower(email), nil
}

// validatePassword проверяет минимальные требования к паролю:
// длина >= 8, хотя бы одна строчная, заглавная и цифра.
func validatePassword(pw string) error {
	const op = "service.auth.validatePassword"

	if len([]rune(pw)) < 8 {
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLower || !hasUpper || !hasDigit {
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	return nil
}
