package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"chatbot-service/internal/cache"
	"chatbot-service/internal/models"
	"chatbot-service/internal/pkg/log"
	"chatbot-service/internal/storage"
)

// Identity — данные пользователя, извлечённые из access-токена.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Email    string
}

type accessClaims struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// hashToken возвращает хэш токена для хранения: sha256 + base64url.
// В базе и кэше лежит только хэш, сам токен — у клиента.
func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// generateAccessToken выпускает короткоживущий access-токен.
func (s *Service) generateAccessToken(ctx context.Context, user *models.User, now time.Time) (string, error) {
	const op = "service.token.generateAccessToken"

	lg := log.From(ctx)

	claims := accessClaims{
		UserID:   user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.auth.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.auth.Issuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings(s.auth.Audience),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.auth.JWTSecret))
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// ValidateAccessToken проверяет access-токен и возвращает данные пользователя.
func (s *Service) ValidateAccessToken(tokenStr string) (Identity, error) {
	const op = "service.token.ValidateAccessToken"

	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return []byte(s.auth.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.auth.Issuer),
		jwt.WithAudience(s.auth.Audience...),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return Identity{
		UserID:   uid,
		Username: claims.Username,
		Email:    claims.Email,
	}, nil
}

// generateRefreshToken выпускает долгоживущий refresh-токен — JWT с
// subject = user id и уникальным jti. Уникальный jti гарантирует, что
// каждый выпуск даёт новый токен (и новый хэш): iat/exp имеют секундную
// точность, без jti две выдачи в одну секунду были бы байт-идентичны и
// ротация превратилась бы в замену хэша на самого себя.
func (s *Service) generateRefreshToken(ctx context.Context, userID uuid.UUID, now time.Time) (string, error) {
	const op = "service.token.generateRefreshToken"

	lg := log.From(ctx)

	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(s.auth.RefreshTokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    s.auth.Issuer,
		Subject:   userID.String(),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.auth.JWTSecret))
	if err != nil {
		lg.Error("refresh_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// parseRefreshToken проверяет подпись и срок refresh-токена,
// возвращает user id из subject.
func (s *Service) parseRefreshToken(tokenStr string) (uuid.UUID, error) {
	const op = "service.token.parseRefreshToken"

	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return []byte(s.auth.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.auth.Issuer),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return uid, nil
}

// issueTokenPair выпускает новую пару access+refresh и безусловно
// записывает хэш refresh-токена (login: прежний токен перетирается).
func (s *Service) issueTokenPair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	const op = "service.token.issueTokenPair"

	now := time.Now().UTC()

	accessToken, err := s.generateAccessToken(ctx, user, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := s.generateRefreshToken(ctx, user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	expiresAt := now.Add(s.auth.RefreshTokenTTL)
	hash := hashToken(refreshToken)

	if err := s.users.SetRefreshToken(ctx, user.ID, hash, expiresAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cacheRefreshState(ctx, hash, user.ID, expiresAt)

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: now.Add(s.auth.AccessTokenTTL),
	}, nil
}

// RefreshTokens обновляет пару токенов по refresh-токену с ротацией:
// старый токен атомарно заменяется новым (compare-and-swap по хэшу),
// повторное предъявление старого отклоняется.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*models.User, *models.TokenPair, error) {
	const op = "service.token.RefreshTokens"

	lg := log.From(ctx)

	userID, err := s.parseRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	oldHash := hashToken(refreshToken)

	// Fast-path: заведомо отозванный токен отбрасываем без похода в базу.
	if s.rcache != nil {
		if entry, ok, err := s.rcache.Get(ctx, oldHash); err == nil && ok && entry.Revoked {
			lg.Warn("refresh_revoked_cache_hit",
				slog.String("op", op),
				slog.String("user_id", userID.String()),
			)
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}
	}

	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()

	accessToken, err := s.generateAccessToken(ctx, user, now)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	newRefresh, err := s.generateRefreshToken(ctx, user.ID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	expiresAt := now.Add(s.auth.RefreshTokenTTL)
	newHash := hashToken(newRefresh)

	if err := s.users.SwapRefreshToken(ctx, user.ID, oldHash, newHash, expiresAt); err != nil {
		if errors.Is(err, storage.ErrTokenMismatch) {
			lg.Warn("refresh_rotation_mismatch",
				slog.String("op", op),
				slog.String("user_id", user.ID.String()),
			)
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.rcache != nil {
		_ = s.rcache.MarkRevoked(ctx, oldHash)
	}
	s.cacheRefreshState(ctx, newHash, user.ID, expiresAt)

	return user, &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    newRefresh,
		AccessExpiresAt: now.Add(s.auth.AccessTokenTTL),
	}, nil
}

// cacheRefreshState записывает состояние refresh-токена в кэш.
// Ошибки кэша не фатальны: источник истины — база.
func (s *Service) cacheRefreshState(ctx context.Context, hash string, userID uuid.UUID, expiresAt time.Time) {
	if s.rcache == nil {
		return
	}

	entry := &cache.Entry{
		UserID:    userID,
		ExpiresAt: expiresAt,
	}
	_ = s.rcache.Set(ctx, hash, entry, time.Until(expiresAt))
}
