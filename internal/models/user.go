// Package models содержит доменные сущности chatbot-сервиса.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User — модель пользователя в системе.
//
// Важно:
//   - PasswordHash — bcrypt-хэш; открытый пароль нигде не хранится и не логируется;
//   - RefreshTokenHash — SHA-256 хэш единственного действующего refresh-токена
//     (пустая строка, если токен отозван/не выпущен); вместе с RefreshExpiresAt
//     образует состояние «не более одного refresh-токена на пользователя»;
//   - Username/Email уникальны и нормализуются (TrimSpace + ToLower) до записи.
type User struct {
	ID               uuid.UUID
	Username         string
	Email            string
	FullName         string
	PasswordHash     string
	RefreshTokenHash string
	RefreshExpiresAt time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PublicUser — безопасное представление пользователя для выдачи наружу.
// Не содержит ни хэша пароля, ни состояния refresh-токена.
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public возвращает усечённое представление пользователя.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt,
	}
}
