// service содержит бизнес-логику chatbot-сервиса: учётные записи и
// жизненный цикл токенов, чат-сессии с историей сообщений и подбор
// ответа бота.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для
//     конкурентного использования при потокобезопасных хранилищах.
//   - Ошибки ниже маппятся транспортом на HTTP-статусы
//     (см. internal/transport/http/httperr).
package service

import (
	"errors"

	"chatbot-service/internal/cache"
	"chatbot-service/internal/config"
	"chatbot-service/internal/reply"
	"chatbot-service/internal/storage"
)

var (
	// ErrInvalidArgument — входные данные не проходят валидацию
	// (пустой текст сообщения, некорректный email и т.п.). HTTP 400.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUserExists — username или email уже заняты. HTTP 409.
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound — пользователь с таким логином не зарегистрирован.
	// HTTP 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials — пароль не подошёл. HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен некорректен по формату/подписи либо
	// не совпадает с выпущенным (ротация, logout, повтор). HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrNotFound — сессия не найдена либо принадлежит другому
	// пользователю (случаи намеренно неразличимы). HTTP 404.
	ErrNotFound = errors.New("not found")
)

// Service описывает бизнес-логику chatbot-сервиса.
type Service struct {
	users   storage.UserStorage
	chats   storage.ChatStorage
	replies *reply.Engine
	auth    config.AuthConfig
	chat    config.ChatConfig
	rcache  cache.RefreshCache // может быть nil, если кэш не сконфигурирован
}

// New создаёт новый экземпляр Service.
func New(users storage.UserStorage, chats storage.ChatStorage, replies *reply.Engine, auth config.AuthConfig, chat config.ChatConfig) *Service {
	return &Service{
		users:   users,
		chats:   chats,
		replies: replies,
		auth:    auth,
		chat:    chat,
	}
}

// SetRefreshCache устанавливает кэш refresh-токенов (опционально).
func (s *Service) SetRefreshCache(c cache.RefreshCache) {
	s.rcache = c
}
