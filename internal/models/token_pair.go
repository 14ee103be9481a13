package models

import "time"

// TokenPair — пара токенов, выдаваемая при аутентификации.
//
// Описание:
//   - AccessToken — короткоживущий JWT с минимальными клеймами идентичности
//     (id/username/email), проверяется без обращения к хранилищу;
//   - RefreshToken — долгоживущий JWT, предъявляемый для выпуска новой пары;
//     на сервере хранится только его SHA-256 хэш на записи пользователя,
//     в любой момент действителен не более одного refresh-токена;
//   - AccessExpiresAt — момент истечения access-токена (UTC).
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}
