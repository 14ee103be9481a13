package models

import (
	"time"

	"github.com/google/uuid"
)

// Отправители сообщений внутри сессии.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Message — одно сообщение диалога. После записи не изменяется
// (история append-only, правок «на месте» нет).
type Message struct {
	Sender string    `bson:"sender" json:"sender"`
	Text   string    `bson:"message" json:"message"`
	Time   time.Time `bson:"time" json:"time"`
}

// ChatSession — чат-сессия пользователя (MongoDB, один документ на сессию).
//
// Важно:
//   - ID — ObjectID MongoDB, наружу конвертируется в hex-строку;
//   - UserID — владелец сессии; каждая операция над сессией фильтруется
//     по паре (ID, UserID), чужая сессия неотличима от несуществующей;
//   - Messages — упорядоченный список, порядок вставки = хронологический;
//   - UpdatedAt используется для сортировки «самые свежие сверху».
type ChatSession struct {
	ID        string
	UserID    uuid.UUID
	Title     string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionSummary — сводка по сессии для списка истории
// (без полного массива сообщений).
type SessionSummary struct {
	ID            string
	Title         string
	UpdatedAt     time.Time
	TotalMessages int
	LastMessage   *Message
}

// ChatReply — результат отправки сообщения: ответ бота плюс хвост
// истории (последние сообщения сессии, включая только что записанные).
type ChatReply struct {
	SessionID     string
	SessionTitle  string
	Reply         Message
	Recent        []Message
	TotalMessages int
}

// MessagesPage — страница сообщений одной сессии.
// Страницы отсчитываются с конца истории: Page=1 — самые свежие сообщения,
// внутри страницы порядок хронологический.
type MessagesPage struct {
	SessionID     string
	SessionTitle  string
	TotalMessages int
	Page          int
	Limit         int
	Messages      []Message
}
