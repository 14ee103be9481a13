package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chatbot-service/internal/models"
	"chatbot-service/internal/storage"
)

// sessionDoc — документ коллекции sessions.
// user_id хранится строкой (UUID в каноническом виде), _id — ObjectID.
type sessionDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Title     string             `bson:"title"`
	Messages  []models.Message   `bson:"messages"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// toModel конвертирует документ в доменную модель.
func (d *sessionDoc) toModel() (*models.ChatSession, error) {
	ownerID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user_id: %w", err)
	}

	msgs := d.Messages
	for i := range msgs {
		msgs[i].Time = msgs[i].Time.UTC()
	}

	return &models.ChatSession{
		ID:        d.ID.Hex(),
		UserID:    ownerID,
		Title:     d.Title,
		Messages:  msgs,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

// ownerFilter собирает фильтр (_id, user_id) — единственный способ адресовать
// сессию. Некорректный hex трактуется как «нет такой записи».
func ownerFilter(sessionID string, ownerID uuid.UUID) (bson.D, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(sessionID))
	if err != nil {
		return nil, storage.ErrNotFound
	}

	return bson.D{
		{Key: "_id", Value: oid},
		{Key: "user_id", Value: ownerID.String()},
	}, nil
}

// MongoDB DateTime хранит миллисекунды.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

// CreateSession создаёт пустую сессию.
func (m *Mongo) CreateSession(ctx context.Context, session *models.ChatSession) (*models.ChatSession, error) {
	const op = "storage/mongo/CreateSession"

	now := toMS(time.Now())

	doc := sessionDoc{
		UserID:    session.UserID.String(),
		Title:     session.Title,
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := m.sessions.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		// Mongo всегда возвращает ObjectID.
		return nil, fmt.Errorf("%s: inserted id type", op)
	}

	doc.ID = oid
	out, err := doc.toModel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// SessionByID возвращает сессию целиком (включая сообщения).
// Чужая или несуществующая сессия — storage.ErrNotFound.
func (m *Mongo) SessionByID(ctx context.Context, sessionID string, ownerID uuid.UUID) (*models.ChatSession, error) {
	const op = "storage/mongo/SessionByID"

	filter, err := ownerFilter(sessionID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var doc sessionDoc
	if err := m.sessions.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := doc.toModel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// AppendMessages дописывает сообщения в конец истории одним обновлением
// ($push/$each + $set updated_at): пара «сообщение пользователя + ответ бота»
// попадает в документ атомарно, осиротевших сообщений не бывает.
// Возвращает сессию после записи.
func (m *Mongo) AppendMessages(ctx context.Context, sessionID string, ownerID uuid.UUID, msgs []models.Message) (*models.ChatSession, error) {
	const op = "storage/mongo/AppendMessages"

	filter, err := ownerFilter(sessionID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := toMS(time.Now())
	for i := range msgs {
		msgs[i].Time = toMS(msgs[i].Time)
	}

	update := bson.D{
		{Key: "$push", Value: bson.D{
			{Key: "messages", Value: bson.D{{Key: "$each", Value: msgs}}},
		}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
	}

	after := options.After
	opts := options.FindOneAndUpdate().SetReturnDocument(after)

	var doc sessionDoc
	if err := m.sessions.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := doc.toModel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ListSessions возвращает сводки сессий владельца, updated_at DESC, до limit штук.
func (m *Mongo) ListSessions(ctx context.Context, ownerID uuid.UUID, limit int) ([]models.SessionSummary, error) {
	const op = "storage/mongo/ListSessions"

	if limit <= 0 {
		limit = 100
	}

	filter := bson.D{{Key: "user_id", Value: ownerID.String()}}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := m.sessions.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var items []models.SessionSummary
	for cur.Next(ctx) {
		var doc sessionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		sum := models.SessionSummary{
			ID:            doc.ID.Hex(),
			Title:         doc.Title,
			UpdatedAt:     doc.UpdatedAt.UTC(),
			TotalMessages: len(doc.Messages),
		}

		if n := len(doc.Messages); n > 0 {
			last := doc.Messages[n-1]
			last.Time = last.Time.UTC()
			sum.LastMessage = &last
		}

		items = append(items, sum)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return items, nil
}

// RenameSession меняет заголовок сессии.
func (m *Mongo) RenameSession(ctx context.Context, sessionID string, ownerID uuid.UUID, title string) error {
	const op = "storage/mongo/RenameSession"

	filter, err := ownerFilter(sessionID, ownerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: title},
		{Key: "updated_at", Value: toMS(time.Now())},
	}}}

	res, err := m.sessions.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeleteSession удаляет сессию вместе с сообщениями.
func (m *Mongo) DeleteSession(ctx context.Context, sessionID string, ownerID uuid.UUID) error {
	const op = "storage/mongo/DeleteSession"

	filter, err := ownerFilter(sessionID, ownerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := m.sessions.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
