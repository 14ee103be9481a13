package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"chatbot-service/internal/storage"
)

const (
	sessionsCollection = "sessions"
	defaultDBName      = "chatbot"
)

// Mongo — тонкий адаптер подключения и коллекций MongoDB для чат-сессий.
type Mongo struct {
	client   *mongodriver.Client
	db       *mongodriver.Database
	sessions *mongodriver.Collection
}

// New подключается к MongoDB, проверяет соединение и готовит индексы.
func New(ctx context.Context, mongoURL string) (*Mongo, error) {
	if mongoURL == "" {
		return nil, fmt.Errorf("mongo: empty url")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(databaseFromURI(mongoURL))

	m := &Mongo{
		client:   cli,
		db:       db,
		sessions: db.Collection(sessionsCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

// Close разрывает соединение с MongoDB.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes создаёт индексы под запросы сервиса:
// - список сессий владельца, самые свежие сверху: user_id + updated_at(desc).
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	model := mongodriver.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}},
		Options: options.Index().SetName("user_updated_desc"),
	}

	if _, err := m.sessions.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}

	return nil
}

// databaseFromURI извлекает имя базы из пути mongodb-URI;
// при отсутствии возвращает значение по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}

	return defaultDBName
}

// Проверка на соответствие интерфейсу ChatStorage.
var _ storage.ChatStorage = (*Mongo)(nil)
