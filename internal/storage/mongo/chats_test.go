package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"chatbot-service/internal/models"
	"chatbot-service/internal/storage"
)

// testTimeout — общий дедлайн на операции с БД в тестах.
const testTimeout = 10 * time.Second

// TestMain запускает MongoDB в контейнере один раз на весь пакет тестов.
// Адрес контейнера прокидывается в ENV DATABASE_URL, а каждый тест
// создаёт свою БД с уникальным именем (см. mustNewMongo).
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7.0",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
	}

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})

	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	host, err := mongoC.Host(ctx)
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := mongoC.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}

	uri := fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	_ = os.Setenv("DATABASE_URL", uri)

	code := m.Run()

	// Гасим контейнер *после* выполнения пакета тестов.
	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

// mustNewMongo создаёт подключение к отдельной тестовой БД и регистрирует
// очистку по завершении теста. Без GO_TEST_INTEGRATION тест пропускается.
func mustNewMongo(t *testing.T) *Mongo {
	t.Helper()

	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	baseURL := os.Getenv("DATABASE_URL")
	if baseURL == "" {
		baseURL = "mongodb://localhost:27017"
	}

	dbName := "chatbot_test_" + uuid.New().String()
	uri := baseURL + "/" + dbName

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	m, err := New(ctx, uri)
	if err != nil {
		t.Fatalf("cannot connect to MongoDB in container: %v (DATABASE_URL=%s)", err, uri)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		_ = m.db.Drop(ctx)
		_ = m.Close(ctx)
	})

	return m
}

func mustCreateSession(t *testing.T, m *Mongo, owner uuid.UUID, title string) *models.ChatSession {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	session, err := m.CreateSession(ctx, &models.ChatSession{UserID: owner, Title: title})
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)
	return session
}

func TestIntegration_CreateSession_And_SessionByID_OK(t *testing.T) {
	m := mustNewMongo(t)

	ctx := context.Background()
	owner := uuid.New()

	session := mustCreateSession(t, m, owner, "New Chat")
	require.Equal(t, owner, session.UserID)
	require.Equal(t, "New Chat", session.Title)
	require.Empty(t, session.Messages)
	require.False(t, session.CreatedAt.IsZero())
	require.Equal(t, session.CreatedAt, session.UpdatedAt)

	got, err := m.SessionByID(ctx, session.ID, owner)
	require.NoError(t, err)
	require.Equal(t, session.ID, got.ID)
	require.Equal(t, owner, got.UserID)
	require.Equal(t, "New Chat", got.Title)
}

// Чужая сессия неотличима от несуществующей: все операции по паре
// (_id, user_id) дают storage.ErrNotFound для не-владельца.
func TestIntegration_SessionByID_ForeignOwner_NotFound(t *testing.T) {
	m := mustNewMongo(t)

	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	session := mustCreateSession(t, m, owner, "private")

	_, err := m.SessionByID(ctx, session.ID, stranger)
	require.ErrorIs(t, err, storage.ErrNotFound)

	err = m.RenameSession(ctx, session.ID, stranger, "hijack")
	require.ErrorIs(t, err, storage.ErrNotFound)

	err = m.DeleteSession(ctx, session.ID, stranger)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = m.AppendMessages(ctx, session.ID, stranger, []models.Message{
		{Sender: models.SenderUser, Text: "hi", Time: time.Now().UTC()},
	})
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Владелец сессию по-прежнему видит.
	_, err = m.SessionByID(ctx, session.ID, owner)
	require.NoError(t, err)
}

func TestIntegration_SessionByID_InvalidHex_NotFound(t *testing.T) {
	m := mustNewMongo(t)

	_, err := m.SessionByID(context.Background(), "not-a-hex", uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_AppendMessages_AtomicPair_And_UpdatedAt(t *testing.T) {
	m := mustNewMongo(t)

	ctx := context.Background()
	owner := uuid.New()
	session := mustCreateSession(t, m, owner, "New Chat")

	now := time.Now().UTC()
	pair := []models.Message{
		{Sender: models.SenderUser, Text: "hello", Time: now},
		{Sender: models.SenderBot, Text: "Hello! 👋 How can I help you today?", Time: now},
	}

	got, err := m.AppendMessages(ctx, session.ID, owner, pair)
	require.NoError(t, err)

	// Возвращается состояние после записи.
	require.Len(t, got.Messages, 2)
	require.Equal(t, models.SenderUser, got.Messages[0].Sender)
	require.Equal(t, "hello", got.Messages[0].Text)
	require.Equal(t, models.SenderBot, got.Messages[1].Sender)
	require.WithinDuration(t, now, got.Messages[0].Time, time.Second)

	// updated_at сдвинулся вперёд относительно created_at.
	require.False(t, got.UpdatedAt.Before(got.CreatedAt))

	// Повторное дописывание сохраняет хронологический порядок.
	more := []models.Message{
		{Sender: models.SenderUser, Text: "bye", Time: now.Add(time.Minute)},
		{Sender: models.SenderBot, Text: "Goodbye! If you need me again, just start a new chat. 👋", Time: now.Add(time.Minute)},
	}
	got, err = m.AppendMessages(ctx, session.ID, owner, more)
	require.NoError(t, err)
	require.Len(t, got.Messages, 4)
	require.Equal(t, "hello", got.Messages[0].Text)
	require.Equal(t, "bye", got.Messages[2].Text)
}

func TestIntegration_ListSessions_Order_And_Limit(t *testing.T) {
	m := mustNewMongo(t)

	ctx := context.Background()
	owner := uuid.New()

	s1 := mustCreateSession(t, m, owner, "first")
	s2 := mustCreateSession(t, m, owner, "second")
	s3 := mustCreateSession(t, m, owner, "third")

	// Дописываем в первую — она становится самой свежей.
	time.Sleep(5 * time.Millisecond)
	_, err := m.AppendMessages(ctx, s1.ID, owner, []models.Message{
		{Sender: models.SenderUser, Text: "ping", Time: time.Now().UTC()},
	})
	require.NoError(t, err)

	items, err := m.ListSessions(ctx, owner, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, s1.ID, items[0].ID)
	require.Equal(t, 1, items[0].TotalMessages)
	require.NotNil(t, items[0].LastMessage)
	require.Equal(t, "ping", items[0].LastMessage.Text)

	// Пустые сессии идут следом, без LastMessage.
	require.Nil(t, items[1].LastMessage)
	require.ElementsMatch(t, []string{s2.ID, s3.ID}, []string{items[1].ID, items[2].ID})

	// Лимит обрезает список.
	items, err = m.ListSessions(ctx, owner, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Чужих сессий в списке нет.
	items, err = m.ListSessions(ctx, uuid.New(), 0)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestIntegration_RenameSession(t *testing.T) {
	m := mustNewMongo(t)

	ctx := context.Background()
	owner := uuid.New()
	session := mustCreateSession(t, m, owner, "New Chat")

	require.NoError(t, m.RenameSession(ctx, session.ID, owner, "Trip planning"))

	got, err := m.SessionByID(ctx, session.ID, owner)
	require.NoError(t, err)
	require.Equal(t, "Trip planning", got.Title)
	require.False(t, got.UpdatedAt.Before(got.CreatedAt))

	err = m.RenameSession(ctx, "64f000000000000000000009", owner, "x")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_DeleteSession(t *testing.T) {
	m := mustNewMongo(t)

	ctx := context.Background()
	owner := uuid.New()
	session := mustCreateSession(t, m, owner, "doomed")

	require.NoError(t, m.DeleteSession(ctx, session.ID, owner))

	_, err := m.SessionByID(ctx, session.ID, owner)
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Повторное удаление — уже NotFound.
	err = m.DeleteSession(ctx, session.ID, owner)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_Queries_ContextCanceled(t *testing.T) {
	m := mustNewMongo(t)

	owner := uuid.New()
	session := mustCreateSession(t, m, owner, "ctx")

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // отменяем заранее

	_, err := m.SessionByID(ctx, session.ID, owner)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)

	_, err = m.ListSessions(ctx, owner, 0)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}
