// Package cache — необязательный Redis-кэш состояния refresh-токенов.
//
// Кэш вспомогательный: источником истины остаётся PostgreSQL (CAS-замена
// хэша). Записи позволяют быстро отбрасывать заведомо отозванные токены,
// не ходя в базу. Сервис обязан корректно работать и без кэша (nil).
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Entry — кэшированное состояние refresh-токена (ключ — хэш токена).
type Entry struct {
	UserID    uuid.UUID
	Revoked   bool
	ExpiresAt time.Time
}

// RefreshCache — контракт кэша refresh-токенов.
type RefreshCache interface {
	// Get возвращает запись и признак попадания.
	Get(ctx context.Context, hash string) (*Entry, bool, error)
	// Set сохраняет запись с TTL.
	Set(ctx context.Context, hash string, e *Entry, ttl time.Duration) error
	// MarkRevoked помечает токен отозванным, TTL ключа не трогает.
	MarkRevoked(ctx context.Context, hash string) error
	// Close закрывает соединение.
	Close() error
}

const defaultPrefix = "chatbot:rt:"

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт кэш поверх Redis по URL
// (redis://:pass@host:6379/0). Пустой prefix заменяется значением
// по умолчанию.
func NewRedisCache(redisURL, prefix string) (RefreshCache, error) {
	if prefix == "" {
		prefix = defaultPrefix
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast: нерабочий Redis должен валить старт, а не первый запрос.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(hash string) string { return c.prefix + hash }

// Запись лежит как Redis Hash: uid, rev (0/1), exp (unix-секунды).
func (c *redisCache) Get(ctx context.Context, hash string) (*Entry, bool, error) {
	fields, err := c.rdb.HGetAll(ctx, c.key(hash)).Result()
	if err != nil {
		return nil, false, err
	}

	if len(fields) == 0 {
		return nil, false, nil
	}

	uid, err := uuid.Parse(fields["uid"])
	if err != nil {
		return nil, false, err
	}

	expUnix, err := strconv.ParseInt(fields["exp"], 10, 64)
	if err != nil {
		return nil, false, err
	}

	return &Entry{
		UserID:    uid,
		Revoked:   fields["rev"] == "1",
		ExpiresAt: time.Unix(expUnix, 0).UTC(),
	}, true, nil
}

func (c *redisCache) Set(ctx context.Context, hash string, e *Entry, ttl time.Duration) error {
	rev := "0"
	if e.Revoked {
		rev = "1"
	}

	fields := map[string]string{
		"uid": e.UserID.String(),
		"rev": rev,
		"exp": strconv.FormatInt(e.ExpiresAt.Unix(), 10),
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, c.key(hash), fields)
	pipe.Expire(ctx, c.key(hash), ttl)

	_, err := pipe.Exec(ctx)

	return err
}

func (c *redisCache) MarkRevoked(ctx context.Context, hash string) error {
	return c.rdb.HSet(ctx, c.key(hash), "rev", "1").Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }
