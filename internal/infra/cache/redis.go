package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"activity-kiosk/internal/domain"
)

// RedisStore хранит записи в хэшах Redis {data, at}.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var (
	_ Store  = (*RedisStore)(nil)
	_ Locker = (*RedisStore)(nil)
)

// NewRedis создаёт хранилище. Ключи получают префикс prefix.
func NewRedis(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Read возвращает данные и время записи.
func (s *RedisStore) Read(ctx context.Context, key string) ([]byte, time.Time, error) {
	fields, err := s.client.HGetAll(ctx, s.prefix+key).Result()
	if err != nil {
		return nil, time.Time{}, err
	}
	data, ok := fields["data"]
	if !ok {
		return nil, time.Time{}, domain.ErrCacheMiss
	}
	at, err := strconv.ParseInt(fields["at"], 10, 64)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("redis: поле at: %w", err)
	}
	return []byte(data), time.UnixMilli(at), nil
}

// Write заменяет запись и выставляет срок жизни ключа.
func (s *RedisStore) Write(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	full := s.prefix + key
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, full)
		pipe.HSet(ctx, full, "data", data, "at", time.Now().UnixMilli())
		if ttl > 0 {
			pipe.Expire(ctx, full, ttl)
		}
		return nil
	})
	return err
}

// Once выполняет функцию, если ключ ещё не задан. Возвращает true, если fn выполнялась.
func (s *RedisStore) Once(ctx context.Context, key string, ttl time.Duration, fn func() error) (bool, error) {
	full := s.prefix + key
	ok, err := s.client.SetNX(ctx, full, "1", ttl).Result()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := fn(); err != nil {
		_ = s.client.Del(ctx, full).Err()
		return true, err
	}
	return true, nil
}
