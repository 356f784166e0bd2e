package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"activity-kiosk/internal/domain"
	"activity-kiosk/internal/infra/metrics"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS kiosk_cache (
	key          TEXT PRIMARY KEY,
	payload      JSONB NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore хранит записи в таблице kiosk_cache. Позволяет нескольким
// экранам делить один результат сбора.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgres создаёт хранилище поверх пула.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema создаёт таблицу, если её нет.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("postgres: создание kiosk_cache: %w", err)
	}
	return nil
}

// Read возвращает payload и generated_at.
func (s *PostgresStore) Read(ctx context.Context, key string) ([]byte, time.Time, error) {
	ctx, cancel := connCtx(ctx)
	defer cancel()
	var (
		payload     []byte
		generatedAt time.Time
	)
	start := time.Now()
	err := s.pool.QueryRow(ctx, `SELECT payload, generated_at FROM kiosk_cache WHERE key = $1`, key).Scan(&payload, &generatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "cache_read", key, start, nil)
		return nil, time.Time{}, domain.ErrCacheMiss
	}
	metrics.ObserveNetworkRequest("postgres", "cache_read", key, start, err)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("postgres: чтение %s: %w", key, err)
	}
	return payload, generatedAt, nil
}

// Write делает upsert записи.
func (s *PostgresStore) Write(ctx context.Context, key string, data []byte, _ time.Duration) error {
	ctx, cancel := connCtx(ctx)
	defer cancel()
	start := time.Now()
	_, err := s.pool.Exec(ctx, `
INSERT INTO kiosk_cache (key, payload, generated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, generated_at = EXCLUDED.generated_at`, key, data)
	metrics.ObserveNetworkRequest("postgres", "cache_write", key, start, err)
	if err != nil {
		return fmt.Errorf("postgres: запись %s: %w", key, err)
	}
	return nil
}

func connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}
