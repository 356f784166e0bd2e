// Package cache хранит результаты сбора между запросами.
//
// Store отвечает только за байты и время записи; свежесть и формат
// записи проверяют типизированные обёртки Slides и Stats.
package cache

import (
	"context"
	"time"
)

// Store сохраняет произвольные данные по ключу.
type Store interface {
	// Read возвращает данные и время последней записи либо domain.ErrCacheMiss.
	Read(ctx context.Context, key string) ([]byte, time.Time, error)
	// Write полностью заменяет запись.
	Write(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// Locker выполняет fn, только если блокировка по ключу свободна.
type Locker interface {
	Once(ctx context.Context, key string, ttl time.Duration, fn func() error) (bool, error)
}

func fresh(now, modified time.Time, ttl time.Duration) bool {
	return now.Sub(modified) < ttl
}
