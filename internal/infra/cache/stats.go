package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"activity-kiosk/internal/domain"
)

// Stats реализует domain.StatsCache поверх Store.
type Stats struct {
	store Store
	key   string
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

var _ domain.StatsCache = (*Stats)(nil)

// NewStats создаёт кэш отчёта дашборда.
func NewStats(store Store, key string, ttl time.Duration, logger zerolog.Logger) *Stats {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Stats{store: store, key: key, ttl: ttl, now: time.Now, log: logger}
}

// Get возвращает свежий отчёт.
func (c *Stats) Get(ctx context.Context) (domain.StatsReport, bool) {
	data, modified, err := c.store.Read(ctx, c.key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			c.log.Warn().Err(err).Str("key", c.key).Msg("cache: чтение статистики не удалось")
		}
		return domain.StatsReport{}, false
	}
	if !fresh(c.now(), modified, c.ttl) {
		return domain.StatsReport{}, false
	}
	var report domain.StatsReport
	if err := json.Unmarshal(data, &report); err != nil || report.GeneratedAt == 0 {
		return domain.StatsReport{}, false
	}
	return report, true
}

// Put перезаписывает отчёт.
func (c *Stats) Put(ctx context.Context, report domain.StatsReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.store.Write(ctx, c.key, data, c.ttl)
}
