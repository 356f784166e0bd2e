package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"activity-kiosk/internal/domain"
)

// DefaultTTL срок свежести закэшированного списка.
const DefaultTTL = 300 * time.Second

// Slides реализует domain.SlideCache поверх Store.
type Slides struct {
	store Store
	key   string
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

var _ domain.SlideCache = (*Slides)(nil)

// NewSlides создаёт кэш слайдов.
func NewSlides(store Store, key string, ttl time.Duration, logger zerolog.Logger) *Slides {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Slides{store: store, key: key, ttl: ttl, now: time.Now, log: logger}
}

// Get возвращает слайды, если запись есть, читается и моложе TTL.
func (c *Slides) Get(ctx context.Context) ([]domain.Slide, time.Time, bool) {
	data, modified, err := c.store.Read(ctx, c.key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			c.log.Warn().Err(err).Str("key", c.key).Msg("cache: чтение не удалось, считаем промахом")
		}
		return nil, time.Time{}, false
	}
	if !fresh(c.now(), modified, c.ttl) {
		return nil, time.Time{}, false
	}
	entry, err := decodeEntry(data)
	if err != nil {
		c.log.Warn().Err(err).Str("key", c.key).Msg("cache: повреждённая запись")
		return nil, time.Time{}, false
	}
	return entry.Slides, time.Unix(entry.GeneratedAt, 0).UTC(), true
}

// Put перезаписывает запись текущим временем.
func (c *Slides) Put(ctx context.Context, list []domain.Slide) error {
	if list == nil {
		list = []domain.Slide{}
	}
	data, err := json.Marshal(domain.CacheEntry{GeneratedAt: c.now().Unix(), Slides: list})
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}
	return c.store.Write(ctx, c.key, data, c.ttl)
}

func decodeEntry(data []byte) (domain.CacheEntry, error) {
	var raw struct {
		GeneratedAt *int64          `json:"generatedAt"`
		Slides      *[]domain.Slide `json:"slides"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.CacheEntry{}, err
	}
	if raw.GeneratedAt == nil || raw.Slides == nil {
		return domain.CacheEntry{}, errors.New("нет generatedAt или slides")
	}
	for i, s := range *raw.Slides {
		switch s.Kind {
		case domain.SlideKindPullRequest, domain.SlideKindRelease:
		default:
			return domain.CacheEntry{}, fmt.Errorf("слайд %d: неизвестный тип %q", i, s.Kind)
		}
	}
	return domain.CacheEntry{GeneratedAt: *raw.GeneratedAt, Slides: *raw.Slides}, nil
}
