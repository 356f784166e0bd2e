package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"activity-kiosk/internal/infra/cache"
	"activity-kiosk/internal/usecase/slides"
)

// Refresher пересобирает слайды и перезаписывает кэш.
type Refresher interface {
	Refresh(ctx context.Context) slides.Result
}

// Warmer периодически обновляет кэш слайдов, чтобы страница не ждала GitHub.
type Warmer struct {
	refresher Refresher
	locker    cache.Locker
	interval  time.Duration
	log       zerolog.Logger
}

// NewWarmer создаёт прогревщик. locker может быть nil.
func NewWarmer(refresher Refresher, locker cache.Locker, interval time.Duration, logger zerolog.Logger) *Warmer {
	if interval <= 0 {
		interval = 4 * time.Minute
	}
	return &Warmer{refresher: refresher, locker: locker, interval: interval, log: logger.With().Str("component", "warmer").Logger()}
}

// Run прогревает сразу и затем по тикеру до отмены ctx.
func (w *Warmer) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		w.Tick(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick выполняет один прогрев. При общем хранилище работает только один экземпляр.
func (w *Warmer) Tick(ctx context.Context) bool {
	runID := uuid.NewString()
	log := w.log.With().Str("run_id", runID).Logger()
	refresh := func() error {
		res := w.refresher.Refresh(ctx)
		log.Info().Int("slides", len(res.Slides)).Msg("warmer: кэш обновлён")
		return nil
	}
	if w.locker == nil {
		_ = refresh()
		return true
	}
	ran, err := w.locker.Once(ctx, WarmLockKey, w.interval/2, refresh)
	if err != nil {
		log.Error().Err(err).Msg("warmer: блокировка недоступна")
		return false
	}
	if !ran {
		log.Debug().Msg("warmer: прогрев уже выполняет другой экземпляр")
	}
	return ran
}
