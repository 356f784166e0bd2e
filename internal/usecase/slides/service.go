package slides

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"activity-kiosk/internal/domain"
	"activity-kiosk/internal/infra/metrics"
)

// Result список слайдов вместе со временем генерации.
type Result struct {
	Slides      []domain.Slide
	GeneratedAt time.Time
	FromCache   bool
}

// Service отдаёт слайды, используя кэш, пока он свежий.
type Service struct {
	collector domain.SlideCollector
	cache     domain.SlideCache
	repos     []domain.WatchedRepo
	now       func() time.Time
	log       zerolog.Logger
}

// NewService создаёт сервис слайдов. cache может быть nil.
func NewService(collector domain.SlideCollector, cache domain.SlideCache, repos []domain.WatchedRepo, logger zerolog.Logger) *Service {
	return &Service{
		collector: collector,
		cache:     cache,
		repos:     repos,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logger,
	}
}

// Repos возвращает отслеживаемые репозитории.
func (s *Service) Repos() []domain.WatchedRepo {
	return s.repos
}

// Slides возвращает закэшированный список или пересобирает его.
// Параллельные промахи могут пересобрать список несколько раз: запись идемпотентна.
func (s *Service) Slides(ctx context.Context) Result {
	if s.cache != nil {
		list, generatedAt, ok := s.cache.Get(ctx)
		metrics.ObserveCache("slides", ok)
		if ok {
			return Result{Slides: list, GeneratedAt: generatedAt, FromCache: true}
		}
	}
	return s.Refresh(ctx)
}

// Refresh собирает слайды заново и перезаписывает кэш.
// Если ctx отменён во время сборки, список неполный и в кэш не попадает.
func (s *Service) Refresh(ctx context.Context) Result {
	runID := uuid.NewString()
	now := s.now()
	logger := s.log.With().Str("run_id", runID).Logger()

	list := s.collector.Collect(logger.WithContext(ctx), s.repos, now)
	switch {
	case ctx.Err() != nil:
		logger.Warn().Err(ctx.Err()).Msg("slides: сборка прервана, кэш не обновлён")
	case s.cache != nil:
		if err := s.cache.Put(ctx, list); err != nil {
			logger.Warn().Err(err).Msg("slides: не удалось записать кэш")
		}
	}
	logger.Debug().Int("slides", len(list)).Msg("slides: список пересобран")
	return Result{Slides: list, GeneratedAt: now}
}
