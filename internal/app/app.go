// Package app собирает зависимости киоска из конфигурации для всех бинарников.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"activity-kiosk/internal/adapters/github"
	"activity-kiosk/internal/adapters/render"
	"activity-kiosk/internal/infra/cache"
	"activity-kiosk/internal/infra/config"
	"activity-kiosk/internal/infra/db"
	"activity-kiosk/internal/usecase/slides"
	"activity-kiosk/internal/usecase/stats"
)

// Ключи записей в хранилище кэша.
const (
	SlidesKey = "slides"
	StatsKey  = "stats"
	// WarmLockKey блокировка прогрева при общем Redis.
	WarmLockKey = "warm-lock"
)

// App готовые к работе сервисы.
type App struct {
	Config   config.AppConfig
	GitHub   *github.Client
	Store    cache.Store
	Slides   *slides.Service
	Stats    *stats.Service
	Renderer *render.Renderer

	closers []func()
}

// New открывает хранилище и собирает сервисы.
func New(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (*App, error) {
	repos, err := cfg.LoadRepos()
	if err != nil {
		return nil, err
	}
	if len(repos) == 0 {
		logger.Warn().Msg("app: список репозиториев пуст, экран покажет отсутствие активности")
	}

	a := &App{Config: cfg}
	store, closeStore, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, closeStore)

	ghCfg := github.Config{
		BaseURL:     cfg.GitHub.BaseURL,
		Token:       cfg.GitHub.Token,
		APIVersion:  cfg.GitHub.APIVersion,
		UserAgent:   cfg.GitHub.UserAgent,
		Timeout:     cfg.GitHub.Timeout,
		MaxPages:    cfg.GitHub.MaxPages,
		MaxInFlight: cfg.GitHub.MaxInFlight,
	}
	a.GitHub = github.NewClient(ghCfg, logger.With().Str("component", "github").Logger())

	collector := slides.NewCollector(a.GitHub, slides.Options{
		BaseURL:           cfg.GitHub.BaseURL,
		Lookback:          cfg.Slides.Lookback,
		PRPageSize:        cfg.Slides.PRPageSize,
		ReleasePageSize:   cfg.Slides.ReleasePageSize,
		LatestReleaseOnly: cfg.LatestReleaseOnly(),
		DenyAuthors:       cfg.Slides.DenyAuthors,
	}, logger.With().Str("component", "collector").Logger())
	slideCache := cache.NewSlides(store, SlidesKey, cfg.Cache.TTL, logger.With().Str("component", "cache").Logger())
	a.Slides = slides.NewService(collector, slideCache, repos, logger.With().Str("component", "slides").Logger())

	source, err := github.NewStatsSource(ghCfg, logger.With().Str("component", "github").Logger())
	if err != nil {
		a.Close()
		return nil, err
	}
	statsCache := cache.NewStats(store, StatsKey, cfg.Cache.TTL, logger.With().Str("component", "cache").Logger())
	a.Stats = stats.NewService(source, statsCache, repos, stats.Options{
		Org:      cfg.GitHub.Org,
		Lookback: cfg.Slides.Lookback,
	}, logger)

	a.Renderer, err = render.NewRenderer(
		render.NewImages(cfg.Display.ImageBaseURL, cfg.Display.ImageSize),
		render.Display{
			Interval: cfg.Display.Interval,
			Fade:     cfg.Display.Fade,
			Settle:   cfg.Display.Settle,
			Refresh:  cfg.Display.Refresh,
		},
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("app: шаблоны: %w", err)
	}
	return a, nil
}

// HasToken сообщает, задан ли токен GitHub.
func (a *App) HasToken() bool {
	return a.GitHub.HasToken()
}

// Locker возвращает блокировку прогрева, если хранилище её поддерживает.
func (a *App) Locker() (cache.Locker, bool) {
	l, ok := a.Store.(cache.Locker)
	return l, ok
}

// Close освобождает соединения в обратном порядке.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// OpenStore открывает хранилище кэша, выбранное CACHE_BACKEND.
func OpenStore(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (cache.Store, func(), error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("app: redis %s: %w", cfg.RedisAddr, err)
		}
		logger.Info().Str("addr", cfg.RedisAddr).Msg("app: кэш в Redis")
		return cache.NewRedis(client, "kiosk:"), func() { _ = client.Close() }, nil
	case config.CacheBackendPostgres:
		pool, err := db.Connect(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		store := cache.NewPostgres(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info().Msg("app: кэш в Postgres")
		return store, pool.Close, nil
	default:
		logger.Info().Str("dir", cfg.Cache.Dir).Msg("app: кэш в файлах")
		return cache.NewFileStore(cfg.Cache.Dir), func() {}, nil
	}
}
