package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"activity-kiosk/internal/app"
	"activity-kiosk/internal/infra/config"
	logpkg "activity-kiosk/internal/infra/log"
	"activity-kiosk/internal/infra/metrics"
)

func main() {
	cfg := config.Load()
	logger := logpkg.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kiosk, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("warmer: не удалось собрать приложение")
	}
	defer kiosk.Close()
	if !kiosk.HasToken() {
		logger.Fatal().Msg("warmer: GITHUB_TOKEN не задан")
	}
	if cfg.WarmInterval >= cfg.Cache.TTL {
		logger.Warn().Dur("interval", cfg.WarmInterval).Dur("ttl", cfg.Cache.TTL).Msg("warmer: интервал не меньше TTL, кэш будет устаревать")
	}

	locker, _ := kiosk.Locker()
	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	logger.Info().Dur("interval", cfg.WarmInterval).Msg("warmer: старт")
	warmer := app.NewWarmer(kiosk.Slides, locker, cfg.WarmInterval, logger)
	if err := warmer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("warmer: остановлен с ошибкой")
	}
	logger.Info().Msg("warmer: остановка")
}
