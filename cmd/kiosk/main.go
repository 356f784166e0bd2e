package main

import (
	"context"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"activity-kiosk/internal/app"
	"activity-kiosk/internal/infra/config"
	httpinfra "activity-kiosk/internal/infra/http"
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
		logger.Fatal().Err(err).Msg("kiosk: не удалось собрать приложение")
	}
	defer kiosk.Close()
	if !kiosk.HasToken() {
		logger.Warn().Msg("kiosk: GITHUB_TOKEN не задан, страницы будут отвечать 500")
	}

	server := httpinfra.NewServer(logger)
	handlers := &httpinfra.Kiosk{
		Slides:   kiosk.Slides,
		Stats:    kiosk.Stats,
		Renderer: kiosk.Renderer,
		HasToken: kiosk.HasToken(),
		Log:      logger.With().Str("component", "http").Logger(),
	}
	handlers.Mount(server.Router)

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)
	go func() {
		logger.Info().Int("repos", len(kiosk.Slides.Repos())).Msg("kiosk: старт")
		if err := server.Start(":" + strconv.Itoa(cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("kiosk: сервер остановлен")
			stop()
		}
	}()
	<-ctx.Done()
	logger.Info().Msg("kiosk: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
