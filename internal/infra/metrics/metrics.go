package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30, 60},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})

	SlideCollectSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "slide_collect_seconds",
		Help:    "Время сбора слайдов по всем репозиториям",
		Buckets: prometheus.DefBuckets,
	})

	SlidesEmitted = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "slides_emitted",
		Help: "Количество слайдов в последнем сборе",
	}, []string{"kind"})

	CacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Обращения к кэшу результатов",
	}, []string{"cache", "result"})

	GitHubRateLimitRemaining = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "github_rate_limit_remaining",
		Help: "Остаток лимита запросов GitHub API",
	})

	ImagePreloadTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "image_preload_total",
		Help: "Предзагрузки изображений слайдов",
	}, []string{"status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		NetworkRequestDuration,
		NetworkRequestTotal,
		SlideCollectSeconds,
		SlidesEmitted,
		CacheRequestsTotal,
		GitHubRateLimitRemaining,
		ImagePreloadTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveCache считает попадание или промах кэша.
func ObserveCache(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheRequestsTotal.WithLabelValues(cache, result).Inc()
}

// ObserveCollection записывает длительность сбора и состав слайдов.
func ObserveCollection(duration time.Duration, pullRequests, releases int) {
	SlideCollectSeconds.Observe(duration.Seconds())
	SlidesEmitted.WithLabelValues("pull_request").Set(float64(pullRequests))
	SlidesEmitted.WithLabelValues("release").Set(float64(releases))
}

// ObservePreload считает результат предзагрузки изображения.
func ObservePreload(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ImagePreloadTotal.WithLabelValues(status).Inc()
}
