package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"activity-kiosk/internal/adapters/render"
	"activity-kiosk/internal/domain"
	"activity-kiosk/internal/usecase/slides"
)

// SlideSource отдаёт текущий список слайдов.
type SlideSource interface {
	Slides(ctx context.Context) slides.Result
}

// ReportSource отдаёт отчёт дашборда.
type ReportSource interface {
	Report(ctx context.Context) domain.StatsReport
}

// Kiosk обработчики страниц и API киоска.
type Kiosk struct {
	Slides   SlideSource
	Stats    ReportSource
	Renderer *render.Renderer
	HasToken bool
	Log      zerolog.Logger
}

type slidesResponse struct {
	GeneratedAt int64              `json:"generatedAt"`
	FromCache   bool               `json:"fromCache"`
	Slides      []render.SlideView `json:"slides"`
}

// Mount регистрирует маршруты киоска. Stats может быть nil, тогда дашборда нет.
func (k *Kiosk) Mount(r chi.Router) {
	r.Handle("/static/*", http.StripPrefix("/static/", render.Static()))

	r.Group(func(protected chi.Router) {
		protected.Use(RequireToken(k.HasToken))

		protected.Get("/", k.page)
		protected.Get("/api/slides", k.apiSlides)
		if k.Stats != nil {
			protected.Get("/dashboard", k.dashboard)
			protected.Get("/api/stats", k.apiStats)
		}
	})
}

func (k *Kiosk) page(w http.ResponseWriter, r *http.Request) {
	res := k.Slides.Slides(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Slides-Generated-At", strconv.FormatInt(res.GeneratedAt.Unix(), 10))
	if err := k.Renderer.Slides(w, res.Slides); err != nil {
		k.Log.Error().Err(err).Str("request_id", RequestID(r)).Msg("http: не удалось отрисовать слайды")
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func (k *Kiosk) apiSlides(w http.ResponseWriter, r *http.Request) {
	res := k.Slides.Slides(r.Context())
	WriteJSON(w, http.StatusOK, slidesResponse{
		GeneratedAt: res.GeneratedAt.Unix(),
		FromCache:   res.FromCache,
		Slides:      k.Renderer.Images().Views(res.Slides),
	})
}

func (k *Kiosk) dashboard(w http.ResponseWriter, r *http.Request) {
	report := k.Stats.Report(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := k.Renderer.Dashboard(w, report); err != nil {
		k.Log.Error().Err(err).Str("request_id", RequestID(r)).Msg("http: не удалось отрисовать дашборд")
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func (k *Kiosk) apiStats(w http.ResponseWriter, r *http.Request) {
	report := k.Stats.Report(r.Context())
	if report.Repos == nil {
		report.Repos = []domain.RepoStats{}
	}
	w.Header().Set("Last-Modified", time.Unix(report.GeneratedAt, 0).UTC().Format(http.TimeFormat))
	WriteJSON(w, http.StatusOK, report)
}
