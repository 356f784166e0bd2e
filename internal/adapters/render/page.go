// Package render отвечает за HTML киоска: страницу слайдов, дашборд и статику.
package render

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"activity-kiosk/internal/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Display параметры показа, которые передаются в браузерный скрипт.
type Display struct {
	Interval time.Duration
	Fade     time.Duration
	Settle   time.Duration
	Refresh  time.Duration
}

// Renderer рисует страницы киоска.
type Renderer struct {
	tmpl    *template.Template
	images  Images
	display Display
}

// NewRenderer разбирает встроенные шаблоны.
func NewRenderer(images Images, display Display) (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"ms": func(d time.Duration) int64 { return d.Milliseconds() },
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if display.Interval <= 0 {
		display.Interval = 10 * time.Second
	}
	if display.Fade <= 0 {
		display.Fade = time.Second
	}
	if display.Settle <= 0 {
		display.Settle = 1200 * time.Millisecond
	}
	if display.Refresh <= 0 {
		display.Refresh = 300 * time.Second
	}
	return &Renderer{tmpl: tmpl, images: images, display: display}, nil
}

// Images возвращает построитель адресов картинок.
func (r *Renderer) Images() Images {
	return r.images
}

type slideItem struct {
	Type     string
	ImageURL string
	Alt      string
}

type slidesPage struct {
	Display        Display
	RefreshSeconds int
	Slides         []slideItem
}

// Slides рисует страницу слайдов целиком; при ошибке в w ничего не пишется.
func (r *Renderer) Slides(w io.Writer, list []domain.Slide) error {
	page := slidesPage{
		Display:        r.display,
		RefreshSeconds: int(r.display.Refresh / time.Second),
		Slides:         make([]slideItem, 0, len(list)),
	}
	for _, s := range list {
		page.Slides = append(page.Slides, slideItem{
			Type:     s.Kind.ShortTag(),
			ImageURL: r.images.URL(s),
			Alt:      s.Owner + "/" + s.Repo + ": " + s.Title,
		})
	}
	return r.execute(w, "slides.html", page)
}

type dashboardRow struct {
	Repo         string
	Commits      int
	Percent      int
	Contributors []domain.Contributor
}

type dashboardPage struct {
	Since          string
	RefreshSeconds int
	Rows           []dashboardRow
}

// Dashboard рисует дашборд со столбиками коммитов.
func (r *Renderer) Dashboard(w io.Writer, report domain.StatsReport) error {
	page := dashboardPage{
		Since:          report.Since.UTC().Format("2006-01-02"),
		RefreshSeconds: int(r.display.Refresh / time.Second),
	}
	maxCommits := 0
	for _, rs := range report.Repos {
		maxCommits = max(maxCommits, rs.Commits)
	}
	for _, rs := range report.Repos {
		row := dashboardRow{Repo: rs.Repo.String(), Commits: rs.Commits, Contributors: rs.Contributors}
		if maxCommits > 0 {
			row.Percent = rs.Commits * 100 / maxCommits
		}
		page.Rows = append(page.Rows, row)
	}
	return r.execute(w, "dashboard.html", page)
}

func (r *Renderer) execute(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// Static отдаёт встроенные стили и скрипт.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
