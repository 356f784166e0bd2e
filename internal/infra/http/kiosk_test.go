package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activity-kiosk/internal/adapters/render"
	"activity-kiosk/internal/domain"
	"activity-kiosk/internal/usecase/slides"
)

type stubSlides struct {
	calls int
	list  []domain.Slide
}

func (s *stubSlides) Slides(context.Context) slides.Result {
	s.calls++
	return slides.Result{Slides: s.list, GeneratedAt: time.Unix(1700000000, 0)}
}

type stubStats struct{}

func (stubStats) Report(context.Context) domain.StatsReport {
	return domain.StatsReport{GeneratedAt: 1700000000, Repos: []domain.RepoStats{{Repo: domain.WatchedRepo{Owner: "acme", Name: "api"}, Commits: 3}}}
}

func newTestServer(t *testing.T, hasToken bool, src *stubSlides) *httptest.Server {
	t.Helper()
	renderer, err := render.NewRenderer(render.NewImages("", 0), render.Display{})
	require.NoError(t, err)
	s := NewServer(zerolog.Nop())
	k := &Kiosk{Slides: src, Stats: stubStats{}, Renderer: renderer, HasToken: hasToken, Log: zerolog.Nop()}
	k.Mount(s.Router)
	srv := httptest.NewServer(s.Router)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestMissingTokenReturns500WithoutPage(t *testing.T) {
	src := &stubSlides{}
	srv := newTestServer(t, false, src)

	for _, path := range []string{"/", "/api/slides", "/dashboard", "/api/stats"} {
		resp, body := get(t, srv.URL+path)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, path)
		assert.Equal(t, MissingTokenMessage, body, path)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	}
	assert.Zero(t, src.calls)

	resp, _ := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = get(t, srv.URL+"/static/style.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSlidesPage(t *testing.T) {
	src := &stubSlides{list: []domain.Slide{
		{Kind: domain.SlideKindPullRequest, Owner: "acme", Repo: "web", Number: 7, Title: "Fix"},
	}}
	srv := newTestServer(t, true, src)

	resp, body := get(t, srv.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, `data-type="pr"`)
	assert.Contains(t, body, "/acme/web/pull/7?size=1600")
}

func TestEmptySlidesPage(t *testing.T) {
	srv := newTestServer(t, true, &stubSlides{list: []domain.Slide{}})
	_, body := get(t, srv.URL+"/")
	assert.Contains(t, body, "No activity last week.")
}

func TestAPISlides(t *testing.T) {
	src := &stubSlides{list: []domain.Slide{
		{Kind: domain.SlideKindRelease, Owner: "acme", Repo: "api", Tag: "v2", Title: "Two"},
	}}
	srv := newTestServer(t, true, src)

	resp, body := get(t, srv.URL+"/api/slides")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		GeneratedAt int64 `json:"generatedAt"`
		Slides      []struct {
			Kind     string `json:"kind"`
			ImageURL string `json:"image_url"`
		} `json:"slides"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.EqualValues(t, 1700000000, payload.GeneratedAt)
	require.Len(t, payload.Slides, 1)
	assert.Equal(t, "release", payload.Slides[0].Kind)
	assert.Contains(t, payload.Slides[0].ImageURL, "/releases/tag/v2")
}

func TestDashboardAndStats(t *testing.T) {
	srv := newTestServer(t, true, &stubSlides{})

	resp, body := get(t, srv.URL+"/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "acme/api")

	resp, body = get(t, srv.URL+"/api/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"commits":3`)
}
