package slides

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"activity-kiosk/internal/domain"
	"activity-kiosk/internal/infra/metrics"
)

// DefaultLookback окно, в которое должна попасть активность.
const DefaultLookback = 7 * 24 * time.Hour

// DefaultDenyAuthors авторы-автоматы, чьи PR не показываются.
var DefaultDenyAuthors = []string{"github-actions[bot]", "dependabot[bot]"}

// Options настраивает сборщик слайдов.
type Options struct {
	BaseURL           string
	Lookback          time.Duration
	PRPageSize        int
	ReleasePageSize   int
	LatestReleaseOnly bool
	DenyAuthors       []string
}

// Collector строит список слайдов по отслеживаемым репозиториям.
type Collector struct {
	fetcher domain.BatchFetcher
	opts    Options
	deny    map[string]struct{}
	log     zerolog.Logger
}

var _ domain.SlideCollector = (*Collector)(nil)

// NewCollector создаёт сборщик слайдов.
func NewCollector(fetcher domain.BatchFetcher, opts Options, logger zerolog.Logger) *Collector {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.github.com"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Lookback <= 0 {
		opts.Lookback = DefaultLookback
	}
	if opts.PRPageSize <= 0 {
		opts.PRPageSize = 50
	}
	if opts.ReleasePageSize <= 0 {
		opts.ReleasePageSize = 10
	}
	if opts.DenyAuthors == nil {
		opts.DenyAuthors = DefaultDenyAuthors
	}
	deny := make(map[string]struct{}, len(opts.DenyAuthors))
	for _, login := range opts.DenyAuthors {
		if login = strings.TrimSpace(login); login != "" {
			deny[login] = struct{}{}
		}
	}
	return &Collector{fetcher: fetcher, opts: opts, deny: deny, log: logger}
}

// Collect выполняет один пакет из 2×N запросов и возвращает слайды,
// отсортированные по убыванию времени. Окно считается от now.
func (c *Collector) Collect(ctx context.Context, repos []domain.WatchedRepo, now time.Time) []domain.Slide {
	start := time.Now()
	since := now.Add(-c.opts.Lookback)

	urls := make([]string, 0, 2*len(repos))
	for _, repo := range repos {
		urls = append(urls, c.pullsURL(repo), c.releasesURL(repo))
	}
	responses := c.fetcher.FetchAll(ctx, urls)

	var (
		out      []domain.Slide
		prCount  int
		relCount int
	)
	for _, repo := range repos {
		prs := c.pullRequestSlides(repo, responses[c.pullsURL(repo)], since)
		rels := c.releaseSlides(repo, responses[c.releasesURL(repo)], since)
		prCount += len(prs)
		relCount += len(rels)
		out = append(out, prs...)
		out = append(out, rels...)
	}
	SortByTimestampDesc(out)
	if out == nil {
		out = []domain.Slide{}
	}

	metrics.ObserveCollection(time.Since(start), prCount, relCount)
	c.log.Info().
		Int("repos", len(repos)).
		Int("pull_requests", prCount).
		Int("releases", relCount).
		Time("since", since).
		Msg("slides: сбор завершён")
	return out
}

func (c *Collector) pullsURL(repo domain.WatchedRepo) string {
	return fmt.Sprintf("%s/repos/%s/%s/pulls?state=closed&per_page=%d&sort=updated&direction=desc",
		c.opts.BaseURL, url.PathEscape(repo.Owner), url.PathEscape(repo.Name), c.opts.PRPageSize)
}

func (c *Collector) releasesURL(repo domain.WatchedRepo) string {
	return fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d",
		c.opts.BaseURL, url.PathEscape(repo.Owner), url.PathEscape(repo.Name), c.opts.ReleasePageSize)
}

func (c *Collector) pullRequestSlides(repo domain.WatchedRepo, items []json.RawMessage, since time.Time) []domain.Slide {
	var out []domain.Slide
	for _, raw := range items {
		pr, err := DecodePullRequest(raw)
		if err != nil {
			c.log.Debug().Err(err).Str("repo", repo.String()).Msg("slides: пропускаем запись PR")
			continue
		}
		if !pr.Merged() {
			continue
		}
		if _, denied := c.deny[pr.Author]; denied {
			continue
		}
		if pr.MergedAt.Before(since) {
			continue
		}
		out = append(out, domain.Slide{
			Kind:      domain.SlideKindPullRequest,
			Owner:     repo.Owner,
			Repo:      repo.Name,
			Timestamp: pr.MergedAt,
			Number:    pr.Number,
			Title:     pr.Title,
			Author:    pr.Author,
		})
	}
	return out
}

func (c *Collector) releaseSlides(repo domain.WatchedRepo, items []json.RawMessage, since time.Time) []domain.Slide {
	var out []domain.Slide
	for _, raw := range items {
		rel, err := DecodeRelease(raw)
		if err != nil {
			c.log.Debug().Err(err).Str("repo", repo.String()).Msg("slides: пропускаем запись релиза")
			continue
		}
		if rel.Draft || rel.Prerelease || rel.PublishedAt.IsZero() {
			continue
		}
		if rel.PublishedAt.Before(since) {
			continue
		}
		slide := domain.Slide{
			Kind:      domain.SlideKindRelease,
			Owner:     repo.Owner,
			Repo:      repo.Name,
			Timestamp: rel.PublishedAt,
			Tag:       rel.Tag,
			Title:     rel.DisplayTitle(),
		}
		if c.opts.LatestReleaseOnly {
			if len(out) == 0 {
				out = append(out, slide)
			} else if slide.Timestamp.After(out[0].Timestamp) {
				out[0] = slide
			}
			continue
		}
		out = append(out, slide)
	}
	return out
}

// SortByTimestampDesc упорядочивает слайды от новых к старым, сохраняя порядок равных.
func SortByTimestampDesc(list []domain.Slide) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Timestamp.After(list[j].Timestamp)
	})
}
