// Package stats собирает статистику коммитов и авторов для дашборда.
package stats

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"activity-kiosk/internal/domain"
	"activity-kiosk/internal/infra/metrics"
)

const (
	// DefaultTopContributors сколько авторов показывать на репозиторий.
	DefaultTopContributors = 5
	fanOut                 = 4
)

// Options настройки сервиса.
type Options struct {
	Org             string
	Lookback        time.Duration
	TopContributors int
}

// Service строит отчёт дашборда.
type Service struct {
	source domain.StatsSource
	cache  domain.StatsCache
	repos  []domain.WatchedRepo
	opts   Options
	now    func() time.Time
	log    zerolog.Logger
}

// NewService создаёт сервис. cache может быть nil.
func NewService(source domain.StatsSource, cache domain.StatsCache, repos []domain.WatchedRepo, opts Options, logger zerolog.Logger) *Service {
	if opts.Lookback <= 0 {
		opts.Lookback = 7 * 24 * time.Hour
	}
	if opts.TopContributors <= 0 {
		opts.TopContributors = DefaultTopContributors
	}
	return &Service{
		source: source,
		cache:  cache,
		repos:  repos,
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
		log:    logger.With().Str("component", "stats").Logger(),
	}
}

// Report возвращает свежий отчёт из кэша или строит новый.
func (s *Service) Report(ctx context.Context) domain.StatsReport {
	if s.cache != nil {
		report, ok := s.cache.Get(ctx)
		metrics.ObserveCache("stats", ok)
		if ok {
			return report
		}
	}
	report := s.Build(ctx)
	if err := ctx.Err(); err != nil {
		s.log.Warn().Err(err).Msg("stats: сборка прервана, отчёт не кэшируется")
		return report
	}
	if s.cache != nil {
		if err := s.cache.Put(ctx, report); err != nil {
			s.log.Warn().Err(err).Msg("stats: не удалось сохранить отчёт в кэш")
		}
	}
	return report
}

// Build собирает отчёт без кэша. Ошибки по репозиторию дают нули.
func (s *Service) Build(ctx context.Context) domain.StatsReport {
	now := s.now()
	since := now.Add(-s.opts.Lookback)
	repos := s.targets(ctx)

	results := make([]domain.RepoStats, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for i, repo := range repos {
		g.Go(func() error {
			results[i] = s.repoStats(gctx, repo, since)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(results, func(i, j int) bool { return results[i].Commits > results[j].Commits })
	s.log.Info().Int("repos", len(results)).Msg("stats: отчёт построен")
	return domain.StatsReport{GeneratedAt: now.Unix(), Since: since, Repos: results}
}

func (s *Service) targets(ctx context.Context) []domain.WatchedRepo {
	if s.opts.Org == "" {
		return s.repos
	}
	repos, err := s.source.ListOrgRepos(ctx, s.opts.Org)
	if err != nil {
		s.log.Warn().Err(err).Str("org", s.opts.Org).Msg("stats: список репозиториев организации недоступен, используем отслеживаемые")
		return s.repos
	}
	return repos
}

func (s *Service) repoStats(ctx context.Context, repo domain.WatchedRepo, since time.Time) domain.RepoStats {
	out := domain.RepoStats{Repo: repo, Contributors: []domain.Contributor{}}
	commits, err := s.source.CountCommitsSince(ctx, repo, since)
	if err != nil {
		s.log.Warn().Err(err).Str("repo", repo.String()).Msg("stats: коммиты недоступны")
	} else {
		out.Commits = commits
	}
	contributors, err := s.source.ListContributors(ctx, repo, s.opts.TopContributors)
	if err != nil {
		s.log.Warn().Err(err).Str("repo", repo.String()).Msg("stats: авторы недоступны")
	} else if contributors != nil {
		out.Contributors = contributors
	}
	return out
}
