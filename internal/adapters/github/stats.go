package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gh "github.com/google/go-github/v58/github"
	"github.com/rs/zerolog"

	"activity-kiosk/internal/domain"
	"activity-kiosk/internal/infra/metrics"
)

// maxCommitPages ограничивает подсчёт коммитов (100 на страницу).
const maxCommitPages = 10

// StatsSource отдаёт статистику для дашборда через go-github.
type StatsSource struct {
	client *gh.Client
	log    zerolog.Logger
}

var _ domain.StatsSource = (*StatsSource)(nil)

// NewStatsSource создаёт источник статистики с теми же адресом, токеном и user-agent.
func NewStatsSource(cfg Config, logger zerolog.Logger) (*StatsSource, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := gh.NewClient(&http.Client{Timeout: timeout})
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}
	if cfg.BaseURL != "" && cfg.BaseURL != defaultBaseURL {
		base, err := url.Parse(cfg.BaseURL + "/")
		if err != nil {
			return nil, fmt.Errorf("github: parse base url: %w", err)
		}
		client.BaseURL = base
	}
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}
	return &StatsSource{client: client, log: logger}, nil
}

// ListOrgRepos возвращает неархивные репозитории организации.
func (s *StatsSource) ListOrgRepos(ctx context.Context, org string) ([]domain.WatchedRepo, error) {
	opts := &gh.RepositoryListByOrgOptions{
		Sort:        "pushed",
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	var repos []domain.WatchedRepo
	for {
		start := time.Now()
		page, resp, err := s.client.Repositories.ListByOrg(ctx, org, opts)
		metrics.ObserveNetworkRequest("github", "org_repos", org, start, err)
		if err != nil {
			return nil, fmt.Errorf("github: репозитории %s: %w", org, err)
		}
		for _, repo := range page {
			if repo.GetArchived() {
				continue
			}
			repos = append(repos, domain.WatchedRepo{Owner: org, Name: repo.GetName()})
		}
		if resp.NextPage == 0 {
			return repos, nil
		}
		opts.Page = resp.NextPage
	}
}

// CountCommitsSince считает коммиты ветки по умолчанию начиная с since.
func (s *StatsSource) CountCommitsSince(ctx context.Context, repo domain.WatchedRepo, since time.Time) (int, error) {
	opts := &gh.CommitsListOptions{
		Since:       since,
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	total := 0
	for page := 0; page < maxCommitPages; page++ {
		start := time.Now()
		commits, resp, err := s.client.Repositories.ListCommits(ctx, repo.Owner, repo.Name, opts)
		metrics.ObserveNetworkRequest("github", "commits", repo.String(), start, err)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusConflict {
				// пустой репозиторий
				return 0, nil
			}
			return total, fmt.Errorf("github: коммиты %s: %w", repo, err)
		}
		total += len(commits)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return total, nil
}

// ListContributors возвращает первых limit участников по числу коммитов.
func (s *StatsSource) ListContributors(ctx context.Context, repo domain.WatchedRepo, limit int) ([]domain.Contributor, error) {
	if limit <= 0 {
		limit = 5
	}
	opts := &gh.ListContributorsOptions{ListOptions: gh.ListOptions{PerPage: limit}}
	start := time.Now()
	list, _, err := s.client.Repositories.ListContributors(ctx, repo.Owner, repo.Name, opts)
	metrics.ObserveNetworkRequest("github", "contributors", repo.String(), start, err)
	if err != nil {
		return nil, fmt.Errorf("github: участники %s: %w", repo, err)
	}
	out := make([]domain.Contributor, 0, len(list))
	for _, c := range list {
		if c.GetLogin() == "" {
			continue
		}
		out = append(out, domain.Contributor{Login: c.GetLogin(), Contributions: c.GetContributions()})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
