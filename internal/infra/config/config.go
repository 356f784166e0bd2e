package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"activity-kiosk/internal/domain"
)

// Политики отбора релизов.
const (
	ReleasePolicyAll    = "all"
	ReleasePolicyLatest = "latest"
)

// Бэкенды кэша.
const (
	CacheBackendFile     = "file"
	CacheBackendRedis    = "redis"
	CacheBackendPostgres = "postgres"
)

// AppConfig описывает конфигурацию киоска.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	GitHub struct {
		Token       string        `envconfig:"GITHUB_TOKEN"`
		BaseURL     string        `envconfig:"GITHUB_API_URL" default:"https://api.github.com"`
		APIVersion  string        `envconfig:"GITHUB_API_VERSION" default:"2022-11-28"`
		UserAgent   string        `envconfig:"GITHUB_USER_AGENT" default:"Narrowcasting-Screen"`
		Timeout     time.Duration `envconfig:"GITHUB_TIMEOUT" default:"15s"`
		MaxInFlight int           `envconfig:"GITHUB_MAX_IN_FLIGHT" default:"0"`
		MaxPages    int           `envconfig:"GITHUB_MAX_PAGES" default:"1"`
		Org         string        `envconfig:"GITHUB_ORG"`
	} `envconfig:""`

	Repos struct {
		File string   `envconfig:"REPOS_FILE" default:"repos.yaml"`
		List []string `envconfig:"REPOS"`
	} `envconfig:""`

	Slides struct {
		Lookback        time.Duration `envconfig:"SLIDES_LOOKBACK" default:"168h"`
		PRPageSize      int           `envconfig:"SLIDES_PR_PAGE_SIZE" default:"50"`
		ReleasePageSize int           `envconfig:"SLIDES_RELEASE_PAGE_SIZE" default:"10"`
		ReleasePolicy   string        `envconfig:"SLIDES_RELEASE_POLICY" default:"all"`
		DenyAuthors     []string      `envconfig:"SLIDES_DENY_AUTHORS" default:"github-actions[bot],dependabot[bot]"`
	} `envconfig:""`

	Cache struct {
		Backend string        `envconfig:"CACHE_BACKEND" default:"file"`
		Dir     string        `envconfig:"CACHE_DIR" default:".cache"`
		TTL     time.Duration `envconfig:"CACHE_TTL" default:"300s"`
	} `envconfig:""`

	PGDSN     string `envconfig:"PG_DSN"`
	RedisAddr string `envconfig:"REDIS_ADDR"`

	Display struct {
		Interval     time.Duration `envconfig:"DISPLAY_INTERVAL" default:"10s"`
		Fade         time.Duration `envconfig:"DISPLAY_FADE" default:"1s"`
		Settle       time.Duration `envconfig:"DISPLAY_SETTLE" default:"1200ms"`
		Refresh      time.Duration `envconfig:"DISPLAY_REFRESH" default:"300s"`
		ImageBaseURL string        `envconfig:"DISPLAY_IMAGE_BASE_URL" default:"https://opengraph.githubassets.com/static"`
		ImageSize    int           `envconfig:"DISPLAY_IMAGE_SIZE" default:"1600"`
	} `envconfig:""`

	WarmInterval time.Duration `envconfig:"WARM_INTERVAL" default:"4m"`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

// Parse читает конфиг из окружения и проверяет значения.
func Parse() (AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность значений. Токен не проверяется:
// его отсутствие обрабатывается на уровне запроса.
func (c AppConfig) Validate() error {
	switch c.Slides.ReleasePolicy {
	case ReleasePolicyAll, ReleasePolicyLatest:
	default:
		return fmt.Errorf("SLIDES_RELEASE_POLICY: неизвестная политика %q", c.Slides.ReleasePolicy)
	}
	switch c.Cache.Backend {
	case CacheBackendFile:
	case CacheBackendRedis:
		if c.RedisAddr == "" {
			return errors.New("CACHE_BACKEND=redis требует REDIS_ADDR")
		}
	case CacheBackendPostgres:
		if c.PGDSN == "" {
			return errors.New("CACHE_BACKEND=postgres требует PG_DSN")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND: неизвестный бэкенд %q", c.Cache.Backend)
	}
	if c.Slides.Lookback <= 0 {
		return errors.New("SLIDES_LOOKBACK должен быть положительным")
	}
	if c.Cache.TTL <= 0 {
		return errors.New("CACHE_TTL должен быть положительным")
	}
	return nil
}

// LatestReleaseOnly сообщает, нужно ли оставлять только последний релиз репозитория.
func (c AppConfig) LatestReleaseOnly() bool {
	return c.Slides.ReleasePolicy == ReleasePolicyLatest
}

type reposFile struct {
	Repos []domain.WatchedRepo `yaml:"repos"`
}

// LoadRepos возвращает отслеживаемые репозитории из файла и переменной REPOS.
// Отсутствующий файл не ошибка, если список задан в окружении.
func (c AppConfig) LoadRepos() ([]domain.WatchedRepo, error) {
	var repos []domain.WatchedRepo
	if c.Repos.File != "" {
		fromFile, err := ReadReposFile(c.Repos.File)
		switch {
		case err == nil:
			repos = append(repos, fromFile...)
		case errors.Is(err, os.ErrNotExist) && len(c.Repos.List) > 0:
		default:
			return nil, err
		}
	}
	for _, raw := range c.Repos.List {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		repo, err := domain.ParseWatchedRepo(raw)
		if err != nil {
			return nil, fmt.Errorf("REPOS: %w", err)
		}
		repos = append(repos, repo)
	}
	return dedupeRepos(repos), nil
}

// ReadReposFile читает YAML со списком репозиториев.
func ReadReposFile(path string) ([]domain.WatchedRepo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение %s: %w", path, err)
	}
	var file reposFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("разбор %s: %w", path, err)
	}
	for i, repo := range file.Repos {
		if repo.Owner == "" || repo.Name == "" {
			return nil, fmt.Errorf("%s: запись %d без owner или repo", path, i)
		}
	}
	return file.Repos, nil
}

func dedupeRepos(repos []domain.WatchedRepo) []domain.WatchedRepo {
	seen := make(map[string]struct{}, len(repos))
	out := make([]domain.WatchedRepo, 0, len(repos))
	for _, repo := range repos {
		key := strings.ToLower(repo.String())
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, repo)
	}
	return out
}
