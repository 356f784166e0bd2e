package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCacheMiss возвращается хранилищем, если запись отсутствует.
var ErrCacheMiss = errors.New("запись в кэше отсутствует")

// ErrMissingToken возвращается, если не задан токен GitHub.
var ErrMissingToken = errors.New("не задан токен GitHub")

// ErrMalformedRecord возвращается при разборе записи GitHub без обязательных полей.
var ErrMalformedRecord = errors.New("запись GitHub без обязательных полей")

// WatchedRepo описывает отслеживаемый репозиторий GitHub.
type WatchedRepo struct {
	Owner string `yaml:"owner" json:"owner"`
	Name  string `yaml:"repo" json:"repo"`
}

// String возвращает owner/name.
func (r WatchedRepo) String() string {
	return r.Owner + "/" + r.Name
}

// ParseWatchedRepo разбирает строку вида owner/name.
func ParseWatchedRepo(raw string) (WatchedRepo, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(raw), "/")
	owner, name = strings.TrimSpace(owner), strings.TrimSpace(name)
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return WatchedRepo{}, fmt.Errorf("ожидали owner/repo, получили %q", raw)
	}
	return WatchedRepo{Owner: owner, Name: name}, nil
}

// SlideKind тип слайда.
type SlideKind string

const (
	// SlideKindPullRequest — смерженный pull request.
	SlideKindPullRequest SlideKind = "pull_request"
	// SlideKindRelease — опубликованный релиз.
	SlideKindRelease SlideKind = "release"
)

// ShortTag возвращает короткий тег для разметки (pr/release).
func (k SlideKind) ShortTag() string {
	if k == SlideKindRelease {
		return "release"
	}
	return "pr"
}

// Slide одна единица активности на экране.
type Slide struct {
	Kind      SlideKind `json:"kind"`
	Owner     string    `json:"owner"`
	Repo      string    `json:"repo"`
	Timestamp time.Time `json:"sort_timestamp"`
	Number    int       `json:"number,omitempty"`
	Tag       string    `json:"tag,omitempty"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
}

// PullRequest частично разобранный pull request.
type PullRequest struct {
	Number   int
	Title    string
	Author   string
	MergedAt time.Time
}

// Merged сообщает, был ли pull request смержен.
func (p PullRequest) Merged() bool {
	return !p.MergedAt.IsZero()
}

// Release частично разобранный релиз.
type Release struct {
	Tag         string
	Name        string
	Draft       bool
	Prerelease  bool
	PublishedAt time.Time
}

// DisplayTitle возвращает имя релиза или тег, если имя пустое.
func (r Release) DisplayTitle() string {
	if strings.TrimSpace(r.Name) != "" {
		return r.Name
	}
	return r.Tag
}

// CacheEntry сохраняемый результат сбора слайдов.
type CacheEntry struct {
	GeneratedAt int64   `json:"generatedAt"`
	Slides      []Slide `json:"slides"`
}

// Contributor участник репозитория с количеством коммитов.
type Contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
}

// RepoStats статистика активности репозитория за окно.
type RepoStats struct {
	Repo         WatchedRepo   `json:"repo"`
	Commits      int           `json:"commits"`
	Contributors []Contributor `json:"contributors"`
}

// StatsReport статистика для дашборда.
type StatsReport struct {
	GeneratedAt int64       `json:"generatedAt"`
	Since       time.Time   `json:"since"`
	Repos       []RepoStats `json:"repos"`
}
