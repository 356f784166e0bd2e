package domain

import (
	"context"
	"encoding/json"
	"time"
)

// BatchFetcher выполняет GET-запросы параллельно и ждёт завершения всех.
// Упавший URL отображается в пустую коллекцию.
type BatchFetcher interface {
	FetchAll(ctx context.Context, urls []string) map[string][]json.RawMessage
}

// SlideCollector собирает слайды по отслеживаемым репозиториям.
type SlideCollector interface {
	Collect(ctx context.Context, repos []WatchedRepo, now time.Time) []Slide
}

// SlideCache хранит последний результат сбора слайдов.
type SlideCache interface {
	// Get возвращает слайды и время генерации, если запись свежая и корректная.
	Get(ctx context.Context) ([]Slide, time.Time, bool)
	// Put перезаписывает запись. Ошибка не фатальна для вызывающего.
	Put(ctx context.Context, slides []Slide) error
}

// StatsCache хранит последний отчёт дашборда.
type StatsCache interface {
	Get(ctx context.Context) (StatsReport, bool)
	Put(ctx context.Context, report StatsReport) error
}

// StatsSource отдаёт вспомогательную статистику GitHub.
type StatsSource interface {
	ListOrgRepos(ctx context.Context, org string) ([]WatchedRepo, error)
	CountCommitsSince(ctx context.Context, repo WatchedRepo, since time.Time) (int, error)
	ListContributors(ctx context.Context, repo WatchedRepo, limit int) ([]Contributor, error)
}
