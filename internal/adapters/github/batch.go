package github

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"

	"activity-kiosk/internal/domain"
)

var _ domain.BatchFetcher = (*Client)(nil)

// FetchAll запускает все запросы сразу и ждёт завершения каждого.
// Общая задержка примерно равна самому медленному запросу.
// Ошибка одного URL не прерывает остальные.
func (c *Client) FetchAll(ctx context.Context, urls []string) map[string][]json.RawMessage {
	results := make(map[string][]json.RawMessage, len(urls))
	if len(urls) == 0 {
		return results
	}

	unique := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := results[u]; ok {
			continue
		}
		results[u] = nil
		unique = append(unique, u)
	}

	pages := make([][]json.RawMessage, len(unique))
	// Не WithContext: отмена по первой ошибке здесь не нужна, ошибки не возвращаются.
	var g errgroup.Group
	if c.cfg.MaxInFlight > 0 {
		g.SetLimit(c.cfg.MaxInFlight)
	}
	for i, u := range unique {
		g.Go(func() error {
			pages[i] = c.GetArray(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	for i, u := range unique {
		results[u] = pages[i]
	}
	c.log.Debug().Int("urls", len(unique)).Msg("github: пакет запросов завершён")
	return results
}
