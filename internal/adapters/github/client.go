package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"activity-kiosk/internal/infra/metrics"
)

const (
	defaultBaseURL    = "https://api.github.com"
	defaultAPIVersion = "2022-11-28"
	defaultUserAgent  = "Narrowcasting-Screen"
	maxBodyBytes      = 10 << 20
)

// Config параметры клиента GitHub REST API.
type Config struct {
	BaseURL     string
	Token       string
	APIVersion  string
	UserAgent   string
	Timeout     time.Duration
	MaxPages    int
	MaxInFlight int
}

// Client выполняет GET-запросы к GitHub и возвращает JSON-массивы.
// Любая ошибка превращается в пустую коллекцию.
type Client struct {
	http *http.Client
	cfg  Config
	log  zerolog.Logger
}

// Option настраивает клиента.
type Option func(*Client)

// WithHTTPClient подменяет http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// NewClient создаёт клиента GitHub.
func NewClient(cfg Config, logger zerolog.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	c := &Client{
		http: &http.Client{Timeout: cfg.Timeout},
		cfg:  cfg,
		log:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL возвращает адрес API без завершающего слеша.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// HasToken сообщает, задан ли токен.
func (c *Client) HasToken() bool {
	return c.cfg.Token != ""
}

// GetArray загружает JSON-массив, следуя rel="next" не более MaxPages страниц.
// При ошибке на странице k>1 возвращаются уже загруженные страницы.
func (c *Client) GetArray(ctx context.Context, rawURL string) []json.RawMessage {
	var items []json.RawMessage
	next := rawURL
	for page := 0; page < c.cfg.MaxPages && next != ""; page++ {
		pageItems, link, err := c.getPage(ctx, next)
		if err != nil {
			c.log.Debug().Err(err).Str("url", next).Int("page", page+1).Msg("github: запрос не удался, пустой результат")
			break
		}
		items = append(items, pageItems...)
		next = link
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items
}

func (c *Client) getPage(ctx context.Context, rawURL string) ([]json.RawMessage, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("github: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", c.cfg.APIVersion)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	target := req.URL.Path
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("github", "get", target, start, err)
		return nil, "", fmt.Errorf("github: do request: %w", err)
	}
	defer resp.Body.Close()
	c.observeRateLimit(resp.Header)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.ObserveNetworkRequest("github", "get", target, start, err)
		return nil, "", fmt.Errorf("github: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("github: unexpected status %d", resp.StatusCode)
		metrics.ObserveNetworkRequest("github", "get", target, start, err)
		return nil, "", err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		err = fmt.Errorf("github: decode array: %w", err)
		metrics.ObserveNetworkRequest("github", "get", target, start, err)
		return nil, "", err
	}
	metrics.ObserveNetworkRequest("github", "get", target, start, nil)
	return items, nextLink(req.URL, resp.Header.Get("Link")), nil
}

func (c *Client) observeRateLimit(h http.Header) {
	raw := h.Get("X-RateLimit-Remaining")
	if raw == "" {
		return
	}
	remaining, err := strconv.Atoi(raw)
	if err != nil {
		return
	}
	metrics.GitHubRateLimitRemaining.Set(float64(remaining))
	if remaining == 0 {
		c.log.Warn().Str("reset", h.Get("X-RateLimit-Reset")).Msg("github: лимит запросов исчерпан")
		return
	}
	c.log.Debug().Int("remaining", remaining).Msg("github: остаток лимита")
}

// nextLink достаёт адрес rel="next" из заголовка Link.
func nextLink(base *url.URL, header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		isNext := false
		for _, param := range segments[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				isNext = true
				break
			}
		}
		if !isNext {
			continue
		}
		ref := strings.TrimSpace(segments[0])
		ref = strings.TrimSuffix(strings.TrimPrefix(ref, "<"), ">")
		parsed, err := url.Parse(ref)
		if err != nil {
			return ""
		}
		return base.ResolveReference(parsed).String()
	}
	return ""
}
