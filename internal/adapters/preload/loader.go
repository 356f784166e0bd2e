// Package preload подгружает картинки слайдов по HTTP для движка смены слайдов.
package preload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"activity-kiosk/internal/infra/metrics"
	"activity-kiosk/internal/usecase/rotation"
)

// Loader загружает картинку один раз; ошибка загрузки тоже считается завершением.
type Loader struct {
	httpClient *http.Client
	log        zerolog.Logger
	background chan struct{}

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	started bool
	done    bool
	waiters []func()
}

var _ rotation.ImageLoader = (*Loader)(nil)

// Option настраивает Loader.
type Option func(*Loader)

// WithHTTPClient подменяет HTTP-клиент.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client != nil {
			l.httpClient = client
		}
	}
}

// WithBackgroundLimit ограничивает число одновременных фоновых загрузок.
func WithBackgroundLimit(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.background = make(chan struct{}, n)
		}
	}
}

// New создаёт загрузчик.
func New(logger zerolog.Logger, opts ...Option) *Loader {
	l := &Loader{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.With().Str("component", "preload").Logger(),
		background: make(chan struct{}, 2),
		entries:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Loaded сообщает, завершилась ли загрузка url.
func (l *Loader) Loaded(url string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[url]
	return ok && e.done
}

// Load начинает загрузку url, если она ещё не идёт. done вызывается в отдельной горутине.
// Приоритетная загрузка стартует сразу, даже если url уже ждёт фонового слота.
func (l *Loader) Load(url string, priority bool, done func()) {
	l.mu.Lock()
	e, ok := l.entries[url]
	if ok && e.done {
		l.mu.Unlock()
		if done != nil {
			go done()
		}
		return
	}
	if !ok {
		e = &entry{}
		l.entries[url] = e
	}
	if done != nil {
		e.waiters = append(e.waiters, done)
	}
	startNow := priority && !e.started
	if startNow {
		e.started = true
	}
	l.mu.Unlock()

	switch {
	case startNow:
		go l.fetch(url)
	case !ok && !priority:
		go l.queue(url)
	}
}

// queue ждёт фонового слота. Если url тем временем загружают с приоритетом, слот сразу освобождается.
func (l *Loader) queue(url string) {
	l.background <- struct{}{}
	defer func() { <-l.background }()

	l.mu.Lock()
	e := l.entries[url]
	if e.started {
		l.mu.Unlock()
		return
	}
	e.started = true
	l.mu.Unlock()
	l.fetch(url)
}

func (l *Loader) fetch(url string) {
	err := l.get(url)
	metrics.ObservePreload(err)
	if err != nil {
		l.log.Warn().Err(err).Str("url", url).Msg("preload: картинка не загрузилась")
	}

	l.mu.Lock()
	e := l.entries[url]
	e.done = true
	waiters := e.waiters
	e.waiters = nil
	l.mu.Unlock()
	for _, fn := range waiters {
		fn()
	}
}

func (l *Loader) get(url string) error {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("статус %d", resp.StatusCode)
	}
	return nil
}
