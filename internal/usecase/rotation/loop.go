package rotation

import (
	"context"
	"sync"
	"time"
)

// Loop однопоточный цикл событий на канале. Реализует Scheduler.
type Loop struct {
	events chan func()
	done   chan struct{}
	once   sync.Once
}

var _ Scheduler = (*Loop)(nil)

// NewLoop создаёт цикл. Обработка начинается с Run.
func NewLoop() *Loop {
	return &Loop{events: make(chan func(), 64), done: make(chan struct{})}
}

// Post ставит fn в очередь. После остановки цикла fn отбрасывается.
func (l *Loop) Post(fn func()) {
	select {
	case l.events <- fn:
	case <-l.done:
	}
}

// After выполняет fn в цикле через d.
func (l *Loop) After(d time.Duration, fn func()) {
	time.AfterFunc(d, func() { l.Post(fn) })
}

// Every выполняет fn в цикле каждые d до остановки цикла.
func (l *Loop) Every(d time.Duration, fn func()) {
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Post(fn)
			case <-l.done:
				return
			}
		}
	}()
}

// Run обрабатывает события до отмены ctx.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.events:
			fn()
		}
	}
}
