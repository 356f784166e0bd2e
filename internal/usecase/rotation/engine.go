// Package rotation реализует смену слайдов на экране: кроссфейд с токеном
// перехода, конфетти для релизов и фоновую подгрузку картинок.
//
// Все методы Engine вызываются только из одного цикла событий (Scheduler).
package rotation

import (
	"math/rand/v2"
	"time"

	"activity-kiosk/internal/domain"
)

const (
	// DefaultInterval период автоматической смены слайда.
	DefaultInterval = 10 * time.Second
	// DefaultSettle пауза после начала кроссфейда до уборки старого слайда.
	DefaultSettle = 1200 * time.Millisecond
	// ConfettiCount число частиц конфетти на релиз.
	ConfettiCount = 80
)

// Scheduler однопоточный цикл событий, в котором живёт Engine.
type Scheduler interface {
	// Post ставит fn в очередь цикла. Безопасен из любой горутины.
	Post(fn func())
	// After выполняет fn в цикле через d.
	After(d time.Duration, fn func())
	// Every выполняет fn в цикле каждые d.
	Every(d time.Duration, fn func())
}

// ImageLoader загружает картинки слайдов.
type ImageLoader interface {
	Loaded(url string) bool
	// Load начинает загрузку и вызывает done (если не nil) после успеха или ошибки.
	// done может быть вызван из другой горутины.
	Load(url string, priority bool, done func())
}

// Item исходные данные одного слайда.
type Item struct {
	ImageURL string
	Label    string
	Release  bool
}

// Particle одна частица конфетти.
type Particle struct {
	X        float64 // позиция по горизонтали, 0..100 vw
	Hue      float64
	Duration time.Duration
}

// Element состояние отображения одного слайда.
type Element struct {
	Item
	Visible   bool
	Opacity   float64
	Z         int
	Particles []Particle
}

// Snapshot копия состояния движка для отрисовки.
type Snapshot struct {
	Current  int
	Front    int
	Target   int
	Token    uint64
	Elements []Element
}

// Options настройки движка.
type Options struct {
	Interval time.Duration
	Settle   time.Duration
	Rand     *rand.Rand
	// OnChange вызывается в цикле после каждого изменения отображения.
	OnChange func(Snapshot)
}

// Engine машина состояний показа слайдов.
type Engine struct {
	sched  Scheduler
	loader ImageLoader
	opts   Options
	rnd    *rand.Rand

	elems []Element
	// current последний слайд, переход к которому завершился.
	current int
	// front слайд, который сейчас виден сверху.
	front int
	// target последний запрошенный слайд.
	target  int
	token   uint64
	started bool
}

// NewEngine создаёт движок. Ничего не показывает до Start.
func NewEngine(items []Item, sched Scheduler, loader ImageLoader, opts Options) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	elems := make([]Element, len(items))
	for i, it := range items {
		elems[i] = Element{Item: it}
	}
	return &Engine{sched: sched, loader: loader, opts: opts, rnd: rnd, elems: elems}
}

// ItemsFromSlides строит элементы из слайдов; imageURL задаёт адрес картинки.
func ItemsFromSlides(slides []domain.Slide, imageURL func(domain.Slide) string) []Item {
	items := make([]Item, 0, len(slides))
	for _, s := range slides {
		label := s.Owner + "/" + s.Repo + " · " + s.Title
		if s.Author != "" {
			label += " (" + s.Author + ")"
		}
		items = append(items, Item{
			ImageURL: imageURL(s),
			Label:    label,
			Release:  s.Kind == domain.SlideKindRelease,
		})
	}
	return items
}

// Len возвращает число слайдов.
func (e *Engine) Len() int {
	return len(e.elems)
}

// Start показывает первый слайд и запускает таймер смены,
// если слайдов хотя бы два.
func (e *Engine) Start() {
	if e.started || len(e.elems) == 0 {
		return
	}
	e.started = true
	for i := range e.elems {
		e.reset(i)
	}
	first := &e.elems[0]
	first.Visible, first.Opacity, first.Z = true, 1, 1
	if first.Release {
		e.launchConfetti(0)
	}
	e.notify()

	if len(e.elems) < 2 {
		return
	}
	e.preload(1)
	e.sched.Every(e.opts.Interval, e.Next)
}

// Next переходит к следующему слайду после последнего запрошенного.
func (e *Engine) Next() {
	e.GoTo(e.target + 1)
}

// Prev переходит к предыдущему слайду.
func (e *Engine) Prev() {
	e.GoTo(e.target - 1)
}

// GoTo начинает переход к слайду i (по модулю числа слайдов).
// Незавершённый предыдущий переход отменяется сменой токена.
func (e *Engine) GoTo(i int) {
	if !e.started || len(e.elems) < 2 {
		return
	}
	to := e.wrap(i)
	if to == e.target {
		return
	}
	e.token++
	t := e.token
	from := e.front
	for k := range e.elems {
		if k != from && k != to {
			e.reset(k)
		}
	}
	e.target = to

	if to == from {
		// возврат к видимому слайду: отменённый переход просто убран
		e.current = to
		e.notify()
		return
	}

	incoming := &e.elems[to]
	incoming.Visible, incoming.Opacity, incoming.Z = true, 0, 0
	e.elems[from].Z = 1
	e.notify()

	commit := func() { e.commit(t, from, to) }
	if e.loader.Loaded(incoming.ImageURL) {
		commit()
		return
	}
	e.loader.Load(incoming.ImageURL, true, func() { e.sched.Post(commit) })
}

func (e *Engine) commit(t uint64, from, to int) {
	if t != e.token {
		return
	}
	in, out := &e.elems[to], &e.elems[from]
	in.Opacity, in.Z = 1, 1
	out.Opacity, out.Z = 0, 0
	e.front = to
	if in.Release {
		e.launchConfetti(to)
	}
	e.notify()
	e.sched.After(e.opts.Settle, func() { e.settle(t, to) })
}

func (e *Engine) settle(t uint64, to int) {
	if t != e.token {
		return
	}
	for k := range e.elems {
		if k != to {
			e.reset(k)
		}
	}
	e.current = to
	e.notify()
	e.preload(to + 1)
}

func (e *Engine) preload(i int) {
	url := e.elems[e.wrap(i)].ImageURL
	if url == "" || e.loader.Loaded(url) {
		return
	}
	e.loader.Load(url, false, nil)
}

func (e *Engine) launchConfetti(i int) {
	particles := make([]Particle, ConfettiCount)
	for k := range particles {
		particles[k] = Particle{
			X:        e.rnd.Float64() * 100,
			Hue:      e.rnd.Float64() * 360,
			Duration: 2*time.Second + time.Duration(e.rnd.Float64()*float64(3*time.Second)),
		}
	}
	e.elems[i].Particles = particles
}

func (e *Engine) reset(i int) {
	el := &e.elems[i]
	el.Visible, el.Opacity, el.Z = false, 0, 0
	el.Particles = nil
}

func (e *Engine) wrap(i int) int {
	n := len(e.elems)
	return ((i % n) + n) % n
}

// Snapshot возвращает копию текущего состояния.
func (e *Engine) Snapshot() Snapshot {
	elems := make([]Element, len(e.elems))
	for i, el := range e.elems {
		elems[i] = el
		elems[i].Particles = append([]Particle(nil), el.Particles...)
	}
	return Snapshot{Current: e.current, Front: e.front, Target: e.target, Token: e.token, Elements: elems}
}

func (e *Engine) notify() {
	if e.opts.OnChange != nil {
		e.opts.OnChange(e.Snapshot())
	}
}
