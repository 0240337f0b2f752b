package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/PizzaHomicide/lectern/internal/domain"
)

// fakeElement records every command and lets tests emit media events
type fakeElement struct {
	mu        sync.Mutex
	calls     []string
	loaded    []Source
	seeks     []float64
	volume    float64
	muted     bool
	rate      float64
	playErr   error
	loadErr   error
	listeners map[int]func(MediaEvent)
	nextID    int

	// onLoad runs inside Load, before the source is recorded
	onLoad func()
}

func newFakeElement() *fakeElement {
	return &fakeElement{listeners: map[int]func(MediaEvent){}}
}

func (f *fakeElement) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeElement) Load(_ context.Context, src Source) error {
	if f.onLoad != nil {
		f.onLoad()
	}
	f.record("load")
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = append(f.loaded, src)
	return nil
}

func (f *fakeElement) Play(context.Context) error {
	f.record("play")
	return f.playErr
}

func (f *fakeElement) Pause(context.Context) error {
	f.record("pause")
	return nil
}

func (f *fakeElement) Seek(_ context.Context, seconds float64) error {
	f.record("seek")
	f.seeks = append(f.seeks, seconds)
	return nil
}

func (f *fakeElement) SetVolume(_ context.Context, volume float64) error {
	f.record("volume")
	f.volume = volume
	return nil
}

func (f *fakeElement) SetMuted(_ context.Context, muted bool) error {
	f.record("muted")
	f.muted = muted
	return nil
}

func (f *fakeElement) SetPlaybackRate(_ context.Context, rate float64) error {
	f.record("rate")
	f.rate = rate
	return nil
}

func (f *fakeElement) AddListener(fn func(MediaEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

func (f *fakeElement) emit(ev MediaEvent) {
	f.mu.Lock()
	listeners := make([]func(MediaEvent), 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	f.mu.Unlock()
	for _, l := range listeners {
		l(ev)
	}
}

func (f *fakeElement) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// callLog returns a copy of every command received so far, in order
func (f *fakeElement) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeElement) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

// fakeFullscreen is a scripted native fullscreen capability
type fakeFullscreen struct {
	active     bool
	known      bool
	requestErr error
	requests   int
	exits      int
	listeners  map[int]func(bool)
	nextID     int
}

func newFakeFullscreen() *fakeFullscreen {
	return &fakeFullscreen{listeners: map[int]func(bool){}}
}

func (f *fakeFullscreen) RequestFullscreen(context.Context) error {
	f.requests++
	if f.requestErr != nil {
		return f.requestErr
	}
	f.active = true
	return nil
}

func (f *fakeFullscreen) ExitFullscreen(context.Context) error {
	f.exits++
	f.active = false
	return nil
}

func (f *fakeFullscreen) FullscreenElement() (bool, bool) {
	return f.active, f.known
}

func (f *fakeFullscreen) OnFullscreenChange(fn func(bool)) func() {
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	return func() { delete(f.listeners, id) }
}

func (f *fakeFullscreen) signal(active bool) {
	f.active = active
	for _, l := range f.listeners {
		l(active)
	}
}

// fakeKeySource stands in for the document-level key listener registry
type fakeKeySource struct {
	listeners map[int]KeyListener
	nextID    int
}

func newFakeKeySource() *fakeKeySource {
	return &fakeKeySource{listeners: map[int]KeyListener{}}
}

func (s *fakeKeySource) AddKeyListener(fn KeyListener) func() {
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}

func (s *fakeKeySource) press(key string, target KeyTarget) bool {
	handled := false
	for _, l := range s.listeners {
		if l(KeyEvent{Key: key, Target: target}) {
			handled = true
		}
	}
	return handled
}

// queueLoop collects posted callbacks so tests run them on the test goroutine
type queueLoop struct {
	ch chan func()
}

func newQueueLoop() *queueLoop {
	return &queueLoop{ch: make(chan func(), 64)}
}

func (q *queueLoop) Post(fn func()) {
	q.ch <- fn
}

// runNext waits for one posted callback and runs it
func (q *queueLoop) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-q.ch:
		fn()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a posted callback")
	}
}

// idle asserts that nothing is posted within a short window
func (q *queueLoop) idle(t *testing.T) {
	t.Helper()
	select {
	case <-q.ch:
		t.Fatal("unexpected callback posted")
	case <-time.After(50 * time.Millisecond):
	}
}

// deferredRunner holds operations until the test completes them, in any order
type deferredRunner struct {
	pending []deferredOp
}

type deferredOp struct {
	op   func() error
	done func(error)
}

func (r *deferredRunner) Run(op func() error, done func(error)) {
	r.pending = append(r.pending, deferredOp{op: op, done: done})
}

// complete runs the i-th pending operation, overriding its result with err when err is non-nil
func (r *deferredRunner) complete(i int, err error) {
	p := r.pending[i]
	r.pending = append(r.pending[:i], r.pending[i+1:]...)
	result := p.op()
	if err != nil {
		result = err
	}
	if p.done != nil {
		p.done(result)
	}
}

func (r *deferredRunner) flush() {
	for len(r.pending) > 0 {
		r.complete(0, nil)
	}
}

var (
	lessonA = domain.Lesson{ID: "a", Title: "Intro", VideoURL: "https://cdn.example.com/a.mp4", Duration: 600}
	lessonB = domain.Lesson{ID: "b", Title: "Variables", Content: "AAAAIGZ0eXBpc29t", Duration: 420}
	lessonC = domain.Lesson{ID: "c", Title: "Reading only"}
)

// newInlineController returns a controller whose commands and events complete synchronously
func newInlineController(el *fakeElement) *Controller {
	return NewController(Options{Element: el, Runner: InlineRunner{}})
}

// readyController loads lessonA and resolves its metadata
func readyController(t *testing.T, el *fakeElement, duration float64) *Controller {
	t.Helper()
	c := newInlineController(el)
	c.Load(lessonA)
	el.emit(MediaEvent{Type: MediaLoadedMetadata, Value: duration})
	return c
}
