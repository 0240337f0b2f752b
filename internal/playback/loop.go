package playback

import (
	"sync"

	"github.com/PizzaHomicide/lectern/internal/log"
)

// Loop schedules callbacks onto the UI goroutine.  Every mutation of player state happens inside a callback run by
// the loop, so none of the playback types need locking.
type Loop interface {
	Post(fn func())
}

// LoopFunc adapts a plain function to the Loop interface
type LoopFunc func(fn func())

func (f LoopFunc) Post(fn func()) {
	if fn == nil {
		return
	}
	f(fn)
}

// Runner executes a native media operation and reports its completion back on the UI goroutine.  Native operations
// are only awaited for reconciliation.  A command never waits on the completion of the one before it, but operations
// reach the element in the order they were issued.
type Runner interface {
	Run(op func() error, done func(error))
}

type queuedOp struct {
	op   func() error
	done func(error)
}

// AsyncRunner runs operations one at a time, in issue order, on a worker goroutine and posts each completion onto
// the loop.  The worker only lives while there is work queued.
type AsyncRunner struct {
	loop Loop

	mu      sync.Mutex
	queue   []queuedOp
	running bool
}

// NewAsyncRunner creates a runner that posts completions onto loop
func NewAsyncRunner(loop Loop) *AsyncRunner {
	return &AsyncRunner{loop: loop}
}

// Run queues op behind every operation issued before it and returns immediately
func (r *AsyncRunner) Run(op func() error, done func(error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, queuedOp{op: op, done: done})
	if !r.running {
		r.running = true
		go r.drain()
	}
}

func (r *AsyncRunner) drain() {
	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			r.running = false
			r.mu.Unlock()
			return
		}
		next := r.queue[0]
		r.queue[0] = queuedOp{}
		r.queue = r.queue[1:]
		r.mu.Unlock()

		err := next.op()
		if next.done == nil {
			if err != nil {
				log.Warn("Media operation failed", "error", err)
			}
			continue
		}
		done := next.done
		r.loop.Post(func() { done(err) })
	}
}

// InlineRunner runs operations and their completion synchronously on the calling goroutine
type InlineRunner struct{}

func (InlineRunner) Run(op func() error, done func(error)) {
	err := op()
	if done != nil {
		done(err)
	} else if err != nil {
		log.Warn("Media operation failed", "error", err)
	}
}
