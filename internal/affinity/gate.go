// Package affinity confines toolkit work to a single owner OS thread.
//
// Calls made on the owner run inline. Calls made anywhere else are queued and
// executed by Run, which the owner services between toolkit events. Queued
// work runs strictly in submission order.
package affinity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/1broseidon/guibridge/internal/fault"
	"github.com/1broseidon/guibridge/internal/logging"
	"github.com/1broseidon/guibridge/internal/platform"
)

// Policy decides which thread may become the owner.
type Policy int

const (
	// PolicyMain requires the process main thread.
	PolicyMain Policy = iota
	// PolicyFirst lets the first thread to claim ownership keep it.
	PolicyFirst
)

// ParsePolicy maps the owner_thread config value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "main":
		return PolicyMain, nil
	case "first":
		return PolicyFirst, nil
	default:
		return 0, fmt.Errorf("unknown owner thread policy %q", s)
	}
}

// ErrStopped is returned for work submitted after the owner loop has exited.
var ErrStopped = errors.New("affinity: owner loop has stopped")

// ErrRunning is returned when Run is entered while already running.
var ErrRunning = errors.New("affinity: owner loop is already running")

// Options configures a Gate.
type Options struct {
	Policy Policy
	// Strict makes OwnerOnly fail off the owner thread instead of marshaling.
	Strict bool
	// ThreadID reports the calling OS thread. Defaults to gettid.
	ThreadID func() int
	// MainThreadID reports the process main thread. Defaults to getpid.
	MainThreadID func() int
}

type task struct {
	op string
	fn func()
}

// Gate tracks the owner thread and the queue of work marshaled onto it.
type Gate struct {
	policy   Policy
	strict   bool
	threadID func() int
	mainID   func() int

	owner   atomic.Int64 // 0 until claimed
	running atomic.Bool

	mu      sync.Mutex
	queue   []task
	stopped bool
	wake    chan struct{}
}

// New returns an unclaimed gate.
func New(opts Options) *Gate {
	g := &Gate{
		policy:   opts.Policy,
		strict:   opts.Strict,
		threadID: opts.ThreadID,
		mainID:   opts.MainThreadID,
		wake:     make(chan struct{}, 1),
	}
	if g.threadID == nil {
		g.threadID = currentThreadID
	}
	if g.mainID == nil {
		g.mainID = mainThreadID
	}
	return g
}

// Strict reports whether owner-only operations refuse to marshal.
func (g *Gate) Strict() bool { return g.strict }

// Claim makes the calling thread the owner. Claiming again from the owner is a
// no-op; claiming from any other thread once owned fails.
func (g *Gate) Claim(op string) error {
	tid := g.threadID()
	for {
		if cur := g.owner.Load(); cur != 0 {
			if cur == int64(tid) {
				return nil
			}
			return fault.WrongThread(op)
		}
		if g.policy == PolicyMain && tid != g.mainID() {
			return fault.WrongThread(op)
		}
		if g.owner.CompareAndSwap(0, int64(tid)) {
			logging.Logger().Debug("owner thread claimed", zap.String("op", op), zap.Int("tid", tid))
			return nil
		}
	}
}

// Claimed reports whether an owner has been designated.
func (g *Gate) Claimed() bool {
	return g.owner.Load() != 0
}

// IsOwner reports whether the caller is on the owner thread. Before any claim
// under PolicyMain the main thread counts as the owner.
func (g *Gate) IsOwner() bool {
	tid := g.threadID()
	if cur := g.owner.Load(); cur != 0 {
		return cur == int64(tid)
	}
	return g.policy == PolicyMain && tid == g.mainID()
}

// Call runs fn on the owner thread and returns its result. On the owner it
// runs inline; elsewhere it is queued and Call blocks until it has run or ctx
// is done. A ctx that ends early abandons the wait, not the work.
func Call[T any](ctx context.Context, g *Gate, op string, fn func() (T, error)) (T, error) {
	if g.IsOwner() {
		return protect(op, fn)
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	err := g.enqueue(op, func() {
		v, err := protect(op, fn)
		done <- result{v, err}
	})
	if err != nil {
		var zero T
		return zero, err
	}

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Post runs fn on the owner thread without waiting for it. On the owner it
// runs inline. Failures inside fn are its own to report.
func (g *Gate) Post(op string, fn func()) error {
	if g.IsOwner() {
		_, _ = protect(op, func() (struct{}, error) {
			fn()
			return struct{}{}, nil
		})
		return nil
	}
	return g.enqueue(op, func() {
		_, _ = protect(op, func() (struct{}, error) {
			fn()
			return struct{}{}, nil
		})
	})
}

// OwnerOnly runs fn inline on the owner. Off the owner it fails with a
// wrong-thread error when the gate is strict, and behaves like Call otherwise.
func OwnerOnly[T any](ctx context.Context, g *Gate, op string, fn func() (T, error)) (T, error) {
	if g.IsOwner() {
		return protect(op, fn)
	}
	if g.strict {
		var zero T
		return zero, fault.WrongThread(op)
	}
	return Call(ctx, g, op, fn)
}

// Pending returns the number of queued tasks.
func (g *Gate) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}

// Run services the queue on the owner thread, interleaved with toolkit event
// dispatch, until ctx is done or events quits. Work still queued when the loop
// stops is run before Run returns. events may be nil.
func (g *Gate) Run(ctx context.Context, events platform.EventSource) error {
	if !g.IsOwner() {
		return fault.WrongThread("run")
	}
	if !g.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer g.running.Store(false)

	g.mu.Lock()
	g.stopped = false
	g.mu.Unlock()

	var before, after, quit <-chan struct{}
	if events != nil {
		before, after, quit = events.Ping()
	}

	log := logging.Logger()
	log.Debug("owner loop started")
	defer log.Debug("owner loop stopped")

	for {
		g.drain()
		select {
		case <-g.wake:
		case <-before:
			<-after
		case <-quit:
			g.stop()
			return nil
		case <-ctx.Done():
			g.stop()
			return ctx.Err()
		}
	}
}

// Running reports whether Run is active.
func (g *Gate) Running() bool {
	return g.running.Load()
}

func (g *Gate) enqueue(op string, fn func()) error {
	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return ErrStopped
	}
	g.queue = append(g.queue, task{op: op, fn: fn})
	g.mu.Unlock()

	select {
	case g.wake <- struct{}{}:
	default:
	}
	return nil
}

func (g *Gate) drain() {
	for {
		g.mu.Lock()
		if len(g.queue) == 0 {
			g.mu.Unlock()
			return
		}
		t := g.queue[0]
		g.queue[0] = task{}
		g.queue = g.queue[1:]
		g.mu.Unlock()

		t.fn()
	}
}

// Stop runs the work already queued and makes later submissions from other
// threads fail with ErrStopped. It must be called on the owner thread. Run
// stops the gate itself when it returns.
func (g *Gate) Stop() {
	g.stop()
}

func (g *Gate) stop() {
	g.drain()
	g.mu.Lock()
	g.stopped = true
	rest := g.queue
	g.queue = nil
	g.mu.Unlock()
	// Anything that slipped in between the drain and the flag still runs.
	for _, t := range rest {
		t.fn()
	}
}

func protect[T any](op string, fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger().Error("recovered panic on owner thread",
				zap.String("op", op),
				zap.Any("panic", r))
			err = fault.Toolkit(op, fmt.Errorf("panic: %v", r))
		}
	}()
	return fn()
}
