// Package bridge exposes the toolkit operations behind handles, thread
// affinity and the last-error channel.
//
// Bridge is the typed Go API. Boundary wraps it in the flat, fail-soft shape
// exported to C: raw pointers and handle integers in, sentinels out, with every
// failure recorded in the last-error channel.
package bridge

import (
	"context"
	"errors"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/1broseidon/guibridge/internal/affinity"
	"github.com/1broseidon/guibridge/internal/config"
	"github.com/1broseidon/guibridge/internal/fault"
	"github.com/1broseidon/guibridge/internal/lasterror"
	"github.com/1broseidon/guibridge/internal/logging"
	"github.com/1broseidon/guibridge/internal/platform"
	"github.com/1broseidon/guibridge/internal/registry"
	"github.com/1broseidon/guibridge/internal/scratch"
)

// Options configures a Bridge. Only Config is required.
type Options struct {
	Config *config.Config
	// Open connects the toolkit. Defaults to platform.Open with the
	// configured backend.
	Open func() (platform.Backend, error)
	// Allocator backs every scratch buffer. Defaults to the configured one.
	Allocator scratch.Allocator
}

// Bridge owns the toolkit connection and the owner-thread gate.
type Bridge struct {
	cfg   *config.Config
	gate  *affinity.Gate
	open  func() (platform.Backend, error)
	alloc scratch.Allocator
	errs  *lasterror.Channel

	mu         sync.Mutex
	backend    platform.Backend
	app        registry.Handle
	runCancel  context.CancelFunc
	terminated bool
}

// New builds a Bridge. Nothing touches the toolkit until CreateApp.
func New(opts Options) (*Bridge, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	policy, err := affinity.ParsePolicy(cfg.OwnerThread)
	if err != nil {
		return nil, err
	}

	alloc := opts.Allocator
	if alloc == nil {
		alloc, err = scratch.AllocatorByName(cfg.Allocator)
		if err != nil {
			return nil, err
		}
	}

	open := opts.Open
	if open == nil {
		open = func() (platform.Backend, error) {
			return platform.Open(platform.Options{
				Kind:       cfg.Backend,
				Display:    cfg.Display,
				XAuthority: cfg.XAuthority,
				Screens:    memoryScreens(cfg.Screens),
			})
		}
	}

	return &Bridge{
		cfg:   cfg,
		gate:  affinity.New(affinity.Options{Policy: policy, Strict: cfg.StrictAffinity}),
		open:  open,
		alloc: alloc,
		errs:  lasterror.New(alloc),
	}, nil
}

// Errors returns the process-wide last-error channel.
func (b *Bridge) Errors() *lasterror.Channel { return b.errs }

// Gate returns the owner-thread gate.
func (b *Bridge) Gate() *affinity.Gate { return b.gate }

// Config returns the effective configuration.
func (b *Bridge) Config() *config.Config { return b.cfg }

// App returns the application handle, 0 before CreateApp.
func (b *Bridge) App() registry.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.app
}

// CreateApp claims the calling thread as owner and connects the toolkit. It is
// idempotent on the owner thread.
func (b *Bridge) CreateApp() (registry.Handle, error) {
	const op = "create_app"
	if err := b.gate.Claim(op); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.backend != nil {
		return b.app, nil
	}

	be, err := b.open()
	if err != nil {
		return 0, fault.Toolkit(op, err)
	}
	b.backend = be
	b.app = registry.Make(registry.CategoryApp, uint32(os.Getpid()))
	logging.Logger().Info("application created",
		zap.Uint64("app", uint64(b.app)),
		zap.String("backend", b.cfg.Backend))
	return b.app, nil
}

// Run services the owner loop until Terminate is called. It must be called on
// the owner thread and blocks.
func (b *Bridge) Run(app registry.Handle) error {
	const op = "run"
	ctx, cancel := context.WithCancel(context.Background())
	b.mu.Lock()
	if err := b.checkAppLocked(op, app); err != nil {
		b.mu.Unlock()
		cancel()
		return err
	}
	if !b.gate.IsOwner() {
		b.mu.Unlock()
		cancel()
		return fault.WrongThread(op)
	}
	if b.terminated {
		b.mu.Unlock()
		cancel()
		// Work queued before the loop ever ran is still owed a result.
		b.gate.Stop()
		return nil
	}
	b.runCancel = cancel
	events := b.backend.Events()
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.runCancel = nil
		b.mu.Unlock()
		cancel()
	}()

	if err := b.gate.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Terminate asks a running (or future) owner loop to stop. It may be called
// from any thread and does not wait.
func (b *Bridge) Terminate(app registry.Handle) error {
	const op = "terminate"
	b.mu.Lock()
	if err := b.checkAppLocked(op, app); err != nil {
		b.mu.Unlock()
		return err
	}
	b.terminated = true
	cancel := b.runCancel
	events := b.backend.Events()
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	events.Quit()
	logging.Logger().Info("application terminating", zap.Uint64("app", uint64(app)))
	return nil
}

// Close disconnects the toolkit. The bridge cannot be used afterwards.
func (b *Bridge) Close() {
	b.mu.Lock()
	be := b.backend
	b.backend = nil
	b.mu.Unlock()
	if be != nil {
		be.Disconnect()
	}
}

// Sync runs fn on the owner thread and waits for it. Out-of-process front
// ends use it to reach owner-only operations.
func (b *Bridge) Sync(ctx context.Context, fn func() error) error {
	_, err := affinity.Call(ctx, b.gate, "sync", func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// checkAppLocked validates app against the created application. b.mu must be
// held.
func (b *Bridge) checkAppLocked(op string, app registry.Handle) error {
	if app == 0 {
		return fault.NullArgument(op, "app")
	}
	if b.backend == nil {
		return fault.NotInitialized(op)
	}
	if app != b.app {
		return fault.UnknownHandle(op, registry.CategoryApp.String(), uint64(app))
	}
	return nil
}

// ready returns the connected backend.
func (b *Bridge) ready(op string) (platform.Backend, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.backend == nil {
		return nil, fault.NotInitialized(op)
	}
	return b.backend, nil
}

func memoryScreens(screens []config.ScreenConfig) []platform.Display {
	out := make([]platform.Display, 0, len(screens))
	for i, s := range screens {
		out = append(out, platform.Display{
			// Memory screen ids start at 1 so no handle has a zero object id.
			ID:      uint32(i + 1),
			Name:    s.Name,
			Bounds:  platform.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height},
			Primary: s.Primary,
		})
	}
	return out
}
