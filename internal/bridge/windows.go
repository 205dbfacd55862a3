package bridge

import (
	"context"

	"go.uber.org/zap"

	"github.com/1broseidon/guibridge/internal/affinity"
	"github.com/1broseidon/guibridge/internal/fault"
	"github.com/1broseidon/guibridge/internal/logging"
	"github.com/1broseidon/guibridge/internal/platform"
	"github.com/1broseidon/guibridge/internal/registry"
)

// WindowHandle returns the handle the host sees for w.
func WindowHandle(w platform.Window) registry.Handle {
	return registry.Make(registry.CategoryWindow, w.ObjectID())
}

func (b *Bridge) windows(be platform.Backend) registry.Resolver[platform.Window] {
	return registry.Resolver[platform.Window]{
		Category:  registry.CategoryWindow,
		Enumerate: be.Windows,
	}
}

// CreateWindow creates and shows a window, waiting for the owner thread when
// called elsewhere.
func (b *Bridge) CreateWindow(ctx context.Context, bounds platform.Rect, title string) (registry.Handle, error) {
	const op = "create_window"
	be, err := b.ready(op)
	if err != nil {
		return 0, err
	}
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return 0, fault.InvalidArgument(op, "size %dx%d must be positive", bounds.Width, bounds.Height)
	}

	return affinity.Call(ctx, b.gate, op, func() (registry.Handle, error) {
		w, err := be.CreateWindow(bounds, title)
		if err != nil {
			return 0, fault.Toolkit(op, err)
		}
		h := WindowHandle(w)
		logging.Logger().Debug("window created",
			zap.Uint64("handle", uint64(h)),
			zap.String("title", title))
		return h, nil
	})
}

// Windows lists the live windows created by this process. Owner-thread only.
func (b *Bridge) Windows(ctx context.Context) ([]platform.Window, error) {
	const op = "enumerate_windows"
	be, err := b.ready(op)
	if err != nil {
		return nil, err
	}
	return affinity.OwnerOnly(ctx, b.gate, op, func() ([]platform.Window, error) {
		ws, err := be.Windows()
		if err != nil {
			return nil, fault.Toolkit(op, err)
		}
		return ws, nil
	})
}

// WindowTitle reads a window's title, waiting for the owner thread when called
// elsewhere.
func (b *Bridge) WindowTitle(ctx context.Context, h registry.Handle) (string, error) {
	const op = "window_title"
	be, err := b.ready(op)
	if err != nil {
		return "", err
	}
	if h == 0 {
		return "", fault.NullArgument(op, "window")
	}
	return affinity.Call(ctx, b.gate, op, func() (string, error) {
		w, err := b.windows(be).Resolve(op, h)
		if err != nil {
			return "", err
		}
		return w.Title, nil
	})
}

// SetWindowTitle replaces a window's title. Off the owner thread it returns as
// soon as the change is queued; a failure while applying it is recorded in
// the last-error channel.
func (b *Bridge) SetWindowTitle(h registry.Handle, title string) error {
	return b.mutate("set_window_title", h, func(be platform.Backend, w platform.Window) error {
		return be.SetTitle(w.ID, title)
	})
}

// SetWindowOrigin moves a window. Same delivery rules as SetWindowTitle.
func (b *Bridge) SetWindowOrigin(h registry.Handle, x, y int) error {
	return b.mutate("set_window_origin", h, func(be platform.Backend, w platform.Window) error {
		return be.SetOrigin(w.ID, x, y)
	})
}

// SetWindowSize resizes a window. Same delivery rules as SetWindowTitle.
func (b *Bridge) SetWindowSize(h registry.Handle, width, height int) error {
	const op = "set_window_size"
	if width <= 0 || height <= 0 {
		return fault.InvalidArgument(op, "size %dx%d must be positive", width, height)
	}
	return b.mutate(op, h, func(be platform.Backend, w platform.Window) error {
		return be.SetSize(w.ID, width, height)
	})
}

// CloseWindow destroys a window. Same delivery rules as SetWindowTitle.
func (b *Bridge) CloseWindow(h registry.Handle) error {
	return b.mutate("window_release", h, func(be platform.Backend, w platform.Window) error {
		return be.CloseWindow(w.ID)
	})
}

// mutate applies fn to the window behind h on the owner thread. On the owner
// the result comes straight back; elsewhere the work is posted and its
// failures go to the last-error channel.
func (b *Bridge) mutate(op string, h registry.Handle, fn func(platform.Backend, platform.Window) error) error {
	be, err := b.ready(op)
	if err != nil {
		return err
	}
	if h == 0 {
		return fault.NullArgument(op, "window")
	}

	apply := func() error {
		w, err := b.windows(be).Resolve(op, h)
		if err != nil {
			return err
		}
		if err := fn(be, w); err != nil {
			return fault.Toolkit(op, err)
		}
		return nil
	}

	if b.gate.IsOwner() {
		return apply()
	}
	return b.gate.Post(op, func() {
		if err := apply(); err != nil {
			logging.Logger().Warn("deferred window update failed",
				zap.String("op", op),
				zap.Uint64("handle", uint64(h)),
				zap.Error(err))
			b.errs.Record(err)
		}
	})
}
