package bridge

import (
	"context"

	"github.com/1broseidon/guibridge/internal/affinity"
	"github.com/1broseidon/guibridge/internal/fault"
	"github.com/1broseidon/guibridge/internal/platform"
	"github.com/1broseidon/guibridge/internal/registry"
)

// ScreenHandle returns the handle the host sees for d.
func ScreenHandle(d platform.Display) registry.Handle {
	return registry.Make(registry.CategoryScreen, d.ObjectID())
}

// Screens lists the active screens. Owner-thread only.
func (b *Bridge) Screens(ctx context.Context) ([]platform.Display, error) {
	const op = "enumerate_screens"
	be, err := b.ready(op)
	if err != nil {
		return nil, err
	}
	return affinity.OwnerOnly(ctx, b.gate, op, func() ([]platform.Display, error) {
		ds, err := be.Displays()
		if err != nil {
			return nil, fault.Toolkit(op, err)
		}
		return ds, nil
	})
}

// PrimaryScreen returns the primary screen. It reports false, without an
// error, when no screen is attached. Owner-thread only.
func (b *Bridge) PrimaryScreen(ctx context.Context) (platform.Display, bool, error) {
	const op = "screen_primary"
	be, err := b.ready(op)
	if err != nil {
		return platform.Display{}, false, err
	}

	type primary struct {
		d  platform.Display
		ok bool
	}
	p, err := affinity.OwnerOnly(ctx, b.gate, op, func() (primary, error) {
		ds, err := be.Displays()
		if err != nil {
			return primary{}, fault.Toolkit(op, err)
		}
		d, ok := platform.PrimaryDisplay(ds)
		return primary{d, ok}, nil
	})
	return p.d, p.ok, err
}

// ScreenSize returns the size of the screen behind h. Owner-thread only.
func (b *Bridge) ScreenSize(ctx context.Context, op string, h registry.Handle) (width, height int, err error) {
	be, err := b.ready(op)
	if err != nil {
		return 0, 0, err
	}
	if h == 0 {
		return 0, 0, fault.NullArgument(op, "screen")
	}

	d, err := affinity.OwnerOnly(ctx, b.gate, op, func() (platform.Display, error) {
		return registry.Resolver[platform.Display]{
			Category:  registry.CategoryScreen,
			Enumerate: be.Displays,
		}.Resolve(op, h)
	})
	if err != nil {
		return 0, 0, err
	}
	return d.Bounds.Width, d.Bounds.Height, nil
}
