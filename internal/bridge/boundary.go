package bridge

import (
	"context"
	"errors"
	"math"
	"unsafe"

	"github.com/1broseidon/guibridge/internal/affinity"
	"github.com/1broseidon/guibridge/internal/arrayview"
	"github.com/1broseidon/guibridge/internal/cstr"
	"github.com/1broseidon/guibridge/internal/fault"
	"github.com/1broseidon/guibridge/internal/platform"
	"github.com/1broseidon/guibridge/internal/registry"
	"github.com/1broseidon/guibridge/internal/scratch"
)

// Boundary is the fail-soft surface behind the C exports. No method panics on
// a recoverable condition: it records the failure in the last-error channel
// and returns the zero value of its result.
//
// Pointers returned by EnumerateScreens, EnumerateWindows and WindowTitle stay
// valid until the next call to the same method. Their buffers are written only
// on the owner thread, including when a lenient gate marshals the call there.
type Boundary struct {
	b       *Bridge
	screens *scratch.Buffer
	windows *scratch.Buffer
	title   *scratch.Buffer
}

// NewBoundary wraps b.
func NewBoundary(b *Bridge) *Boundary {
	return &Boundary{
		b:       b,
		screens: scratch.NewBuffer(b.alloc),
		windows: scratch.NewBuffer(b.alloc),
		title:   scratch.NewBuffer(b.alloc),
	}
}

// Bridge returns the wrapped bridge.
func (x *Boundary) Bridge() *Bridge { return x.b }

func (x *Boundary) fail(err error) {
	x.b.errs.Record(err)
}

// CreateApp records: wrong-thread, toolkit.
func (x *Boundary) CreateApp() uint64 {
	h, err := x.b.CreateApp()
	if err != nil {
		x.fail(err)
		return 0
	}
	return uint64(h)
}

// Run records: null-argument, unknown-handle, wrong-thread, not-initialized.
func (x *Boundary) Run(app uint64) {
	if err := x.b.Run(registry.Handle(app)); err != nil {
		x.fail(err)
	}
}

// Terminate records: null-argument, unknown-handle, not-initialized.
func (x *Boundary) Terminate(app uint64) {
	if err := x.b.Terminate(registry.Handle(app)); err != nil {
		x.fail(err)
	}
}

// CreateWindow records: null-argument (title), invalid-argument,
// not-initialized, toolkit.
func (x *Boundary) CreateWindow(originX, originY, width, height float64, title unsafe.Pointer) uint64 {
	const op = "create_window"
	t, err := hostString(op, "title", title)
	if err != nil {
		x.fail(err)
		return 0
	}
	r, err := rectOf(op, originX, originY, width, height)
	if err != nil {
		x.fail(err)
		return 0
	}
	h, err := x.b.CreateWindow(context.Background(), r, t)
	if err != nil {
		x.fail(err)
		return 0
	}
	return uint64(h)
}

// WindowRelease records: null-argument, not-initialized; unknown-handle when
// the close runs.
func (x *Boundary) WindowRelease(window uint64) {
	if err := x.b.CloseWindow(registry.Handle(window)); err != nil {
		x.fail(err)
	}
}

// SetWindowTitle records: null-argument (window or title), not-initialized;
// unknown-handle when the change runs.
func (x *Boundary) SetWindowTitle(window uint64, title unsafe.Pointer) {
	const op = "set_window_title"
	if window == 0 {
		x.fail(fault.NullArgument(op, "window"))
		return
	}
	t, err := hostString(op, "title", title)
	if err != nil {
		x.fail(err)
		return
	}
	if err := x.b.SetWindowTitle(registry.Handle(window), t); err != nil {
		x.fail(err)
	}
}

// SetWindowOrigin records: null-argument, invalid-argument, not-initialized;
// unknown-handle when the change runs.
func (x *Boundary) SetWindowOrigin(window uint64, originX, originY float64) {
	const op = "set_window_origin"
	px, err := coord(op, "x", originX)
	if err != nil {
		x.fail(err)
		return
	}
	py, err := coord(op, "y", originY)
	if err != nil {
		x.fail(err)
		return
	}
	if err := x.b.SetWindowOrigin(registry.Handle(window), px, py); err != nil {
		x.fail(err)
	}
}

// SetWindowSize records: null-argument, invalid-argument, not-initialized;
// unknown-handle when the change runs.
func (x *Boundary) SetWindowSize(window uint64, width, height float64) {
	const op = "set_window_size"
	w, err := coord(op, "width", width)
	if err != nil {
		x.fail(err)
		return
	}
	h, err := coord(op, "height", height)
	if err != nil {
		x.fail(err)
		return
	}
	if err := x.b.SetWindowSize(registry.Handle(window), w, h); err != nil {
		x.fail(err)
	}
}

// WindowTitle records: null-argument, unknown-handle, not-initialized.
func (x *Boundary) WindowTitle(window uint64) unsafe.Pointer {
	const op = "window_title"
	h := registry.Handle(window)
	if h == 0 {
		x.fail(fault.NullArgument(op, "window"))
		return nil
	}
	be, err := x.b.ready(op)
	if err != nil {
		x.fail(err)
		return nil
	}
	// The copy into the title buffer happens on the owner thread so that
	// concurrent callers never share the buffer.
	p, err := affinity.Call(context.Background(), x.b.gate, op, func() (unsafe.Pointer, error) {
		w, err := x.b.windows(be).Resolve(op, h)
		if err != nil {
			return nil, err
		}
		return cstr.Put(x.title, w.Title), nil
	})
	if err != nil {
		x.fail(err)
		return nil
	}
	return p
}

// EnumerateWindows records: wrong-thread, not-initialized, toolkit.
func (x *Boundary) EnumerateWindows() unsafe.Pointer {
	const op = "enumerate_windows"
	return x.fillOnOwner(op, x.windows, func(ctx context.Context) ([]uint64, error) {
		ws, err := x.b.Windows(ctx)
		if err != nil {
			return nil, err
		}
		return registry.Handles(registry.CategoryWindow, ws), nil
	})
}

// EnumerateScreens records: wrong-thread, not-initialized, toolkit.
func (x *Boundary) EnumerateScreens() unsafe.Pointer {
	const op = "enumerate_screens"
	return x.fillOnOwner(op, x.screens, func(ctx context.Context) ([]uint64, error) {
		ds, err := x.b.Screens(ctx)
		if err != nil {
			return nil, err
		}
		return registry.Handles(registry.CategoryScreen, ds), nil
	})
}

// fillOnOwner lists handles and writes them into buf without leaving the
// owner thread, so buf is never shared between callers.
func (x *Boundary) fillOnOwner(op string, buf *scratch.Buffer, list func(context.Context) ([]uint64, error)) unsafe.Pointer {
	if _, err := x.b.ready(op); err != nil {
		x.fail(err)
		return nil
	}
	ctx := context.Background()
	p, err := affinity.OwnerOnly(ctx, x.b.gate, op, func() (unsafe.Pointer, error) {
		handles, err := list(ctx)
		if err != nil {
			return nil, err
		}
		p, _ := arrayview.FillHandles(buf, handles)
		return p, nil
	})
	if err != nil {
		x.fail(err)
		return nil
	}
	return p
}

// ScreenPrimary returns 0 without recording anything when no screen is
// attached. Records: wrong-thread, not-initialized, toolkit.
func (x *Boundary) ScreenPrimary() uint64 {
	d, ok, err := x.b.PrimaryScreen(context.Background())
	if err != nil {
		x.fail(err)
		return 0
	}
	if !ok {
		return 0
	}
	return uint64(ScreenHandle(d))
}

// ScreenWidth records: null-argument, unknown-handle, wrong-thread,
// not-initialized.
func (x *Boundary) ScreenWidth(screen uint64) float64 {
	w, _, err := x.b.ScreenSize(context.Background(), "screen_width", registry.Handle(screen))
	if err != nil {
		x.fail(err)
		return 0
	}
	return float64(w)
}

// ScreenHeight records: null-argument, unknown-handle, wrong-thread,
// not-initialized.
func (x *Boundary) ScreenHeight(screen uint64) float64 {
	_, h, err := x.b.ScreenSize(context.Background(), "screen_height", registry.Handle(screen))
	if err != nil {
		x.fail(err)
		return 0
	}
	return float64(h)
}

// LastError returns the stored message, or nil.
func (x *Boundary) LastError() unsafe.Pointer {
	return x.b.errs.Consume()
}

// LastErrorKind returns the fault.Kind of the stored error, 0 when empty.
func (x *Boundary) LastErrorKind() int {
	return int(x.b.errs.Kind())
}

// ClearLastError empties the last-error slot.
func (x *Boundary) ClearLastError() {
	x.b.errs.Clear()
}

// hostString copies a string argument passed in by the host.
func hostString(op, what string, p unsafe.Pointer) (string, error) {
	s, err := cstr.GoString(p)
	switch {
	case errors.Is(err, cstr.ErrNull):
		return "", fault.NullArgument(op, what)
	case err != nil:
		return "", fault.InvalidArgument(op, "%s: %v", what, err)
	}
	return s, nil
}

func rectOf(op string, x, y, w, h float64) (platform.Rect, error) {
	px, err := coord(op, "x", x)
	if err != nil {
		return platform.Rect{}, err
	}
	py, err := coord(op, "y", y)
	if err != nil {
		return platform.Rect{}, err
	}
	pw, err := coord(op, "width", w)
	if err != nil {
		return platform.Rect{}, err
	}
	ph, err := coord(op, "height", h)
	if err != nil {
		return platform.Rect{}, err
	}
	return platform.Rect{X: px, Y: py, Width: pw, Height: ph}, nil
}

// coord converts a host coordinate to whole pixels.
func coord(op, name string, v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fault.InvalidArgument(op, "%s is not a finite number", name)
	}
	r := math.Round(v)
	if r < math.MinInt32 || r > math.MaxInt32 {
		return 0, fault.InvalidArgument(op, "%s %v is out of range", name, v)
	}
	return int(r), nil
}
