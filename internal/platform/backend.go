package platform

import "fmt"

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Display describes a physical display. ID is stable while the display stays
// connected.
type Display struct {
	ID      uint32
	Name    string
	Bounds  Rect
	Primary bool
}

// ObjectID identifies the display within the live set.
func (d Display) ObjectID() uint32 { return d.ID }

// Window contains metadata and geometry for a top-level window created by this
// process.
type Window struct {
	ID     WindowID
	PID    int
	Title  string
	Bounds Rect
}

// ObjectID identifies the window within the live set.
func (w Window) ObjectID() uint32 { return uint32(w.ID) }

// EventSource drives the toolkit's event loop from the owner thread.
//
// Ping returns the loop's channels: a receive on before means events are
// pending, and the caller must then wait on after while they are dispatched.
// quit closes once Quit has been called. Sources without their own event
// stream return nil before/after channels.
type EventSource interface {
	Ping() (before, after, quit <-chan struct{})
	Quit()
}

// Backend abstracts window-system operations across platforms. Every method
// must be called from the owner thread.
type Backend interface {
	CreateWindow(bounds Rect, title string) (Window, error)
	Windows() ([]Window, error)
	SetTitle(windowID WindowID, title string) error
	SetOrigin(windowID WindowID, x, y int) error
	SetSize(windowID WindowID, width, height int) error
	CloseWindow(windowID WindowID) error
	Displays() ([]Display, error)
	Events() EventSource
	Disconnect()
}

// PrimaryDisplay returns the display flagged primary, or the first display
// when none is flagged. It reports false when there are no displays.
func PrimaryDisplay(displays []Display) (Display, bool) {
	if len(displays) == 0 {
		return Display{}, false
	}
	for _, d := range displays {
		if d.Primary {
			return d, true
		}
	}
	return displays[0], true
}

// Options selects and configures a backend.
type Options struct {
	Kind       string // "x11" or "memory"
	Display    string
	XAuthority string
	Screens    []Display // memory backend only
}

// Open returns the backend named by opts.Kind.
func Open(opts Options) (Backend, error) {
	switch opts.Kind {
	case "", "x11":
		return openX11(opts)
	case "memory":
		return NewMemoryBackend(opts.Screens), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Kind)
	}
}
