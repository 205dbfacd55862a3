//go:build linux

package platform

import (
	"fmt"
	"os"

	"github.com/1broseidon/guibridge/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

func openX11(opts Options) (Backend, error) {
	if opts.XAuthority != "" {
		if err := os.Setenv("XAUTHORITY", opts.XAuthority); err != nil {
			return nil, fmt.Errorf("set XAUTHORITY: %w", err)
		}
	}
	return NewLinuxBackendFromDisplay(opts.Display)
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// Events returns the X11 event loop driven in ping mode.
func (b *LinuxBackend) Events() EventSource {
	return b.conn
}

// CreateWindow creates and shows a new top-level window.
func (b *LinuxBackend) CreateWindow(bounds Rect, title string) (Window, error) {
	conn, err := b.connection()
	if err != nil {
		return Window{}, err
	}

	id, err := conn.CreateWindow(bounds.X, bounds.Y, bounds.Width, bounds.Height, title)
	if err != nil {
		return Window{}, err
	}
	return Window{
		ID:     WindowID(id),
		PID:    os.Getpid(),
		Title:  title,
		Bounds: bounds,
	}, nil
}

// Windows lists the live windows created by this process.
func (b *LinuxBackend) Windows() ([]Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	ids, err := conn.OwnWindows()
	if err != nil {
		return nil, err
	}

	windows := make([]Window, 0, len(ids))
	for _, id := range ids {
		g, err := conn.Geometry(id)
		if err != nil {
			// Destroyed between the listing and this query.
			continue
		}

		pid := 0
		if p, err := ewmh.WmPidGet(conn.XUtil, id); err == nil {
			pid = int(p)
		}

		windows = append(windows, Window{
			ID:     WindowID(id),
			PID:    pid,
			Title:  conn.Title(id),
			Bounds: Rect{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height},
		})
	}
	return windows, nil
}

// SetTitle replaces the window title.
func (b *LinuxBackend) SetTitle(windowID WindowID, title string) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.SetTitle(xproto.Window(windowID), title)
}

// SetOrigin moves a window, keeping its size.
func (b *LinuxBackend) SetOrigin(windowID WindowID, x, y int) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.MoveWindow(xproto.Window(windowID), x, y)
}

// SetSize resizes a window, keeping its origin.
func (b *LinuxBackend) SetSize(windowID WindowID, width, height int) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.ResizeWindow(xproto.Window(windowID), width, height)
}

// CloseWindow destroys a window created by this process.
func (b *LinuxBackend) CloseWindow(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.DestroyWindow(xproto.Window(windowID))
}

// Displays returns all active displays.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, displayFromMonitor(m))
	}
	return displays, nil
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func displayFromMonitor(m x11.Monitor) Display {
	return Display{
		ID:   m.CRTC,
		Name: m.Name,
		Bounds: Rect{
			X:      m.X,
			Y:      m.Y,
			Width:  m.Width,
			Height: m.Height,
		},
		Primary: m.Primary,
	}
}
