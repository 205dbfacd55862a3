package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	// WM is the name of the running EWMH window manager, empty when none.
	WM string

	pingOnce sync.Once
	before   chan struct{}
	after    chan struct{}
	quit     chan struct{}
}

// NewConnection connects to display, or $DISPLAY when display is empty.
func NewConnection(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connect to X display %q: %w", display, err)
	}

	c := &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}
	// Without a window manager, geometry changes go straight to the server.
	if name, err := ewmh.GetEwmhWM(xu); err == nil {
		c.WM = name
	}
	return c, nil
}

// Ping starts the event loop in ping mode on first use and returns its
// channels. The caller services events by receiving from before and then
// waiting on after; quit closes when Quit is called.
func (c *Connection) Ping() (before, after, quit <-chan struct{}) {
	c.pingOnce.Do(func() {
		c.before, c.after, c.quit = xevent.MainPing(c.XUtil)
	})
	return c.before, c.after, c.quit
}

// Quit stops the event loop started by Ping.
func (c *Connection) Quit() {
	xevent.Quit(c.XUtil)
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
