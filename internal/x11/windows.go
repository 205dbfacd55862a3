package x11

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Geometry is a window rectangle in root coordinates.
type Geometry struct {
	X      int
	Y      int
	Width  int
	Height int
}

// CreateWindow creates, names, maps and activates a top-level window. The
// window is tagged with this process's pid so OwnWindows can find it again.
func (c *Connection) CreateWindow(x, y, width, height int, title string) (xproto.Window, error) {
	win, err := xwindow.Generate(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("allocate window id: %w", err)
	}

	if err := win.CreateChecked(c.Root, x, y, width, height,
		xproto.CwBackPixel|xproto.CwEventMask,
		0xffffff,
		xproto.EventMaskStructureNotify|xproto.EventMaskPropertyChange,
	); err != nil {
		return 0, fmt.Errorf("create window: %w", err)
	}

	if err := ewmh.WmPidSet(c.XUtil, win.Id, uint(os.Getpid())); err != nil {
		win.Destroy()
		return 0, fmt.Errorf("set _NET_WM_PID: %w", err)
	}
	if err := c.SetTitle(win.Id, title); err != nil {
		win.Destroy()
		return 0, err
	}
	// Ask the WM to place the window where we said rather than cascading it.
	_ = icccm.WmNormalHintsSet(c.XUtil, win.Id, &icccm.NormalHints{
		Flags: icccm.SizeHintUSPosition | icccm.SizeHintUSSize,
		X:     x, Y: y, Width: uint(width), Height: uint(height),
	})

	win.Map()
	if c.WM != "" {
		// Activation is best effort; a WM may refuse focus stealing.
		_ = c.FocusWindow(win.Id)
	}
	return win.Id, nil
}

// OwnWindows returns the windows created by this process that the server
// still knows about, ordered by id.
func (c *Connection) OwnWindows() ([]xproto.Window, error) {
	seen := map[xproto.Window]bool{}
	var candidates []xproto.Window

	tree, err := xproto.QueryTree(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("query window tree: %w", err)
	}
	candidates = append(candidates, tree.Children...)

	// Reparenting window managers move clients out of the root's children.
	if clients, err := ewmh.ClientListGet(c.XUtil); err == nil {
		candidates = append(candidates, clients...)
	}

	pid := uint(os.Getpid())
	var own []xproto.Window
	for _, w := range candidates {
		if seen[w] {
			continue
		}
		seen[w] = true
		if p, err := ewmh.WmPidGet(c.XUtil, w); err == nil && p == pid {
			own = append(own, w)
		}
	}

	sort.Slice(own, func(i, j int) bool { return own[i] < own[j] })
	return own, nil
}

// SetTitle sets both the EWMH and ICCCM names.
func (c *Connection) SetTitle(windowID xproto.Window, title string) error {
	if err := ewmh.WmNameSet(c.XUtil, windowID, title); err != nil {
		return fmt.Errorf("set _NET_WM_NAME: %w", err)
	}
	if err := icccm.WmNameSet(c.XUtil, windowID, title); err != nil {
		return fmt.Errorf("set WM_NAME: %w", err)
	}
	return nil
}

// Title returns the window title, preferring _NET_WM_NAME.
func (c *Connection) Title(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// Geometry returns the window rectangle translated into root coordinates.
func (c *Connection) Geometry(windowID xproto.Window) (Geometry, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return Geometry{}, fmt.Errorf("get geometry: %w", err)
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return Geometry{}, fmt.Errorf("translate coordinates: %w", err)
	}

	return Geometry{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// MoveResizeWindow moves and resizes a window to the specified geometry
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	win := xwindow.New(c.XUtil, windowID)
	if c.WM == "" {
		win.MoveResize(x, y, width, height)
		return nil
	}

	c.unmaximizeWindow(windowID)

	// Use EWMH MoveResize for better WM compatibility
	if err := ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, width, height); err != nil {
		// Fallback to direct window manipulation
		win.MoveResize(x, y, width, height)
	}
	return nil
}

// MoveWindow changes the origin and keeps the current size.
func (c *Connection) MoveWindow(windowID xproto.Window, x, y int) error {
	g, err := c.Geometry(windowID)
	if err != nil {
		return err
	}
	return c.MoveResizeWindow(windowID, x, y, g.Width, g.Height)
}

// ResizeWindow changes the size and keeps the current origin.
func (c *Connection) ResizeWindow(windowID xproto.Window, width, height int) error {
	g, err := c.Geometry(windowID)
	if err != nil {
		return err
	}
	return c.MoveResizeWindow(windowID, g.X, g.Y, width, height)
}

// DestroyWindow destroys a window owned by this client.
func (c *Connection) DestroyWindow(windowID xproto.Window) error {
	if err := xproto.DestroyWindowChecked(c.XUtil.Conn(), windowID).Check(); err != nil {
		return fmt.Errorf("destroy window: %w", err)
	}
	return nil
}

// unmaximizeWindow removes maximized state from a window
func (c *Connection) unmaximizeWindow(windowID xproto.Window) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return
	}
	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT":
			ewmh.WmStateReq(c.XUtil, windowID, 0, state)
		}
	}
}
