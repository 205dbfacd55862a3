package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/1broseidon/guibridge/internal/bridge"
	"github.com/1broseidon/guibridge/internal/platform"
	"github.com/1broseidon/guibridge/internal/registry"
)

func (s *Server) handleListScreens(ctx context.Context, _ *mcpsdk.CallToolRequest, _ ListScreensInput) (*mcpsdk.CallToolResult, ListScreensOutput, error) {
	out := ListScreensOutput{Screens: []ScreenInfo{}}
	err := s.onOwner(ctx, "list_screens", func() error {
		ds, err := s.bridge.Screens(ctx)
		if err != nil {
			return err
		}
		for _, d := range ds {
			out.Screens = append(out.Screens, ScreenInfo{
				Handle:  uint64(bridge.ScreenHandle(d)),
				Name:    d.Name,
				X:       d.Bounds.X,
				Y:       d.Bounds.Y,
				Width:   d.Bounds.Width,
				Height:  d.Bounds.Height,
				Primary: d.Primary,
			})
		}
		return nil
	})
	if err != nil {
		return nil, ListScreensOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) handleListWindows(ctx context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	out := ListWindowsOutput{Windows: []WindowInfo{}}
	err := s.onOwner(ctx, "list_windows", func() error {
		ws, err := s.bridge.Windows(ctx)
		if err != nil {
			return err
		}
		for _, w := range ws {
			out.Windows = append(out.Windows, WindowInfo{
				Handle: uint64(bridge.WindowHandle(w)),
				Title:  w.Title,
				X:      w.Bounds.X,
				Y:      w.Bounds.Y,
				Width:  w.Bounds.Width,
				Height: w.Bounds.Height,
			})
		}
		return nil
	})
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) handleCreateWindow(ctx context.Context, _ *mcpsdk.CallToolRequest, args CreateWindowInput) (*mcpsdk.CallToolResult, CreateWindowOutput, error) {
	bounds := platform.Rect{X: args.X, Y: args.Y, Width: args.Width, Height: args.Height}
	h, err := s.bridge.CreateWindow(ctx, bounds, args.Title)
	if err != nil {
		return nil, CreateWindowOutput{}, s.fail("create_window", err)
	}
	s.log.Info("window created", zap.Uint64("handle", uint64(h)), zap.String("title", args.Title))
	return nil, CreateWindowOutput{Handle: uint64(h)}, nil
}

func (s *Server) handleGetWindowTitle(ctx context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, WindowTitleOutput, error) {
	title, err := s.bridge.WindowTitle(ctx, registry.Handle(args.Handle))
	if err != nil {
		return nil, WindowTitleOutput{}, s.fail("get_window_title", err)
	}
	return nil, WindowTitleOutput{Handle: args.Handle, Title: title}, nil
}

func (s *Server) handleSetWindowTitle(ctx context.Context, _ *mcpsdk.CallToolRequest, args SetWindowTitleInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	return s.ack(ctx, "set_window_title", args.Handle, func() error {
		return s.bridge.SetWindowTitle(registry.Handle(args.Handle), args.Title)
	})
}

func (s *Server) handleMoveWindow(ctx context.Context, _ *mcpsdk.CallToolRequest, args MoveWindowInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	return s.ack(ctx, "move_window", args.Handle, func() error {
		return s.bridge.SetWindowOrigin(registry.Handle(args.Handle), args.X, args.Y)
	})
}

func (s *Server) handleResizeWindow(ctx context.Context, _ *mcpsdk.CallToolRequest, args ResizeWindowInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	return s.ack(ctx, "resize_window", args.Handle, func() error {
		return s.bridge.SetWindowSize(registry.Handle(args.Handle), args.Width, args.Height)
	})
}

func (s *Server) handleCloseWindow(ctx context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	return s.ack(ctx, "close_window", args.Handle, func() error {
		return s.bridge.CloseWindow(registry.Handle(args.Handle))
	})
}

func (s *Server) handleLastError(_ context.Context, _ *mcpsdk.CallToolRequest, args LastErrorInput) (*mcpsdk.CallToolResult, LastErrorOutput, error) {
	errs := s.bridge.Errors()
	msg, set := errs.Message()
	out := LastErrorOutput{Set: set, Kind: errs.Kind().String(), Message: msg}
	if args.Clear {
		errs.Clear()
	}
	return nil, out, nil
}

// ack applies a window mutation on the owner thread, where it reports its own
// failure instead of deferring it.
func (s *Server) ack(ctx context.Context, tool string, handle uint64, fn func() error) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.onOwner(ctx, tool, fn); err != nil {
		return nil, AckOutput{Handle: handle}, err
	}
	return nil, AckOutput{Handle: handle, Done: true}, nil
}

func (s *Server) onOwner(ctx context.Context, tool string, fn func() error) error {
	if err := s.bridge.Sync(ctx, fn); err != nil {
		return s.fail(tool, err)
	}
	return nil
}

// fail records err in the last-error channel before it is returned to the
// client as a tool error.
func (s *Server) fail(tool string, err error) error {
	s.bridge.Errors().Record(err)
	s.log.Warn("tool failed", zap.String("tool", tool), zap.Error(err))
	return err
}
