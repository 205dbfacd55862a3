package mcp

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/1broseidon/guibridge/internal/bridge"
	"github.com/1broseidon/guibridge/internal/config"
	"github.com/1broseidon/guibridge/internal/fault"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Backend = config.BackendMemory
	cfg.OwnerThread = config.OwnerFirst

	b, err := bridge.New(bridge.Options{Config: cfg})
	if err != nil {
		t.Fatalf("bridge.New: %v", err)
	}

	ready := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		app, err := b.CreateApp()
		ready <- err
		if err == nil {
			_ = b.Run(app)
		}
	}()
	if err := <-ready; err != nil {
		t.Fatalf("CreateApp: %v", err)
	}
	t.Cleanup(func() {
		_ = b.Terminate(b.App())
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Errorf("owner loop did not stop")
		}
		b.Close()
	})
	return NewServer(b)
}

func TestTools_WindowLifecycle(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, created, err := s.handleCreateWindow(ctx, nil, CreateWindowInput{X: 1, Y: 2, Width: 300, Height: 200, Title: "tool"})
	if err != nil {
		t.Fatalf("create_window: %v", err)
	}
	if created.Handle == 0 {
		t.Fatalf("create_window returned a zero handle")
	}

	if _, ack, err := s.handleSetWindowTitle(ctx, nil, SetWindowTitleInput{Handle: created.Handle, Title: "renamed"}); err != nil || !ack.Done {
		t.Fatalf("set_window_title = %+v, %v", ack, err)
	}
	if _, ack, err := s.handleMoveWindow(ctx, nil, MoveWindowInput{Handle: created.Handle, X: 40, Y: 50}); err != nil || !ack.Done {
		t.Fatalf("move_window = %+v, %v", ack, err)
	}
	if _, ack, err := s.handleResizeWindow(ctx, nil, ResizeWindowInput{Handle: created.Handle, Width: 640, Height: 480}); err != nil || !ack.Done {
		t.Fatalf("resize_window = %+v, %v", ack, err)
	}

	_, title, err := s.handleGetWindowTitle(ctx, nil, WindowInput{Handle: created.Handle})
	if err != nil || title.Title != "renamed" {
		t.Fatalf("get_window_title = %+v, %v", title, err)
	}

	_, list, err := s.handleListWindows(ctx, nil, ListWindowsInput{})
	if err != nil {
		t.Fatalf("list_windows: %v", err)
	}
	if len(list.Windows) != 1 {
		t.Fatalf("windows = %+v", list.Windows)
	}
	w := list.Windows[0]
	if w.X != 40 || w.Y != 50 || w.Width != 640 || w.Height != 480 {
		t.Fatalf("window = %+v", w)
	}

	if _, ack, err := s.handleCloseWindow(ctx, nil, WindowInput{Handle: created.Handle}); err != nil || !ack.Done {
		t.Fatalf("close_window = %+v, %v", ack, err)
	}
	_, list, _ = s.handleListWindows(ctx, nil, ListWindowsInput{})
	if len(list.Windows) != 0 {
		t.Fatalf("windows after close = %+v", list.Windows)
	}
}

func TestTools_ListScreens(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleListScreens(context.Background(), nil, ListScreensInput{})
	if err != nil {
		t.Fatalf("list_screens: %v", err)
	}
	if len(out.Screens) != 1 {
		t.Fatalf("screens = %+v", out.Screens)
	}
	sc := out.Screens[0]
	if sc.Name != "MEM-1" || !sc.Primary || sc.Width != 1920 || sc.Height != 1080 {
		t.Fatalf("screen = %+v", sc)
	}
}

func TestTools_FailuresReachLastError(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, _, err := s.handleMoveWindow(ctx, nil, MoveWindowInput{Handle: 0x2_0000_0099, X: 1, Y: 1})
	if !errors.Is(err, fault.ErrUnknownHandle) {
		t.Fatalf("move_window(bogus) = %v, want unknown handle", err)
	}

	_, last, err := s.handleLastError(ctx, nil, LastErrorInput{Clear: true})
	if err != nil {
		t.Fatalf("last_error: %v", err)
	}
	if !last.Set || last.Kind != "unknown_handle" {
		t.Fatalf("last_error = %+v", last)
	}

	_, last, _ = s.handleLastError(ctx, nil, LastErrorInput{})
	if last.Set {
		t.Fatalf("last_error after clear = %+v", last)
	}
}

func TestTools_CreateWindowValidatesSize(t *testing.T) {
	s := newTestServer(t)
	_, _, err := s.handleCreateWindow(context.Background(), nil, CreateWindowInput{Width: 0, Height: 10, Title: "x"})
	if !errors.Is(err, fault.ErrInvalidArgument) {
		t.Fatalf("create_window(0 width) = %v, want invalid argument", err)
	}
}
