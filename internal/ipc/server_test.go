package ipc

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/1broseidon/guibridge/internal/bridge"
	"github.com/1broseidon/guibridge/internal/config"
)

func startServer(t *testing.T) (*Client, *bridge.Bridge) {
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

	socket := filepath.Join(t.TempDir(), "guibridge.sock")
	srv, err := NewServer(b, socket)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	t.Cleanup(func() {
		srv.Stop()
		_ = b.Terminate(b.App())
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Errorf("owner loop did not stop")
		}
		b.Close()
	})
	return NewClient(socket), b
}

func TestServer_WindowRoundTrip(t *testing.T) {
	c, _ := startServer(t)

	h, err := c.CreateWindow(10, 20, 300, 200, "hello")
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	if h == 0 {
		t.Fatalf("CreateWindow returned a zero handle")
	}

	if err := c.SetWindowTitle(h, "renamed"); err != nil {
		t.Fatalf("SetWindowTitle: %v", err)
	}
	if err := c.SetWindowOrigin(h, 5, 6); err != nil {
		t.Fatalf("SetWindowOrigin: %v", err)
	}
	if err := c.SetWindowSize(h, 640, 480); err != nil {
		t.Fatalf("SetWindowSize: %v", err)
	}

	data, err := c.ListWindows()
	if err != nil {
		t.Fatalf("ListWindows: %v", err)
	}
	if len(data.Windows) != 1 {
		t.Fatalf("windows = %+v", data.Windows)
	}
	w := data.Windows[0]
	if w.Handle != h || w.Title != "renamed" || w.X != 5 || w.Y != 6 || w.Width != 640 || w.Height != 480 {
		t.Fatalf("window = %+v", w)
	}

	if err := c.CloseWindow(h); err != nil {
		t.Fatalf("CloseWindow: %v", err)
	}
	data, err = c.ListWindows()
	if err != nil || len(data.Windows) != 0 {
		t.Fatalf("windows after close = %+v, %v", data, err)
	}
}

func TestServer_UnknownHandleReportsKind(t *testing.T) {
	c, _ := startServer(t)

	err := c.SetWindowTitle(0x2_0000_0042, "x")
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("SetWindowTitle(bogus) = %v, want RequestError", err)
	}
	if reqErr.Kind != "unknown_handle" {
		t.Fatalf("kind = %q", reqErr.Kind)
	}

	last, err := c.LastError()
	if err != nil {
		t.Fatalf("LastError: %v", err)
	}
	if !last.Set || last.Kind != "unknown_handle" {
		t.Fatalf("last error = %+v", last)
	}

	if err := c.ClearLastError(); err != nil {
		t.Fatalf("ClearLastError: %v", err)
	}
	last, _ = c.LastError()
	if last.Set {
		t.Fatalf("last error survived clear: %+v", last)
	}
}

func TestServer_ScreensAndStatus(t *testing.T) {
	c, b := startServer(t)

	screens, err := c.ListScreens()
	if err != nil {
		t.Fatalf("ListScreens: %v", err)
	}
	if len(screens.Screens) != 1 || !screens.Screens[0].Primary || screens.Screens[0].Width != 1920 {
		t.Fatalf("screens = %+v", screens.Screens)
	}

	if _, err := c.CreateWindow(0, 0, 10, 10, "a"); err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	status, err := c.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Backend != config.BackendMemory || status.App != uint64(b.App()) {
		t.Fatalf("status = %+v", status)
	}
	if status.WindowCount != 1 || status.ScreenCount != 1 || !status.Running {
		t.Fatalf("status counts = %+v", status)
	}
}

func TestServer_InvalidRequests(t *testing.T) {
	c, _ := startServer(t)

	if err := c.call("NOPE", nil, nil); err == nil {
		t.Fatalf("expected unknown command error")
	}
	if _, err := c.CreateWindow(0, 0, 0, 10, "x"); err == nil {
		t.Fatalf("expected invalid size error")
	}
}

func TestServer_Shutdown(t *testing.T) {
	c, b := startServer(t)
	if err := c.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for b.Gate().Running() {
		if time.Now().After(deadline) {
			t.Fatalf("owner loop still running after shutdown")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestClient_NotRunning(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "missing.sock"))
	if err := c.Ping(); err == nil {
		t.Fatalf("expected connection error")
	}
}
