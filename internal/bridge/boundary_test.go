package bridge

import (
	"math"
	"strings"
	"sync"
	"testing"
	"unsafe"

	"github.com/1broseidon/guibridge/internal/arrayview"
	"github.com/1broseidon/guibridge/internal/cstr"
	"github.com/1broseidon/guibridge/internal/fault"
	"github.com/1broseidon/guibridge/internal/registry"
)

func cstring(s string) unsafe.Pointer {
	b := append([]byte(s), 0)
	return unsafe.Pointer(&b[0])
}

func lastError(t *testing.T, x *Boundary) string {
	t.Helper()
	s, err := cstr.GoString(x.LastError())
	if err != nil {
		t.Fatalf("last error is empty")
	}
	return s
}

func TestBoundary_NullTitle(t *testing.T) {
	h := newHarness(t, testConfig())

	if got := h.x.CreateWindow(0, 0, 10, 10, nil); got != 0 {
		t.Fatalf("CreateWindow(nil title) = %#x, want 0", got)
	}
	if msg := lastError(t, h.x); !strings.Contains(msg, "null title pointer") {
		t.Fatalf("last error = %q", msg)
	}
	if h.x.LastErrorKind() != int(fault.KindNullArgument) {
		t.Fatalf("kind = %d", h.x.LastErrorKind())
	}

	win := h.x.CreateWindow(0, 0, 10, 10, cstring("ok"))
	h.x.ClearLastError()
	h.x.SetWindowTitle(win, nil)
	if msg := lastError(t, h.x); !strings.Contains(msg, "set_window_title received a null title pointer") {
		t.Fatalf("last error = %q", msg)
	}
}

func TestBoundary_UnterminatedTitle(t *testing.T) {
	h := newHarness(t, testConfig())
	long := []byte(strings.Repeat("a", cstr.MaxLen))

	if got := h.x.CreateWindow(0, 0, 10, 10, unsafe.Pointer(&long[0])); got != 0 {
		t.Fatalf("CreateWindow(unterminated title) = %#x, want 0", got)
	}
	if h.x.LastErrorKind() != int(fault.KindInvalidArgument) {
		t.Fatalf("kind = %d, want invalid argument", h.x.LastErrorKind())
	}
	if msg := lastError(t, h.x); !strings.Contains(msg, "create_window") {
		t.Fatalf("last error = %q", msg)
	}
}

func TestBoundary_NullHandles(t *testing.T) {
	h := newHarness(t, testConfig())

	tests := []struct {
		name string
		call func()
		want string
	}{
		{"run", func() { h.x.Run(0) }, "run received a null app pointer"},
		{"terminate", func() { h.x.Terminate(0) }, "terminate received a null app pointer"},
		{"release", func() { h.x.WindowRelease(0) }, "window_release received a null window pointer"},
		{"title", func() { h.x.SetWindowTitle(0, cstring("x")) }, "set_window_title received a null window pointer"},
		{"origin", func() { h.x.SetWindowOrigin(0, 1, 1) }, "set_window_origin received a null window pointer"},
		{"size", func() { h.x.SetWindowSize(0, 1, 1) }, "set_window_size received a null window pointer"},
		{"read title", func() { h.x.WindowTitle(0) }, "window_title received a null window pointer"},
	}
	for _, tt := range tests {
		h.x.ClearLastError()
		tt.call()
		if msg := lastError(t, h.x); msg != tt.want {
			t.Fatalf("%s: last error = %q, want %q", tt.name, msg, tt.want)
		}
	}
}

func TestBoundary_InvalidCoordinates(t *testing.T) {
	h := newHarness(t, testConfig())

	if got := h.x.CreateWindow(math.NaN(), 0, 10, 10, cstring("x")); got != 0 {
		t.Fatalf("CreateWindow(NaN) = %#x", got)
	}
	if h.x.LastErrorKind() != int(fault.KindInvalidArgument) {
		t.Fatalf("kind = %d", h.x.LastErrorKind())
	}

	h.x.ClearLastError()
	win := h.x.CreateWindow(0, 0, 10, 10, cstring("x"))
	h.x.SetWindowSize(win, -5, 10)
	if h.x.LastErrorKind() != int(fault.KindInvalidArgument) {
		t.Fatalf("kind after negative size = %d", h.x.LastErrorKind())
	}

	h.x.ClearLastError()
	h.x.SetWindowOrigin(win, math.Inf(1), 0)
	if h.x.LastErrorKind() != int(fault.KindInvalidArgument) {
		t.Fatalf("kind after infinite origin = %d", h.x.LastErrorKind())
	}
}

func TestBoundary_RoundsCoordinates(t *testing.T) {
	h := newHarness(t, testConfig())

	win := h.x.CreateWindow(10.4, 20.6, 99.5, 50.2, cstring("r"))
	if win == 0 {
		t.Fatalf("CreateWindow failed: %s", lastError(t, h.x))
	}
	ws, _ := h.mem.Windows()
	b := ws[0].Bounds
	if b.X != 10 || b.Y != 21 || b.Width != 100 || b.Height != 50 {
		t.Fatalf("bounds = %+v", b)
	}
}

func TestBoundary_WindowTitleRoundTrip(t *testing.T) {
	h := newHarness(t, testConfig())

	win := h.x.CreateWindow(0, 0, 10, 10, cstring("héllo"))
	got, err := cstr.GoString(h.x.WindowTitle(win))
	if err != nil || got != "héllo" {
		t.Fatalf("WindowTitle = %q, %v", got, err)
	}

	bad := []byte{'a', 0xff, 'b', 0}
	h.x.SetWindowTitle(win, unsafe.Pointer(&bad[0]))
	h.flush(t)
	got, _ = cstr.GoString(h.x.WindowTitle(win))
	if got != "a�b" {
		t.Fatalf("title with invalid UTF-8 = %q", got)
	}
}

func TestBoundary_EnumerateWindowsOnOwner(t *testing.T) {
	h := newHarness(t, testConfig())

	w1 := h.x.CreateWindow(0, 0, 10, 10, cstring("one"))
	w2 := h.x.CreateWindow(0, 0, 10, 10, cstring("two"))

	var handles []uint64
	h.onOwner(t, func() { handles = arrayview.ReadHandles(h.x.EnumerateWindows()) })
	if len(handles) != 2 || handles[0] != w1 || handles[1] != w2 {
		t.Fatalf("handles = %#x, want [%#x %#x]", handles, w1, w2)
	}

	h.x.WindowRelease(w1)
	h.flush(t)
	var p unsafe.Pointer
	h.onOwner(t, func() { p = h.x.EnumerateWindows() })
	if got := arrayview.ReadHandles(p); len(got) != 1 || got[0] != w2 {
		t.Fatalf("handles after release = %#x", got)
	}
}

func TestBoundary_LenientEnumerationFromManyThreads(t *testing.T) {
	cfg := testConfig()
	cfg.StrictAffinity = false
	h := newHarness(t, cfg)
	h.x.CreateWindow(0, 0, 10, 10, cstring("one"))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var nils int
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s := h.x.EnumerateScreens()
				w := h.x.EnumerateWindows()
				if s == nil || w == nil {
					mu.Lock()
					nils++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if nils != 0 {
		t.Fatalf("%d enumerations returned nil", nils)
	}
	if msg, set := h.b.Errors().Message(); set {
		t.Fatalf("unexpected last error %q", msg)
	}
	var screens, windows []uint64
	h.onOwner(t, func() {
		screens = arrayview.ReadHandles(h.x.EnumerateScreens())
		windows = arrayview.ReadHandles(h.x.EnumerateWindows())
	})
	if len(screens) != 2 || len(windows) != 1 {
		t.Fatalf("screens = %#x, windows = %#x", screens, windows)
	}
}

func TestBoundary_EmptyEnumerationHasHeader(t *testing.T) {
	h := newHarness(t, testConfig())

	var p unsafe.Pointer
	h.onOwner(t, func() { p = h.x.EnumerateWindows() })
	if p == nil {
		t.Fatalf("empty enumeration returned nil; last error %v", h.b.Errors().Kind())
	}
	if head := (*arrayview.HandleArrayHeader)(p); head.Count != 0 {
		t.Fatalf("count = %d, want 0", head.Count)
	}
}

func TestBoundary_ScreenQueries(t *testing.T) {
	h := newHarness(t, testConfig())

	var primary uint64
	var width, height float64
	h.onOwner(t, func() {
		primary = h.x.ScreenPrimary()
		width = h.x.ScreenWidth(primary)
		height = h.x.ScreenHeight(primary)
	})
	if registry.Handle(primary).Category() != registry.CategoryScreen {
		t.Fatalf("primary = %#x", primary)
	}
	if width != 1920 || height != 1080 {
		t.Fatalf("primary size = %vx%v", width, height)
	}

	h.mem.SetDisplays(nil)
	h.x.ClearLastError()
	h.onOwner(t, func() { primary = h.x.ScreenPrimary() })
	if primary != 0 {
		t.Fatalf("primary with no screens = %#x", primary)
	}
	if h.x.LastError() != nil {
		t.Fatalf("no screen should not record an error")
	}
}

func TestBoundary_LastErrorIdempotentUntilCleared(t *testing.T) {
	h := newHarness(t, testConfig())

	if h.x.LastError() != nil || h.x.LastErrorKind() != 0 {
		t.Fatalf("fresh bridge has an error")
	}
	h.x.WindowRelease(0)
	first := lastError(t, h.x)
	second := lastError(t, h.x)
	if first != second {
		t.Fatalf("last error changed between reads: %q vs %q", first, second)
	}

	// A successful call leaves the slot alone.
	if win := h.x.CreateWindow(0, 0, 10, 10, cstring("x")); win == 0 {
		t.Fatalf("CreateWindow failed")
	}
	if got := lastError(t, h.x); got != first {
		t.Fatalf("last error after success = %q", got)
	}

	h.x.ClearLastError()
	if h.x.LastError() != nil {
		t.Fatalf("last error survived Clear")
	}
}

func TestBoundary_NotInitialized(t *testing.T) {
	b, err := New(Options{Config: testConfig()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	x := NewBoundary(b)

	if got := x.CreateWindow(0, 0, 10, 10, cstring("x")); got != 0 {
		t.Fatalf("CreateWindow before app = %#x", got)
	}
	if x.LastErrorKind() != int(fault.KindNotInitialized) {
		t.Fatalf("kind = %d", x.LastErrorKind())
	}
	if x.EnumerateScreens() != nil || x.ScreenPrimary() != 0 {
		t.Fatalf("screen queries before app returned data")
	}
}
