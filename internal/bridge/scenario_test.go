package bridge

import (
	"strings"
	"testing"
	"time"
	"unsafe"

	"github.com/1broseidon/guibridge/internal/arrayview"
	"github.com/1broseidon/guibridge/internal/fault"
	"github.com/1broseidon/guibridge/internal/platform"
)

// Create, retitle from the owner, observe the new title through the toolkit.
func TestScenario_RetitleOnOwner(t *testing.T) {
	h := newHarness(t, testConfig())

	var win uint64
	h.onOwner(t, func() {
		win = h.x.CreateWindow(0, 0, 200, 100, cstring("X"))
		h.x.SetWindowTitle(win, cstring("Y"))
	})
	if win == 0 {
		t.Fatalf("CreateWindow returned 0: %s", lastError(t, h.x))
	}

	ws, err := h.mem.Windows()
	if err != nil || len(ws) != 1 {
		t.Fatalf("toolkit windows = %v, %v", ws, err)
	}
	if ws[0].Title != "Y" {
		t.Fatalf("toolkit title = %q, want Y", ws[0].Title)
	}
	if ws[0].Bounds != (platform.Rect{Width: 200, Height: 100}) {
		t.Fatalf("toolkit bounds = %+v", ws[0].Bounds)
	}
}

// A screen handle that was never enumerated yields 0 and an unknown-pointer
// message.
func TestScenario_UnknownScreen(t *testing.T) {
	h := newHarness(t, testConfig())

	var width float64
	h.onOwner(t, func() { width = h.x.ScreenWidth(0x3_0000_beef) })
	if width != 0 {
		t.Fatalf("width = %v, want 0", width)
	}
	msg := lastError(t, h.x)
	if !strings.Contains(msg, "unknown screen pointer") {
		t.Fatalf("last error = %q", msg)
	}
}

// Owner-only calls from another thread fail fast under strict affinity.
func TestScenario_StrictWrongThread(t *testing.T) {
	h := newHarness(t, testConfig())

	calls := []struct {
		name string
		call func() bool
	}{
		{"enumerate_screens", func() bool { return h.x.EnumerateScreens() == nil }},
		{"enumerate_windows", func() bool { return h.x.EnumerateWindows() == nil }},
		{"screen_primary", func() bool { return h.x.ScreenPrimary() == 0 }},
		{"screen_width", func() bool { return h.x.ScreenWidth(0x3_0000_0001) == 0 }},
		{"screen_height", func() bool { return h.x.ScreenHeight(0x3_0000_0001) == 0 }},
	}
	for _, c := range calls {
		h.x.ClearLastError()
		start := time.Now()
		if !c.call() {
			t.Fatalf("%s returned a value off the owner", c.name)
		}
		if time.Since(start) > time.Second {
			t.Fatalf("%s blocked", c.name)
		}
		if h.x.LastErrorKind() != int(fault.KindWrongThread) {
			t.Fatalf("%s: kind = %d", c.name, h.x.LastErrorKind())
		}
		if msg := lastError(t, h.x); !strings.Contains(msg, "must be called on the main thread") {
			t.Fatalf("%s: last error = %q", c.name, msg)
		}
	}
}

// Back-to-back enumerations reuse one buffer; the contents are the latest.
func TestScenario_EnumerationBufferReuse(t *testing.T) {
	h := newHarness(t, testConfig())

	var first, second unsafe.Pointer
	var firstCount int
	h.onOwner(t, func() {
		first = h.x.EnumerateScreens()
		firstCount = len(arrayview.ReadHandles(first))
	})
	if firstCount != 2 {
		t.Fatalf("first enumeration = %d screens, want 2", firstCount)
	}

	h.mem.SetDisplays(memoryScreens(testConfig().Screens[:1]))
	gen := h.x.screens.Generation()
	h.onOwner(t, func() { second = h.x.EnumerateScreens() })

	if second != first {
		t.Fatalf("a smaller result should reuse the buffer: %p vs %p", first, second)
	}
	if h.x.screens.Generation() == gen {
		t.Fatalf("generation did not advance on reuse")
	}
	// The first pointer now reads the second call's contents.
	if got := arrayview.ReadHandles(first); len(got) != 1 {
		t.Fatalf("stale pointer reads %d handles, want the overwritten 1", len(got))
	}
}
