package platform

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// firstMemoryWindowID mimics the X resource id range so ids look familiar in
// logs.
const firstMemoryWindowID = 0x400001

// MemoryBackend keeps windows in process memory. It backs tests and headless
// runs where no display server is available.
type MemoryBackend struct {
	mu       sync.Mutex
	nextID   WindowID
	windows  map[WindowID]*Window
	displays []Display
	events   *memoryEvents
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend returns a backend reporting displays as its screens.
func NewMemoryBackend(displays []Display) *MemoryBackend {
	return &MemoryBackend{
		nextID:   firstMemoryWindowID,
		windows:  map[WindowID]*Window{},
		displays: append([]Display(nil), displays...),
		events:   &memoryEvents{quit: make(chan struct{})},
	}
}

func (m *MemoryBackend) CreateWindow(bounds Rect, title string) (Window, error) {
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return Window{}, fmt.Errorf("invalid window size %dx%d", bounds.Width, bounds.Height)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	w := &Window{ID: m.nextID, PID: os.Getpid(), Title: title, Bounds: bounds}
	m.nextID++
	m.windows[w.ID] = w
	return *w, nil
}

func (m *MemoryBackend) Windows() ([]Window, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Window, 0, len(m.windows))
	for _, w := range m.windows {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryBackend) SetTitle(windowID WindowID, title string) error {
	return m.update(windowID, func(w *Window) { w.Title = title })
}

func (m *MemoryBackend) SetOrigin(windowID WindowID, x, y int) error {
	return m.update(windowID, func(w *Window) { w.Bounds.X, w.Bounds.Y = x, y })
}

func (m *MemoryBackend) SetSize(windowID WindowID, width, height int) error {
	return m.update(windowID, func(w *Window) { w.Bounds.Width, w.Bounds.Height = width, height })
}

func (m *MemoryBackend) CloseWindow(windowID WindowID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.windows[windowID]; !ok {
		return fmt.Errorf("window %#x not found", uint32(windowID))
	}
	delete(m.windows, windowID)
	return nil
}

// Destroy removes a window as if something outside the bridge had closed it.
func (m *MemoryBackend) Destroy(windowID WindowID) {
	m.mu.Lock()
	delete(m.windows, windowID)
	m.mu.Unlock()
}

func (m *MemoryBackend) Displays() ([]Display, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Display(nil), m.displays...), nil
}

// SetDisplays replaces the reported displays, as a hotplug would.
func (m *MemoryBackend) SetDisplays(displays []Display) {
	m.mu.Lock()
	m.displays = append([]Display(nil), displays...)
	m.mu.Unlock()
}

func (m *MemoryBackend) Events() EventSource { return m.events }

func (m *MemoryBackend) Disconnect() { m.events.Quit() }

func (m *MemoryBackend) update(windowID WindowID, fn func(*Window)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[windowID]
	if !ok {
		return fmt.Errorf("window %#x not found", uint32(windowID))
	}
	fn(w)
	return nil
}

type memoryEvents struct {
	once sync.Once
	quit chan struct{}
}

func (e *memoryEvents) Ping() (before, after, quit <-chan struct{}) {
	return nil, nil, e.quit
}

func (e *memoryEvents) Quit() {
	e.once.Do(func() { close(e.quit) })
}
