//go:build linux && (amd64 || arm64)

// Command libguibridge is built with -buildmode=c-shared and exports the
// bridge to C hosts:
//
//	go build -buildmode=c-shared -o libguibridge.so ./cmd/libguibridge
//
// Every export is fail-soft. On failure it returns 0 or NULL and leaves a
// message in the slot read by guibridge_last_error. Handles are opaque.
// Strings passed in are NUL-terminated UTF-8 and are copied before the call
// returns. Strings and arrays handed out stay valid until the next call to the
// same export.
package main

/*
#include <stdint.h>

typedef struct {
	int32_t count;
	int32_t reserved;
	const uint64_t *items;
} guibridge_handle_array;
*/
import "C"

import (
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/1broseidon/guibridge/internal/bridge"
	"github.com/1broseidon/guibridge/internal/config"
	"github.com/1broseidon/guibridge/internal/fault"
	"github.com/1broseidon/guibridge/internal/lasterror"
	"github.com/1broseidon/guibridge/internal/logging"
)

var (
	once     sync.Once
	boundary *bridge.Boundary

	// bootErrs holds the failure to build the bridge, if any.
	bootErrs = lasterror.New(nil)
)

func open() (*bridge.Boundary, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	logging.SetLogger(logger)

	b, err := bridge.New(bridge.Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	logger.Debug("bridge loaded", zap.String("backend", cfg.Backend), zap.String("owner_thread", cfg.OwnerThread))
	return bridge.NewBoundary(b), nil
}

// shared returns the process-wide boundary, building it on first use.
func shared() *bridge.Boundary {
	once.Do(func() {
		var err error
		boundary, err = open()
		if err != nil {
			bootErrs.RecordMessage(fault.KindNotInitialized, "guibridge failed to load: "+err.Error())
		}
	})
	return boundary
}

//export guibridge_create_app
func guibridge_create_app() C.uintptr_t {
	x := shared()
	if x == nil {
		return 0
	}
	return C.uintptr_t(x.CreateApp())
}

//export guibridge_run
func guibridge_run(app C.uintptr_t) {
	if x := shared(); x != nil {
		x.Run(uint64(app))
	}
}

//export guibridge_terminate
func guibridge_terminate(app C.uintptr_t) {
	if x := shared(); x != nil {
		x.Terminate(uint64(app))
	}
}

//export guibridge_create_window
func guibridge_create_window(x, y, width, height C.double, title *C.char) C.uintptr_t {
	b := shared()
	if b == nil {
		return 0
	}
	return C.uintptr_t(b.CreateWindow(float64(x), float64(y), float64(width), float64(height), unsafe.Pointer(title)))
}

//export guibridge_window_release
func guibridge_window_release(window C.uintptr_t) {
	if b := shared(); b != nil {
		b.WindowRelease(uint64(window))
	}
}

//export guibridge_set_window_title
func guibridge_set_window_title(window C.uintptr_t, title *C.char) {
	if b := shared(); b != nil {
		b.SetWindowTitle(uint64(window), unsafe.Pointer(title))
	}
}

//export guibridge_set_window_origin
func guibridge_set_window_origin(window C.uintptr_t, x, y C.double) {
	if b := shared(); b != nil {
		b.SetWindowOrigin(uint64(window), float64(x), float64(y))
	}
}

//export guibridge_set_window_size
func guibridge_set_window_size(window C.uintptr_t, width, height C.double) {
	if b := shared(); b != nil {
		b.SetWindowSize(uint64(window), float64(width), float64(height))
	}
}

//export guibridge_window_title
func guibridge_window_title(window C.uintptr_t) *C.char {
	b := shared()
	if b == nil {
		return nil
	}
	return (*C.char)(b.WindowTitle(uint64(window)))
}

//export guibridge_enumerate_windows
func guibridge_enumerate_windows() *C.guibridge_handle_array {
	b := shared()
	if b == nil {
		return nil
	}
	return (*C.guibridge_handle_array)(b.EnumerateWindows())
}

//export guibridge_enumerate_screens
func guibridge_enumerate_screens() *C.guibridge_handle_array {
	b := shared()
	if b == nil {
		return nil
	}
	return (*C.guibridge_handle_array)(b.EnumerateScreens())
}

//export guibridge_screen_primary
func guibridge_screen_primary() C.uintptr_t {
	b := shared()
	if b == nil {
		return 0
	}
	return C.uintptr_t(b.ScreenPrimary())
}

//export guibridge_screen_width
func guibridge_screen_width(screen C.uintptr_t) C.double {
	b := shared()
	if b == nil {
		return 0
	}
	return C.double(b.ScreenWidth(uint64(screen)))
}

//export guibridge_screen_height
func guibridge_screen_height(screen C.uintptr_t) C.double {
	b := shared()
	if b == nil {
		return 0
	}
	return C.double(b.ScreenHeight(uint64(screen)))
}

//export guibridge_last_error
func guibridge_last_error() *C.char {
	b := shared()
	if b == nil {
		return (*C.char)(bootErrs.Consume())
	}
	return (*C.char)(b.LastError())
}

//export guibridge_last_error_kind
func guibridge_last_error_kind() C.int {
	b := shared()
	if b == nil {
		return C.int(bootErrs.Kind())
	}
	return C.int(b.LastErrorKind())
}

//export guibridge_clear_last_error
func guibridge_clear_last_error() {
	if b := shared(); b != nil {
		b.ClearLastError()
		return
	}
	bootErrs.Clear()
}

func main() {}
