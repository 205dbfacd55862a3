package mcp

// ListScreensInput is the input for the list_screens tool.
type ListScreensInput struct{}

// ScreenInfo describes one active screen.
type ScreenInfo struct {
	Handle  uint64 `json:"handle"`
	Name    string `json:"name"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Primary bool   `json:"primary"`
}

// ListScreensOutput is the output for the list_screens tool.
type ListScreensOutput struct {
	Screens []ScreenInfo `json:"screens"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// WindowInfo describes one window created by this process.
type WindowInfo struct {
	Handle uint64 `json:"handle"`
	Title  string `json:"title"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowInfo `json:"windows"`
}

// CreateWindowInput is the input for the create_window tool.
type CreateWindowInput struct {
	X      int    `json:"x,omitempty" jsonschema:"Left edge in screen pixels (default: 0)"`
	Y      int    `json:"y,omitempty" jsonschema:"Top edge in screen pixels (default: 0)"`
	Width  int    `json:"width" jsonschema:"Window width in pixels, must be positive"`
	Height int    `json:"height" jsonschema:"Window height in pixels, must be positive"`
	Title  string `json:"title" jsonschema:"Window title"`
}

// CreateWindowOutput is the output for the create_window tool.
type CreateWindowOutput struct {
	Handle uint64 `json:"handle"`
}

// WindowInput identifies a window by handle.
type WindowInput struct {
	Handle uint64 `json:"handle" jsonschema:"Window handle returned by create_window or list_windows"`
}

// SetWindowTitleInput is the input for the set_window_title tool.
type SetWindowTitleInput struct {
	Handle uint64 `json:"handle" jsonschema:"Window handle"`
	Title  string `json:"title" jsonschema:"New title"`
}

// MoveWindowInput is the input for the move_window tool.
type MoveWindowInput struct {
	Handle uint64 `json:"handle" jsonschema:"Window handle"`
	X      int    `json:"x" jsonschema:"New left edge in screen pixels"`
	Y      int    `json:"y" jsonschema:"New top edge in screen pixels"`
}

// ResizeWindowInput is the input for the resize_window tool.
type ResizeWindowInput struct {
	Handle uint64 `json:"handle" jsonschema:"Window handle"`
	Width  int    `json:"width" jsonschema:"New width in pixels, must be positive"`
	Height int    `json:"height" jsonschema:"New height in pixels, must be positive"`
}

// WindowTitleOutput is the output for the get_window_title tool.
type WindowTitleOutput struct {
	Handle uint64 `json:"handle"`
	Title  string `json:"title"`
}

// AckOutput is returned by tools that only apply a change.
type AckOutput struct {
	Handle uint64 `json:"handle"`
	Done   bool   `json:"done"`
}

// LastErrorInput is the input for the last_error tool.
type LastErrorInput struct {
	Clear bool `json:"clear,omitempty" jsonschema:"Clear the slot after reading it"`
}

// LastErrorOutput is the output for the last_error tool.
type LastErrorOutput struct {
	Set     bool   `json:"set"`
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}
