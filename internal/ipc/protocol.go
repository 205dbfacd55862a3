package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus       CommandType = "GET_STATUS"
	CommandListScreens     CommandType = "LIST_SCREENS"
	CommandListWindows     CommandType = "LIST_WINDOWS"
	CommandCreateWindow    CommandType = "CREATE_WINDOW"
	CommandSetWindowTitle  CommandType = "SET_WINDOW_TITLE"
	CommandSetWindowOrigin CommandType = "SET_WINDOW_ORIGIN"
	CommandSetWindowSize   CommandType = "SET_WINDOW_SIZE"
	CommandCloseWindow     CommandType = "CLOSE_WINDOW"
	CommandLastError       CommandType = "LAST_ERROR"
	CommandClearLastError  CommandType = "CLEAR_LAST_ERROR"
	CommandShutdown        CommandType = "SHUTDOWN"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
	Kind   string          `json:"kind,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Backend       string `json:"backend"`
	App           uint64 `json:"app"`
	WindowCount   int    `json:"window_count"`
	ScreenCount   int    `json:"screen_count"`
	PendingTasks  int    `json:"pending_tasks"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Running       bool   `json:"running"`
}

// ScreenInfo represents information about a single screen
type ScreenInfo struct {
	Handle  uint64 `json:"handle"`
	Name    string `json:"name"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Primary bool   `json:"primary,omitempty"`
}

// ScreensData represents the data returned by LIST_SCREENS
type ScreensData struct {
	Screens []ScreenInfo `json:"screens"`
}

// WindowInfo represents a window created by the bridge process
type WindowInfo struct {
	Handle uint64 `json:"handle"`
	Title  string `json:"title"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []WindowInfo `json:"windows"`
}

type CreateWindowPayload struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Title  string `json:"title"`
}

type CreateWindowData struct {
	Handle uint64 `json:"handle"`
}

type SetWindowTitlePayload struct {
	Handle uint64 `json:"handle"`
	Title  string `json:"title"`
}

type SetWindowOriginPayload struct {
	Handle uint64 `json:"handle"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

type SetWindowSizePayload struct {
	Handle uint64 `json:"handle"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type CloseWindowPayload struct {
	Handle uint64 `json:"handle"`
}

// LastErrorData mirrors the process-wide last-error slot.
type LastErrorData struct {
	Set     bool   `json:"set"`
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
