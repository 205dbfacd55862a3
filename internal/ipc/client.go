package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/guibridge/internal/runtimepath"
)

// Client handles IPC communication with a running `guibridge serve`
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client. An empty socketOverride uses the
// default runtime socket.
func NewClient(socketOverride string) *Client {
	socketPath, err := runtimepath.SocketPath(socketOverride)
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    15 * time.Second,
	}
}

// RequestError is a failure reported by the server.
type RequestError struct {
	Kind    string
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("server error: %s", e.Message)
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w (is `guibridge serve` running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, &RequestError{Kind: resp.Kind, Message: resp.Error}
	}

	return &resp, nil
}

// call sends command with an optional payload and decodes the response data
// into out when out is non-nil.
func (c *Client) call(command CommandType, payload interface{}, out interface{}) error {
	req := &Request{Command: command}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", command, err)
		}
		req.Payload = raw
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", command, err)
	}
	return nil
}

// GetStatus retrieves server status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListScreens retrieves the active screens
func (c *Client) ListScreens() (*ScreensData, error) {
	var data ScreensData
	if err := c.call(CommandListScreens, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ListWindows retrieves the windows owned by the server process
func (c *Client) ListWindows() (*WindowsData, error) {
	var data WindowsData
	if err := c.call(CommandListWindows, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// CreateWindow creates a window and returns its handle.
func (c *Client) CreateWindow(x, y, width, height int, title string) (uint64, error) {
	var data CreateWindowData
	err := c.call(CommandCreateWindow, CreateWindowPayload{
		X: x, Y: y, Width: width, Height: height, Title: title,
	}, &data)
	if err != nil {
		return 0, err
	}
	return data.Handle, nil
}

func (c *Client) SetWindowTitle(handle uint64, title string) error {
	return c.call(CommandSetWindowTitle, SetWindowTitlePayload{Handle: handle, Title: title}, nil)
}

func (c *Client) SetWindowOrigin(handle uint64, x, y int) error {
	return c.call(CommandSetWindowOrigin, SetWindowOriginPayload{Handle: handle, X: x, Y: y}, nil)
}

func (c *Client) SetWindowSize(handle uint64, width, height int) error {
	return c.call(CommandSetWindowSize, SetWindowSizePayload{Handle: handle, Width: width, Height: height}, nil)
}

func (c *Client) CloseWindow(handle uint64) error {
	return c.call(CommandCloseWindow, CloseWindowPayload{Handle: handle}, nil)
}

// LastError reads the server's last-error slot.
func (c *Client) LastError() (*LastErrorData, error) {
	var data LastErrorData
	if err := c.call(CommandLastError, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) ClearLastError() error {
	return c.call(CommandClearLastError, nil, nil)
}

// Shutdown asks the server's owner loop to stop.
func (c *Client) Shutdown() error {
	return c.call(CommandShutdown, nil, nil)
}

// Ping checks if the server is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
