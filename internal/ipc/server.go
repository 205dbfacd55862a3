package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/1broseidon/guibridge/internal/bridge"
	"github.com/1broseidon/guibridge/internal/fault"
	"github.com/1broseidon/guibridge/internal/logging"
	"github.com/1broseidon/guibridge/internal/platform"
	"github.com/1broseidon/guibridge/internal/registry"
	"github.com/1broseidon/guibridge/internal/runtimepath"
)

// requestTimeout bounds how long a request waits for the owner thread.
const requestTimeout = 10 * time.Second

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	bridge       *bridge.Bridge
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server. An empty socketPath resolves the
// configured or default runtime socket.
func NewServer(b *bridge.Bridge, socketPath string) (*Server, error) {
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath(b.Config().IPC.Socket)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		bridge:     b,
		startTime:  time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	logging.Logger().Info("IPC server listening", zap.String("socket", s.socketPath))

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			logging.Logger().Warn("IPC accept error", zap.Error(err))
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection serves a single JSON-line request on conn.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		logging.Logger().Warn("IPC read error", zap.Error(err))
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	resp := s.handleCommand(ctx, req)

	respData, err := resp.Marshal()
	if err != nil {
		logging.Logger().Warn("failed to marshal response", zap.Error(err))
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		logging.Logger().Warn("failed to send response", zap.Error(err))
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	logging.Logger().Debug("IPC request", zap.String("command", string(req.Command)))

	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus(ctx)
	case CommandListScreens:
		return s.handleListScreens(ctx)
	case CommandListWindows:
		return s.handleListWindows(ctx)
	case CommandCreateWindow:
		return s.handleCreateWindow(ctx, req.Payload)
	case CommandSetWindowTitle:
		return s.handleSetWindowTitle(ctx, req.Payload)
	case CommandSetWindowOrigin:
		return s.handleSetWindowOrigin(ctx, req.Payload)
	case CommandSetWindowSize:
		return s.handleSetWindowSize(ctx, req.Payload)
	case CommandCloseWindow:
		return s.handleCloseWindow(ctx, req.Payload)
	case CommandLastError:
		return s.handleLastError()
	case CommandClearLastError:
		s.bridge.Errors().Clear()
		return ok(nil)
	case CommandShutdown:
		return s.handleShutdown()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus(ctx context.Context) *Response {
	status := StatusData{
		Backend:       s.bridge.Config().Backend,
		App:           uint64(s.bridge.App()),
		PendingTasks:  s.bridge.Gate().Pending(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Running:       s.bridge.Gate().Running(),
	}
	err := s.bridge.Sync(ctx, func() error {
		ws, err := s.bridge.Windows(ctx)
		if err != nil {
			return err
		}
		ds, err := s.bridge.Screens(ctx)
		if err != nil {
			return err
		}
		status.WindowCount = len(ws)
		status.ScreenCount = len(ds)
		return nil
	})
	if err != nil {
		return s.failure(err)
	}
	return ok(status)
}

func (s *Server) handleListScreens(ctx context.Context) *Response {
	var data ScreensData
	err := s.bridge.Sync(ctx, func() error {
		ds, err := s.bridge.Screens(ctx)
		if err != nil {
			return err
		}
		data.Screens = make([]ScreenInfo, len(ds))
		for i, d := range ds {
			data.Screens[i] = screenInfo(d)
		}
		return nil
	})
	if err != nil {
		return s.failure(err)
	}
	return ok(data)
}

func (s *Server) handleListWindows(ctx context.Context) *Response {
	var data WindowsData
	err := s.bridge.Sync(ctx, func() error {
		ws, err := s.bridge.Windows(ctx)
		if err != nil {
			return err
		}
		data.Windows = make([]WindowInfo, len(ws))
		for i, w := range ws {
			data.Windows[i] = windowInfo(w)
		}
		return nil
	})
	if err != nil {
		return s.failure(err)
	}
	return ok(data)
}

func (s *Server) handleCreateWindow(ctx context.Context, payload json.RawMessage) *Response {
	var req CreateWindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid create payload: %v", err))
	}

	h, err := s.bridge.CreateWindow(ctx, platform.Rect{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height}, req.Title)
	if err != nil {
		return s.failure(err)
	}
	return ok(CreateWindowData{Handle: uint64(h)})
}

func (s *Server) handleSetWindowTitle(ctx context.Context, payload json.RawMessage) *Response {
	var req SetWindowTitlePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid title payload: %v", err))
	}
	return s.onOwner(ctx, func() error {
		return s.bridge.SetWindowTitle(registry.Handle(req.Handle), req.Title)
	})
}

func (s *Server) handleSetWindowOrigin(ctx context.Context, payload json.RawMessage) *Response {
	var req SetWindowOriginPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid origin payload: %v", err))
	}
	return s.onOwner(ctx, func() error {
		return s.bridge.SetWindowOrigin(registry.Handle(req.Handle), req.X, req.Y)
	})
}

func (s *Server) handleSetWindowSize(ctx context.Context, payload json.RawMessage) *Response {
	var req SetWindowSizePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid size payload: %v", err))
	}
	return s.onOwner(ctx, func() error {
		return s.bridge.SetWindowSize(registry.Handle(req.Handle), req.Width, req.Height)
	})
}

func (s *Server) handleCloseWindow(ctx context.Context, payload json.RawMessage) *Response {
	var req CloseWindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid close payload: %v", err))
	}
	return s.onOwner(ctx, func() error {
		return s.bridge.CloseWindow(registry.Handle(req.Handle))
	})
}

func (s *Server) handleLastError() *Response {
	msg, set := s.bridge.Errors().Message()
	return ok(LastErrorData{
		Set:     set,
		Kind:    s.bridge.Errors().Kind().String(),
		Message: msg,
	})
}

func (s *Server) handleShutdown() *Response {
	if err := s.bridge.Terminate(s.bridge.App()); err != nil {
		return s.failure(err)
	}
	return ok(nil)
}

// onOwner runs a window mutation on the owner thread, where it applies
// synchronously and reports its own failure.
func (s *Server) onOwner(ctx context.Context, fn func() error) *Response {
	if err := s.bridge.Sync(ctx, fn); err != nil {
		return s.failure(err)
	}
	return ok(nil)
}

// failure records err in the last-error channel and turns it into a response.
func (s *Server) failure(err error) *Response {
	s.bridge.Errors().Record(err)
	resp := NewErrorResponse(err.Error())
	resp.Kind = fault.KindOf(err).String()
	return resp
}

func ok(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func screenInfo(d platform.Display) ScreenInfo {
	return ScreenInfo{
		Handle:  uint64(bridge.ScreenHandle(d)),
		Name:    d.Name,
		X:       d.Bounds.X,
		Y:       d.Bounds.Y,
		Width:   d.Bounds.Width,
		Height:  d.Bounds.Height,
		Primary: d.Primary,
	}
}

func windowInfo(w platform.Window) WindowInfo {
	return WindowInfo{
		Handle: uint64(bridge.WindowHandle(w)),
		Title:  w.Title,
		X:      w.Bounds.X,
		Y:      w.Bounds.Y,
		Width:  w.Bounds.Width,
		Height: w.Bounds.Height,
	}
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
