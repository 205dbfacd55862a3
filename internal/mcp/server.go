// Package mcp serves the bridge's window and screen operations as MCP tools
// over stdio.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/1broseidon/guibridge/internal/bridge"
	"github.com/1broseidon/guibridge/internal/logging"
)

const (
	ServerName    = "guibridge"
	ServerVersion = "0.1.0"
)

// Server is the MCP server for the GUI bridge. Every tool runs its toolkit
// work on the bridge's owner thread.
type Server struct {
	mcpServer *mcpsdk.Server
	bridge    *bridge.Bridge
	log       *zap.Logger
}

// NewServer creates an MCP server over b. The application must already exist
// and its owner loop must be running for tools to make progress.
func NewServer(b *bridge.Bridge) *Server {
	s := &Server{
		bridge: b,
		log:    logging.Logger().Named("mcp"),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_screens",
		Description: "List the active screens with their handles, names, bounds and which one is primary.",
	}, s.handleListScreens)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List the windows created by this bridge process that the display server still reports.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_window",
		Description: "Create, show and focus a window at the given position and size. Returns the window handle for later calls.",
	}, s.handleCreateWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_window_title",
		Description: "Read a window's current title.",
	}, s.handleGetWindowTitle)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_window_title",
		Description: "Replace a window's title.",
	}, s.handleSetWindowTitle)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_window",
		Description: "Move a window's top-left corner to the given screen coordinates, keeping its size.",
	}, s.handleMoveWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resize_window",
		Description: "Resize a window, keeping its position.",
	}, s.handleResizeWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Close and destroy a window. Its handle becomes unknown afterwards.",
	}, s.handleCloseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "last_error",
		Description: "Read the bridge's process-wide last error, optionally clearing it.",
	}, s.handleLastError)
}
