package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/1broseidon/guibridge/internal/bridge"
	"github.com/1broseidon/guibridge/internal/ipc"
	"github.com/1broseidon/guibridge/internal/logging"
)

// bridgeFlags are the options shared by every command that owns the toolkit.
type bridgeFlags struct {
	path    *string
	backend *string
	display *string
}

func addBridgeFlags(fs *flag.FlagSet) bridgeFlags {
	return bridgeFlags{
		path:    fs.String("path", "", "Config file path (default: ~/.config/guibridge/config.yaml)"),
		backend: fs.String("backend", "", "Override backend: x11 or memory"),
		display: fs.String("display", "", "Override X display"),
	}
}

// openBridge loads the configuration, installs the process logger and builds
// the bridge. Nothing touches the display until CreateApp.
func openBridge(f bridgeFlags) (*bridge.Bridge, *zap.Logger, error) {
	res, err := loadConfigResult(*f.path)
	if err != nil {
		return nil, nil, err
	}
	cfg := res.Config
	if *f.backend != "" {
		cfg.Backend = *f.backend
	}
	if *f.display != "" {
		cfg.Display = *f.display
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logging.SetLogger(logger)

	b, err := bridge.New(bridge.Options{Config: cfg})
	if err != nil {
		return nil, nil, err
	}
	if res.File != "" {
		logger.Info("configuration loaded", zap.String("file", res.File))
	}
	return b, logger, nil
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	bf := addBridgeFlags(fs)
	socket := fs.String("socket", "", "IPC socket path (default: $XDG_RUNTIME_DIR/guibridge.sock)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: guibridge serve [--path PATH] [--backend x11|memory] [--display :N] [--socket PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Connect to the display, claim the main thread as owner and serve")
		fmt.Fprintln(os.Stderr, "window and screen requests on the IPC socket until stopped.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "serve takes no arguments")
		fs.Usage()
		return 2
	}

	b, log, err := openBridge(bf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer log.Sync()
	defer b.Close()

	app, err := b.CreateApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create application: %v\n", err)
		return 1
	}

	if *socket == "" {
		*socket = b.Config().IPC.Socket
	}
	srv, err := ipc.NewServer(b, *socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := srv.Start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer srv.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	done := make(chan struct{})
	defer close(done)
	go watchSignals(sigCh, done, func(sig os.Signal) {
		log.Info("shutting down", zap.String("signal", sig.String()))
		_ = b.Terminate(app)
	})

	log.Info("guibridge serving",
		zap.String("backend", b.Config().Backend),
		zap.String("socket", srv.SocketPath()))
	if err := b.Run(app); err != nil {
		fmt.Fprintf(os.Stderr, "Owner loop failed: %v\n", err)
		return 1
	}
	return 0
}

// watchSignals calls onSignal for the first signal on sigCh. It returns
// without calling it once done is closed.
func watchSignals(sigCh <-chan os.Signal, done <-chan struct{}, onSignal func(os.Signal)) {
	select {
	case sig := <-sigCh:
		onSignal(sig)
	case <-done:
	}
}
