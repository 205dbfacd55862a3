package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/guibridge/internal/config"
	"github.com/1broseidon/guibridge/internal/ipc"
)

// The owner loop must run on the process's main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "serve":
		os.Exit(runServe(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "stop":
		os.Exit(runStop(os.Args[2:]))
	case "screens":
		os.Exit(runScreens(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "window":
		os.Exit(runWindow(os.Args[2:]))
	case "last-error":
		os.Exit(runLastError(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: guibridge <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve               Own the toolkit and serve the IPC socket (foreground)")
	fmt.Fprintln(w, "  status              Show server status")
	fmt.Fprintln(w, "  stop                Ask the server to stop")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  screens             List active screens")
	fmt.Fprintln(w, "  windows             List windows owned by the server")
	fmt.Fprintln(w, "  window create       Create a window")
	fmt.Fprintln(w, "  window title        Set a window title")
	fmt.Fprintln(w, "  window move         Move a window")
	fmt.Fprintln(w, "  window resize       Resize a window")
	fmt.Fprintln(w, "  window close        Close a window")
	fmt.Fprintln(w, "  last-error          Show (and optionally clear) the last error")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'guibridge <command> --help' for command-specific options.")
}

// newClient resolves the socket from --socket, then the config file.
func newClient(socket string) *ipc.Client {
	if socket == "" {
		if cfg, err := config.Load(); err == nil {
			socket = cfg.IPC.Socket
		}
	}
	return ipc.NewClient(socket)
}

// wantJSON reports whether output should be JSON: when asked for, or when
// stdout is not a terminal.
func wantJSON(flagged bool) bool {
	return flagged || !term.IsTerminal(int(os.Stdout.Fd()))
}

func printJSON(v interface{}) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func parseHandle(s string) (uint64, error) {
	h, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid handle %q: %w", s, err)
	}
	return h, nil
}

func parseInts(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "IPC socket path")
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: guibridge status [--socket PATH] [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show server status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := newClient(*socket).GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if wantJSON(*asJSON) {
		return printJSON(status)
	}
	fmt.Printf("running:        %v\n", status.Running)
	fmt.Printf("backend:        %s\n", status.Backend)
	fmt.Printf("app:            %#x\n", status.App)
	fmt.Printf("windows:        %d\n", status.WindowCount)
	fmt.Printf("screens:        %d\n", status.ScreenCount)
	fmt.Printf("pending_tasks:  %d\n", status.PendingTasks)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runStop(args []string) int {
	fs := flag.NewFlagSet("stop", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "IPC socket path")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if err := newClient(*socket).Shutdown(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runScreens(args []string) int {
	fs := flag.NewFlagSet("screens", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "IPC socket path")
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	data, err := newClient(*socket).ListScreens()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if wantJSON(*asJSON) {
		return printJSON(data.Screens)
	}
	for _, s := range data.Screens {
		primary := ""
		if s.Primary {
			primary = " (primary)"
		}
		fmt.Printf("%#-14x %-10s %dx%d+%d+%d%s\n", s.Handle, s.Name, s.Width, s.Height, s.X, s.Y, primary)
	}
	return 0
}

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "IPC socket path")
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	data, err := newClient(*socket).ListWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if wantJSON(*asJSON) {
		return printJSON(data.Windows)
	}
	if len(data.Windows) == 0 {
		fmt.Println("no windows")
		return 0
	}
	for _, w := range data.Windows {
		fmt.Printf("%#-14x %dx%d+%d+%d  %s\n", w.Handle, w.Width, w.Height, w.X, w.Y, w.Title)
	}
	return 0
}

func printWindowUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  guibridge window create [--x N] [--y N] --width N --height N [--title TEXT]")
	fmt.Fprintln(w, "  guibridge window title <handle> <text>")
	fmt.Fprintln(w, "  guibridge window move <handle> <x> <y>")
	fmt.Fprintln(w, "  guibridge window resize <handle> <width> <height>")
	fmt.Fprintln(w, "  guibridge window close <handle>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "All window commands accept --socket PATH.")
}

func runWindow(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printWindowUsage(os.Stderr)
		return 2
	}

	fs := flag.NewFlagSet("window "+args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "IPC socket path")

	switch args[0] {
	case "create":
		x := fs.Int("x", 0, "Left edge")
		y := fs.Int("y", 0, "Top edge")
		width := fs.Int("width", 640, "Width in pixels")
		height := fs.Int("height", 480, "Height in pixels")
		title := fs.String("title", "guibridge", "Window title")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		h, err := newClient(*socket).CreateWindow(*x, *y, *width, *height, *title)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("%#x\n", h)
		return 0

	case "title":
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 2 {
			printWindowUsage(os.Stderr)
			return 2
		}
		h, err := parseHandle(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		if err := newClient(*socket).SetWindowTitle(h, fs.Arg(1)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "move", "resize":
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 3 {
			printWindowUsage(os.Stderr)
			return 2
		}
		h, err := parseHandle(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		nums, err := parseInts(fs.Args()[1:])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		client := newClient(*socket)
		if args[0] == "move" {
			err = client.SetWindowOrigin(h, nums[0], nums[1])
		} else {
			err = client.SetWindowSize(h, nums[0], nums[1])
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "close":
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			printWindowUsage(os.Stderr)
			return 2
		}
		h, err := parseHandle(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		if err := newClient(*socket).CloseWindow(h); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown window subcommand: %s\n", args[0])
		printWindowUsage(os.Stderr)
		return 2
	}
}

func runLastError(args []string) int {
	fs := flag.NewFlagSet("last-error", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "IPC socket path")
	clearSlot := fs.Bool("clear", false, "Clear the slot after reading it")
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := newClient(*socket)
	data, err := client.LastError()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *clearSlot {
		if err := client.ClearLastError(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	if wantJSON(*asJSON) {
		return printJSON(data)
	}
	if !data.Set {
		fmt.Println("no error")
		return 0
	}
	fmt.Printf("%s: %s\n", data.Kind, data.Message)
	return 0
}

func loadConfigResult(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  guibridge config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  guibridge config print [--path PATH] [--effective|--defaults]")
		fmt.Fprintln(os.Stderr, "  guibridge config explain [--path PATH] <yaml.path>")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/guibridge/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		if _, err := loadConfigResult(*path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/guibridge/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		printEffective := fs.Bool("effective", false, "Print effective config (default)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			_ = printEffective // default
			res, err := loadConfigResult(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			if res.File != "" {
				fmt.Printf("# file: %s\n", res.File)
			}
			cfg = res.Config
		}
		data, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		fs := flag.NewFlagSet("explain", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/guibridge/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
			return 2
		}
		queryPath := fs.Arg(0)

		res, err := loadConfigResult(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		value, src, err := config.Explain(res, queryPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		fmt.Printf("path: %s\n", queryPath)
		fmt.Printf("source: %s\n", formatSource(src))
		fmt.Printf("value:\n%s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceDefault:
		if src.Name != "" {
			return "default:" + src.Name
		}
		return "default"
	default:
		return string(src.Kind)
	}
}
