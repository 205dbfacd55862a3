package config

import (
	"fmt"
	"strings"
)

// Backend kinds.
const (
	BackendX11    = "x11"
	BackendMemory = "memory"
)

// Owner thread policies.
const (
	OwnerMain  = "main"
	OwnerFirst = "first"
)

// Scratch allocators.
const (
	AllocatorMmap = "mmap"
	AllocatorLibc = "libc"
)

// ScreenConfig describes a screen reported by the memory backend.
type ScreenConfig struct {
	Name    string `yaml:"name"`
	X       int    `yaml:"x"`
	Y       int    `yaml:"y"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Primary bool   `yaml:"primary,omitempty"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level controls verbosity: debug, info, warn, error
	Level string `yaml:"level"`
	// Format is console or json
	Format string `yaml:"format"`
	// File is the log destination; empty means stderr
	File string `yaml:"file,omitempty"`
}

// IPCConfig configures the control socket used by `guibridge serve`.
type IPCConfig struct {
	// Socket overrides the default $XDG_RUNTIME_DIR/guibridge.sock
	Socket string `yaml:"socket,omitempty"`
}

// Config is the effective configuration.
type Config struct {
	Backend        string         `yaml:"backend"`
	Display        string         `yaml:"display,omitempty"`
	XAuthority     string         `yaml:"xauthority,omitempty"`
	OwnerThread    string         `yaml:"owner_thread"`
	StrictAffinity bool           `yaml:"strict_affinity"`
	Allocator      string         `yaml:"allocator"`
	Screens        []ScreenConfig `yaml:"screens,omitempty"`
	Logging        LoggingConfig  `yaml:"logging"`
	IPC            IPCConfig      `yaml:"ipc"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Backend:        BackendX11,
		OwnerThread:    OwnerMain,
		StrictAffinity: true,
		Allocator:      AllocatorMmap,
		Screens: []ScreenConfig{
			{Name: "MEM-1", Width: 1920, Height: 1080, Primary: true},
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendX11, BackendMemory:
	default:
		return &ValidationError{Path: "backend", Err: fmt.Errorf("backend must be one of: x11, memory")}
	}
	switch c.OwnerThread {
	case OwnerMain, OwnerFirst:
	default:
		return &ValidationError{Path: "owner_thread", Err: fmt.Errorf("owner_thread must be one of: main, first")}
	}
	switch c.Allocator {
	case AllocatorMmap, AllocatorLibc:
	default:
		return &ValidationError{Path: "allocator", Err: fmt.Errorf("allocator must be one of: mmap, libc")}
	}

	names := map[string]bool{}
	primaries := 0
	for i, s := range c.Screens {
		path := fmt.Sprintf("screens.%d", i)
		if strings.TrimSpace(s.Name) == "" {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("screen name is required")}
		}
		if names[s.Name] {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("duplicate screen name %q", s.Name)}
		}
		names[s.Name] = true
		if s.Width <= 0 || s.Height <= 0 {
			return &ValidationError{Path: path, Err: fmt.Errorf("width and height must be > 0")}
		}
		if s.Primary {
			primaries++
		}
	}
	if primaries > 1 {
		return &ValidationError{Path: "screens", Err: fmt.Errorf("at most one screen may be primary")}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return &ValidationError{Path: "logging.format", Err: fmt.Errorf("format must be one of: console, json")}
	}
	return nil
}
