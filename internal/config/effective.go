package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig overlays raw onto the defaults and validates the result.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Backend != nil {
		cfg.Backend = strings.ToLower(strings.TrimSpace(*raw.Backend))
	}
	if raw.Display != nil {
		cfg.Display = strings.TrimSpace(*raw.Display)
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = strings.TrimSpace(*raw.XAuthority)
	}
	if raw.OwnerThread != nil {
		cfg.OwnerThread = strings.ToLower(strings.TrimSpace(*raw.OwnerThread))
	}
	if raw.StrictAffinity != nil {
		cfg.StrictAffinity = *raw.StrictAffinity
	}
	if raw.Allocator != nil {
		cfg.Allocator = strings.ToLower(strings.TrimSpace(*raw.Allocator))
	}
	if raw.Screens != nil {
		cfg.Screens = make([]ScreenConfig, 0, len(*raw.Screens))
		for _, s := range *raw.Screens {
			cfg.Screens = append(cfg.Screens, ScreenConfig(s))
		}
	}
	if raw.Logging != nil {
		if raw.Logging.Level != nil {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*raw.Logging.Level))
		}
		if raw.Logging.Format != nil {
			cfg.Logging.Format = strings.ToLower(strings.TrimSpace(*raw.Logging.Format))
		}
		if raw.Logging.File != nil {
			cfg.Logging.File = strings.TrimSpace(*raw.Logging.File)
		}
	}
	if raw.IPC != nil && raw.IPC.Socket != nil {
		cfg.IPC.Socket = strings.TrimSpace(*raw.IPC.Socket)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
