package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	backend
//	display
//	xauthority
//	owner_thread
//	strict_affinity
//	allocator
//	screens
//	screens.<index>.name
//	logging.level
//	logging.format
//	logging.file
//	ipc.socket
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	unknown := fmt.Errorf("unknown path: %s", path)

	leaf := func(v any) (any, error) {
		if len(parts) != 1 {
			return nil, unknown
		}
		return v, nil
	}

	switch parts[0] {
	case "backend":
		return leaf(cfg.Backend)
	case "display":
		return leaf(cfg.Display)
	case "xauthority":
		return leaf(cfg.XAuthority)
	case "owner_thread":
		return leaf(cfg.OwnerThread)
	case "strict_affinity":
		return leaf(cfg.StrictAffinity)
	case "allocator":
		return leaf(cfg.Allocator)
	case "screens":
		if len(parts) == 1 {
			return cfg.Screens, nil
		}
		i, err := strconv.Atoi(parts[1])
		if err != nil || i < 0 || i >= len(cfg.Screens) {
			return nil, unknown
		}
		s := cfg.Screens[i]
		if len(parts) == 2 {
			return s, nil
		}
		if len(parts) != 3 {
			return nil, unknown
		}
		switch parts[2] {
		case "name":
			return s.Name, nil
		case "x":
			return s.X, nil
		case "y":
			return s.Y, nil
		case "width":
			return s.Width, nil
		case "height":
			return s.Height, nil
		case "primary":
			return s.Primary, nil
		}
		return nil, unknown
	case "logging":
		if len(parts) != 2 {
			return nil, unknown
		}
		switch parts[1] {
		case "level":
			return cfg.Logging.Level, nil
		case "format":
			return cfg.Logging.Format, nil
		case "file":
			return cfg.Logging.File, nil
		}
		return nil, unknown
	case "ipc":
		if len(parts) == 2 && parts[1] == "socket" {
			return cfg.IPC.Socket, nil
		}
		return nil, unknown
	}
	return nil, unknown
}
