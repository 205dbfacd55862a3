package main

import (
	"flag"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/1broseidon/guibridge/internal/config"
)

func TestParseHandle(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"0x200400001", 0x200400001, false},
		{"8594128897", 8594128897, false},
		{"", 0, true},
		{"window", 0, true},
		{"-1", 0, true},
	}
	for _, tt := range tests {
		got, err := parseHandle(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseHandle(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("parseHandle(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestParseInts(t *testing.T) {
	got, err := parseInts([]string{"10", "-20"})
	if err != nil || len(got) != 2 || got[0] != 10 || got[1] != -20 {
		t.Fatalf("parseInts = %v, %v", got, err)
	}
	if _, err := parseInts([]string{"10", "x"}); err == nil {
		t.Fatalf("expected error for non-numeric input")
	}
}

func TestFormatSource(t *testing.T) {
	tests := []struct {
		src  config.Source
		want string
	}{
		{config.Source{Kind: config.SourceDefault}, "default"},
		{config.Source{Kind: config.SourceDefault, Name: "backend"}, "default:backend"},
		{config.Source{Kind: config.SourceFile}, "file"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml"}, "file:/c.yaml"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml", Line: 3, Column: 5}, "file:/c.yaml:3:5"},
	}
	for _, tt := range tests {
		if got := formatSource(tt.src); got != tt.want {
			t.Errorf("formatSource(%+v) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestOpenBridge_AppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("backend: x11\nowner_thread: first\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	bf := addBridgeFlags(fs)
	if err := fs.Parse([]string{"--path", path, "--backend", "memory"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	b, _, err := openBridge(bf)
	if err != nil {
		t.Fatalf("openBridge: %v", err)
	}
	if b.Config().Backend != config.BackendMemory {
		t.Fatalf("backend = %q, want memory", b.Config().Backend)
	}
	if b.Config().OwnerThread != config.OwnerFirst {
		t.Fatalf("owner_thread = %q, want first", b.Config().OwnerThread)
	}
}

func TestOpenBridge_RejectsBadOverride(t *testing.T) {
	t.Setenv(config.EnvConfigPath, filepath.Join(t.TempDir(), "missing.yaml"))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	bf := addBridgeFlags(fs)
	if err := fs.Parse([]string{"--backend", "wayland"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, _, err := openBridge(bf); err == nil {
		t.Fatalf("expected validation error for unknown backend")
	}
}

func TestWatchSignals(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	got := make(chan os.Signal, 1)
	returned := make(chan struct{})
	go func() {
		watchSignals(sigCh, done, func(sig os.Signal) { got <- sig })
		close(returned)
	}()
	sigCh <- syscall.SIGTERM
	select {
	case sig := <-got:
		if sig != syscall.SIGTERM {
			t.Fatalf("signal = %v, want SIGTERM", sig)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("signal was not delivered")
	}
	<-returned
}

func TestWatchSignals_ReturnsWhenDone(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	returned := make(chan struct{})
	go func() {
		watchSignals(sigCh, done, func(os.Signal) { t.Errorf("unexpected signal callback") })
		close(returned)
	}()
	close(done)
	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatalf("watchSignals did not return after done was closed")
	}
}
