package tui

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewSSHServerRequiresSource(t *testing.T) {
	if _, err := NewSSHServer(DefaultSSHServerConfig(), nil, nil); err == nil {
		t.Error("Expected an error without a session source")
	}
}

func TestSSHServerServeStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	var builds int
	cfg := SSHServerConfig{
		Address:     "127.0.0.1:0",
		HostKeyPath: filepath.Join(dir, "keys", "host_key"),
		IdleTimeout: time.Minute,
	}
	sources := func(user string) (Source, string) {
		return testSource(t, &builds), "test for " + user
	}

	srv, err := NewSSHServer(cfg, sources, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "keys")); err != nil {
		t.Errorf("Expected the host key directory to exist: %v", err)
	}
	if srv.Addr() != cfg.Address {
		t.Errorf("Addr() = %q, want %q", srv.Addr(), cfg.Address)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(shutdownGrace + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if srv.Active() != 0 {
		t.Errorf("Expected no active connections, got %d", srv.Active())
	}
	if builds != 0 {
		t.Errorf("Expected no sessions without connections, got %d", builds)
	}
}

func TestSSHServerReserveIsAtomic(t *testing.T) {
	srv := &SSHServer{config: SSHServerConfig{MaxSessions: 5}}

	var (
		wg      sync.WaitGroup
		granted atomic.Int64
		start   = make(chan struct{})
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if srv.reserve() {
				granted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if granted.Load() != 5 {
		t.Errorf("Expected exactly 5 slots granted, got %d", granted.Load())
	}
	if srv.Active() != 5 {
		t.Errorf("Expected 5 active connections, got %d", srv.Active())
	}

	srv.active.Add(-1)
	if !srv.reserve() {
		t.Error("Expected a released slot to be reusable")
	}
}

func TestSSHServerReserveUnlimited(t *testing.T) {
	srv := &SSHServer{}
	for i := 0; i < 100; i++ {
		if !srv.reserve() {
			t.Fatalf("Expected no limit, refused at %d", i)
		}
	}
}
