package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
)

// shutdownGrace bounds how long Serve waits for open dashboards on exit.
const shutdownGrace = 10 * time.Second

// SSHServerConfig holds configuration for the dashboard SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23235").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key is generated at ~/.pacer/host_key.
	HostKeyPath string

	// IdleTimeout closes connections without input for this long.
	IdleTimeout time.Duration

	// LimitMs stops each session after this much simulated time, 0 = no limit.
	LimitMs uint64

	// MaxSessions caps concurrent dashboards, 0 = unlimited.
	MaxSessions int
}

// DefaultSSHServerConfig returns the listen address and timeouts used by
// 'pacer serve' when no flags are given.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23235",
		IdleTimeout: 30 * time.Minute,
		MaxSessions: 32,
	}
}

// SourceFactory returns the session source and dashboard title for one
// SSH connection. Every call must build independent sessions.
type SourceFactory func(user string) (Source, string)

// SSHServer serves the dashboard over SSH, one engine session per connection.
type SSHServer struct {
	config  SSHServerConfig
	server  *ssh.Server
	sources SourceFactory
	logger  *log.Logger
	active  atomic.Int64
}

// NewSSHServer prepares a server. It does not listen until Serve.
func NewSSHServer(cfg SSHServerConfig, sources SourceFactory, logger *log.Logger) (*SSHServer, error) {
	if sources == nil {
		return nil, errors.New("tui: ssh server needs a session source")
	}
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "pacer-ssh"})
	}

	keyPath, err := resolveHostKey(cfg.HostKeyPath)
	if err != nil {
		return nil, err
	}

	srv := &SSHServer{config: cfg, sources: sources, logger: logger}
	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(keyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		// Middlewares run last to first: admit, then log, then the dashboard.
		wish.WithMiddleware(
			bubbletea.Middleware(srv.dashboard),
			srv.trackConnection,
			srv.admit,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tui: cannot create ssh server: %w", err)
	}
	srv.server = server
	return srv, nil
}

// resolveHostKey returns the host key location and makes sure its
// directory exists. wish generates the key itself on first use.
func resolveHostKey(path string) (string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("tui: cannot get home directory: %w", err)
		}
		path = filepath.Join(home, ".pacer", "host_key")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("tui: cannot create host key directory: %w", err)
	}
	return path, nil
}

// dashboard builds a fresh model for a connection.
func (s *SSHServer) dashboard(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sess.User())
		return nil, nil
	}

	source, title := s.sources(sess.User())
	model := NewModel(source, title, pty.Window.Width, pty.Window.Height, s.config.LimitMs)
	if model.sess != nil {
		s.logger.Info("pacing session started",
			"user", sess.User(),
			"session", model.sess.ID(),
			"mode", model.sess.Mode(),
			"seed", model.sess.Seed(),
		)
	}
	return model, []tea.ProgramOption{tea.WithAltScreen()}
}

// admit turns away connections without a terminal or beyond MaxSessions.
// The slot is reserved here and released when the connection ends.
func (s *SSHServer) admit(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		if _, _, ok := sess.Pty(); !ok {
			fmt.Fprintln(sess.Stderr(), "pacer: the dashboard needs a terminal, connect with ssh -t")
			_ = sess.Exit(1)
			return
		}
		if !s.reserve() {
			s.logger.Warn("connection refused, server full", "user", sess.User(), "active", s.active.Load())
			fmt.Fprintln(sess.Stderr(), "pacer: too many dashboards open, try again later")
			_ = sess.Exit(1)
			return
		}
		defer s.active.Add(-1)
		next(sess)
	}
}

// reserve claims a connection slot, failing when MaxSessions are taken.
func (s *SSHServer) reserve() bool {
	limit := int64(s.config.MaxSessions)
	for {
		n := s.active.Load()
		if limit > 0 && n >= limit {
			return false
		}
		if s.active.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// trackConnection logs connection lifetimes.
func (s *SSHServer) trackConnection(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		started := time.Now()
		s.logger.Info("connection opened",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
			"active", s.active.Load(),
		)
		defer func() {
			s.logger.Info("connection closed",
				"user", sess.User(),
				"duration", time.Since(started).Round(time.Second),
			)
		}()
		next(sess)
	}
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *SSHServer) Serve(ctx context.Context) error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	errc := make(chan error, 1)
	go func() {
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("tui: ssh server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "active", s.active.Load())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Active returns the number of open connections.
func (s *SSHServer) Active() int {
	return int(s.active.Load())
}

// Addr returns the configured listen address.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
