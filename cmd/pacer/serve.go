package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/arcade-pacer/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
	flagServeLimit  int
	flagMaxSessions int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the live dashboard over SSH",
	Long: `Start an SSH server that shows the live dashboard to every connection.

Each SSH connection gets its own session and synthetic player. Sessions
are independent; with --seed 0 in play mode every connection gets its own
clock-derived seed.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.pacer/host_key

Examples:
  pacer serve                           # Listen on :23235 with auto-generated key
  pacer serve --ssh :2222               # Listen on port 2222
  pacer serve --profile rhythm --skill 0.5

Users can connect with:
  ssh localhost -p 23235`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	addPlayerFlags(serveCmd)
	defaults := tui.DefaultSSHServerConfig()
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", defaults.Address, "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().IntVar(&flagServeLimit, "limit", 0, "Stop each session after this many simulated seconds (0 = no limit)")
	serveCmd.Flags().IntVar(&flagMaxSessions, "max-sessions", defaults.MaxSessions, "Maximum concurrent dashboards (0 = unlimited)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	e, err := loadEngine()
	if err != nil {
		return err
	}
	player, err := playerConfig(cmd)
	if err != nil {
		return err
	}

	cfg := tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: flagHostKey,
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
		LimitMs:     uint64(flagServeLimit) * 1000,
		MaxSessions: flagMaxSessions,
	}
	sources := func(user string) (tui.Source, string) {
		title := fmt.Sprintf("%s - adaptive pacing for %s", e.profile.Title(), user)
		return e.source(flagSeed, player, flagTickMs), title
	}

	server, err := tui.NewSSHServer(cfg, sources, logger.WithPrefix("pacer-ssh"))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Connect with: ssh localhost -p %s\n", portOf(cfg.Address))
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Serve(ctx)
}

// portOf returns the port part of a host:port address.
func portOf(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[i+1:]
		}
	}
	return addr
}
