// Package tui provides the live dashboard of a pacing session: the risk
// score, the director's level and multipliers, and recent coach tips.
// It runs locally or per connection behind an SSH server.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// frameInterval is the wall-clock time between dashboard frames.
const frameInterval = 100 * time.Millisecond

// TickMsg is sent to advance the simulation by one dashboard frame.
type TickMsg time.Time

// tickCmd returns a Bubble Tea command that sends one tick message after interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
