package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/arcade-pacer/internal/core"
	"github.com/vovakirdan/arcade-pacer/internal/session"
	"github.com/vovakirdan/arcade-pacer/internal/sim"
)

// Dashboard layout constants
const (
	minWidthForSideBySide = 90 // Minimum width to show panels side by side
	maxTips               = 50 // Tips kept in the log
	maxSpeed              = 32 // Engine ticks per frame
	feedBuffer            = 256
)

// Source builds a fresh session and the runner that drives it. It is
// called once at start and again on every restart.
type Source func() (*session.Session, *sim.Runner, error)

// Model is the Bubble Tea model of the dashboard.
type Model struct {
	source Source
	title  string

	sess   *session.Session
	runner *sim.Runner
	feed   *session.Feed

	frame     session.Frame
	tips      []core.CoachMessage
	changes   int // Multiplier adjustments seen
	anomalies int

	risk   progress.Model
	table  table.Model
	help   help.Model
	keys   KeyMap
	width  int
	height int

	speed    int
	paused   bool
	limitMs  uint64 // Stop advancing after this much simulated time, 0 = no limit
	err      error
	quitting bool
}

// NewModel creates a dashboard. title is shown in the header.
func NewModel(source Source, title string, width, height int, limitMs uint64) Model {
	h := help.New()
	h.ShowAll = false

	m := Model{
		source:  source,
		title:   title,
		risk:    progress.New(progress.WithGradient("#5A56E0", "#EE6FF8"), progress.WithoutPercentage()),
		help:    h,
		keys:    DefaultKeyMap(),
		width:   width,
		height:  height,
		speed:   1,
		limitMs: limitMs,
	}
	m.table = m.createTable()
	m.restart()
	return m
}

// restart replaces the session with a fresh one from the source.
func (m *Model) restart() {
	if m.feed != nil {
		m.feed.Close()
	}
	m.sess, m.runner, m.feed = nil, nil, nil
	m.frame = session.Frame{Multipliers: core.IdentityMultipliers()}
	m.tips = nil
	m.changes, m.anomalies = 0, 0
	m.updateTableRows()

	sess, runner, err := m.source()
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.sess, m.runner = sess, runner
	m.feed = session.NewFeed(feedBuffer)
	sess.Subscribe(m.feed.Handler())
}

// createTable creates the tip log table sized to the window.
func (m *Model) createTable() table.Model {
	msgWidth := m.width - 30
	if m.width >= minWidthForSideBySide {
		msgWidth = m.width - 40 - 30
	}
	if msgWidth < 20 {
		msgWidth = 20
	}

	columns := []table.Column{
		{Title: "Time", Width: 6},
		{Title: "Reason", Width: 14},
		{Title: "Tip", Width: msgWidth},
	}

	height := m.height - 16
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// updateTableRows shows the newest tips first.
func (m *Model) updateTableRows() {
	rows := make([]table.Row, 0, len(m.tips))
	for i := len(m.tips) - 1; i >= 0; i-- {
		tip := m.tips[i]
		rows = append(rows, table.Row{formatClock(tip.AtMs), string(tip.ReasonCode), tip.Message})
	}
	m.table.SetRows(rows)
}

// Init starts the frame loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(frameInterval)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			return m, nil
		case key.Matches(msg, m.keys.Step):
			if m.paused {
				m.advance(1)
			}
			return m, nil
		case key.Matches(msg, m.keys.Faster):
			m.speed = min(m.speed*2, maxSpeed)
			return m, nil
		case key.Matches(msg, m.keys.Slower):
			m.speed = max(m.speed/2, 1)
			return m, nil
		case key.Matches(msg, m.keys.Restart):
			m.restart()
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		if !m.paused {
			m.advance(m.speed)
		}
		return m, tickCmd(frameInterval)
	}

	return m, nil
}

// advance runs up to n engine ticks and drains the feed.
func (m *Model) advance(n int) {
	if m.runner == nil {
		return
	}
	for i := 0; i < n && !m.Finished(); i++ {
		m.frame = m.runner.Next()
	}
	if err := m.runner.Err(); err != nil && m.err == nil {
		m.err = err
	}
	m.drain()
}

// drain consumes every queued bus event without blocking.
func (m *Model) drain() {
	tipsChanged := false
	for {
		select {
		case evt := <-m.feed.Events():
			switch e := evt.(type) {
			case session.MultipliersEvent:
				if e.Changed {
					m.changes++
				}
			case session.TipEvent:
				m.tips = append(m.tips, e.Tip)
				if len(m.tips) > maxTips {
					m.tips = m.tips[len(m.tips)-maxTips:]
				}
				tipsChanged = true
			case session.AnomalyEvent:
				m.anomalies++
			}
		default:
			if tipsChanged {
				m.updateTableRows()
			}
			return
		}
	}
}

// Finished reports whether the run has ended, by game over or time limit.
func (m Model) Finished() bool {
	if m.runner == nil {
		return true
	}
	return m.runner.Over() || (m.limitMs > 0 && m.frame.AtMs >= m.limitMs)
}

// Frame returns the last engine frame.
func (m Model) Frame() session.Frame {
	return m.frame
}

// Tips returns the coach messages seen so far, oldest first.
func (m Model) Tips() []core.CoachMessage {
	return m.tips
}

// Err returns the error that stopped the session, if any.
func (m Model) Err() error {
	return m.err
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(centerText(titleStyle.Render(m.title), m.width))
	b.WriteString("\n")
	b.WriteString(centerText(dimStyle.Render(m.status()), m.width))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(tightStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n\n")
	}

	state := panelStyle.Render(m.renderState())
	mult := panelStyle.Render(renderMultipliers(m.frame.Multipliers))
	if m.width >= minWidthForSideBySide {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, state, "  ", mult))
	} else {
		b.WriteString(state)
		b.WriteString("\n")
		b.WriteString(mult)
	}
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(m.renderTips()))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// status is the one-line header under the title.
func (m Model) status() string {
	if m.sess == nil {
		return "no session"
	}
	state := fmt.Sprintf("x%d", m.speed)
	switch {
	case m.runner.Over():
		state = "GAME OVER"
	case m.Finished():
		state = "DONE"
	case m.paused:
		state = "PAUSED"
	}
	return fmt.Sprintf("%s  mode %s  seed %d  %s", formatClock(m.frame.AtMs), m.sess.Mode(), m.sess.Seed(), state)
}

// renderState shows the risk score, level and counters.
func (m Model) renderState() string {
	width := 30
	if m.width > 0 && m.width < minWidthForSideBySide {
		width = max(10, m.width-20)
	}
	m.risk.Width = width

	var b strings.Builder
	b.WriteString(labelStyle.Render("risk  "))
	b.WriteString(m.risk.ViewAs(m.frame.Score))
	b.WriteString(valueStyle.Render(fmt.Sprintf(" %.2f", m.frame.Score)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("level "))
	b.WriteString(renderLevel(m.frame.Level))
	b.WriteString("\n")

	if m.sess != nil {
		stats := m.sess.Stats()
		res := m.runner.Result()
		b.WriteString(labelStyle.Render(fmt.Sprintf("hits %d  misses %d  timeouts %d",
			res.Hits, res.Misses, res.Timeouts)))
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(fmt.Sprintf("reaction %.0fms  hp %.0f%%  adjustments %d",
			stats.ReactionMs, stats.HP*100, m.changes)))
		if m.anomalies > 0 {
			b.WriteString("\n")
			b.WriteString(tightStyle.Render(fmt.Sprintf("anomalies %d", m.anomalies)))
		}
	}
	return b.String()
}

// renderTips renders the tip table or an empty message.
func (m Model) renderTips() string {
	if len(m.tips) == 0 {
		return dimStyle.Italic(true).Render("No tips yet.")
	}
	return m.table.View()
}

// Run starts a local dashboard and blocks until the user quits.
func Run(source Source, title string, width, height int, limitMs uint64) (Model, error) {
	p := tea.NewProgram(
		NewModel(source, title, width, height, limitMs),
		tea.WithAltScreen(),
	)

	final, err := p.Run()
	if err != nil {
		return Model{}, err
	}
	m, ok := final.(Model)
	if !ok {
		return Model{}, nil
	}
	return m, m.Err()
}
