package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/arcade-pacer/internal/core"
)

// levelStyles colors the director level from calm to critical.
var levelStyles = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),  // Bright green
	lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),  // Bright yellow
	lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true), // Orange
	lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),   // Bright red
}

var levelNames = []string{"CRUISE", "WATCH", "EASE", "RESCUE"}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	easedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")) // Cyan, easier than baseline

	tightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")) // Pink, harder than baseline

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// renderLevel formats a director level as a colored badge.
func renderLevel(level uint8) string {
	i := int(level)
	if i >= len(levelStyles) {
		i = len(levelStyles) - 1
	}
	return levelStyles[i].Render(fmt.Sprintf("L%d %s", level, levelNames[i]))
}

// multiplierLine describes how one multiplier should be read.
type multiplierLine struct {
	label    string
	value    float64
	identity float64
	easier   bool // True when values above identity make the game easier
	additive bool
}

func multiplierLines(m core.Multipliers) []multiplierLine {
	return []multiplierLine{
		{label: "spawn interval", value: m.SpawnIntervalMul, identity: 1, easier: true},
		{label: "target speed", value: m.SpeedMul, identity: 1},
		{label: "hit window", value: m.HitWindowMul, identity: 1, easier: true},
		{label: "wrong targets", value: m.WrongAdd, additive: true},
		{label: "junk targets", value: m.JunkAdd, additive: true},
	}
}

// renderMultipliers formats the multipliers as aligned rows, colored by
// whether each one eases or tightens the game.
func renderMultipliers(m core.Multipliers) string {
	var b strings.Builder
	for i, l := range multiplierLines(m) {
		if i > 0 {
			b.WriteString("\n")
		}
		var text string
		if l.additive {
			text = fmt.Sprintf("%+.3f", l.value)
		} else {
			text = fmt.Sprintf("x%.3f", l.value)
		}

		style := valueStyle
		switch delta := l.value - l.identity; {
		case delta > 1e-9 && l.easier, delta < -1e-9 && !l.easier:
			style = easedStyle
		case delta > 1e-9, delta < -1e-9:
			style = tightStyle
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-15s", l.label)))
		b.WriteString(style.Render(text))
	}
	return b.String()
}

// formatClock renders simulated milliseconds as m:ss.
func formatClock(ms uint64) string {
	s := ms / 1000
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// centerText centers text within the given width.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	padding := (width - w) / 2
	return strings.Repeat(" ", padding) + text
}
