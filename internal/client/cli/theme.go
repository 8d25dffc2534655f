package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Accent  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Bar     lipgloss.Color
	BarBg   lipgloss.Color
}

var darkTheme = Theme{
	Accent:  lipgloss.Color("#F5A9B8"), // blush
	Success: lipgloss.Color("#00D787"),
	Error:   lipgloss.Color("#FF5F87"),
	Hint:    lipgloss.Color("#8A8A8A"),
	Bar:     lipgloss.Color("#F5A9B8"),
	BarBg:   lipgloss.Color("#3A3A3A"),
}

var lightTheme = Theme{
	Accent:  lipgloss.Color("#AF005F"),
	Success: lipgloss.Color("#008700"),
	Error:   lipgloss.Color("#D70000"),
	Hint:    lipgloss.Color("#6C6C6C"),
	Bar:     lipgloss.Color("#AF005F"),
	BarBg:   lipgloss.Color("#D0D0D0"),
}

func themeFor(dark bool) Theme {
	if dark {
		return darkTheme
	}
	return lightTheme
}

func (t Theme) accent(s string) string {
	return lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Render(s)
}

func (t Theme) success(s string) string {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true).Render(s)
}

func (t Theme) error(s string) string {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true).Render(s)
}

func (t Theme) hint(s string) string {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true).Render(s)
}

const barWidth = 30

// progressBar renders pct (0-100) as a fixed-width bar followed by the
// percentage.
func (t Theme) progressBar(pct int) string {
	pct = max(0, min(100, pct))
	filled := barWidth * pct / 100

	done := lipgloss.NewStyle().Foreground(t.Bar).Render(strings.Repeat("█", filled))
	rest := lipgloss.NewStyle().Foreground(t.BarBg).Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("%s%s %3d%%", done, rest, pct)
}
