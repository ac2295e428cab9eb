package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Title      lipgloss.Style
	Section    lipgloss.Style
	ActiveLine lipgloss.Style
	MetaLabel  lipgloss.Style
	MetaValue  lipgloss.Style
	StateIdle  lipgloss.Style
	StateWarn  lipgloss.Style
	StateLoad  lipgloss.Style

	ToggleOn  lipgloss.Style
	ToggleOff lipgloss.Style
	Disabled  lipgloss.Style
	Limit     lipgloss.Style
}

func Default() Theme {
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpYellow := lipgloss.Color("#f9e2af")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay0 := lipgloss.Color("#6c7086")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")

	return Theme{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		Section:    lipgloss.NewStyle().Bold(true).Foreground(cpTeal),
		ActiveLine: lipgloss.NewStyle().Background(cpSurface0).Foreground(cpText),
		MetaLabel:  lipgloss.NewStyle().Foreground(cpOverlay1),
		MetaValue:  lipgloss.NewStyle().Foreground(cpSubtext1),
		StateIdle:  lipgloss.NewStyle().Foreground(cpGreen),
		StateWarn:  lipgloss.NewStyle().Foreground(cpRed),
		StateLoad:  lipgloss.NewStyle().Foreground(cpPeach),
		ToggleOn:   lipgloss.NewStyle().Bold(true).Foreground(cpGreen),
		ToggleOff:  lipgloss.NewStyle().Foreground(cpOverlay1),
		Disabled:   lipgloss.NewStyle().Foreground(cpOverlay0),
		Limit:      lipgloss.NewStyle().Bold(true).Foreground(cpYellow),
	}
}

// StyleToggle renders a checkbox for a boolean field. Fields of a powered-off
// panel are dimmed.
func (t Theme) StyleToggle(on, powered bool) string {
	box := "[ ]"
	style := t.ToggleOff
	if on {
		box = "[x]"
		style = t.ToggleOn
	}
	if !powered {
		style = t.Disabled
	}
	return style.Render(box)
}

func (t Theme) RenderActiveLine(active bool, line string) string {
	if !active {
		return line
	}
	return t.ActiveLine.Render(line)
}
