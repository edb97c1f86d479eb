package tui

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Title      lipgloss.Style
	ModePill   lipgloss.Style
	Handle     lipgloss.Style
	Display    lipgloss.Style
	Timestamp  lipgloss.Style
	Body       lipgloss.Style
	Counts     lipgloss.Style
	ActiveLine lipgloss.Style
	Liked      lipgloss.Style
	Reposted   lipgloss.Style
	Annotation lipgloss.Style
	StatusOK   lipgloss.Style
	StatusWarn lipgloss.Style
	StatusLoad lipgloss.Style
	Prompt     lipgloss.Style
	Unread     lipgloss.Style
}

func DefaultTheme() Theme {
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpYellow := lipgloss.Color("#f9e2af")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpLavender := lipgloss.Color("#b4befe")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")

	return Theme{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		ModePill:   lipgloss.NewStyle().Foreground(cpLavender).Background(cpSurface0).Padding(0, 1),
		Handle:     lipgloss.NewStyle().Foreground(cpTeal),
		Display:    lipgloss.NewStyle().Bold(true).Foreground(cpText),
		Timestamp:  lipgloss.NewStyle().Foreground(cpOverlay1),
		Body:       lipgloss.NewStyle().Foreground(cpSubtext1),
		Counts:     lipgloss.NewStyle().Foreground(cpOverlay1),
		ActiveLine: lipgloss.NewStyle().Background(cpSurface0).Foreground(cpText),
		Liked:      lipgloss.NewStyle().Foreground(cpRed),
		Reposted:   lipgloss.NewStyle().Foreground(cpGreen),
		Annotation: lipgloss.NewStyle().Foreground(cpRed),
		StatusOK:   lipgloss.NewStyle().Foreground(cpGreen),
		StatusWarn: lipgloss.NewStyle().Foreground(cpRed),
		StatusLoad: lipgloss.NewStyle().Foreground(cpPeach),
		Prompt:     lipgloss.NewStyle().Foreground(cpYellow),
		Unread:     lipgloss.NewStyle().Bold(true).Foreground(cpYellow),
	}
}

func (t Theme) RenderActiveLine(active bool, line string) string {
	if !active {
		return line
	}
	return t.ActiveLine.Render(line)
}
