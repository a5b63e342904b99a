package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/rss-reader/internal/render"
)

// renderHeader returns a styled header with an optional muted subtitle,
// both cut to width.
func (a *App) renderHeader(title, subtitle string) string {
	width := a.width - 2
	rows := []string{a.theme.Header.Render(render.Truncate(title, width))}
	if subtitle != "" {
		rows = append(rows, a.theme.Meta.Render(render.Truncate(subtitle, width)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderInputFrame draws a rounded border around a rendered input.
func (a *App) renderInputFrame(inputView string, focused bool, contentWidth int) string {
	border := a.theme.Muted
	if focused {
		border = a.theme.Accent
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

// renderCentered centers content in the area above the status bar.
func (a *App) renderCentered(content string) string {
	return lipgloss.NewStyle().
		Width(a.width).
		Height(a.contentHeight()).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func (a *App) contentHeight() int {
	return max(a.height-3, 1)
}
