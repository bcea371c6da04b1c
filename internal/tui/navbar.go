package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type ViewType int

const (
	ViewTabs ViewType = iota
	ViewHistory
	ViewBookmarks
	ViewDownloads
	ViewSessions
)

// TreeWidthPct is the percentage of terminal width used for the left (tree/list) pane.
const TreeWidthPct = 60

var viewNames = []string{"Tabs", "History", "Bookmarks", "Downloads", "Sessions"}

func renderNavbar(active ViewType, windowLabel string, counts [5]int, stats string, width int) string {
	activeStyle := lipgloss.NewStyle().Bold(true).Foreground(colors.Accent).Underline(true)
	inactiveStyle := lipgloss.NewStyle().Foreground(colors.Dim)
	countStyle := lipgloss.NewStyle().Foreground(colors.Label)
	windowStyle := lipgloss.NewStyle().Foreground(colors.Label)
	statsStyle := lipgloss.NewStyle().Foreground(colors.Dim)

	var tabs string
	for i, name := range viewNames {
		if i > 0 {
			tabs += inactiveStyle.Render(" │ ")
		}
		countSuffix := ""
		if counts[i] > 0 {
			countSuffix = fmt.Sprintf(" (%d)", counts[i])
		}
		key := fmt.Sprintf("%d ", i+1)
		if ViewType(i) == active {
			tabs += activeStyle.Render(key + name + countSuffix)
		} else {
			tabs += inactiveStyle.Render(key+name) + countStyle.Render(countSuffix)
		}
	}

	left := " " + tabs
	if stats != "" {
		left += "   " + statsStyle.Render(stats)
	}

	right := windowStyle.Render(windowLabel)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	padding := lipgloss.NewStyle().Width(gap)

	return left + padding.Render("") + right + " "
}
