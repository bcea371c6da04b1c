package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// listCursor tracks selection and scrolling for a flat list.
type listCursor struct {
	cursor int
	offset int
	height int
}

func (l *listCursor) up() bool {
	if l.cursor > 0 {
		l.cursor--
		l.adjust()
		return true
	}
	return false
}

func (l *listCursor) down(n int) bool {
	if l.cursor < n-1 {
		l.cursor++
		l.adjust()
		return true
	}
	return false
}

// clamp keeps the cursor inside a list of n rows.
func (l *listCursor) clamp(n int) {
	if l.cursor >= n {
		l.cursor = n - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.adjust()
}

func (l *listCursor) adjust() {
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	visible := l.height - 2
	if visible < 1 {
		visible = 1
	}
	if l.cursor >= l.offset+visible {
		l.offset = l.cursor - visible + 1
	}
}

// render draws rows[offset:offset+height] with the cursor row highlighted
// across width.
func (l listCursor) render(rows []string, width int) string {
	cursorStyle := lipgloss.NewStyle().Bold(true).Reverse(true)
	var b strings.Builder
	end := l.offset + l.height
	if end > len(rows) {
		end = len(rows)
	}
	for i := l.offset; i < end; i++ {
		line := rows[i]
		if i == l.cursor {
			for lipgloss.Width(line) < width {
				line += " "
			}
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max < 2 || len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func pane(content string, width, height int, focused bool) string {
	color := colors.Dim
	if focused {
		color = colors.Accent
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Width(width).
		Height(height).
		Render(content)
}
