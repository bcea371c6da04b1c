package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// pickerKind says what a confirmed choice is used for.
type pickerKind int

const (
	pickCategory pickerKind = iota
	pickProfile
	pickWindow
)

// Picker is a centered overlay list.
type Picker struct {
	Kind   pickerKind
	Title  string
	Items  []string
	Cursor int
	Width  int
	Height int
}

func NewPicker(kind pickerKind, title string, items []string, cursor int) Picker {
	if cursor < 0 || cursor >= len(items) {
		cursor = 0
	}
	return Picker{Kind: kind, Title: title, Items: items, Cursor: cursor}
}

func (m *Picker) MoveUp() {
	if m.Cursor > 0 {
		m.Cursor--
	}
}

func (m *Picker) MoveDown() {
	if m.Cursor < len(m.Items)-1 {
		m.Cursor++
	}
}

// SelectByNumber moves the cursor to the n-th item, 1-based.
func (m *Picker) SelectByNumber(n int) bool {
	if n < 1 || n > len(m.Items) {
		return false
	}
	m.Cursor = n - 1
	return true
}

// Selected returns the highlighted index, or -1 for an empty list.
func (m Picker) Selected() int {
	if m.Cursor >= 0 && m.Cursor < len(m.Items) {
		return m.Cursor
	}
	return -1
}

func (m Picker) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	selectedStyle := lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	normalStyle := lipgloss.NewStyle().Padding(0, 1)
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colors.Accent).
		Padding(1, 2)

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.Title) + "\n\n")

	if len(m.Items) == 0 {
		b.WriteString(normalStyle.Render("  (nothing to choose)") + "\n")
	}
	for i, item := range m.Items {
		if i == m.Cursor {
			b.WriteString(selectedStyle.Render("> "+item) + "\n")
		} else {
			b.WriteString(normalStyle.Render("  "+item) + "\n")
		}
	}

	b.WriteString("\n" + normalStyle.Render("↑↓ navigate · enter select · esc cancel"))

	return boxStyle.Render(b.String())
}
