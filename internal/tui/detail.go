package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/lotas/tabhost/internal/reader"
	"github.com/lotas/tabhost/internal/types"
)

// DetailModel shows information about the selected item.
type DetailModel struct {
	Width      int
	Height     int
	Scroll     int // scroll offset
	ContentLen int // total lines in content
}

// ScrollUp adjusts the scroll offset upward.
func (m *DetailModel) ScrollUp() {
	if m.Scroll > 0 {
		m.Scroll--
	}
}

// ScrollDown adjusts the scroll offset downward.
func (m *DetailModel) ScrollDown() {
	if m.Scroll < m.ContentLen-m.Height {
		m.Scroll++
	}
	if m.Scroll < 0 {
		m.Scroll = 0
	}
}

// ResetScroll resets the scroll offset to 0.
func (m *DetailModel) ResetScroll() {
	m.Scroll = 0
}

// wrap breaks s into lines no wider than width.
func wrap(s string, width int) string {
	if width < 1 {
		return s
	}
	var b strings.Builder
	r := []rune(s)
	for len(r) > width {
		b.WriteString(string(r[:width]) + "\n")
		r = r[width:]
	}
	b.WriteString(string(r))
	return b.String()
}

func (m DetailModel) ViewTab(tab *types.TabInfo) string {
	if tab == nil {
		return ""
	}

	labelStyle := lipgloss.NewStyle().Bold(true).Foreground(colors.Label)
	privateStyle := lipgloss.NewStyle().Foreground(colors.Private).Bold(true)

	var b strings.Builder

	b.WriteString(labelStyle.Render("Title") + "\n")
	b.WriteString(wrap(tab.Tooltip, m.Width-2) + "\n\n")

	b.WriteString(labelStyle.Render("URL") + "\n")
	b.WriteString(wrap(tab.URL, m.Width-2) + "\n\n")

	state := "background"
	switch {
	case tab.Active:
		state = "active"
	case tab.Suspended:
		state = "suspended"
	}
	b.WriteString(labelStyle.Render("State") + "\n")
	b.WriteString(state + "\n")

	if tab.Private {
		b.WriteString("\n" + privateStyle.Render("Private: not recorded in history") + "\n")
	}
	return b.String()
}

func (m DetailModel) ViewWindow(w *types.WindowInfo) string {
	if w == nil {
		return ""
	}

	labelStyle := lipgloss.NewStyle().Bold(true).Foreground(colors.Label)

	var b strings.Builder
	b.WriteString(labelStyle.Render("Window") + "\n")
	b.WriteString(w.ID + "\n\n")

	b.WriteString(labelStyle.Render("Tabs") + "\n")
	b.WriteString(fmt.Sprintf("%d\n\n", len(w.Tabs)))

	mode := "normal"
	if w.Private {
		mode = "private"
	}
	b.WriteString(labelStyle.Render("Mode") + "\n")
	b.WriteString(mode + "\n\n")

	if w.Status != "" {
		b.WriteString(labelStyle.Render("Status") + "\n")
		b.WriteString(wrap(w.Status, m.Width-2) + "\n")
	}
	return b.String()
}

// ViewArticle renders an extracted article as terminal markdown.
func (m DetailModel) ViewArticle(a reader.Article) string {
	raw := "# " + a.Title + "\n\n"
	if a.Byline != "" {
		raw += "_" + a.Byline + "_\n\n"
	}
	raw += a.Text + "\n"
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(colors.markdown),
		glamour.WithWordWrap(m.Width-2),
	)
	if err != nil {
		return raw
	}
	rendered, err := r.Render(raw)
	if err != nil {
		return raw
	}
	return rendered
}

// ViewScrolled applies scroll offset and height truncation to the content string.
func (m *DetailModel) ViewScrolled(content string) string {
	if content == "" {
		return content
	}

	lines := strings.Split(content, "\n")
	m.ContentLen = len(lines)

	maxScroll := m.ContentLen - m.Height
	if maxScroll < 0 {
		maxScroll = 0
	}
	if m.Scroll > maxScroll {
		m.Scroll = maxScroll
	}
	if m.Scroll < 0 {
		m.Scroll = 0
	}

	end := m.Scroll + m.Height
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[m.Scroll:end], "\n")
}
