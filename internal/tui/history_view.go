package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lotas/tabhost/internal/lifecycle"
	"github.com/lotas/tabhost/internal/types"
)

// HistoryView lists recent visits, newest first.
type HistoryView struct {
	mgr     *lifecycle.Manager
	entries []types.HistoryEntry
	list    listCursor
	width   int
	height  int
}

func NewHistoryView(mgr *lifecycle.Manager) HistoryView {
	return HistoryView{mgr: mgr}
}

func (v *HistoryView) SetSize(w, h int) {
	v.width = w
	v.height = h
	v.list.height = h - 2
}

func (v *HistoryView) SetEntries(entries []types.HistoryEntry) {
	v.entries = entries
	v.list.clamp(len(entries))
}

func (v HistoryView) selected() *types.HistoryEntry {
	if v.list.cursor >= 0 && v.list.cursor < len(v.entries) {
		return &v.entries[v.list.cursor]
	}
	return nil
}

// Update handles keys. windowID is the window new tabs open in.
func (v HistoryView) Update(msg tea.Msg, windowID string) (HistoryView, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	switch key.String() {
	case "j", "down":
		v.list.down(len(v.entries))
	case "k", "up":
		v.list.up()
	case "enter", "o":
		e := v.selected()
		if e == nil || windowID == "" {
			return v, nil
		}
		mgr, url, title := v.mgr, e.URL, e.Title
		return v, withWindow(mgr, windowID, "Opened "+url, func(w *lifecycle.Window) error {
			_, err := mgr.OpenTab(w, url, title, w.Private)
			return err
		})
	case "D":
		mgr := v.mgr
		return v, func() tea.Msg {
			if err := mgr.Settings().ClearHistory(); err != nil {
				return opDoneMsg{err: err}
			}
			return opDoneMsg{status: "History cleared"}
		}
	}
	return v, nil
}

func (v HistoryView) View() string {
	leftWidth := v.width * TreeWidthPct / 100
	rightWidth := v.width - leftWidth - 3

	var left string
	if len(v.entries) == 0 {
		left = "No history yet."
	} else {
		rows := make([]string, len(v.entries))
		for i, e := range v.entries {
			when := e.Time().Local().Format("01-02 15:04")
			title := e.Title
			if title == "" {
				title = e.URL
			}
			rows[i] = fmt.Sprintf("  %s  %s", when, truncate(title, leftWidth-16))
		}
		left = v.list.render(rows, leftWidth)
	}

	var right string
	if e := v.selected(); e != nil {
		labelStyle := lipgloss.NewStyle().Bold(true).Foreground(colors.Label)
		var b strings.Builder
		b.WriteString(labelStyle.Render("Title") + "\n" + wrap(e.Title, rightWidth-2) + "\n\n")
		b.WriteString(labelStyle.Render("URL") + "\n" + wrap(e.URL, rightWidth-2) + "\n\n")
		b.WriteString(labelStyle.Render("Visited") + "\n" + e.Time().Local().Format(time.RFC1123) + "\n")
		right = b.String()
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		pane(left, leftWidth, v.height-2, true),
		pane(right, rightWidth, v.height-2, false))
}

func (v HistoryView) Hints() string {
	return "↑↓/jk move · enter open in tab · D clear history"
}
