package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lotas/tabhost/internal/types"
)

// DownloadsView shows the most recent downloads, newest last.
type DownloadsView struct {
	items  []types.Download
	list   listCursor
	width  int
	height int
}

func (v *DownloadsView) SetSize(w, h int) {
	v.width = w
	v.height = h
	v.list.height = h - 2
}

func (v *DownloadsView) SetItems(items []types.Download) {
	v.items = items
	v.list.clamp(len(items))
}

// Active returns how many downloads are still running.
func (v DownloadsView) Active() int {
	n := 0
	for _, d := range v.items {
		if !d.Done {
			n++
		}
	}
	return n
}

func (v DownloadsView) Update(msg tea.Msg) (DownloadsView, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "j", "down":
			v.list.down(len(v.items))
		case "k", "up":
			v.list.up()
		}
	}
	return v, nil
}

func progressBar(pct, width int) string {
	if width < 3 {
		return ""
	}
	if pct < 0 {
		return "[" + strings.Repeat("?", width-2) + "]"
	}
	filled := pct * (width - 2) / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-2-filled) + "]"
}

func downloadState(d types.Download) string {
	switch {
	case d.Failed:
		return "failed"
	case d.Done:
		return "done"
	case d.Percent() >= 0:
		return fmt.Sprintf("%d%%", d.Percent())
	default:
		return fmt.Sprintf("%d KB", d.BytesReceived/1024)
	}
}

func (v DownloadsView) View() string {
	failStyle := lipgloss.NewStyle().Foreground(colors.Bad)
	doneStyle := lipgloss.NewStyle().Foreground(colors.Good)

	var content string
	if len(v.items) == 0 {
		content = "No downloads."
	} else {
		rows := make([]string, len(v.items))
		for i, d := range v.items {
			state := downloadState(d)
			switch {
			case d.Failed:
				state = failStyle.Render(state)
			case d.Done:
				state = doneStyle.Render(state)
			}
			name := truncate(filepath.Base(d.Path), v.width/2)
			bar := ""
			if !d.Done {
				bar = " " + progressBar(d.Percent(), 22)
			}
			rows[i] = fmt.Sprintf("  %-*s%s  %s", v.width/2, name, bar, state)
		}
		content = v.list.render(rows, v.width-2)
	}
	return pane(content, v.width-2, v.height-2, true)
}

func (v DownloadsView) Hints() string {
	return "↑↓/jk move"
}
