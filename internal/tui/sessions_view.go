package tui

import (
	"database/sql"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lotas/tabhost/internal/lifecycle"
	"github.com/lotas/tabhost/internal/snapshot"
	"github.com/lotas/tabhost/internal/storage"
)

type sessionsLoadedMsg struct {
	sessions []storage.SessionSummary
	err      error
}

type sessionDetailMsg struct {
	session *storage.SessionFull
	err     error
}

// SessionsView browses the session archive.
type SessionsView struct {
	mgr      *lifecycle.Manager
	db       *sql.DB
	sessions []storage.SessionSummary
	selected *storage.SessionFull
	list     listCursor
	detail   DetailModel
	width    int
	height   int
	loading  bool
	err      error

	focusDetail bool
}

func NewSessionsView(mgr *lifecycle.Manager, db *sql.DB) SessionsView {
	return SessionsView{mgr: mgr, db: db}
}

// Load refreshes the session list.
func (v *SessionsView) Load() tea.Cmd {
	if v.db == nil {
		return nil
	}
	v.loading = true
	db := v.db
	return func() tea.Msg {
		sessions, err := storage.ListSessions(db, storage.SourceLocal)
		return sessionsLoadedMsg{sessions: sessions, err: err}
	}
}

func (v *SessionsView) loadDetail(rev int) tea.Cmd {
	db := v.db
	return func() tea.Msg {
		s, err := storage.GetSession(db, storage.SourceLocal, rev)
		return sessionDetailMsg{session: s, err: err}
	}
}

func (v *SessionsView) SetSize(w, h int) {
	v.width = w
	v.height = h
	v.list.height = h - 2
	v.detail.Width = w - (w * TreeWidthPct / 100) - 3
	v.detail.Height = h - 2
}

func (v SessionsView) FocusDetail() bool { return v.focusDetail }

// Count returns the number of archived sessions.
func (v SessionsView) Count() int { return len(v.sessions) }

func (v SessionsView) Update(msg tea.Msg) (SessionsView, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionsLoadedMsg:
		v.loading = false
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		v.sessions = msg.sessions
		v.err = nil
		v.list.clamp(len(v.sessions))
		if len(v.sessions) > 0 {
			return v, v.loadDetail(v.sessions[v.list.cursor].Rev)
		}
		v.selected = nil
		return v, nil

	case sessionDetailMsg:
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		v.selected = msg.session
		v.detail.ResetScroll()
		return v, nil

	case tea.KeyMsg:
		if v.focusDetail {
			switch msg.String() {
			case "esc":
				v.focusDetail = false
				v.detail.ResetScroll()
			case "j", "down":
				v.detail.ContentLen = strings.Count(v.detailContent(), "\n") + 1
				v.detail.ScrollDown()
			case "k", "up":
				v.detail.ScrollUp()
			}
			return v, nil
		}

		switch msg.String() {
		case "j", "down":
			if v.list.down(len(v.sessions)) {
				return v, v.loadDetail(v.sessions[v.list.cursor].Rev)
			}
		case "k", "up":
			if v.list.up() {
				return v, v.loadDetail(v.sessions[v.list.cursor].Rev)
			}
		case "enter":
			v.focusDetail = true
		case "o":
			if len(v.sessions) == 0 {
				return v, nil
			}
			return v, restoreSession(v.mgr, v.db, v.sessions[v.list.cursor].Rev)
		case "d":
			if len(v.sessions) == 0 {
				return v, nil
			}
			db, rev := v.db, v.sessions[v.list.cursor].Rev
			return v, func() tea.Msg {
				if err := storage.DeleteSession(db, storage.SourceLocal, rev); err != nil {
					return opDoneMsg{err: err}
				}
				return opDoneMsg{status: fmt.Sprintf("Deleted session #%d", rev)}
			}
		case "c":
			return v, archiveSession(v.mgr, v.db)
		}
	}
	return v, nil
}

// archiveSession stores the open windows as a new session.
func archiveSession(mgr *lifecycle.Manager, db *sql.DB) tea.Cmd {
	return func() tea.Msg {
		var windows []storage.SessionWindow
		call(mgr, func() error {
			windows = snapshot.FromWindows(mgr.Snapshot())
			return nil
		})
		rev, created, _, err := snapshot.Create(db, storage.SourceLocal, windows, "")
		switch {
		case err != nil:
			return opDoneMsg{err: err}
		case !created:
			return opDoneMsg{status: "Nothing new to archive"}
		default:
			return opDoneMsg{status: fmt.Sprintf("Archived session #%d", rev)}
		}
	}
}

func (v SessionsView) viewList(width int) string {
	switch {
	case v.db == nil:
		return "Session archive unavailable."
	case v.loading && len(v.sessions) == 0:
		return "Loading sessions..."
	case v.err != nil:
		return fmt.Sprintf("Error: %v", v.err)
	case len(v.sessions) == 0:
		return "No sessions yet. Press c to archive the open windows."
	}

	rows := make([]string, len(v.sessions))
	for i, s := range v.sessions {
		label := ""
		if s.Label != "" {
			label = " " + s.Label
		}
		rows[i] = fmt.Sprintf("  #%-3d %s  (%d windows, %d tabs)%s",
			s.Rev, s.CreatedAt.Local().Format("2006-01-02 15:04"), s.WindowCount, s.TabCount, label)
	}
	return v.list.render(rows, width)
}

func (v SessionsView) detailContent() string {
	if v.selected == nil {
		return ""
	}

	labelStyle := lipgloss.NewStyle().Bold(true).Foreground(colors.Label)
	windowStyle := lipgloss.NewStyle().Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(colors.Dim)

	var b strings.Builder
	b.WriteString(labelStyle.Render("Session") + "\n")
	b.WriteString(fmt.Sprintf("Rev %d · %s · %d tabs\n\n",
		v.selected.Rev,
		v.selected.CreatedAt.Local().Format("2006-01-02 15:04"),
		v.selected.TabCount))

	for i, w := range v.selected.Windows {
		b.WriteString(windowStyle.Render(fmt.Sprintf("▼ Window %d (%d tabs)", i+1, len(w.Tabs))) + "\n")
		for j, t := range w.Tabs {
			title := t.Title
			if title == "" {
				title = t.URL
			}
			prefix := "    "
			if j == w.ActiveIndex {
				prefix = "  ● "
			}
			b.WriteString(dimStyle.Render(prefix+truncate(title, v.detail.Width-6)) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (v SessionsView) View() string {
	leftWidth := v.width * TreeWidthPct / 100
	detail := v.detail
	return lipgloss.JoinHorizontal(lipgloss.Top,
		pane(v.viewList(leftWidth), leftWidth, v.height-2, !v.focusDetail),
		pane(detail.ViewScrolled(v.detailContent()), v.detail.Width, v.height-2, v.focusDetail))
}

func (v SessionsView) Hints() string {
	return "↑↓/jk move · enter inspect · o restore · c archive now · d delete"
}
