package tui

import (
	"database/sql"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lotas/tabhost/internal/analyzer"
	"github.com/lotas/tabhost/internal/lifecycle"
	"github.com/lotas/tabhost/internal/types"
)

// Options configures the terminal shell.
type Options struct {
	Manager      *lifecycle.Manager
	DB           *sql.DB // session archive; nil hides the sessions pane
	PollInterval time.Duration
}

// Model is the root bubbletea model. It never touches manager state
// directly; every read and write goes through the manager loop.
type Model struct {
	mgr  *lifecycle.Manager
	db   *sql.DB
	poll time.Duration

	view      ViewType
	tabs      TabsView
	history   HistoryView
	bookmarks BookmarksView
	downloads DownloadsView
	sessions  SessionsView

	windows    []types.WindowInfo
	categories []string
	profiles   []types.Profile

	picker       Picker
	showPicker   bool
	pickerWindow string

	status   string
	err      error
	ready    bool
	width    int
	height   int
	darkMode bool
	zoom     float64
}

func NewModel(opts Options) Model {
	poll := opts.PollInterval
	if poll <= 0 {
		poll = lifecycle.DefaultPollInterval
	}
	return Model{
		mgr:       opts.Manager,
		db:        opts.DB,
		poll:      poll,
		tabs:      NewTabsView(opts.Manager),
		history:   NewHistoryView(opts.Manager),
		bookmarks: NewBookmarksView(opts.Manager),
		sessions:  NewSessionsView(opts.Manager, opts.DB),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchState(m.mgr), tick(m.poll), m.sessions.Load())
}

// WindowSize is the last terminal size the program reported. It is zero
// until the first resize.
func (m Model) WindowSize() types.WindowSize {
	return types.WindowSize{Width: m.width, Height: m.height}
}

// targetWindow is where history and bookmark entries open.
func (m Model) targetWindow() string {
	if id := m.tabs.tree.SelectedWindowID(); id != "" {
		return id
	}
	if len(m.windows) > 0 {
		return m.windows[0].ID
	}
	return ""
}

func (m *Model) resize() {
	contentHeight := m.height - 3 // navbar + status + hints
	m.tabs.SetSize(m.width, contentHeight)
	m.history.SetSize(m.width, contentHeight)
	m.bookmarks.SetSize(m.width, contentHeight)
	m.downloads.SetSize(m.width, contentHeight)
	m.sessions.SetSize(m.width, contentHeight)
	m.picker.Width = m.width
	m.picker.Height = m.height
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tickMsg:
		return m, tea.Batch(fetchState(m.mgr), tick(m.poll))

	case stateMsg:
		m.ready = true
		m.windows = msg.st.windows
		m.tabs.SetWindows(msg.st.windows)
		m.history.SetEntries(msg.st.history)
		m.bookmarks.SetTree(msg.st.bookmarks)
		m.downloads.SetItems(msg.st.downloads)
		m.zoom = msg.st.zoom
		m.darkMode = msg.st.darkMode
		setDarkMode(m.darkMode)
		if msg.st.bookmarks != nil {
			m.categories = msg.st.bookmarks.Categories()
		}
		return m, nil

	case opDoneMsg:
		m.err = msg.err
		if msg.status != "" {
			m.status = msg.status
		}
		cmds := []tea.Cmd{fetchState(m.mgr)}
		if m.view == ViewSessions {
			cmds = append(cmds, m.sessions.Load())
		}
		return m, tea.Batch(cmds...)

	case readerMsg:
		var cmd tea.Cmd
		m.tabs, cmd = m.tabs.Update(msg)
		return m, cmd

	case sessionsLoadedMsg, sessionDetailMsg:
		var cmd tea.Cmd
		m.sessions, cmd = m.sessions.Update(msg)
		return m, cmd

	case profilesMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.profiles = msg.profiles
		items := make([]string, len(msg.profiles))
		cursor := 0
		for i, p := range msg.profiles {
			items[i] = p.Name
			if p.IsDefault {
				items[i] += " (default)"
				cursor = i
			}
		}
		m.openPicker(NewPicker(pickProfile, "Import from Firefox profile:", items, cursor))
		return m, nil

	case showCategoryPickerMsg:
		m.pickerWindow = msg.windowID
		m.openPicker(NewPicker(pickCategory, "Bookmark active tab in:", m.categories, 0))
		return m, nil

	case tea.KeyMsg:
		if m.showPicker {
			return m.updatePicker(msg)
		}
		if m.view == ViewTabs && m.tabs.Typing() {
			var cmd tea.Cmd
			m.tabs, cmd = m.tabs.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "1", "2", "3", "4", "5":
			m.view = ViewType(msg.String()[0] - '1')
			if m.view == ViewSessions {
				return m, m.sessions.Load()
			}
			return m, nil
		case "i":
			return m, discoverProfiles()
		case "T":
			m.darkMode = !m.darkMode
			setDarkMode(m.darkMode)
			on, mgr := m.darkMode, m.mgr
			return m, do(mgr, themeStatus(on), func() error {
				return mgr.Settings().SetDarkMode(on)
			})
		case "+", "=":
			return m, do(m.mgr, "", m.mgr.ZoomIn)
		case "-":
			return m, do(m.mgr, "", m.mgr.ZoomOut)
		case "0":
			return m, do(m.mgr, "Zoom reset", m.mgr.ZoomReset)
		case "w":
			items := make([]string, len(m.windows))
			for i := range m.windows {
				items[i] = windowLabel(&m.windows[i])
			}
			m.openPicker(NewPicker(pickWindow, "Go to window:", items, 0))
			return m, nil
		}
		return m.updateView(msg)
	}

	return m, nil
}

func (m *Model) openPicker(p Picker) {
	p.Width = m.width
	p.Height = m.height
	m.picker = p
	m.showPicker = true
}

func (m Model) updateView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ViewTabs:
		m.tabs, cmd = m.tabs.Update(msg)
	case ViewHistory:
		m.history, cmd = m.history.Update(msg, m.targetWindow())
	case ViewBookmarks:
		m.bookmarks, cmd = m.bookmarks.Update(msg, m.targetWindow())
	case ViewDownloads:
		m.downloads, cmd = m.downloads.Update(msg)
	case ViewSessions:
		m.sessions, cmd = m.sessions.Update(msg)
	}
	return m, cmd
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.picker.MoveUp()
	case "down", "j":
		m.picker.MoveDown()
	case "esc":
		m.showPicker = false
	case "ctrl+c":
		return m, tea.Quit
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if m.picker.SelectByNumber(int(msg.String()[0] - '0')) {
			return m.confirmPicker()
		}
	case "enter":
		return m.confirmPicker()
	}
	return m, nil
}

func (m Model) confirmPicker() (tea.Model, tea.Cmd) {
	m.showPicker = false
	i := m.picker.Selected()
	if i < 0 {
		return m, nil
	}
	switch m.picker.Kind {
	case pickCategory:
		category := m.categories[i]
		mgr := m.mgr
		return m, withWindow(mgr, m.pickerWindow, "Bookmarked in "+category, func(w *lifecycle.Window) error {
			return mgr.AddBookmarkForActive(w, category, "")
		})
	case pickProfile:
		p := m.profiles[i]
		m.status = "Importing " + p.Name + "..."
		return m, importProfile(m.mgr, p)
	case pickWindow:
		if i < len(m.windows) {
			m.tabs.tree.FocusWindow(m.windows[i].ID)
			m.view = ViewTabs
		}
	}
	return m, nil
}

func themeStatus(dark bool) string {
	if dark {
		return "Dark theme"
	}
	return "Light theme"
}

func importStatus(profile string, bookmarks, windows int) string {
	return fmt.Sprintf("Imported %d bookmarks and %d windows from %s", bookmarks, windows, profile)
}

func restoreStatus(rev, tabs int) string {
	if rev == 0 {
		return fmt.Sprintf("Restored %d tabs from the latest session", tabs)
	}
	return fmt.Sprintf("Restored %d tabs from session #%d", tabs, rev)
}

func (m Model) counts() [5]int {
	tabs := 0
	for _, w := range m.windows {
		tabs += len(w.Tabs)
	}
	return [5]int{tabs, len(m.history.entries), m.bookmarks.Count(), m.downloads.Active(), m.sessions.Count()}
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Starting...\n"
	}
	if m.showPicker {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.picker.View())
	}

	stats := analyzer.ComputeStats(m.windows).String()
	right := ""
	if w := m.tabs.selectedWindow(); w != nil {
		right = windowLabel(w)
	}
	if m.zoom > 0 && m.zoom != 1 {
		stats += fmt.Sprintf(" · zoom %d%%", int(m.zoom*100+0.5))
	}
	navbar := renderNavbar(m.view, right, m.counts(), stats, m.width)

	var content, hints string
	switch m.view {
	case ViewTabs:
		content, hints = m.tabs.View(), m.tabs.Hints()
	case ViewHistory:
		content, hints = m.history.View(), m.history.Hints()
	case ViewBookmarks:
		content, hints = m.bookmarks.View(), m.bookmarks.Hints()
	case ViewDownloads:
		content, hints = m.downloads.View(), m.downloads.Hints()
	case ViewSessions:
		content, hints = m.sessions.View(), m.sessions.Hints()
	}
	if len(m.windows) == 0 && m.view == ViewTabs {
		content = lipgloss.Place(m.width, m.height-3, lipgloss.Center, lipgloss.Center, "No windows open. Press n to open one.")
	}

	statusStyle := lipgloss.NewStyle().Padding(0, 1)
	errStyle := lipgloss.NewStyle().Foreground(colors.Bad).Padding(0, 1)
	var statusLine string
	switch {
	case m.err != nil:
		statusLine = errStyle.Render("Error: " + m.err.Error())
	case m.status != "":
		statusLine = statusStyle.Render(m.status)
	default:
		statusLine = statusStyle.Render(m.tabs.Status())
	}

	hintStyle := lipgloss.NewStyle().Foreground(colors.Dim).Padding(0, 1)
	bottom := hintStyle.Render(hints + " · 1-5 pane · w window · i import · T theme · +/-/0 zoom · q quit")

	return lipgloss.JoinVertical(lipgloss.Left, navbar, content, statusLine, bottom)
}
