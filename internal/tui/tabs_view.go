package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lotas/tabhost/internal/lifecycle"
	"github.com/lotas/tabhost/internal/reader"
	"github.com/lotas/tabhost/internal/types"
)

// Messages returned by TabsView for the root Model to handle.
type showCategoryPickerMsg struct{ windowID string }

type addressMode int

const (
	addressNavigate addressMode = iota
	addressSearch
)

type TabsView struct {
	mgr *lifecycle.Manager

	tree        TreeModel
	detail      DetailModel
	focusDetail bool

	// Address bar
	address       textinput.Model
	addressOn     bool
	addressMode   addressMode
	addressWindow string

	// Reader view, keyed by tab ID
	articles  map[string]reader.Article
	readerErr map[string]string
	reading   map[string]bool

	width  int
	height int
}

func NewTabsView(mgr *lifecycle.Manager) TabsView {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.Placeholder = "Search or enter address"
	ti.CharLimit = 2048
	return TabsView{
		mgr:       mgr,
		tree:      NewTreeModel(nil),
		address:   ti,
		articles:  make(map[string]reader.Article),
		readerErr: make(map[string]string),
		reading:   make(map[string]bool),
	}
}

func (v *TabsView) SetSize(w, h int) {
	v.width = w
	v.height = h
	treeWidth := w * TreeWidthPct / 100
	paneHeight := h - 3 // address bar
	v.tree.Width = treeWidth
	v.tree.Height = paneHeight
	v.detail.Width = w - treeWidth - 3
	v.detail.Height = paneHeight
	v.address.Width = w - 6
}

// SetWindows refreshes the tree. The address bar shows the engine's
// address for the selected window unless the user is typing.
func (v *TabsView) SetWindows(windows []types.WindowInfo) {
	v.tree.SetWindows(windows)
	for id := range v.articles {
		if !tabExists(windows, id) {
			delete(v.articles, id)
			delete(v.readerErr, id)
		}
	}
	if !v.addressOn {
		if w := v.selectedWindow(); w != nil {
			v.address.SetValue(w.AddressBar)
		} else {
			v.address.SetValue("")
		}
	}
}

func tabExists(windows []types.WindowInfo, id string) bool {
	for _, w := range windows {
		for _, t := range w.Tabs {
			if t.ID == id {
				return true
			}
		}
	}
	return false
}

func (v TabsView) selectedWindow() *types.WindowInfo {
	id := v.tree.SelectedWindowID()
	for i := range v.tree.Windows {
		if v.tree.Windows[i].ID == id {
			return &v.tree.Windows[i]
		}
	}
	return nil
}

// activeTabID returns the active tab of the selected window.
func (v TabsView) activeTabID() string {
	w := v.selectedWindow()
	if w == nil || w.ActiveIndex < 0 || w.ActiveIndex >= len(w.Tabs) {
		return ""
	}
	return w.Tabs[w.ActiveIndex].ID
}

func (v TabsView) FocusDetail() bool { return v.focusDetail }

// Typing reports whether key presses go to the address bar.
func (v TabsView) Typing() bool { return v.addressOn }

func (v *TabsView) focusAddress(mode addressMode) tea.Cmd {
	w := v.selectedWindow()
	if w == nil {
		return nil
	}
	v.addressOn = true
	v.addressMode = mode
	v.addressWindow = w.ID
	if mode == addressSearch {
		v.address.SetValue("")
		v.address.Placeholder = "Search the web"
	} else {
		v.address.Placeholder = "Search or enter address"
	}
	v.address.CursorEnd()
	mgr := v.mgr
	return tea.Batch(
		v.address.Focus(),
		withWindow(mgr, w.ID, "", func(w *lifecycle.Window) error {
			mgr.SetAddressFocus(w, true)
			return nil
		}),
	)
}

func (v *TabsView) blurAddress() tea.Cmd {
	v.addressOn = false
	v.address.Blur()
	id := v.addressWindow
	v.addressWindow = ""
	if w := v.selectedWindow(); w != nil {
		v.address.SetValue(w.AddressBar)
	}
	if id == "" {
		return nil
	}
	mgr := v.mgr
	return withWindow(mgr, id, "", func(w *lifecycle.Window) error {
		mgr.SetAddressFocus(w, false)
		return nil
	})
}

// submitAddress releases the address bar and loads what was typed, in one
// step on the loop.
func (v *TabsView) submitAddress() tea.Cmd {
	input := strings.TrimSpace(v.address.Value())
	mode := v.addressMode
	windowID := v.addressWindow
	mgr := v.mgr
	v.addressOn = false
	v.address.Blur()
	v.addressWindow = ""
	if windowID == "" {
		return nil
	}
	return withWindow(mgr, windowID, "", func(w *lifecycle.Window) error {
		mgr.SetAddressFocus(w, false)
		if input == "" {
			return nil
		}
		t := w.ActiveTab()
		if t == nil {
			return lifecycle.ErrTabNotFound
		}
		if mode == addressSearch {
			_, err := mgr.SearchText(t, input)
			return err
		}
		return mgr.Navigate(t, input)
	})
}

func (v TabsView) Update(msg tea.Msg) (TabsView, tea.Cmd) {
	switch msg := msg.(type) {
	case readerMsg:
		delete(v.reading, msg.tabID)
		if msg.err != nil {
			v.readerErr[msg.tabID] = msg.err.Error()
			return v, nil
		}
		delete(v.readerErr, msg.tabID)
		v.articles[msg.tabID] = msg.article
		v.detail.ResetScroll()
		return v, nil

	case tea.KeyMsg:
		if v.addressOn {
			switch msg.String() {
			case "enter":
				return v, v.submitAddress()
			case "esc":
				return v, v.blurAddress()
			}
			var cmd tea.Cmd
			v.address, cmd = v.address.Update(msg)
			return v, cmd
		}

		if v.focusDetail {
			switch msg.String() {
			case "esc":
				v.focusDetail = false
				v.detail.ResetScroll()
			case "j", "down":
				v.detail.ContentLen = strings.Count(v.viewDetail(), "\n") + 1
				v.detail.ScrollDown()
			case "k", "up":
				v.detail.ScrollUp()
			}
			return v, nil
		}

		return v.handleKey(msg)
	}
	return v, nil
}

func (v TabsView) handleKey(msg tea.KeyMsg) (TabsView, tea.Cmd) {
	mgr := v.mgr
	node := v.tree.SelectedNode()
	windowID := v.tree.SelectedWindowID()

	// tabCmd runs fn on the selected tab, or on the window's active tab when
	// a window header is selected.
	tabCmd := func(status string, fn func(*lifecycle.TabSession) error) tea.Cmd {
		id := v.activeTabID()
		if node != nil && node.Tab != nil {
			id = node.Tab.ID
		}
		if id == "" {
			return nil
		}
		return withTab(mgr, id, status, fn)
	}

	switch msg.String() {
	case "up", "k":
		v.tree.MoveUp()
		v.detail.ResetScroll()
		if w := v.selectedWindow(); w != nil {
			v.address.SetValue(w.AddressBar)
		}
	case "down", "j":
		v.tree.MoveDown()
		v.detail.ResetScroll()
		if w := v.selectedWindow(); w != nil {
			v.address.SetValue(w.AddressBar)
		}
	case "h":
		v.tree.CollapseOrParent()
	case "l":
		v.tree.ExpandOrEnter()
	case "enter":
		if node == nil {
			return v, nil
		}
		if node.Tab == nil {
			v.tree.Toggle()
			return v, nil
		}
		index := node.Index
		return v, withWindow(mgr, node.Owner, "", func(w *lifecycle.Window) error {
			return mgr.SwitchTab(w, index)
		})
	case "tab":
		if windowID == "" {
			return v, nil
		}
		return v, withWindow(mgr, windowID, "", mgr.NextTab)
	case "shift+tab":
		if windowID == "" {
			return v, nil
		}
		return v, withWindow(mgr, windowID, "", mgr.PreviousTab)
	case "ctrl+l", "/":
		return v, v.focusAddress(addressNavigate)
	case "?":
		return v, v.focusAddress(addressSearch)
	case "t":
		if windowID == "" {
			return v, nil
		}
		return v, withWindow(mgr, windowID, "", func(w *lifecycle.Window) error {
			_, err := mgr.OpenTab(w, "", "", w.Private)
			return err
		})
	case "x":
		if node == nil || node.Tab == nil {
			return v, nil
		}
		return v, do(mgr, "", func() error { return mgr.CloseTabByID(node.Tab.ID) })
	case "X":
		if windowID == "" {
			return v, nil
		}
		return v, withWindow(mgr, windowID, "", mgr.CloseWindow)
	case "n":
		return v, do(mgr, "", func() error {
			_, err := mgr.SpawnWindow(false)
			return err
		})
	case "N":
		return v, do(mgr, "", func() error {
			_, err := mgr.SpawnWindow(true)
			return err
		})
	case "p":
		if windowID == "" {
			return v, nil
		}
		return v, withWindow(mgr, windowID, "", func(w *lifecycle.Window) error {
			_, err := mgr.TogglePrivateMode(w)
			return err
		})
	case "r":
		return v, tabCmd("", mgr.Reload)
	case "s":
		return v, tabCmd("", mgr.Stop)
	case "[":
		return v, tabCmd("", mgr.Back)
	case "]":
		return v, tabCmd("", mgr.Forward)
	case "H":
		return v, tabCmd("", mgr.Home)
	case "v":
		id := v.activeTabID()
		if node != nil && node.Tab != nil {
			id = node.Tab.ID
		}
		if id == "" || (node != nil && node.Tab != nil && node.Tab.Private) {
			return v, nil
		}
		v.reading[id] = true
		return v, readArticle(mgr, id)
	case "b":
		if windowID == "" {
			return v, nil
		}
		return v, func() tea.Msg { return showCategoryPickerMsg{windowID: windowID} }
	case "right":
		v.focusDetail = true
	}
	return v, nil
}

func (v TabsView) viewDetail() string {
	node := v.tree.SelectedNode()
	if node == nil {
		return ""
	}
	if node.Window != nil {
		return v.detail.ViewWindow(node.Window)
	}
	content := v.detail.ViewTab(node.Tab)
	dimStyle := lipgloss.NewStyle().Foreground(colors.Dim)
	errStyle := lipgloss.NewStyle().Foreground(colors.Bad)
	switch {
	case v.reading[node.Tab.ID]:
		content += "\n" + dimStyle.Render("Extracting article...")
	case v.readerErr[node.Tab.ID] != "":
		content += "\n" + errStyle.Render("Reader: "+v.readerErr[node.Tab.ID])
	default:
		if a, ok := v.articles[node.Tab.ID]; ok {
			content += "\n" + v.detail.ViewArticle(a)
		}
	}
	return content
}

func (v TabsView) View() string {
	addressStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(colors.Dim).
		Width(v.width - 2)
	if v.addressOn {
		addressStyle = addressStyle.BorderForeground(colors.Accent)
	}
	bar := addressStyle.Render(v.address.View())

	treeBorder := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colors.Accent).
		Width(v.tree.Width).
		Height(v.tree.Height - 2)

	detailColor := colors.Dim
	if v.focusDetail {
		detailColor = colors.Accent
	}
	detailBorder := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(detailColor).
		Width(v.detail.Width).
		Height(v.detail.Height - 2)

	detail := v.detail
	left := treeBorder.Render(v.tree.View())
	right := detailBorder.Render(detail.ViewScrolled(v.viewDetail()))
	panes := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, bar, panes)
}

// Status returns the status line of the selected window.
func (v TabsView) Status() string {
	if w := v.selectedWindow(); w != nil {
		return w.Status
	}
	return ""
}

func (v TabsView) Hints() string {
	if v.addressOn {
		return "enter go · esc cancel"
	}
	return "↑↓/jk move · enter switch · / address · ? search · t tab · x close · n/N window · [ ] back/fwd · r reload · v reader · b bookmark"
}
