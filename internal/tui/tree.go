package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lotas/tabhost/internal/types"
)

// TreeNode represents a visible row in the tree.
type TreeNode struct {
	Window *types.WindowInfo // non-nil for window headers
	Tab    *types.TabInfo    // non-nil for tab rows
	Index  int               // tab index within its window
	Owner  string            // window ID of a tab row
}

// TreeModel is the collapsible window/tab tree.
type TreeModel struct {
	Windows  []types.WindowInfo
	Expanded map[string]bool // window ID -> expanded
	Cursor   int
	Offset   int // scroll offset
	Width    int
	Height   int
}

func NewTreeModel(windows []types.WindowInfo) TreeModel {
	expanded := make(map[string]bool)
	for _, w := range windows {
		expanded[w.ID] = true
	}
	return TreeModel{Windows: windows, Expanded: expanded}
}

// SetWindows replaces the data and keeps the cursor on the same row when
// it still exists. New windows start expanded.
func (m *TreeModel) SetWindows(windows []types.WindowInfo) {
	var keep string
	if node := m.SelectedNode(); node != nil {
		if node.Tab != nil {
			keep = node.Tab.ID
		} else {
			keep = node.Window.ID
		}
	}
	if m.Expanded == nil {
		m.Expanded = make(map[string]bool)
	}
	for _, w := range windows {
		if _, ok := m.Expanded[w.ID]; !ok {
			m.Expanded[w.ID] = true
		}
	}
	m.Windows = windows

	nodes := m.VisibleNodes()
	for i, n := range nodes {
		if (n.Tab != nil && n.Tab.ID == keep) || (n.Tab == nil && n.Window.ID == keep) {
			m.Cursor = i
			m.clampOffset()
			return
		}
	}
	if m.Cursor >= len(nodes) {
		m.Cursor = len(nodes) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	m.clampOffset()
}

// VisibleNodes returns the flat list of currently visible nodes.
func (m TreeModel) VisibleNodes() []TreeNode {
	var nodes []TreeNode
	for wi := range m.Windows {
		w := &m.Windows[wi]
		nodes = append(nodes, TreeNode{Window: w})
		if m.Expanded[w.ID] {
			for ti := range w.Tabs {
				nodes = append(nodes, TreeNode{Tab: &w.Tabs[ti], Index: ti, Owner: w.ID})
			}
		}
	}
	return nodes
}

// SelectedNode returns the currently selected node, or nil.
func (m TreeModel) SelectedNode() *TreeNode {
	nodes := m.VisibleNodes()
	if m.Cursor >= 0 && m.Cursor < len(nodes) {
		return &nodes[m.Cursor]
	}
	return nil
}

// SelectedWindowID returns the window of the selected row.
func (m TreeModel) SelectedWindowID() string {
	node := m.SelectedNode()
	switch {
	case node == nil:
		return ""
	case node.Tab != nil:
		return node.Owner
	default:
		return node.Window.ID
	}
}

// MoveUp moves the cursor up.
func (m *TreeModel) MoveUp() {
	if m.Cursor > 0 {
		m.Cursor--
	}
	m.clampOffset()
}

// MoveDown moves the cursor down.
func (m *TreeModel) MoveDown() {
	nodes := m.VisibleNodes()
	if m.Cursor < len(nodes)-1 {
		m.Cursor++
	}
	m.clampOffset()
}

func (m *TreeModel) clampOffset() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	visibleRows := m.Height - 2 // account for padding
	if visibleRows < 1 {
		visibleRows = 1
	}
	if m.Cursor >= m.Offset+visibleRows {
		m.Offset = m.Cursor - visibleRows + 1
	}
}

// Toggle expands/collapses the selected window.
func (m *TreeModel) Toggle() {
	node := m.SelectedNode()
	if node == nil || node.Window == nil {
		return
	}
	m.Expanded[node.Window.ID] = !m.Expanded[node.Window.ID]
}

// CollapseOrParent collapses the selected window if expanded, or jumps to
// the window header if the cursor is on a tab.
func (m *TreeModel) CollapseOrParent() {
	node := m.SelectedNode()
	if node == nil {
		return
	}
	if node.Window != nil {
		m.Expanded[node.Window.ID] = false
		return
	}
	nodes := m.VisibleNodes()
	for i := m.Cursor - 1; i >= 0; i-- {
		if nodes[i].Window != nil {
			m.Cursor = i
			m.clampOffset()
			return
		}
	}
}

// ExpandOrEnter expands the selected window if collapsed, or moves onto its
// active tab if already expanded.
func (m *TreeModel) ExpandOrEnter() {
	node := m.SelectedNode()
	if node == nil || node.Window == nil {
		return
	}
	if !m.Expanded[node.Window.ID] {
		m.Expanded[node.Window.ID] = true
		return
	}
	if len(node.Window.Tabs) > 0 {
		m.Cursor += 1 + node.Window.ActiveIndex
		m.clampOffset()
	}
}

func windowLabel(w *types.WindowInfo) string {
	kind := "Window"
	if w.Private {
		kind = "Private window"
	}
	noun := "tabs"
	if len(w.Tabs) == 1 {
		noun = "tab"
	}
	return fmt.Sprintf("%s %s (%d %s)", kind, shortID(w.ID), len(w.Tabs), noun)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// View renders the tree.
func (m TreeModel) View() string {
	nodes := m.VisibleNodes()
	if len(nodes) == 0 {
		return "No windows open."
	}

	visibleRows := m.Height
	if visibleRows < 1 {
		visibleRows = 20
	}

	var b strings.Builder
	end := m.Offset + visibleRows
	if end > len(nodes) {
		end = len(nodes)
	}

	cursorStyle := lipgloss.NewStyle().Bold(true).Reverse(true)
	activeStyle := lipgloss.NewStyle().Foreground(colors.Good)
	suspendedStyle := lipgloss.NewStyle().Foreground(colors.Dim)
	privateStyle := lipgloss.NewStyle().Foreground(colors.Private)
	windowStyle := lipgloss.NewStyle().Bold(true)

	for i := m.Offset; i < end; i++ {
		node := nodes[i]
		var line string

		if node.Window != nil {
			icon := "▶"
			if m.Expanded[node.Window.ID] {
				icon = "▼"
			}
			line = windowStyle.Render(icon + " " + windowLabel(node.Window))
		} else {
			var markers []string
			if node.Tab.Active {
				markers = append(markers, activeStyle.Render("●"))
			} else if node.Tab.Suspended {
				markers = append(markers, suspendedStyle.Render("◌"))
			}
			if node.Tab.Private {
				markers = append(markers, privateStyle.Render("P"))
			}
			marker := ""
			if len(markers) > 0 {
				marker = strings.Join(markers, "") + " "
			}
			line = "  " + marker + node.Tab.DisplayTitle
		}

		// Apply cursor highlight
		if i == m.Cursor {
			for lipgloss.Width(line) < m.Width {
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

// FocusWindow moves the cursor to the header of window id.
func (m *TreeModel) FocusWindow(id string) bool {
	for i, n := range m.VisibleNodes() {
		if n.Window != nil && n.Window.ID == id {
			m.Cursor = i
			m.clampOffset()
			return true
		}
	}
	return false
}
