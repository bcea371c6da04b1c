package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lotas/tabhost/internal/lifecycle"
	"github.com/lotas/tabhost/internal/settings"
	"github.com/lotas/tabhost/internal/types"
)

// bookmarkRow is a category header (Bookmark nil) or a bookmark.
type bookmarkRow struct {
	Category string
	Bookmark *types.Bookmark
}

// BookmarksView lists bookmarks grouped by category, in stored order.
type BookmarksView struct {
	mgr    *lifecycle.Manager
	rows   []bookmarkRow
	count  int
	list   listCursor
	width  int
	height int
}

func NewBookmarksView(mgr *lifecycle.Manager) BookmarksView {
	return BookmarksView{mgr: mgr}
}

func (v *BookmarksView) SetSize(w, h int) {
	v.width = w
	v.height = h
	v.list.height = h - 2
}

func (v *BookmarksView) SetTree(tree *settings.BookmarkTree) {
	v.rows = nil
	v.count = 0
	if tree != nil {
		for _, cat := range tree.Categories() {
			v.rows = append(v.rows, bookmarkRow{Category: cat})
			for _, bm := range tree.Get(cat) {
				bm := bm
				v.rows = append(v.rows, bookmarkRow{Category: cat, Bookmark: &bm})
				v.count++
			}
		}
	}
	v.list.clamp(len(v.rows))
}

// Count returns the number of bookmarks.
func (v BookmarksView) Count() int { return v.count }

func (v BookmarksView) selected() *bookmarkRow {
	if v.list.cursor >= 0 && v.list.cursor < len(v.rows) {
		return &v.rows[v.list.cursor]
	}
	return nil
}

// Update handles keys. windowID is the window new tabs open in.
func (v BookmarksView) Update(msg tea.Msg, windowID string) (BookmarksView, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	mgr := v.mgr
	switch key.String() {
	case "j", "down":
		v.list.down(len(v.rows))
	case "k", "up":
		v.list.up()
	case "enter", "o":
		row := v.selected()
		if row == nil || row.Bookmark == nil || windowID == "" {
			return v, nil
		}
		bm := *row.Bookmark
		return v, withWindow(mgr, windowID, "Opened "+bm.Name, func(w *lifecycle.Window) error {
			_, err := mgr.OpenTab(w, bm.URL, bm.Name, w.Private)
			return err
		})
	case "d":
		row := v.selected()
		if row == nil {
			return v, nil
		}
		r := *row
		return v, func() tea.Msg {
			var err error
			if r.Bookmark != nil {
				err = mgr.Settings().RemoveBookmark(r.Category, r.Bookmark.URL)
			} else {
				err = mgr.Settings().RemoveCategory(r.Category)
			}
			if err != nil {
				return opDoneMsg{err: err}
			}
			return opDoneMsg{status: "Removed"}
		}
	}
	return v, nil
}

func (v BookmarksView) View() string {
	leftWidth := v.width * TreeWidthPct / 100
	rightWidth := v.width - leftWidth - 3
	headerStyle := lipgloss.NewStyle().Bold(true)

	var left string
	if len(v.rows) == 0 {
		left = "No bookmarks."
	} else {
		rows := make([]string, len(v.rows))
		for i, r := range v.rows {
			if r.Bookmark == nil {
				rows[i] = headerStyle.Render("▼ " + r.Category)
			} else {
				rows[i] = "  " + truncate(r.Bookmark.Name, leftWidth-4)
			}
		}
		left = v.list.render(rows, leftWidth)
	}

	var right string
	if row := v.selected(); row != nil {
		labelStyle := lipgloss.NewStyle().Bold(true).Foreground(colors.Label)
		var b strings.Builder
		b.WriteString(labelStyle.Render("Category") + "\n" + row.Category + "\n\n")
		if row.Bookmark != nil {
			b.WriteString(labelStyle.Render("Name") + "\n" + wrap(row.Bookmark.Name, rightWidth-2) + "\n\n")
			b.WriteString(labelStyle.Render("URL") + "\n" + wrap(row.Bookmark.URL, rightWidth-2) + "\n")
		} else {
			n := 0
			for _, r := range v.rows {
				if r.Category == row.Category && r.Bookmark != nil {
					n++
				}
			}
			b.WriteString(labelStyle.Render("Bookmarks") + "\n" + fmt.Sprintf("%d", n) + "\n")
		}
		right = b.String()
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		pane(left, leftWidth, v.height-2, true),
		pane(right, rightWidth, v.height-2, false))
}

func (v BookmarksView) Hints() string {
	return "↑↓/jk move · enter open in tab · d delete"
}
