package lifecycle

import (
	"context"

	"github.com/lotas/tabhost/internal/types"
)

// Window owns an ordered list of tabs and the index of the active one.
// A live window always has at least one tab.
type Window struct {
	ID string
	// Private forces every tab opened in the window to be private.
	Private bool

	tabs   []*TabSession
	active int

	addressBar     string
	addressFocused bool
	status         string

	menu    *ContextMenu
	menuSeq int

	stopPoll context.CancelFunc
	closed   bool
}

// Len returns the number of tabs.
func (w *Window) Len() int { return len(w.tabs) }

// ActiveIndex returns the index of the active tab.
func (w *Window) ActiveIndex() int { return w.active }

// Tab returns the tab at i, or nil.
func (w *Window) Tab(i int) *TabSession {
	if i < 0 || i >= len(w.tabs) {
		return nil
	}
	return w.tabs[i]
}

// Tabs returns the tabs in order.
func (w *Window) Tabs() []*TabSession {
	return append([]*TabSession(nil), w.tabs...)
}

// ActiveTab returns the active tab, or nil for a closed window.
func (w *Window) ActiveTab() *TabSession {
	return w.Tab(w.active)
}

// AddressBar returns the address-bar text.
func (w *Window) AddressBar() string { return w.addressBar }

// Status returns the transient status text.
func (w *Window) Status() string { return w.status }

// Closed reports whether the window was closed.
func (w *Window) Closed() bool { return w.closed }

func (w *Window) indexOf(t *TabSession) int {
	for i, x := range w.tabs {
		if x == t {
			return i
		}
	}
	return -1
}

func (w *Window) isActive(t *TabSession) bool {
	return !w.closed && w.active < len(w.tabs) && w.tabs[w.active] == t
}

func (w *Window) remove(i int) {
	copy(w.tabs[i:], w.tabs[i+1:])
	w.tabs[len(w.tabs)-1] = nil
	w.tabs = w.tabs[:len(w.tabs)-1]
}

func (w *Window) info() types.WindowInfo {
	wi := types.WindowInfo{
		ID:          w.ID,
		Private:     w.Private,
		ActiveIndex: w.active,
		AddressBar:  w.addressBar,
		Status:      w.status,
		Tabs:        make([]types.TabInfo, 0, len(w.tabs)),
	}
	for i, t := range w.tabs {
		wi.Tabs = append(wi.Tabs, t.info(i == w.active))
	}
	return wi
}
