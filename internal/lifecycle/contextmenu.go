package lifecycle

import (
	"errors"
	"fmt"

	"github.com/lotas/tabhost/internal/applog"
	"github.com/lotas/tabhost/internal/engine"
)

// ErrNoLink is returned by link actions when the open menu has no link.
var ErrNoLink = errors.New("no link under the context menu")

// linkAtPointJS returns the href of the link at the given viewport point.
const linkAtPointJS = `(() => {
  const el = document.elementFromPoint(%d, %d);
  const a = el && el.closest('a[href]');
  return a ? a.href : '';
})()`

// ContextMenu is the open context menu of a window. Link is filled in
// once the lookup answers.
type ContextMenu struct {
	Token    int
	TabID    string
	X, Y     int
	Link     string
	Resolved bool
}

// OpenContextMenu opens a menu at x,y over t and starts probing for a link.
// Opening a new menu invalidates any lookup still running for the old one.
func (m *Manager) OpenContextMenu(t *TabSession, x, y int) (int, error) {
	if !m.Live(t) {
		return 0, ErrTabNotFound
	}
	w := t.window
	w.menuSeq++
	token := w.menuSeq
	w.menu = &ContextMenu{Token: token, TabID: t.ID, X: x, Y: y}

	id := t.ID
	t.surface.RunScript(fmt.Sprintf(linkAtPointJS, x, y), func(result any, err error) {
		m.post(id, "link-lookup", func(t *TabSession) { m.onLinkLookup(t, token, result, err) })
	})
	return token, nil
}

func (m *Manager) onLinkLookup(t *TabSession, token int, result any, err error) {
	w := t.window
	if w.menu == nil || w.menu.Token != token {
		applog.Debug("contextmenu.late", "tab", t.ID, "token", token)
		return
	}
	w.menu.Resolved = true
	if err != nil {
		applog.Warn("script.failed", "tab", t.ID, "script", "link-lookup", "err", err.Error())
		return
	}
	if link, ok := result.(string); ok {
		w.menu.Link = link
	}
}

// ContextMenu returns the open menu of w.
func (m *Manager) ContextMenu(w *Window) (ContextMenu, bool) {
	if w.menu == nil {
		return ContextMenu{}, false
	}
	return *w.menu, true
}

// DismissContextMenu closes the menu. A lookup that answers afterwards is
// dropped.
func (m *Manager) DismissContextMenu(w *Window) {
	w.menu = nil
}

// OpenMenuLink opens the link under the menu in the given target and
// dismisses the menu.
func (m *Manager) OpenMenuLink(w *Window, kind engine.TargetKind) (*TabSession, error) {
	if err := m.liveWindow(w); err != nil {
		return nil, err
	}
	menu := w.menu
	if menu == nil || menu.Link == "" {
		return nil, ErrNoLink
	}
	w.menu = nil
	src, err := m.TabByID(menu.TabID)
	if err != nil {
		return nil, err
	}
	return m.openTarget(w, src.Private, kind, menu.Link)
}
