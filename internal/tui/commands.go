package tui

import (
	"context"
	"database/sql"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lotas/tabhost/internal/applog"
	"github.com/lotas/tabhost/internal/downloads"
	"github.com/lotas/tabhost/internal/firefox"
	"github.com/lotas/tabhost/internal/lifecycle"
	"github.com/lotas/tabhost/internal/reader"
	"github.com/lotas/tabhost/internal/settings"
	"github.com/lotas/tabhost/internal/snapshot"
	"github.com/lotas/tabhost/internal/storage"
	"github.com/lotas/tabhost/internal/types"
)

// historyShown is how many history entries the history pane lists.
const historyShown = 200

// state is a copy of everything the views render, taken on the loop.
type state struct {
	windows   []types.WindowInfo
	history   []types.HistoryEntry
	bookmarks *settings.BookmarkTree
	downloads []types.Download
	darkMode  bool
	zoom      float64
}

type stateMsg struct{ st state }
type tickMsg time.Time

// opDoneMsg reports the result of a manager operation. status, when set,
// is shown in the bottom bar.
type opDoneMsg struct {
	status string
	err    error
}

type readerMsg struct {
	tabID   string
	article reader.Article
	err     error
}

type profilesMsg struct {
	profiles []types.Profile
	err      error
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// call runs fn on the manager loop from a command goroutine.
func call(mgr *lifecycle.Manager, fn func() error) error {
	var err error
	if derr := mgr.Loop().Do(context.Background(), func() { err = fn() }); derr != nil {
		return derr
	}
	return err
}

// do runs fn on the loop and reports the outcome as an opDoneMsg.
func do(mgr *lifecycle.Manager, status string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		err := call(mgr, fn)
		if err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: status}
	}
}

func fetchState(mgr *lifecycle.Manager) tea.Cmd {
	return func() tea.Msg {
		var st state
		call(mgr, func() error {
			st.windows = mgr.Snapshot()
			return nil
		})
		cur := mgr.Settings().Current()
		st.history = mgr.Settings().RecentHistory(historyShown)
		st.bookmarks = cur.Bookmarks
		st.downloads = mgr.Downloads().Recent(downloads.ShownLimit)
		st.darkMode = cur.DarkMode
		st.zoom = cur.ZoomLevel
		return stateMsg{st: st}
	}
}

// withTab runs fn against the tab with id.
func withTab(mgr *lifecycle.Manager, id, status string, fn func(*lifecycle.TabSession) error) tea.Cmd {
	return do(mgr, status, func() error {
		t, err := mgr.TabByID(id)
		if err != nil {
			return err
		}
		return fn(t)
	})
}

// withWindow runs fn against the window with id.
func withWindow(mgr *lifecycle.Manager, id, status string, fn func(*lifecycle.Window) error) tea.Cmd {
	return do(mgr, status, func() error {
		w, err := mgr.WindowByID(id)
		if err != nil {
			return err
		}
		return fn(w)
	})
}

// readArticle extracts the readable text of a tab. The result arrives
// through the engine, so the command waits on a channel.
func readArticle(mgr *lifecycle.Manager, tabID string) tea.Cmd {
	return func() tea.Msg {
		res := make(chan readerMsg, 1)
		err := call(mgr, func() error {
			t, err := mgr.TabByID(tabID)
			if err != nil {
				return err
			}
			return mgr.ReaderView(t, func(a reader.Article, err error) {
				res <- readerMsg{tabID: tabID, article: a, err: err}
			})
		})
		if err != nil {
			return readerMsg{tabID: tabID, err: err}
		}
		select {
		case msg := <-res:
			return msg
		case <-time.After(30 * time.Second):
			return readerMsg{tabID: tabID, err: context.DeadlineExceeded}
		}
	}
}

func discoverProfiles() tea.Cmd {
	return func() tea.Msg {
		profiles, err := firefox.DiscoverProfiles()
		return profilesMsg{profiles: profiles, err: err}
	}
}

// importProfile merges Firefox bookmarks into settings and opens the
// profile's last session as new windows.
func importProfile(mgr *lifecycle.Manager, p types.Profile) tea.Cmd {
	return func() tea.Msg {
		added := 0
		if tree, err := firefox.ReadBookmarks(p.Path); err == nil {
			added, err = mgr.Settings().MergeBookmarks(tree)
			if err != nil {
				return opDoneMsg{err: err}
			}
		} else {
			applog.Error("import.bookmarks", err, "profile", p.Name)
		}

		windows, err := firefox.ReadSessionFile(p.Path)
		if err != nil {
			applog.Error("import.session", err, "profile", p.Name)
		}
		opened := 0
		for _, w := range windows {
			urls := make([]string, len(w.Tabs))
			for i, t := range w.Tabs {
				urls[i] = t.URL
			}
			err := call(mgr, func() error {
				_, err := mgr.OpenWindowWithURLs(urls, w.Selected, false)
				return err
			})
			if err != nil {
				return opDoneMsg{err: err}
			}
			opened++
		}
		applog.Info("import.done", "profile", p.Name, "bookmarks", added, "windows", opened)
		return opDoneMsg{status: importStatus(p.Name, added, opened)}
	}
}

func restoreSession(mgr *lifecycle.Manager, db *sql.DB, rev int) tea.Cmd {
	return func() tea.Msg {
		open := func(urls []string, active int) error {
			return call(mgr, func() error {
				_, err := mgr.OpenWindowWithURLs(urls, active, false)
				return err
			})
		}
		n, err := snapshot.Restore(db, storage.SourceLocal, rev, open)
		if err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: restoreStatus(rev, n)}
	}
}
