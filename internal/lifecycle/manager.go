// Package lifecycle creates, tracks, suspends and tears down tabs and
// windows, and routes engine events back to them.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lotas/tabhost/internal/applog"
	"github.com/lotas/tabhost/internal/downloads"
	"github.com/lotas/tabhost/internal/engine"
	"github.com/lotas/tabhost/internal/navigate"
	"github.com/lotas/tabhost/internal/settings"
	"github.com/lotas/tabhost/internal/types"
)

var (
	ErrSurfaceCreationFailed = errors.New("surface creation failed")
	ErrWindowNotFound        = errors.New("window not found")
	ErrTabNotFound           = errors.New("tab not found")
	ErrIndexOutOfRange       = errors.New("tab index out of range")

	errPrivateAdopt = errors.New("private tabs cannot adopt engine surfaces")
)

// BlankURL is loaded by private windows instead of the homepage.
const BlankURL = "about:blank"

// DefaultPollInterval is how often the address bar is synced with the
// active tab.
const DefaultPollInterval = time.Second

const newTabLabel = "New Tab"

// Options configures a Manager.
type Options struct {
	Settings  *settings.Store
	Engine    engine.Engine
	Downloads *downloads.Registry
	Loop      *Loop
	// Chooser picks a download destination. Nil uses DefaultChooser.
	Chooser PathChooser
	// PollInterval of zero uses DefaultPollInterval; negative disables polling.
	PollInterval time.Duration
	Notifier     Notifier
	// OnLastWindowClosed is called on the loop when the last window closes.
	OnLastWindowClosed func()
}

// Manager owns every window and tab. Except for Post-style entry points,
// its methods must be called on the loop.
type Manager struct {
	settings     *settings.Store
	engine       engine.Engine
	downloads    *downloads.Registry
	loop         *Loop
	chooser      PathChooser
	pollInterval time.Duration
	notifier     Notifier
	onLastClosed func()

	windows []*Window
	byID    map[string]*Window
	tabs    map[string]*TabSession

	pollers sync.WaitGroup
}

// New builds a manager. Settings and Engine are required.
func New(opts Options) *Manager {
	m := &Manager{
		settings:     opts.Settings,
		engine:       opts.Engine,
		downloads:    opts.Downloads,
		loop:         opts.Loop,
		chooser:      opts.Chooser,
		pollInterval: opts.PollInterval,
		notifier:     opts.Notifier,
		onLastClosed: opts.OnLastWindowClosed,
		byID:         make(map[string]*Window),
		tabs:         make(map[string]*TabSession),
	}
	if m.downloads == nil {
		m.downloads = downloads.NewRegistry()
	}
	if m.loop == nil {
		m.loop = NewLoop()
	}
	if m.chooser == nil {
		m.chooser = DefaultChooser
	}
	if m.pollInterval == 0 {
		m.pollInterval = DefaultPollInterval
	}
	if m.notifier == nil {
		m.notifier = nopNotifier{}
	}
	return m
}

// Loop returns the loop the manager runs on.
func (m *Manager) Loop() *Loop { return m.loop }

// Settings returns the settings store.
func (m *Manager) Settings() *settings.Store { return m.settings }

// Downloads returns the download registry.
func (m *Manager) Downloads() *downloads.Registry { return m.downloads }

// SetNotifier replaces the event sink.
func (m *Manager) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	m.notifier = n
}

// Windows returns the live windows in creation order.
func (m *Manager) Windows() []*Window {
	return append([]*Window(nil), m.windows...)
}

// WindowByID looks up a live window.
func (m *Manager) WindowByID(id string) (*Window, error) {
	w, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	return w, nil
}

// TabByID looks up a live tab.
func (m *Manager) TabByID(id string) (*TabSession, error) {
	t, ok := m.tabs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTabNotFound, id)
	}
	return t, nil
}

// Live reports whether t is still open.
func (m *Manager) Live(t *TabSession) bool {
	if t == nil {
		return false
	}
	cur, ok := m.tabs[t.ID]
	return ok && cur == t
}

func (m *Manager) liveWindow(w *Window) error {
	if w == nil || w.closed {
		return ErrWindowNotFound
	}
	if _, ok := m.byID[w.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, w.ID)
	}
	return nil
}

// post queues fn for tab id and drops it if the tab closed in the meantime.
func (m *Manager) post(tabID, callback string, fn func(t *TabSession)) {
	m.loop.Post(func() {
		t, ok := m.tabs[tabID]
		if !ok {
			applog.Debug("callback.stale", "tab", tabID, "callback", callback)
			return
		}
		fn(t)
	})
}

func (m *Manager) handlersFor(tabID string) engine.Handlers {
	return engine.Handlers{
		URLChanged: func(url string) {
			m.post(tabID, "url-changed", func(t *TabSession) { m.onURLChanged(t, url) })
		},
		LoadFinished: func(ev engine.LoadEvent) {
			m.post(tabID, "load-finished", func(t *TabSession) { m.onLoadFinished(t, ev) })
		},
		LinkHovered: func(url string) {
			m.post(tabID, "link-hovered", func(t *TabSession) { m.onLinkHovered(t, url) })
		},
		NewSurfaceRequested: func(req engine.NewSurfaceRequest) {
			m.loop.Post(func() {
				t, ok := m.tabs[tabID]
				if !ok {
					applog.Debug("callback.stale", "tab", tabID, "callback", "new-surface")
					req.Release()
					return
				}
				m.onNewSurface(t, req)
			})
		},
		DownloadRequested: func(req *engine.DownloadRequest) {
			m.loop.Post(func() { m.HandleDownload(req) })
		},
	}
}

// OpenTab opens url in a new active tab of w. An empty url opens the
// homepage. Tabs of a private window are always private.
func (m *Manager) OpenTab(w *Window, url, label string, private bool) (*TabSession, error) {
	return m.openTab(w, url, label, private, true)
}

// OpenBackgroundTab opens a tab without activating it.
func (m *Manager) OpenBackgroundTab(w *Window, url, label string, private bool) (*TabSession, error) {
	return m.openTab(w, url, label, private, false)
}

func (m *Manager) openTab(w *Window, url, label string, private, activate bool) (*TabSession, error) {
	return m.addTab(w, url, label, private, activate, nil)
}

// addTab builds a tab around a new surface, or around the surface adopt
// returns. Adopted surfaces are already loading and share the default
// profile.
func (m *Manager) addTab(w *Window, url, label string, private, activate bool, adopt func(engine.Handlers) engine.Surface) (*TabSession, error) {
	if w == nil || w.closed {
		return nil, ErrWindowNotFound
	}
	private = private || w.Private
	if adopt != nil && private {
		return nil, errPrivateAdopt
	}
	if url == "" {
		url = m.settings.Homepage()
		if adopt != nil {
			url = BlankURL
		}
	}
	if label == "" {
		label = url
	}

	profile := m.engine.DefaultProfile()
	owns := false
	if private {
		p, err := m.engine.NewPrivateProfile()
		if err != nil {
			applog.Error("engine.profile.failed", err, "window", w.ID)
			return nil, fmt.Errorf("%w: %v", ErrSurfaceCreationFailed, err)
		}
		profile, owns = p, true
	}

	t := &TabSession{
		ID:          uuid.NewString(),
		Private:     private,
		window:      w,
		profile:     profile,
		ownsProfile: owns,
		url:         url,
	}
	var surface engine.Surface
	var err error
	if adopt != nil {
		if surface = adopt(m.handlersFor(t.ID)); surface == nil {
			err = errors.New("engine returned no surface to adopt")
		}
	} else {
		surface, err = m.engine.CreateSurface(profile, m.handlersFor(t.ID))
	}
	if err != nil {
		if owns {
			if cerr := profile.Close(); cerr != nil {
				applog.Error("engine.profile.close", cerr, "profile", profile.ID())
			}
		}
		applog.Error("engine.surface.failed", err, "window", w.ID, "url", url)
		return nil, fmt.Errorf("%w: %v", ErrSurfaceCreationFailed, err)
	}
	t.surface = surface
	t.setTitle(label)

	w.tabs = append(w.tabs, t)
	m.tabs[t.ID] = t
	if activate || len(w.tabs) == 1 {
		m.activate(w, len(w.tabs)-1)
	} else {
		m.suspend(t)
	}
	if adopt == nil {
		t.load(url)
	}

	if !private && (adopt == nil || navigate.IsWebURL(url)) {
		if err := m.settings.AppendHistory(url, label); err != nil {
			applog.Error("history.append", err, "url", url)
		}
	}
	applog.Info("tab.open", "window", w.ID, "tab", t.ID, "private", private, "url", url)
	m.notify(EventTabOpened, w, t)
	return t, nil
}

// CloseTab closes the tab at index. Closing the last tab closes the window.
func (m *Manager) CloseTab(w *Window, index int) error {
	if err := m.liveWindow(w); err != nil {
		return err
	}
	if index < 0 || index >= len(w.tabs) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if len(w.tabs) == 1 {
		return m.CloseWindow(w)
	}

	t := w.tabs[index]
	m.release(t)
	w.remove(index)
	delete(m.tabs, t.ID)
	if w.menu != nil && w.menu.TabID == t.ID {
		w.menu = nil
	}

	switch {
	case index < w.active:
		w.active--
	case index == w.active:
		next := index
		if next >= len(w.tabs) {
			next = len(w.tabs) - 1
		}
		m.activate(w, next)
	}
	applog.Info("tab.close", "window", w.ID, "tab", t.ID, "index", index)
	m.notify(EventTabClosed, w, t)
	return nil
}

// CloseTabByID closes a tab wherever it lives.
func (m *Manager) CloseTabByID(id string) error {
	t, err := m.TabByID(id)
	if err != nil {
		return err
	}
	return m.CloseTab(t.window, t.window.indexOf(t))
}

// release quiesces a tab and frees its engine resources. The tab stays in
// its window; the caller removes it.
func (m *Manager) release(t *TabSession) {
	id := t.ID
	t.surface.RunScript(pauseMediaJS, func(_ any, err error) {
		if err == nil {
			return
		}
		// Scripts of a closed tab are expected to fail.
		m.loop.Post(func() {
			if _, open := m.tabs[id]; open {
				applog.Warn("script.failed", "tab", id, "script", "pause-media", "err", err.Error())
				return
			}
			applog.Debug("script.skipped", "tab", id, "script", "pause-media", "err", err.Error())
		})
	})
	t.surface.Stop()
	t.surface.Destroy()
	if t.ownsProfile {
		if err := t.profile.Close(); err != nil {
			applog.Error("engine.profile.close", err, "tab", id, "profile", t.profile.ID())
		}
	}
}

// CloseWindow releases every tab of w and stops its poller.
func (m *Manager) CloseWindow(w *Window) error {
	if err := m.liveWindow(w); err != nil {
		return err
	}
	m.closeWindow(w)
	if len(m.windows) == 0 && m.onLastClosed != nil {
		m.onLastClosed()
	}
	return nil
}

func (m *Manager) closeWindow(w *Window) {
	if w.stopPoll != nil {
		w.stopPoll()
	}
	for _, t := range w.tabs {
		m.release(t)
		delete(m.tabs, t.ID)
	}
	w.tabs = nil
	w.active = 0
	w.menu = nil
	w.closed = true
	delete(m.byID, w.ID)
	for i, x := range m.windows {
		if x == w {
			m.windows = append(m.windows[:i], m.windows[i+1:]...)
			break
		}
	}
	applog.Info("window.close", "window", w.ID)
	m.notify(EventWindowClosed, w, nil)
}

// SwitchTab makes the tab at index active. Switching to the active tab is
// a no-op.
func (m *Manager) SwitchTab(w *Window, index int) error {
	if err := m.liveWindow(w); err != nil {
		return err
	}
	if index < 0 || index >= len(w.tabs) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if index == w.active {
		return nil
	}
	m.activate(w, index)
	m.notify(EventTabActivated, w, w.tabs[index])
	return nil
}

// NextTab activates the tab to the right, if any.
func (m *Manager) NextTab(w *Window) error {
	if err := m.liveWindow(w); err != nil {
		return err
	}
	if w.active+1 >= len(w.tabs) {
		return nil
	}
	return m.SwitchTab(w, w.active+1)
}

// PreviousTab activates the tab to the left, if any.
func (m *Manager) PreviousTab(w *Window) error {
	if err := m.liveWindow(w); err != nil {
		return err
	}
	if w.active == 0 {
		return nil
	}
	return m.SwitchTab(w, w.active-1)
}

func (m *Manager) activate(w *Window, index int) {
	w.active = index
	m.SuspendInactive(w, index)
	t := w.tabs[index]
	w.addressBar = t.url
	w.status = ""
}

// SuspendInactive pauses media in every tab except active. Tabs already
// suspended are left alone; the active tab is marked as running.
func (m *Manager) SuspendInactive(w *Window, active int) {
	for i, t := range w.tabs {
		if i == active {
			t.suspended = false
			continue
		}
		m.suspend(t)
	}
}

func (m *Manager) suspend(t *TabSession) {
	if t.suspended {
		return
	}
	t.suspended = true
	id := t.ID
	t.surface.RunScript(pauseMediaJS, func(_ any, err error) {
		if err != nil {
			m.post(id, "pause-media", func(*TabSession) {
				applog.Warn("script.failed", "tab", id, "script", "pause-media", "err", err.Error())
			})
		}
	})
}

// SpawnWindow creates a window with one tab at the homepage, or a blank
// page for a private window.
func (m *Manager) SpawnWindow(private bool) (*Window, error) {
	url := ""
	if private {
		url = BlankURL
	}
	return m.spawnWindow(url, private)
}

func (m *Manager) spawnWindow(url string, private bool) (*Window, error) {
	return m.newWindow(private, func(w *Window) error {
		_, err := m.openTab(w, url, newTabLabel, private, true)
		return err
	})
}

// newWindow registers a window once first has given it a tab.
func (m *Manager) newWindow(private bool, first func(w *Window) error) (*Window, error) {
	w := &Window{ID: uuid.NewString(), Private: private}
	if err := first(w); err != nil {
		return nil, err
	}
	m.windows = append(m.windows, w)
	m.byID[w.ID] = w
	m.startPoller(w)
	applog.Info("window.open", "window", w.ID, "private", private)
	m.notify(EventWindowOpened, w, nil)
	return w, nil
}

// OpenWindowWithURLs creates a window holding urls and activates the tab
// at active.
func (m *Manager) OpenWindowWithURLs(urls []string, active int, private bool) (*Window, error) {
	if len(urls) == 0 {
		return m.SpawnWindow(private)
	}
	w, err := m.spawnWindow(urls[0], private)
	if err != nil {
		return nil, err
	}
	for _, u := range urls[1:] {
		if _, err := m.OpenBackgroundTab(w, u, u, private); err != nil {
			applog.Error("window.restore.tab", err, "window", w.ID, "url", u)
		}
	}
	if active > 0 && active < len(w.tabs) {
		if err := m.SwitchTab(w, active); err != nil {
			applog.Error("window.restore.active", err, "window", w.ID, "index", active)
		}
	}
	return w, nil
}

// TogglePrivateMode flips private mode on w and returns the new state.
// Tabs already open keep their profile.
func (m *Manager) TogglePrivateMode(w *Window) (bool, error) {
	if err := m.liveWindow(w); err != nil {
		return false, err
	}
	w.Private = !w.Private
	applog.Info("window.private", "window", w.ID, "private", w.Private)
	return w.Private, nil
}

// Navigate loads a URL or runs a search in t.
func (m *Manager) Navigate(t *TabSession, input string) error {
	if !m.Live(t) {
		return ErrTabNotFound
	}
	target, kind, ok := navigate.Resolve(input, m.settings.SearchEngine())
	if !ok {
		return nil
	}
	t.url = target
	w := t.window
	if w.isActive(t) {
		w.addressBar = target
		w.status = "Loading..."
	}
	nav := t.load(target)
	t.pending = pendingVisit{}
	if t.recordsHistory() {
		t.pending = pendingVisit{nav: nav, url: target}
	}
	applog.Info("tab.navigate", "tab", t.ID, "url", target, "search", kind == navigate.KindSearch)
	m.notify(EventTabNavigated, w, t)
	return nil
}

// Back goes back in t's history.
func (m *Manager) Back(t *TabSession) error {
	if !m.Live(t) {
		return ErrTabNotFound
	}
	t.surface.Back()
	return nil
}

// Forward goes forward in t's history.
func (m *Manager) Forward(t *TabSession) error {
	if !m.Live(t) {
		return ErrTabNotFound
	}
	t.surface.Forward()
	return nil
}

// Reload reloads t.
func (m *Manager) Reload(t *TabSession) error {
	if !m.Live(t) {
		return ErrTabNotFound
	}
	t.surface.Reload()
	return nil
}

// Stop stops loading t.
func (m *Manager) Stop(t *TabSession) error {
	if !m.Live(t) {
		return ErrTabNotFound
	}
	t.surface.Stop()
	if t.window.isActive(t) {
		t.window.status = ""
	}
	return nil
}

// Home navigates t to the homepage.
func (m *Manager) Home(t *TabSession) error {
	return m.Navigate(t, m.settings.Homepage())
}

// SetAddressFocus records whether the user is editing the address bar.
// While focused, the poller leaves the address bar alone.
func (m *Manager) SetAddressFocus(w *Window, focused bool) {
	w.addressFocused = focused
}

// AddBookmarkForActive bookmarks the active tab of w. An empty name uses
// the page title.
func (m *Manager) AddBookmarkForActive(w *Window, category, name string) error {
	if err := m.liveWindow(w); err != nil {
		return err
	}
	t := w.ActiveTab()
	url := t.surface.URL()
	if url == "" {
		url = t.url
	}
	if name == "" {
		name = t.title
	}
	return m.settings.AddBookmark(category, name, url)
}

func (m *Manager) onURLChanged(t *TabSession, url string) {
	t.url = url
	w := t.window
	if w.isActive(t) && !w.addressFocused {
		w.addressBar = url
	}
	m.notify(EventTabUpdated, w, t)
}

// onLoadFinished handles the end of a load. Events numbered for a load the
// tab has since replaced are dropped. A pending visit is recorded only when
// its own load succeeds; a failure leaves it for nothing else to claim.
func (m *Manager) onLoadFinished(t *TabSession, ev engine.LoadEvent) {
	if ev.Nav != 0 && ev.Nav != t.nav {
		applog.Debug("load.stale", "tab", t.ID, "nav", ev.Nav, "current", t.nav)
		return
	}
	w := t.window
	if ev.Title != "" {
		t.setTitle(ev.Title)
	}

	if !ev.OK {
		applog.Warn("tab.load.failed", "tab", t.ID, "url", t.url)
		if w.isActive(t) {
			w.status = "Failed to load " + t.url
		}
		m.notify(EventTabUpdated, w, t)
		return
	}
	if w.isActive(t) {
		w.status = ""
	}
	m.applyZoom(t)

	pending := t.pending
	if pending.url != "" && pending.nav == ev.Nav {
		t.pending = pendingVisit{}
		if t.recordsHistory() {
			label := ev.Title
			if label == "" {
				label = pending.url
			}
			if err := m.settings.AppendHistory(pending.url, label); err != nil {
				applog.Error("history.append", err, "url", pending.url)
			}
		}
	}
	m.notify(EventTabUpdated, w, t)
}

func (m *Manager) onLinkHovered(t *TabSession, url string) {
	if t.window.isActive(t) {
		t.window.status = url
	}
}

// onNewSurface routes a page's request to open content elsewhere. Content
// requested by a private tab stays private. A surface the engine already
// created is adopted when it can stay in the shared profile; otherwise it is
// closed and its URL opened afresh.
func (m *Manager) onNewSurface(t *TabSession, req engine.NewSurfaceRequest) {
	private := t.Private || t.window.Private
	if req.Adopt != nil && !private && req.Kind != engine.TargetPrivateWindow {
		if _, err := m.adoptTarget(t.window, req); err != nil {
			applog.Error("tab.new_surface", err, "tab", t.ID, "kind", req.Kind.String(), "url", req.URL)
			req.Release()
		}
		return
	}
	req.Release()
	if req.URL == "" {
		return
	}
	if _, err := m.openTarget(t.window, private, req.Kind, req.URL); err != nil {
		applog.Error("tab.new_surface", err, "tab", t.ID, "kind", req.Kind.String(), "url", req.URL)
	}
}

func (m *Manager) adoptTarget(w *Window, req engine.NewSurfaceRequest) (*TabSession, error) {
	switch req.Kind {
	case engine.TargetWindow:
		var t *TabSession
		_, err := m.newWindow(false, func(nw *Window) error {
			var err error
			t, err = m.addTab(nw, req.URL, req.URL, false, true, req.Adopt)
			return err
		})
		return t, err
	case engine.TargetBackgroundTab:
		return m.addTab(w, req.URL, req.URL, false, false, req.Adopt)
	default:
		return m.addTab(w, req.URL, req.URL, false, true, req.Adopt)
	}
}

func (m *Manager) openTarget(w *Window, private bool, kind engine.TargetKind, url string) (*TabSession, error) {
	switch kind {
	case engine.TargetBackgroundTab:
		return m.OpenBackgroundTab(w, url, url, private)
	case engine.TargetWindow, engine.TargetPrivateWindow:
		nw, err := m.spawnWindow(url, private || kind == engine.TargetPrivateWindow)
		if err != nil {
			return nil, err
		}
		return nw.ActiveTab(), nil
	default:
		return m.OpenTab(w, url, url, private)
	}
}

// SearchText opens a search for text in a new tab next to t.
func (m *Manager) SearchText(t *TabSession, text string) (*TabSession, error) {
	if !m.Live(t) {
		return nil, ErrTabNotFound
	}
	target := navigate.SearchURL(m.settings.SearchEngine(), text)
	return m.OpenTab(t.window, target, text, t.Private)
}

// Snapshot returns a read-only view of every window.
func (m *Manager) Snapshot() []types.WindowInfo {
	out := make([]types.WindowInfo, 0, len(m.windows))
	for _, w := range m.windows {
		out = append(out, w.info())
	}
	return out
}

// Shutdown records the window size, closes every window and persists
// settings. OnLastWindowClosed is not called.
func (m *Manager) Shutdown(size types.WindowSize) error {
	var errs []error
	if size.Width > 0 && size.Height > 0 {
		if err := m.settings.SetWindowSize(size); err != nil {
			errs = append(errs, err)
		}
	}
	for len(m.windows) > 0 {
		m.closeWindow(m.windows[0])
	}
	m.pollers.Wait()
	if err := m.settings.Save(m.settings.Current()); err != nil {
		errs = append(errs, err)
	}
	applog.Info("shutdown")
	return errors.Join(errs...)
}

func (m *Manager) startPoller(w *Window) {
	if m.pollInterval < 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.stopPoll = cancel
	id := w.ID
	interval := m.pollInterval
	m.pollers.Add(1)
	go func() {
		defer m.pollers.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.loop.Post(func() { m.syncAddressBar(id) })
			}
		}
	}()
}

func (m *Manager) syncAddressBar(windowID string) {
	w, ok := m.byID[windowID]
	if !ok {
		applog.Debug("callback.stale", "window", windowID, "callback", "poll")
		return
	}
	if w.addressFocused {
		return
	}
	t := w.ActiveTab()
	if t == nil {
		return
	}
	if url := t.surface.URL(); url != "" && url != w.addressBar {
		t.url = url
		w.addressBar = url
	}
}
