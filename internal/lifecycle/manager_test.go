package lifecycle

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotas/tabhost/internal/applog"
	"github.com/lotas/tabhost/internal/engine"
	"github.com/lotas/tabhost/internal/engine/enginetest"
	"github.com/lotas/tabhost/internal/reader"
	"github.com/lotas/tabhost/internal/settings"
	"github.com/lotas/tabhost/internal/types"
)

type fixture struct {
	m     *Manager
	eng   *enginetest.Engine
	store *settings.Store
	loop  *Loop
	dlDir string
}

func newFixture(t *testing.T, mod ...func(*Options)) *fixture {
	t.Helper()
	dlDir := t.TempDir()
	store := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"), dlDir)
	eng := enginetest.New()
	loop := NewLoop()
	opts := Options{Settings: store, Engine: eng, Loop: loop, PollInterval: -1}
	for _, fn := range mod {
		fn(&opts)
	}
	return &fixture{m: New(opts), eng: eng, store: store, loop: loop, dlDir: dlDir}
}

func surfaceOf(t *TabSession) *enginetest.Surface {
	return t.surface.(*enginetest.Surface)
}

func (f *fixture) spawn(t *testing.T, private bool) *Window {
	t.Helper()
	w, err := f.m.SpawnWindow(private)
	require.NoError(t, err)
	return w
}

func (f *fixture) openN(t *testing.T, w *Window, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := f.m.OpenTab(w, "https://example.com/"+string(rune('a'+i)), "", false)
		require.NoError(t, err)
	}
}

func TestNavigateURLRecordsOneHistoryEntry(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab := w.ActiveTab()
	before := f.store.HistoryLen()

	require.NoError(t, f.m.Navigate(tab, "openai.com"))
	s := surfaceOf(tab)
	loads := s.Loads()
	assert.Equal(t, "https://openai.com", loads[len(loads)-1])
	assert.Equal(t, "https://openai.com", w.AddressBar())

	s.FireLoadFinished("OpenAI", true)
	f.loop.Drain()

	require.Equal(t, before+1, f.store.HistoryLen())
	last := f.store.RecentHistory(1)[0]
	assert.Equal(t, "https://openai.com", last.URL)
	assert.Equal(t, "OpenAI", last.Title)
}

func TestNavigateHistoryFallsBackToURL(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab := w.ActiveTab()

	require.NoError(t, f.m.Navigate(tab, "openai.com"))
	surfaceOf(tab).FireLoadFinished("", true)
	f.loop.Drain()

	last := f.store.RecentHistory(1)[0]
	assert.Equal(t, "https://openai.com", last.URL)
	assert.Equal(t, "https://openai.com", last.Title)
}

func TestNavigateFailedLoadSkipsHistory(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab := w.ActiveTab()
	before := f.store.HistoryLen()

	require.NoError(t, f.m.Navigate(tab, "openai.com"))
	surfaceOf(tab).FireLoadFinished("", false)
	f.loop.Drain()

	assert.Equal(t, before, f.store.HistoryLen())
	assert.Contains(t, w.Status(), "Failed to load")
}

func TestNavigateSearchQuery(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab := w.ActiveTab()

	require.NoError(t, f.m.Navigate(tab, "weather today"))
	loads := surfaceOf(tab).Loads()
	assert.Equal(t, "https://www.google.com/search?q=weather+today", loads[len(loads)-1])
}

func TestNavigateEmptyInputIsNoop(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab := w.ActiveTab()
	n := len(surfaceOf(tab).Loads())

	require.NoError(t, f.m.Navigate(tab, "   "))
	assert.Len(t, surfaceOf(tab).Loads(), n)
}

func TestOpenTabDefaultsToHomepageAndRecordsHistory(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)

	tab, err := f.m.OpenTab(w, "", "Home", false)
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultHomepage, surfaceOf(tab).Loads()[0])
	assert.Same(t, tab, w.ActiveTab())

	last := f.store.RecentHistory(1)[0]
	assert.Equal(t, settings.DefaultHomepage, last.URL)
	assert.Equal(t, "Home", last.Title)
}

func TestCloseMiddleTabKeepsActiveSession(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	f.openN(t, w, 2)
	require.Equal(t, 3, w.Len())
	require.Equal(t, 2, w.ActiveIndex())
	active := w.ActiveTab()

	require.NoError(t, f.m.CloseTab(w, 1))

	assert.Equal(t, 2, w.Len())
	assert.Equal(t, 1, w.ActiveIndex())
	assert.Same(t, active, w.ActiveTab())
}

func TestCloseActiveTabActivatesNeighbour(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	f.openN(t, w, 3)
	require.NoError(t, f.m.SwitchTab(w, 1))
	next := w.Tab(2)

	require.NoError(t, f.m.CloseTab(w, 1))
	assert.Equal(t, 1, w.ActiveIndex())
	assert.Same(t, next, w.ActiveTab())
	assert.False(t, next.Suspended())

	// closing the last position clamps to the new last tab
	require.NoError(t, f.m.SwitchTab(w, w.Len()-1))
	require.NoError(t, f.m.CloseTab(w, w.Len()-1))
	assert.Equal(t, w.Len()-1, w.ActiveIndex())
}

func TestCloseTabQuiescesBeforeRemoval(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	f.openN(t, w, 1)
	tab := w.Tab(0)
	s := surfaceOf(tab)

	require.NoError(t, f.m.CloseTab(w, 0))

	assert.True(t, s.Destroyed())
	stops, _, _, _ := s.Counts()
	assert.Equal(t, 1, stops)
	assert.Contains(t, s.Scripts(), pauseMediaJS)
	assert.False(t, f.m.Live(tab))
	_, err := f.m.TabByID(tab.ID)
	assert.ErrorIs(t, err, ErrTabNotFound)
}

func TestCloseLastTabClosesWindow(t *testing.T) {
	lastClosed := false
	f := newFixture(t, func(o *Options) { o.OnLastWindowClosed = func() { lastClosed = true } })
	w := f.spawn(t, false)

	require.NoError(t, f.m.CloseTab(w, 0))
	assert.True(t, w.Closed())
	assert.Empty(t, f.m.Windows())
	assert.True(t, lastClosed)

	assert.ErrorIs(t, f.m.CloseTab(w, 0), ErrWindowNotFound)
	_, err := f.m.OpenTab(w, "https://example.com", "", false)
	assert.ErrorIs(t, err, ErrWindowNotFound)
}

func TestCloseTabIndexOutOfRange(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	assert.ErrorIs(t, f.m.CloseTab(w, 3), ErrIndexOutOfRange)
	assert.ErrorIs(t, f.m.CloseTab(w, -1), ErrIndexOutOfRange)
	assert.ErrorIs(t, f.m.SwitchTab(w, 1), ErrIndexOutOfRange)
}

func TestRandomOpenCloseKeepsWindowsNonEmpty(t *testing.T) {
	f := newFixture(t)
	rng := rand.New(rand.NewSource(7))
	w := f.spawn(t, false)

	for step := 0; step < 300; step++ {
		if w.Closed() {
			w = f.spawn(t, false)
		}
		switch rng.Intn(3) {
		case 0:
			_, err := f.m.OpenTab(w, "https://example.com", "", rng.Intn(4) == 0)
			require.NoError(t, err)
		case 1:
			prevActive := w.ActiveTab()
			prevIdx := w.ActiveIndex()
			i := rng.Intn(w.Len())
			n := w.Len()
			require.NoError(t, f.m.CloseTab(w, i))
			if n == 1 {
				continue
			}
			switch {
			case i < prevIdx:
				assert.Equal(t, prevIdx-1, w.ActiveIndex())
				assert.Same(t, prevActive, w.ActiveTab())
			case i > prevIdx:
				assert.Equal(t, prevIdx, w.ActiveIndex())
			default:
				want := i
				if want > w.Len()-1 {
					want = w.Len() - 1
				}
				assert.Equal(t, want, w.ActiveIndex())
			}
		case 2:
			require.NoError(t, f.m.SwitchTab(w, rng.Intn(w.Len())))
		}
		for _, live := range f.m.Windows() {
			require.GreaterOrEqual(t, live.Len(), 1)
			require.Less(t, live.ActiveIndex(), live.Len())
		}
	}
}

func TestPrivateTabsNeverWriteHistory(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	before := f.store.HistoryLen()

	tab, err := f.m.OpenTab(w, "https://secret.example", "Secret", true)
	require.NoError(t, err)
	assert.True(t, tab.Private)
	profileID := tab.ProfileID()
	assert.Contains(t, f.eng.LivePrivateProfiles(), profileID)

	for _, in := range []string{"openai.com", "weather today"} {
		require.NoError(t, f.m.Navigate(tab, in))
		surfaceOf(tab).FireLoadFinished("Page", true)
		f.loop.Drain()
	}
	assert.Equal(t, before, f.store.HistoryLen())

	require.NoError(t, f.m.CloseTab(w, w.ActiveIndex()))
	assert.NotContains(t, f.eng.LivePrivateProfiles(), profileID)
}

func TestPrivateTabsGetSeparateProfiles(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, true)
	first := w.ActiveTab()
	second, err := f.m.OpenTab(w, "https://example.com", "", false)
	require.NoError(t, err)

	assert.True(t, second.Private, "tabs in a private window are private")
	assert.NotEqual(t, first.ProfileID(), second.ProfileID())
	assert.Equal(t, BlankURL, surfaceOf(first).Loads()[0])
	assert.Len(t, f.eng.LivePrivateProfiles(), 2)

	require.NoError(t, f.m.CloseWindow(w))
	assert.Empty(t, f.eng.LivePrivateProfiles())
}

func TestSharedProfileForNormalTabs(t *testing.T) {
	f := newFixture(t)
	w1 := f.spawn(t, false)
	w2 := f.spawn(t, false)
	assert.Equal(t, w1.ActiveTab().ProfileID(), w2.ActiveTab().ProfileID())
	assert.Equal(t, f.eng.DefaultProfile().ID(), w1.ActiveTab().ProfileID())
}

func TestSwitchTabIsIdempotent(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	f.openN(t, w, 2)

	require.NoError(t, f.m.SwitchTab(w, 0))
	counts := make([]int, w.Len())
	for i, tab := range w.Tabs() {
		counts[i] = len(surfaceOf(tab).Scripts())
	}

	require.NoError(t, f.m.SwitchTab(w, 0))
	for i, tab := range w.Tabs() {
		assert.Len(t, surfaceOf(tab).Scripts(), counts[i], "tab %d", i)
	}
	assert.Equal(t, 0, w.ActiveIndex())
}

func TestSuspendSkipsAlreadySuspended(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	f.openN(t, w, 2)
	first := w.Tab(0)
	require.True(t, first.Suspended())
	n := len(surfaceOf(first).Scripts())

	require.NoError(t, f.m.SwitchTab(w, 1))
	assert.Len(t, surfaceOf(first).Scripts(), n)

	require.NoError(t, f.m.SwitchTab(w, 0))
	assert.False(t, first.Suspended())
	assert.True(t, w.Tab(1).Suspended())
	assert.True(t, w.Tab(2).Suspended())
	assert.Equal(t, first.URL(), w.AddressBar())
}

func TestNextPreviousTabDoNotWrap(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	f.openN(t, w, 1)

	require.NoError(t, f.m.NextTab(w))
	assert.Equal(t, 1, w.ActiveIndex())
	require.NoError(t, f.m.PreviousTab(w))
	require.NoError(t, f.m.PreviousTab(w))
	assert.Equal(t, 0, w.ActiveIndex())
}

func TestStaleCallbacksAreIgnored(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	f.openN(t, w, 1)
	closed := w.Tab(1)
	s := surfaceOf(closed)
	require.NoError(t, f.m.Navigate(closed, "openai.com"))
	require.NoError(t, f.m.CloseTab(w, 1))
	before := f.store.HistoryLen()
	bar := w.AddressBar()

	s.FireURLChanged("https://late.example")
	s.FireLoadFinished("Late", true)
	s.FireLinkHovered("https://hover.example")
	s.FireNewSurface(engine.TargetTab, "https://popup.example")
	f.loop.Drain()

	assert.Equal(t, before, f.store.HistoryLen())
	assert.Equal(t, bar, w.AddressBar())
	assert.Equal(t, 1, w.Len())
	assert.Empty(t, w.Status())
}

func TestURLChangeOnlyUpdatesAddressBarForActiveTab(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	f.openN(t, w, 1)
	inactive := w.Tab(0)
	active := w.Tab(1)

	surfaceOf(inactive).FireURLChanged("https://background.example")
	f.loop.Drain()
	assert.NotEqual(t, "https://background.example", w.AddressBar())
	assert.Equal(t, "https://background.example", inactive.URL())

	surfaceOf(active).FireURLChanged("https://front.example")
	f.loop.Drain()
	assert.Equal(t, "https://front.example", w.AddressBar())

	f.m.SetAddressFocus(w, true)
	surfaceOf(active).FireURLChanged("https://typing.example")
	f.loop.Drain()
	assert.Equal(t, "https://front.example", w.AddressBar())
}

func TestLoadFinishedSetsTitleAndTooltip(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab := w.ActiveTab()

	surfaceOf(tab).FireLoadFinished("A Very Long Page Title That Keeps Going", true)
	f.loop.Drain()

	assert.Equal(t, "A Very Long Page Tit...", tab.DisplayTitle())
	info := f.m.Snapshot()[0].Tabs[0]
	assert.Equal(t, "A Very Long Page Title That Keeps Going", info.Tooltip)
	assert.Equal(t, "A Very Long Page Tit...", info.DisplayTitle)
}

func TestLinkHoverSetsStatus(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	surfaceOf(w.ActiveTab()).FireLinkHovered("https://hover.example")
	f.loop.Drain()
	assert.Equal(t, "https://hover.example", w.Status())
}

func TestSurfaceCreationFailure(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	f.eng.FailCreate = true

	_, err := f.m.OpenTab(w, "https://example.com", "", false)
	assert.ErrorIs(t, err, ErrSurfaceCreationFailed)
	_, err = f.m.OpenTab(w, "https://example.com", "", true)
	assert.ErrorIs(t, err, ErrSurfaceCreationFailed)

	assert.Equal(t, 1, w.Len())
	assert.Empty(t, f.eng.LivePrivateProfiles())

	_, err = f.m.SpawnWindow(false)
	assert.ErrorIs(t, err, ErrSurfaceCreationFailed)
	assert.Len(t, f.m.Windows(), 1)
}

func TestNewSurfaceRouting(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	src := surfaceOf(w.ActiveTab())

	src.FireNewSurface(engine.TargetTab, "https://tab.example")
	f.loop.Drain()
	require.Equal(t, 2, w.Len())
	assert.Equal(t, 1, w.ActiveIndex())
	assert.Equal(t, "https://tab.example", w.ActiveTab().URL())

	src.FireNewSurface(engine.TargetBackgroundTab, "https://bg.example")
	f.loop.Drain()
	require.Equal(t, 3, w.Len())
	assert.Equal(t, 1, w.ActiveIndex())
	assert.Equal(t, "https://bg.example", w.Tab(2).URL())

	src.FireNewSurface(engine.TargetWindow, "https://win.example")
	f.loop.Drain()
	require.Len(t, f.m.Windows(), 2)
	nw := f.m.Windows()[1]
	assert.False(t, nw.Private)
	assert.Equal(t, "https://win.example", nw.ActiveTab().URL())

	src.FireNewSurface(engine.TargetPrivateWindow, "https://priv.example")
	f.loop.Drain()
	require.Len(t, f.m.Windows(), 3)
	pw := f.m.Windows()[2]
	assert.True(t, pw.Private)
	assert.True(t, pw.ActiveTab().Private)
}

func TestNewSurfaceFromPrivateTabStaysPrivate(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, true)
	surfaceOf(w.ActiveTab()).FireNewSurface(engine.TargetWindow, "https://x.example")
	f.loop.Drain()

	require.Len(t, f.m.Windows(), 2)
	assert.True(t, f.m.Windows()[1].ActiveTab().Private)
}

func TestContextMenuLinkLookup(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab := w.ActiveTab()
	s := surfaceOf(tab)

	_, err := f.m.OpenContextMenu(tab, 10, 20)
	require.NoError(t, err)
	assert.True(t, strings.Contains(s.Scripts()[len(s.Scripts())-1], "elementFromPoint(10, 20)"))

	s.ResolveScripts("https://link.example", nil)
	f.loop.Drain()
	menu, ok := f.m.ContextMenu(w)
	require.True(t, ok)
	assert.True(t, menu.Resolved)
	assert.Equal(t, "https://link.example", menu.Link)

	opened, err := f.m.OpenMenuLink(w, engine.TargetTab)
	require.NoError(t, err)
	assert.Equal(t, "https://link.example", opened.URL())
	_, ok = f.m.ContextMenu(w)
	assert.False(t, ok)
}

func TestContextMenuLateLookupIsDropped(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab := w.ActiveTab()
	s := surfaceOf(tab)

	_, err := f.m.OpenContextMenu(tab, 1, 1)
	require.NoError(t, err)
	f.m.DismissContextMenu(w)
	s.ResolveScripts("https://late.example", nil)
	f.loop.Drain()

	_, ok := f.m.ContextMenu(w)
	assert.False(t, ok)
	_, err = f.m.OpenMenuLink(w, engine.TargetTab)
	assert.ErrorIs(t, err, ErrNoLink)
	assert.Equal(t, 1, w.Len())
}

func TestContextMenuLookupForOlderMenuIsDropped(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab := w.ActiveTab()
	s := surfaceOf(tab)

	_, err := f.m.OpenContextMenu(tab, 1, 1)
	require.NoError(t, err)
	second, err := f.m.OpenContextMenu(tab, 2, 2)
	require.NoError(t, err)

	s.ResolveScripts("", nil)
	f.loop.Drain()
	menu, ok := f.m.ContextMenu(w)
	require.True(t, ok)
	assert.Equal(t, second, menu.Token)
	assert.Empty(t, menu.Link)
}

func TestContextMenuLookupFailureMeansNoLink(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab := w.ActiveTab()

	_, err := f.m.OpenContextMenu(tab, 1, 1)
	require.NoError(t, err)
	surfaceOf(tab).ResolveScripts(nil, errors.New("evaluation failed"))
	f.loop.Drain()

	menu, ok := f.m.ContextMenu(w)
	require.True(t, ok)
	assert.True(t, menu.Resolved)
	assert.Empty(t, menu.Link)
}

func TestSearchText(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab, err := f.m.SearchText(w.ActiveTab(), "go generics")
	require.NoError(t, err)
	assert.Equal(t, "https://www.google.com/search?q=go+generics", tab.URL())
	assert.Same(t, tab, w.ActiveTab())
}

func TestDownloadAcceptedAndTracked(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	s := surfaceOf(w.ActiveTab())

	dl := s.FireDownload("https://example.com/file.zip", "file.zip")
	f.loop.Drain()
	path, ok := dl.Accepted()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(f.dlDir, "file.zip"), path)

	dl.Progress(10, 100)
	f.loop.Drain()
	recent := f.m.Downloads().Recent(10)
	require.Len(t, recent, 1)
	assert.Equal(t, 10, recent[0].Percent())

	dl.Finish(nil)
	f.loop.Drain()
	recent = f.m.Downloads().Recent(10)
	assert.True(t, recent[0].Done)
	assert.False(t, recent[0].Failed)
}

func TestDownloadCancelledRecordsNothing(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.Chooser = func(string, string) (string, bool) { return "", false }
	})
	w := f.spawn(t, false)

	dl := surfaceOf(w.ActiveTab()).FireDownload("https://example.com/a", "a")
	f.loop.Drain()

	assert.True(t, dl.Cancelled())
	assert.Zero(t, f.m.Downloads().Len())
}

func TestDefaultChooserAvoidsCollisions(t *testing.T) {
	dir := t.TempDir()
	first, ok := DefaultChooser(dir, "report.pdf")
	require.True(t, ok)
	require.NoError(t, writeEmpty(first))

	second, ok := DefaultChooser(dir, "report.pdf")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "report (1).pdf"), second)

	blank, ok := DefaultChooser(dir, "")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "download"), blank)

	_, ok = DefaultChooser("", "x")
	assert.False(t, ok)
}

func TestPollerSyncsAddressBarAndStops(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.PollInterval = 5 * time.Millisecond })
	w := f.spawn(t, false)
	s := surfaceOf(w.ActiveTab())

	s.Load("https://moved.example", 0)
	require.Eventually(t, func() bool {
		f.loop.Drain()
		return w.AddressBar() == "https://moved.example"
	}, time.Second, 5*time.Millisecond)

	f.m.SetAddressFocus(w, true)
	s.Load("https://typing.example", 0)
	time.Sleep(30 * time.Millisecond)
	f.loop.Drain()
	assert.Equal(t, "https://moved.example", w.AddressBar())

	require.NoError(t, f.m.CloseWindow(w))
	done := make(chan struct{})
	go func() {
		f.m.pollers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after window close")
	}
	f.loop.Drain()
}

func TestNavigationControls(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab := w.ActiveTab()

	require.NoError(t, f.m.Back(tab))
	require.NoError(t, f.m.Forward(tab))
	require.NoError(t, f.m.Reload(tab))
	require.NoError(t, f.m.Stop(tab))
	stops, backs, forwards, reloads := surfaceOf(tab).Counts()
	assert.Equal(t, []int{1, 1, 1, 1}, []int{stops, backs, forwards, reloads})

	require.NoError(t, f.m.Home(tab))
	loads := surfaceOf(tab).Loads()
	assert.Equal(t, settings.DefaultHomepage, loads[len(loads)-1])

	f.openN(t, w, 1)
	require.NoError(t, f.m.CloseTab(w, 0))
	assert.ErrorIs(t, f.m.Back(tab), ErrTabNotFound)
	assert.ErrorIs(t, f.m.Navigate(tab, "x.com"), ErrTabNotFound)
}

func TestTogglePrivateMode(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	on, err := f.m.TogglePrivateMode(w)
	require.NoError(t, err)
	assert.True(t, on)

	tab, err := f.m.OpenTab(w, "https://example.com", "", false)
	require.NoError(t, err)
	assert.True(t, tab.Private)
	assert.False(t, w.Tab(0).Private)
}

func TestAddBookmarkForActive(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab := w.ActiveTab()
	require.NoError(t, f.m.Navigate(tab, "go.dev"))
	surfaceOf(tab).FireLoadFinished("The Go Programming Language", true)
	f.loop.Drain()

	require.NoError(t, f.m.AddBookmarkForActive(w, "Dev", ""))
	list, err := f.store.Bookmarks("Dev")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, types.Bookmark{Name: "The Go Programming Language", URL: "https://go.dev"}, list[0])

	assert.ErrorIs(t, f.m.AddBookmarkForActive(w, "Dev", ""), settings.ErrDuplicateBookmark)
}

func TestOpenWindowWithURLs(t *testing.T) {
	f := newFixture(t)
	w, err := f.m.OpenWindowWithURLs([]string{"https://a.example", "https://b.example", "https://c.example"}, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, 1, w.ActiveIndex())
	assert.Equal(t, "https://b.example", w.AddressBar())
}

func TestOpenWindowWithURLsIgnoresBadActiveIndex(t *testing.T) {
	f := newFixture(t)
	w, err := f.m.OpenWindowWithURLs([]string{"https://a.example", "https://b.example"}, 5, false)
	require.NoError(t, err)
	assert.Equal(t, 2, w.Len())
	assert.Equal(t, 0, w.ActiveIndex())
	assert.Equal(t, "https://a.example", w.AddressBar())
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	_, err := f.m.OpenTab(w, "https://p.example", "P", true)
	require.NoError(t, err)

	snap := f.m.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, w.ID, snap[0].ID)
	require.Len(t, snap[0].Tabs, 2)
	assert.True(t, snap[0].Tabs[1].Private)
	assert.True(t, snap[0].Tabs[1].Active)
	assert.False(t, snap[0].Tabs[0].Active)
}

func TestShutdownReleasesEverything(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.PollInterval = 5 * time.Millisecond })
	w1 := f.spawn(t, false)
	f.spawn(t, true)
	f.openN(t, w1, 1)

	require.NoError(t, f.m.Shutdown(types.WindowSize{Width: 1024, Height: 768}))
	assert.Empty(t, f.m.Windows())
	for _, s := range f.eng.Surfaces() {
		assert.True(t, s.Destroyed())
	}
	assert.Empty(t, f.eng.LivePrivateProfiles())
	assert.Equal(t, 1024, f.store.Current().WindowSize.Width)
	f.loop.Drain()
}

func TestReaderView(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab := w.ActiveTab()
	f.eng.ScriptResult = func(js string) (any, error) {
		return `<html><head><title>Doc</title></head><body><article><p>` +
			strings.Repeat("Readable paragraph text for extraction. ", 20) +
			`</p></article></body></html>`, nil
	}

	var got reader.Article
	var gotErr error
	called := false
	require.NoError(t, f.m.ReaderView(tab, func(a reader.Article, err error) {
		got, gotErr, called = a, err, true
	}))
	f.loop.Drain()

	require.True(t, called)
	require.NoError(t, gotErr)
	assert.Contains(t, got.Text, "Readable paragraph")
}

type recordingNotifier struct{ events []Event }

func (r *recordingNotifier) Notify(ev Event) { r.events = append(r.events, ev) }

func TestNotifierHidesPrivateURLs(t *testing.T) {
	rec := &recordingNotifier{}
	f := newFixture(t, func(o *Options) { o.Notifier = rec })
	w := f.spawn(t, false)
	_, err := f.m.OpenTab(w, "https://secret.example", "", true)
	require.NoError(t, err)

	require.NotEmpty(t, rec.events)
	last := rec.events[len(rec.events)-1]
	assert.Equal(t, EventTabOpened, last.Type)
	assert.Empty(t, last.URL)
	assert.Equal(t, EventTabOpened, rec.events[0].Type)
	assert.Equal(t, EventWindowOpened, rec.events[1].Type)
}

func writeEmpty(path string) error {
	return os.WriteFile(path, nil, 0o644)
}

func TestAbortedLoadKeepsNewerNavigationPending(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab := w.ActiveTab()
	s := surfaceOf(tab)
	before := f.store.HistoryLen()

	require.NoError(t, f.m.Navigate(tab, "openai.com"))
	s.FireLoadFinished("", false)
	s.FireLoadFinished("OpenAI", true)
	f.loop.Drain()

	require.Equal(t, before+1, f.store.HistoryLen())
	last := f.store.RecentHistory(1)[0]
	assert.Equal(t, "https://openai.com", last.URL)
	assert.Equal(t, "OpenAI", last.Title)
}

func TestLoadForReplacedNavigationIsIgnored(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab := w.ActiveTab()
	s := surfaceOf(tab)

	require.NoError(t, f.m.Navigate(tab, "old.example"))
	old := s.LastNav()
	require.NoError(t, f.m.Navigate(tab, "new.example"))
	before := f.store.HistoryLen()

	s.FireLoadFinishedFor(old, "Old Page", true)
	f.loop.Drain()
	assert.Equal(t, before, f.store.HistoryLen())
	assert.NotEqual(t, "Old Page", tab.Title())

	s.FireLoadFinished("New Page", true)
	f.loop.Drain()
	require.Equal(t, before+1, f.store.HistoryLen())
	last := f.store.RecentHistory(1)[0]
	assert.Equal(t, "https://new.example", last.URL)
	assert.Equal(t, "New Page", last.Title)
}

func TestPageInitiatedLoadOnlyUpdatesTitle(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab := w.ActiveTab()
	before := f.store.HistoryLen()

	surfaceOf(tab).FireLoadFinishedFor(0, "Clicked", true)
	f.loop.Drain()

	assert.Equal(t, before, f.store.HistoryLen())
	assert.Equal(t, "Clicked", tab.Title())
}

func TestPrivateModeWindowSkipsNavigationHistory(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	tab := w.ActiveTab()
	_, err := f.m.TogglePrivateMode(w)
	require.NoError(t, err)
	require.True(t, w.Private)
	require.False(t, tab.Private)
	before := f.store.HistoryLen()

	require.NoError(t, f.m.Navigate(tab, "openai.com"))
	surfaceOf(tab).FireLoadFinished("OpenAI", true)
	f.loop.Drain()

	assert.Equal(t, before, f.store.HistoryLen())
}

func TestPopupAdoptedAsTab(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	src := surfaceOf(w.ActiveTab())

	popup := src.FirePopup(engine.TargetTab, "https://popup.example")
	f.loop.Drain()

	require.Equal(t, 2, w.Len())
	tab := w.ActiveTab()
	assert.Same(t, popup, surfaceOf(tab))
	assert.True(t, popup.Adopted())
	assert.False(t, popup.Destroyed())
	assert.Empty(t, popup.Loads())
	assert.Equal(t, "https://popup.example", tab.URL())

	popup.FireLoadFinished("Popup", true)
	f.loop.Drain()
	assert.Equal(t, "Popup", tab.Title())
}

func TestPopupAdoptedAsWindow(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)

	popup := surfaceOf(w.ActiveTab()).FirePopup(engine.TargetWindow, "https://win.example")
	f.loop.Drain()

	require.Len(t, f.m.Windows(), 2)
	nw := f.m.Windows()[1]
	assert.False(t, nw.Private)
	assert.Same(t, popup, surfaceOf(nw.ActiveTab()))
	assert.Equal(t, 1, w.Len())
}

func TestPopupFromPrivateTabIsReopened(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, true)

	popup := surfaceOf(w.ActiveTab()).FirePopup(engine.TargetTab, "https://secret.example")
	f.loop.Drain()

	assert.True(t, popup.Destroyed())
	assert.False(t, popup.Adopted())
	require.Equal(t, 2, w.Len())
	tab := w.ActiveTab()
	assert.True(t, tab.Private)
	assert.NotSame(t, popup, surfaceOf(tab))
	assert.Equal(t, []string{"https://secret.example"}, surfaceOf(tab).Loads())
}

func TestPopupFromClosedTabIsDiscarded(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	f.openN(t, w, 1)
	src := surfaceOf(w.Tab(1))
	require.NoError(t, f.m.CloseTab(w, 1))

	popup := src.FirePopup(engine.TargetTab, "https://late.example")
	f.loop.Drain()

	assert.True(t, popup.Destroyed())
	assert.Equal(t, 1, w.Len())
}

func TestCloseTabDoesNotWarnAboutDroppedScripts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, applog.Init(dir, "debug"))
	t.Cleanup(applog.Close)

	f := newFixture(t)
	w := f.spawn(t, false)
	f.openN(t, w, 1)
	s := surfaceOf(w.Tab(1))
	require.NoError(t, f.m.CloseTab(w, 1))

	s.ResolveScripts(nil, engine.ErrSurfaceDestroyed)
	f.loop.Drain()
	applog.Close()

	raw, err := os.ReadFile(filepath.Join(dir, "tabhost.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "script.failed")
	assert.Contains(t, string(raw), "script.skipped")
}

func TestZoomClampsAndAppliesToOpenTabs(t *testing.T) {
	f := newFixture(t)
	w := f.spawn(t, false)
	s := surfaceOf(w.ActiveTab())

	require.NoError(t, f.m.ZoomIn())
	assert.InDelta(t, 1.1, f.m.Zoom(), 1e-9)
	assert.Contains(t, s.Scripts(), `document.documentElement.style.zoom = "1.1"`)

	require.NoError(t, f.m.SetZoom(10))
	assert.Equal(t, settings.MaxZoom, f.store.Current().ZoomLevel)
	require.NoError(t, f.m.SetZoom(0))
	assert.Equal(t, settings.MinZoom, f.m.Zoom())

	n := len(s.Scripts())
	s.FireLoadFinished("Page", true)
	f.loop.Drain()
	assert.Len(t, s.Scripts(), n+1)

	require.NoError(t, f.m.ZoomReset())
	n = len(s.Scripts())
	s.FireLoadFinished("Page", true)
	f.loop.Drain()
	assert.Len(t, s.Scripts(), n)
}
