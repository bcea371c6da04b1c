package lifecycle

import (
	"github.com/lotas/tabhost/internal/engine"
	"github.com/lotas/tabhost/internal/navigate"
	"github.com/lotas/tabhost/internal/types"
)

// pauseMediaJS pauses every audio and video element on the page.
const pauseMediaJS = `(() => {
  let n = 0;
  document.querySelectorAll('audio, video').forEach(m => { if (!m.paused) { m.pause(); n++; } });
  return n;
})()`

// TabSession pairs one surface with one profile inside one window.
type TabSession struct {
	ID      string
	Private bool

	window      *Window
	profile     engine.Profile
	ownsProfile bool
	surface     engine.Surface

	url          string
	title        string
	displayTitle string
	suspended    bool
	// nav numbers the loads this tab started; load events carrying an older
	// number are stale.
	nav uint64
	// pending is a visit waiting for load nav pending.nav to succeed.
	pending pendingVisit
}

type pendingVisit struct {
	nav uint64
	url string
}

// recordsHistory reports whether visits in t are written to history. Tabs
// of a window in private mode record nothing, whatever their profile.
func (t *TabSession) recordsHistory() bool {
	return !t.Private && !t.window.Private
}

// load starts a numbered load of url.
func (t *TabSession) load(url string) uint64 {
	t.nav++
	t.surface.Load(url, t.nav)
	return t.nav
}

// Window returns the owning window.
func (t *TabSession) Window() *Window { return t.window }

// URL returns the last known URL.
func (t *TabSession) URL() string { return t.url }

// Title returns the full page title.
func (t *TabSession) Title() string { return t.title }

// DisplayTitle returns the shortened tab label.
func (t *TabSession) DisplayTitle() string { return t.displayTitle }

// Suspended reports whether media playback was paused by the suspend policy.
func (t *TabSession) Suspended() bool { return t.suspended }

// ProfileID returns the ID of the profile the tab renders with.
func (t *TabSession) ProfileID() string { return t.profile.ID() }

func (t *TabSession) setTitle(title string) {
	t.title = title
	label := title
	if label == "" {
		label = t.url
	}
	t.displayTitle = navigate.DisplayTitle(label)
}

func (t *TabSession) info(active bool) types.TabInfo {
	return types.TabInfo{
		ID:           t.ID,
		URL:          t.url,
		Title:        t.title,
		DisplayTitle: t.displayTitle,
		Tooltip:      t.title,
		Private:      t.Private,
		Suspended:    t.suspended,
		Active:       active,
	}
}
