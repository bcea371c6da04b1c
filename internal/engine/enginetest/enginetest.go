// Package enginetest provides an in-memory engine for tests.
package enginetest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lotas/tabhost/internal/engine"
)

// ErrCreateFailed is returned by CreateSurface when FailCreate is set.
var ErrCreateFailed = errors.New("enginetest: surface creation failed")

// Engine records every surface and profile it hands out.
type Engine struct {
	mu         sync.Mutex
	shared     *Profile
	profiles   map[string]*Profile
	surfaces   []*Surface
	nextID     int
	FailCreate bool
	// ScriptResult, when set, answers every script immediately.
	ScriptResult func(js string) (any, error)
}

// New returns an empty fake engine.
func New() *Engine {
	e := &Engine{profiles: make(map[string]*Profile)}
	e.shared = &Profile{id: "default", engine: e}
	return e
}

func (e *Engine) DefaultProfile() engine.Profile { return e.shared }

func (e *Engine) NewPrivateProfile() (engine.Profile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	p := &Profile{id: fmt.Sprintf("private-%d", e.nextID), private: true, engine: e}
	e.profiles[p.id] = p
	return p, nil
}

func (e *Engine) CreateSurface(p engine.Profile, h engine.Handlers) (engine.Surface, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FailCreate {
		return nil, ErrCreateFailed
	}
	e.nextID++
	s := &Surface{id: e.nextID, profile: p, handlers: h, engine: e}
	e.surfaces = append(e.surfaces, s)
	return s, nil
}

func (e *Engine) Close() error { return nil }

// LivePrivateProfiles returns the IDs of private profiles not yet closed.
func (e *Engine) LivePrivateProfiles() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for id := range e.profiles {
		out = append(out, id)
	}
	return out
}

// Surfaces returns every surface created so far, destroyed ones included.
func (e *Engine) Surfaces() []*Surface {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Surface(nil), e.surfaces...)
}

// Last returns the most recently created surface.
func (e *Engine) Last() *Surface {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.surfaces) == 0 {
		return nil
	}
	return e.surfaces[len(e.surfaces)-1]
}

// Profile is a fake profile.
type Profile struct {
	id      string
	private bool
	closed  bool
	engine  *Engine
}

func (p *Profile) ID() string    { return p.id }
func (p *Profile) Private() bool { return p.private }

func (p *Profile) Close() error {
	p.engine.mu.Lock()
	defer p.engine.mu.Unlock()
	p.closed = true
	delete(p.engine.profiles, p.id)
	return nil
}

// Closed reports whether Close was called.
func (p *Profile) Closed() bool {
	p.engine.mu.Lock()
	defer p.engine.mu.Unlock()
	return p.closed
}

type pendingScript struct {
	js   string
	done func(any, error)
}

// Surface is a fake surface. Loads only record the URL; tests drive the
// rest through the Fire methods.
type Surface struct {
	id       int
	profile  engine.Profile
	handlers engine.Handlers
	engine   *Engine

	mu        sync.Mutex
	url       string
	title     string
	loads     []string
	nav       uint64
	scripts   []string
	pending   []pendingScript
	stops     int
	backs     int
	forwards  int
	reloads   int
	destroyed bool
	adopted   bool
}

func (s *Surface) Load(url string, nav uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads = append(s.loads, url)
	s.url = url
	s.nav = nav
}

// LastNav returns the navigation number of the latest Load.
func (s *Surface) LastNav() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav
}

func (s *Surface) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func (s *Surface) Back() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backs++
}

func (s *Surface) Forward() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forwards++
}

func (s *Surface) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloads++
}

func (s *Surface) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

func (s *Surface) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

func (s *Surface) RunScript(js string, done func(any, error)) {
	s.mu.Lock()
	s.scripts = append(s.scripts, js)
	answer := s.engine.ScriptResult
	if answer == nil {
		s.pending = append(s.pending, pendingScript{js: js, done: done})
	}
	s.mu.Unlock()
	if answer != nil && done != nil {
		done(answer(js))
	}
}

func (s *Surface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
}

// Profile returns the profile the surface was created with.
func (s *Surface) Profile() engine.Profile { return s.profile }

// Loads returns every URL passed to Load.
func (s *Surface) Loads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.loads...)
}

// Scripts returns every script passed to RunScript.
func (s *Surface) Scripts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.scripts...)
}

// Counts returns the number of Stop, Back, Forward and Reload calls.
func (s *Surface) Counts() (stops, backs, forwards, reloads int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops, s.backs, s.forwards, s.reloads
}

// Destroyed reports whether Destroy was called.
func (s *Surface) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// ResolveScripts answers every pending script with result and err.
func (s *Surface) ResolveScripts(result any, err error) {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, p := range pending {
		if p.done != nil {
			p.done(result, err)
		}
	}
}

// PendingScripts returns the number of unanswered scripts.
func (s *Surface) PendingScripts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// FireURLChanged simulates the page moving to url.
func (s *Surface) FireURLChanged(url string) {
	s.mu.Lock()
	s.url = url
	s.mu.Unlock()
	if s.handlers.URLChanged != nil {
		s.handlers.URLChanged(url)
	}
}

// FireLoadFinished sets the title and reports the end of the latest Load.
func (s *Surface) FireLoadFinished(title string, ok bool) {
	s.FireLoadFinishedFor(s.LastNav(), title, ok)
}

// FireLoadFinishedFor reports the end of the load numbered nav. Zero stands
// for a load the page started itself.
func (s *Surface) FireLoadFinishedFor(nav uint64, title string, ok bool) {
	s.mu.Lock()
	s.title = title
	h := s.handlers
	s.mu.Unlock()
	if h.LoadFinished != nil {
		h.LoadFinished(engine.LoadEvent{Nav: nav, OK: ok, Title: title})
	}
}

// FireLinkHovered simulates the pointer entering or leaving a link.
func (s *Surface) FireLinkHovered(url string) {
	if s.handlers.LinkHovered != nil {
		s.handlers.LinkHovered(url)
	}
}

// FireNewSurface simulates the page requesting a new tab or window.
func (s *Surface) FireNewSurface(kind engine.TargetKind, url string) {
	if s.handlers.NewSurfaceRequested != nil {
		s.handlers.NewSurfaceRequested(engine.NewSurfaceRequest{Kind: kind, URL: url})
	}
}

// FirePopup simulates the page opening a popup the engine already created.
// The returned surface is the popup; it is destroyed if the shell discards
// it and bound to the shell's handlers if adopted.
func (s *Surface) FirePopup(kind engine.TargetKind, url string) *Surface {
	e := s.engine
	e.mu.Lock()
	e.nextID++
	popup := &Surface{id: e.nextID, profile: s.profile, engine: e, url: url}
	e.surfaces = append(e.surfaces, popup)
	e.mu.Unlock()

	if s.handlers.NewSurfaceRequested != nil {
		s.handlers.NewSurfaceRequested(engine.NewSurfaceRequest{
			Kind: kind,
			URL:  url,
			Adopt: func(h engine.Handlers) engine.Surface {
				popup.mu.Lock()
				defer popup.mu.Unlock()
				popup.handlers = h
				popup.adopted = true
				return popup
			},
			Discard: popup.Destroy,
		})
	}
	return popup
}

// Adopted reports whether the shell took over this popup.
func (s *Surface) Adopted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adopted
}

// FireDownload simulates a download request. The returned values report
// what the handler decided once it has run.
func (s *Surface) FireDownload(url, suggested string) *FiredDownload {
	fd := &FiredDownload{}
	req := engine.NewDownloadRequest(url, suggested,
		func(path string, ev engine.DownloadEvents) {
			fd.mu.Lock()
			defer fd.mu.Unlock()
			fd.path = path
			fd.events = ev
			fd.accepted = true
		},
		func() {
			fd.mu.Lock()
			defer fd.mu.Unlock()
			fd.cancelled = true
		})
	if s.handlers.DownloadRequested != nil {
		s.handlers.DownloadRequested(req)
	}
	return fd
}

// FiredDownload records the outcome of a fired download.
type FiredDownload struct {
	mu        sync.Mutex
	path      string
	events    engine.DownloadEvents
	accepted  bool
	cancelled bool
}

// Accepted returns the chosen path when the download was accepted.
func (p *FiredDownload) Accepted() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path, p.accepted
}

// Cancelled reports whether the download was cancelled.
func (p *FiredDownload) Cancelled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}

// Progress reports transfer progress through the accepted events.
func (p *FiredDownload) Progress(received, total int64) {
	p.mu.Lock()
	ev := p.events
	p.mu.Unlock()
	if ev.OnProgress != nil {
		ev.OnProgress(received, total)
	}
}

// Finish reports the end of the transfer.
func (p *FiredDownload) Finish(err error) {
	p.mu.Lock()
	ev := p.events
	p.mu.Unlock()
	if ev.OnFinished != nil {
		ev.OnFinished(err)
	}
}
