// Package engine defines the contract between the shell and the embedded
// web engine that renders pages.
package engine

import "errors"

// ErrSurfaceDestroyed is reported to scripts that could not run because the
// surface was destroyed first.
var ErrSurfaceDestroyed = errors.New("surface destroyed")

// TargetKind says where content requested by a page should open.
type TargetKind int

const (
	TargetTab TargetKind = iota
	TargetBackgroundTab
	TargetWindow
	TargetPrivateWindow
)

func (k TargetKind) String() string {
	switch k {
	case TargetTab:
		return "tab"
	case TargetBackgroundTab:
		return "background-tab"
	case TargetWindow:
		return "window"
	case TargetPrivateWindow:
		return "private-window"
	default:
		return "unknown"
	}
}

// Engine creates profiles and surfaces.
type Engine interface {
	// DefaultProfile returns the shared persistent profile.
	DefaultProfile() Profile
	// NewPrivateProfile returns a fresh ephemeral profile owned by the caller.
	NewPrivateProfile() (Profile, error)
	// CreateSurface allocates a rendering surface bound to p. Handlers may be
	// called from any goroutine.
	CreateSurface(p Profile, h Handlers) (Surface, error)
	Close() error
}

// Profile is a set of cookies, cache and storage.
type Profile interface {
	ID() string
	Private() bool
	Close() error
}

// Surface renders one page.
type Surface interface {
	// Load starts loading url. nav is echoed in the LoadEvent that ends this
	// load so callers can tell it apart from loads it replaced.
	Load(url string, nav uint64)
	Stop()
	Back()
	Forward()
	Reload()
	Title() string
	URL() string
	// RunScript evaluates js asynchronously and reports through done.
	RunScript(js string, done func(result any, err error))
	Destroy()
}

// NewSurfaceRequest is a page asking for content to open outside itself.
type NewSurfaceRequest struct {
	Kind TargetKind
	URL  string
	// Adopt is set when the engine already created a surface for the
	// request, as with script-opened popups. It binds h to that surface and
	// returns it; the opener relationship is kept.
	Adopt func(h Handlers) Surface
	// Discard closes the engine-created surface when it is not adopted.
	Discard func()
}

// Release closes an engine-created surface nobody adopted.
func (r NewSurfaceRequest) Release() {
	if r.Discard != nil {
		r.Discard()
	}
}

// LoadEvent reports the end of a load. Nav is the number passed to
// Surface.Load, or zero for loads the page started itself (links, history,
// reloads).
type LoadEvent struct {
	Nav   uint64
	OK    bool
	Title string
}

// DownloadEvents receives transfer progress for an accepted download.
type DownloadEvents struct {
	OnProgress func(received, total int64)
	OnFinished func(err error)
}

// DownloadRequest is a pending download waiting for a destination.
type DownloadRequest struct {
	URL           string
	SuggestedName string

	accept func(path string, ev DownloadEvents)
	cancel func()
}

// NewDownloadRequest builds a request. Engines supply the accept and cancel
// hooks.
func NewDownloadRequest(url, suggested string, accept func(string, DownloadEvents), cancel func()) *DownloadRequest {
	return &DownloadRequest{URL: url, SuggestedName: suggested, accept: accept, cancel: cancel}
}

// Accept starts the transfer into path.
func (r *DownloadRequest) Accept(path string, ev DownloadEvents) {
	if r.accept != nil {
		r.accept(path, ev)
	}
}

// Cancel drops the download.
func (r *DownloadRequest) Cancel() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Handlers are the callbacks a surface reports through. Nil fields are skipped.
type Handlers struct {
	URLChanged          func(url string)
	LoadFinished        func(ev LoadEvent)
	LinkHovered         func(url string)
	NewSurfaceRequested func(req NewSurfaceRequest)
	DownloadRequested   func(req *DownloadRequest)
}
