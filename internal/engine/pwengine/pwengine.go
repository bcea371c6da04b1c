// Package pwengine drives Chromium through Playwright. The shared profile
// is a persistent browser context; each private profile is a fresh
// in-memory context; each surface is a page.
package pwengine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/lotas/tabhost/internal/applog"
	"github.com/lotas/tabhost/internal/engine"
)

const hoverBinding = "__tabhostHover"

// hoverScript reports the link under the pointer through the exposed binding.
var hoverScript = `(() => {
  let last = '';
  const report = href => { if (href !== last) { last = href; window.` + hoverBinding + `(href); } };
  document.addEventListener('mouseover', e => {
    const a = e.target && e.target.closest && e.target.closest('a[href]');
    report(a ? a.href : '');
  }, true);
})()`

// Options configures Launch.
type Options struct {
	ProfileDir string
	Headless   bool
	// Install downloads the browser binaries before starting.
	Install bool
}

// Engine is an engine.Engine backed by Playwright.
type Engine struct {
	mu       sync.Mutex
	pw       *playwright.Playwright
	headless bool
	shared   *profile
	browser  playwright.Browser
	nextID   int
}

// Launch starts Playwright and opens the shared profile.
func Launch(opts Options) (*Engine, error) {
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if opts.Install {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	if err := os.MkdirAll(opts.ProfileDir, 0o755); err != nil {
		pw.Stop()
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	ctx, err := pw.Chromium.LaunchPersistentContext(opts.ProfileDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:        playwright.Bool(opts.Headless),
		AcceptDownloads: playwright.Bool(true),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launch shared profile: %w", err)
	}
	// The persistent context opens with a blank page that no tab owns.
	for _, p := range ctx.Pages() {
		p.Close()
	}

	e := &Engine{pw: pw, headless: opts.Headless}
	e.shared = &profile{id: "default", ctx: ctx}
	applog.Info("engine.start", "profile", opts.ProfileDir, "headless", opts.Headless)
	return e, nil
}

func (e *Engine) DefaultProfile() engine.Profile { return e.shared }

// NewPrivateProfile opens a fresh context on a lazily launched browser.
func (e *Engine) NewPrivateProfile() (engine.Profile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.browser == nil {
		b, err := e.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(e.headless),
		})
		if err != nil {
			return nil, fmt.Errorf("launch private browser: %w", err)
		}
		e.browser = b
	}
	ctx, err := e.browser.NewContext(playwright.BrowserNewContextOptions{
		AcceptDownloads: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create private context: %w", err)
	}
	e.nextID++
	return &profile{id: "private-" + strconv.Itoa(e.nextID), private: true, ctx: ctx}, nil
}

// CreateSurface opens a page in p and wires its events to h.
func (e *Engine) CreateSurface(p engine.Profile, h engine.Handlers) (engine.Surface, error) {
	prof, ok := p.(*profile)
	if !ok {
		return nil, fmt.Errorf("profile %s does not belong to this engine", p.ID())
	}
	page, err := prof.ctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	s := &surface{page: page, h: h}
	if err := s.wire(); err != nil {
		page.Close()
		return nil, err
	}
	return s, nil
}

// Close shuts every context and the Playwright driver.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var errs []error
	if err := e.shared.ctx.Close(); err != nil {
		errs = append(errs, err)
	}
	if e.browser != nil {
		if err := e.browser.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.pw.Stop(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

type profile struct {
	id      string
	private bool
	ctx     playwright.BrowserContext
}

func (p *profile) ID() string    { return p.id }
func (p *profile) Private() bool { return p.private }

func (p *profile) Close() error {
	if !p.private {
		return nil
	}
	return p.ctx.Close()
}

type surface struct {
	page playwright.Page
	h    engine.Handlers

	mu        sync.Mutex
	destroyed bool
}

func (s *surface) alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.destroyed
}

func (s *surface) wire() error {
	s.page.OnLoad(func(playwright.Page) {
		if s.alive() && s.h.LoadFinished != nil {
			go s.reportLoad(0, true)
		}
	})
	s.page.OnFrameNavigated(func(f playwright.Frame) {
		if f.ParentFrame() == nil && s.alive() && s.h.URLChanged != nil {
			s.h.URLChanged(f.URL())
		}
	})
	s.page.OnPopup(func(popup playwright.Page) {
		go s.offerPopup(popup)
	})
	s.page.OnDownload(func(d playwright.Download) {
		if !s.alive() || s.h.DownloadRequested == nil {
			d.Cancel()
			return
		}
		s.h.DownloadRequested(downloadRequest(d))
	})

	if s.h.LinkHovered != nil {
		err := s.page.ExposeFunction(hoverBinding, func(args ...interface{}) interface{} {
			href := ""
			if len(args) > 0 {
				href, _ = args[0].(string)
			}
			if s.alive() {
				s.h.LinkHovered(href)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("expose hover binding: %w", err)
		}
		if err := s.page.AddInitScript(playwright.Script{Content: playwright.String(hoverScript)}); err != nil {
			return fmt.Errorf("add hover script: %w", err)
		}
	}
	return nil
}

// offerPopup hands a page opened by the site to the shell, which adopts it
// into a tab or window. Pages opened with window features (no menubar) are
// offered as windows.
func (s *surface) offerPopup(popup playwright.Page) {
	if err := popup.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateDomcontentloaded,
	}); err != nil {
		applog.Warn("engine.popup.wait", "err", err.Error())
	}
	if !s.alive() || s.h.NewSurfaceRequested == nil {
		popup.Close()
		return
	}

	kind := engine.TargetTab
	if v, err := popup.Evaluate("window.menubar.visible"); err == nil {
		if visible, ok := v.(bool); ok && !visible {
			kind = engine.TargetWindow
		}
	}

	s.h.NewSurfaceRequested(engine.NewSurfaceRequest{
		Kind: kind,
		URL:  popup.URL(),
		Adopt: func(h engine.Handlers) engine.Surface {
			ps := &surface{page: popup, h: h}
			if err := ps.wire(); err != nil {
				applog.Warn("engine.popup.wire", "err", err.Error())
			}
			return ps
		},
		Discard: func() {
			if err := popup.Close(); err != nil {
				applog.Warn("engine.popup.close", "err", err.Error())
			}
		},
	})
}

func downloadRequest(d playwright.Download) *engine.DownloadRequest {
	return engine.NewDownloadRequest(d.URL(), d.SuggestedFilename(),
		func(path string, ev engine.DownloadEvents) {
			go func() {
				err := d.SaveAs(path)
				if info, statErr := os.Stat(path); statErr == nil && ev.OnProgress != nil {
					ev.OnProgress(info.Size(), info.Size())
				}
				if ev.OnFinished != nil {
					ev.OnFinished(err)
				}
			}()
		},
		func() {
			if err := d.Cancel(); err != nil {
				applog.Warn("engine.download.cancel", "url", d.URL(), "err", err.Error())
			}
		})
}

func (s *surface) Load(url string, nav uint64) {
	go func() {
		_, err := s.page.Goto(url)
		if !s.alive() || s.h.LoadFinished == nil {
			return
		}
		if err != nil {
			applog.Warn("engine.load.failed", "url", url, "err", err.Error())
			s.h.LoadFinished(engine.LoadEvent{Nav: nav})
			return
		}
		s.reportLoad(nav, true)
	}()
}

// reportLoad reads the title off the caller's goroutine and reports the
// finished load.
func (s *surface) reportLoad(nav uint64, ok bool) {
	title := s.Title()
	if s.alive() {
		s.h.LoadFinished(engine.LoadEvent{Nav: nav, OK: ok, Title: title})
	}
}

func (s *surface) Stop() {
	if !s.alive() {
		return
	}
	go s.page.Evaluate("window.stop()")
}

func (s *surface) Back() {
	go s.page.GoBack()
}

func (s *surface) Forward() {
	go s.page.GoForward()
}

func (s *surface) Reload() {
	go s.page.Reload()
}

func (s *surface) Title() string {
	title, err := s.page.Title()
	if err != nil {
		return ""
	}
	return title
}

func (s *surface) URL() string {
	return s.page.URL()
}

func (s *surface) RunScript(js string, done func(any, error)) {
	go func() {
		if !s.alive() {
			if done != nil {
				done(nil, engine.ErrSurfaceDestroyed)
			}
			return
		}
		result, err := s.page.Evaluate(js)
		if done != nil {
			done(result, err)
		}
	}()
}

func (s *surface) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.mu.Unlock()
	if err := s.page.Close(); err != nil {
		applog.Warn("engine.page.close", "err", err.Error())
	}
}
