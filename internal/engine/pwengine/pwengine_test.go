package pwengine

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lotas/tabhost/internal/engine"
)

// Runs only when TABHOST_PLAYWRIGHT=1 and a Chromium driver is available.
func TestEngineLoadsPage(t *testing.T) {
	if os.Getenv("TABHOST_PLAYWRIGHT") != "1" {
		t.Skip("set TABHOST_PLAYWRIGHT=1 to run against a real browser")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Hello</title></head><body><a href="/next">next</a></body></html>`))
	}))
	defer srv.Close()

	e, err := Launch(Options{ProfileDir: filepath.Join(t.TempDir(), "profile"), Headless: true})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	defer e.Close()

	loaded := make(chan engine.LoadEvent, 4)
	s, err := e.CreateSurface(e.DefaultProfile(), engine.Handlers{
		LoadFinished: func(ev engine.LoadEvent) { loaded <- ev },
	})
	if err != nil {
		t.Fatalf("create surface: %v", err)
	}
	defer s.Destroy()

	s.Load(srv.URL, 7)
	deadline := time.After(20 * time.Second)
	for done := false; !done; {
		select {
		case ev := <-loaded:
			if ev.Nav != 7 {
				continue
			}
			if !ev.OK {
				t.Fatal("load failed")
			}
			if ev.Title != "Hello" {
				t.Errorf("event title = %q, want Hello", ev.Title)
			}
			done = true
		case <-deadline:
			t.Fatal("timed out waiting for load")
		}
	}
	if got := s.Title(); got != "Hello" {
		t.Errorf("Title() = %q, want Hello", got)
	}

	result := make(chan any, 1)
	s.RunScript(`document.querySelectorAll('a').length`, func(v any, err error) {
		if err != nil {
			t.Errorf("script: %v", err)
		}
		result <- v
	})
	select {
	case v := <-result:
		switch n := v.(type) {
		case int:
			if n != 1 {
				t.Errorf("link count = %d, want 1", n)
			}
		case float64:
			if n != 1 {
				t.Errorf("link count = %v, want 1", n)
			}
		default:
			t.Errorf("link count has type %T", v)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for script")
	}
}

func TestPrivateProfilesAreDistinct(t *testing.T) {
	if os.Getenv("TABHOST_PLAYWRIGHT") != "1" {
		t.Skip("set TABHOST_PLAYWRIGHT=1 to run against a real browser")
	}
	e, err := Launch(Options{ProfileDir: filepath.Join(t.TempDir(), "profile"), Headless: true})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	defer e.Close()

	a, err := e.NewPrivateProfile()
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.NewPrivateProfile()
	if err != nil {
		t.Fatal(err)
	}
	if a.ID() == b.ID() || !a.Private() || e.DefaultProfile().Private() {
		t.Errorf("unexpected profiles: %s %s", a.ID(), b.ID())
	}
	if err := a.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	b.Close()
}
