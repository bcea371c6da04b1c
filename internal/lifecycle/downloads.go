package lifecycle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lotas/tabhost/internal/applog"
	"github.com/lotas/tabhost/internal/downloads"
	"github.com/lotas/tabhost/internal/engine"
)

// PathChooser picks where a download is saved. ok is false when the user
// cancels.
type PathChooser func(dir, suggested string) (path string, ok bool)

// DefaultChooser saves into dir under the suggested name, adding a
// " (n)" suffix when the name is taken.
func DefaultChooser(dir, suggested string) (string, bool) {
	if dir == "" {
		return "", false
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		applog.Error("download.dir", err, "dir", dir)
		return "", false
	}
	name := filepath.Base(strings.TrimSpace(suggested))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "download"
	}
	path := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, true
		}
		path = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
}

// HandleDownload answers an engine download request. A cancelled choice
// drops the download without registering it.
func (m *Manager) HandleDownload(req *engine.DownloadRequest) {
	path, ok := m.chooser(m.settings.DownloadLocation(), req.SuggestedName)
	if !ok {
		applog.Info("download.cancelled", "url", req.URL, "err", downloads.ErrDownloadPathUnavailable.Error())
		req.Cancel()
		return
	}
	id := m.downloads.Register(path, req.URL)
	m.notifier.Notify(Event{Type: EventDownload, URL: req.URL, Title: path})
	req.Accept(path, engine.DownloadEvents{
		OnProgress: func(received, total int64) {
			m.loop.Post(func() {
				if err := m.downloads.UpdateProgress(id, received, total); err != nil {
					applog.Error("download.progress", err, "id", id)
				}
			})
		},
		OnFinished: func(err error) {
			m.loop.Post(func() {
				if err != nil {
					applog.Error("download.failed", err, "id", id, "url", req.URL)
				}
				if cerr := m.downloads.Complete(id, err != nil); cerr != nil {
					applog.Error("download.complete", cerr, "id", id)
				}
				m.notifier.Notify(Event{Type: EventDownload, URL: req.URL, Title: path})
			})
		},
	})
}
