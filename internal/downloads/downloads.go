package downloads

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lotas/tabhost/internal/applog"
	"github.com/lotas/tabhost/internal/types"
)

// ShownLimit is the number of downloads a listing returns.
const ShownLimit = 10

var (
	ErrDownloadNotFound        = errors.New("download not found")
	ErrDownloadPathUnavailable = errors.New("download path unavailable")
)

// Registry tracks downloads for display. Nothing is persisted and the
// transfer itself is done elsewhere.
type Registry struct {
	mu    sync.Mutex
	now   func() time.Time
	items []*types.Download
	byID  map[string]*types.Download
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{now: time.Now, byID: make(map[string]*types.Download)}
}

// Register starts tracking a download and returns its handle.
func (r *Registry) Register(path, sourceURL string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := &types.Download{
		ID:        uuid.NewString(),
		Path:      path,
		SourceURL: sourceURL,
		StartTime: r.now(),
	}
	r.items = append(r.items, d)
	r.byID[d.ID] = d
	applog.Info("download.start", "id", d.ID, "path", path, "url", sourceURL)
	return d.ID
}

// UpdateProgress records transferred bytes. total <= 0 means unknown.
func (r *Registry) UpdateProgress(id string, received, total int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDownloadNotFound, id)
	}
	d.BytesReceived = received
	d.BytesTotal = total
	return nil
}

// Complete marks a download finished. A failed download is still terminal.
func (r *Registry) Complete(id string, failed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDownloadNotFound, id)
	}
	d.Done = true
	d.Failed = failed
	if !failed && d.BytesTotal > 0 {
		d.BytesReceived = d.BytesTotal
	}
	applog.Info("download.done", "id", id, "failed", failed, "bytes", d.BytesReceived)
	return nil
}

// Get returns a copy of a download.
func (r *Registry) Get(id string) (types.Download, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		return types.Download{}, fmt.Errorf("%w: %s", ErrDownloadNotFound, id)
	}
	return *d, nil
}

// Recent returns up to n downloads, newest last.
func (r *Registry) Recent(n int) []types.Download {
	r.mu.Lock()
	defer r.mu.Unlock()
	start := 0
	if n > 0 && len(r.items) > n {
		start = len(r.items) - n
	}
	out := make([]types.Download, 0, len(r.items)-start)
	for _, d := range r.items[start:] {
		out = append(out, *d)
	}
	return out
}

// Len returns the total number of registered downloads.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
