package lifecycle

import (
	"fmt"

	"github.com/lotas/tabhost/internal/applog"
	"github.com/lotas/tabhost/internal/settings"
)

// ZoomStep is the change applied by ZoomIn and ZoomOut.
const ZoomStep = 0.1

const zoomJS = `document.documentElement.style.zoom = "%g"`

// Zoom returns the stored page zoom.
func (m *Manager) Zoom() float64 {
	return m.settings.ZoomLevel()
}

// SetZoom stores level, clamped, and applies it to every open tab.
func (m *Manager) SetZoom(level float64) error {
	level = settings.ClampZoom(level)
	if err := m.settings.SetZoomLevel(level); err != nil {
		return err
	}
	applog.Info("zoom.set", "level", level)
	for _, w := range m.windows {
		for _, t := range w.tabs {
			if !t.suspended {
				m.runZoom(t, level)
			}
		}
	}
	return nil
}

// ZoomIn raises the zoom by one step.
func (m *Manager) ZoomIn() error { return m.SetZoom(m.Zoom() + ZoomStep) }

// ZoomOut lowers the zoom by one step.
func (m *Manager) ZoomOut() error { return m.SetZoom(m.Zoom() - ZoomStep) }

// ZoomReset restores the default zoom.
func (m *Manager) ZoomReset() error { return m.SetZoom(1) }

// applyZoom reapplies a non-default zoom after a page load.
func (m *Manager) applyZoom(t *TabSession) {
	if level := m.settings.ZoomLevel(); level != 1 {
		m.runZoom(t, level)
	}
}

func (m *Manager) runZoom(t *TabSession, level float64) {
	id := t.ID
	t.surface.RunScript(fmt.Sprintf(zoomJS, level), func(_ any, err error) {
		if err != nil {
			m.loop.Post(func() { applog.Warn("script.failed", "tab", id, "script", "zoom", "err", err.Error()) })
		}
	})
}
