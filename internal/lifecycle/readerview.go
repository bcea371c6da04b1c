package lifecycle

import (
	"fmt"

	"github.com/lotas/tabhost/internal/applog"
	"github.com/lotas/tabhost/internal/reader"
)

const pageHTMLJS = `document.documentElement.outerHTML`

// ReaderView extracts the readable content of t. done runs on the loop.
func (m *Manager) ReaderView(t *TabSession, done func(reader.Article, error)) error {
	if !m.Live(t) {
		return ErrTabNotFound
	}
	id := t.ID
	t.surface.RunScript(pageHTMLJS, func(result any, err error) {
		m.post(id, "reader-view", func(t *TabSession) {
			if err != nil {
				applog.Warn("script.failed", "tab", id, "script", "page-html", "err", err.Error())
				done(reader.Article{}, err)
				return
			}
			html, ok := result.(string)
			if !ok {
				done(reader.Article{}, fmt.Errorf("page html: unexpected %T", result))
				return
			}
			done(reader.Extract(html, t.url))
		})
	})
	return nil
}
