package lifecycle

// EventType names a state change.
type EventType string

const (
	EventWindowOpened EventType = "window-opened"
	EventWindowClosed EventType = "window-closed"
	EventTabOpened    EventType = "tab-opened"
	EventTabClosed    EventType = "tab-closed"
	EventTabActivated EventType = "tab-activated"
	EventTabNavigated EventType = "tab-navigated"
	EventTabUpdated   EventType = "tab-updated"
	EventDownload     EventType = "download"
)

// Event describes a state change. Private tabs carry no URL or title.
type Event struct {
	Type     EventType `json:"type"`
	WindowID string    `json:"window,omitempty"`
	TabID    string    `json:"tab,omitempty"`
	URL      string    `json:"url,omitempty"`
	Title    string    `json:"title,omitempty"`
}

// Notifier receives state changes. Notify is called on the loop and must
// not block.
type Notifier interface {
	Notify(Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}

func (m *Manager) notify(typ EventType, w *Window, t *TabSession) {
	ev := Event{Type: typ}
	if w != nil {
		ev.WindowID = w.ID
	}
	if t != nil {
		ev.TabID = t.ID
		if !t.Private {
			ev.URL = t.url
			ev.Title = t.title
		}
	}
	m.notifier.Notify(ev)
}
