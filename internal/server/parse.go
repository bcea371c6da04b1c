package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lotas/tabhost/internal/types"
)

// Actions accepted from a client.
const (
	ActionOpenTab   = "open-tab"
	ActionCloseTab  = "close-tab"
	ActionSwitchTab = "switch-tab"
	ActionNavigate  = "navigate"
	ActionNewWindow = "new-window"
	ActionList      = "list"
)

var ErrBadCommand = errors.New("bad command")

// Command is a request from a client.
type Command struct {
	ID      string `json:"id"`
	Action  string `json:"action"`
	Window  string `json:"window,omitempty"`
	Tab     string `json:"tab,omitempty"`
	Index   *int   `json:"index,omitempty"`
	URL     string `json:"url,omitempty"`
	Private bool   `json:"private,omitempty"`
}

// ParseCommand decodes a client message and checks the fields its action
// needs.
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return cmd, fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	switch cmd.Action {
	case ActionOpenTab:
		if cmd.Window == "" {
			return cmd, fmt.Errorf("%w: %s needs window", ErrBadCommand, cmd.Action)
		}
	case ActionCloseTab:
		if cmd.Tab == "" {
			return cmd, fmt.Errorf("%w: %s needs tab", ErrBadCommand, cmd.Action)
		}
	case ActionSwitchTab:
		if cmd.Window == "" || cmd.Index == nil {
			return cmd, fmt.Errorf("%w: %s needs window and index", ErrBadCommand, cmd.Action)
		}
	case ActionNavigate:
		if cmd.Tab == "" || cmd.URL == "" {
			return cmd, fmt.Errorf("%w: %s needs tab and url", ErrBadCommand, cmd.Action)
		}
	case ActionNewWindow, ActionList:
	case "":
		return cmd, fmt.Errorf("%w: missing action", ErrBadCommand)
	default:
		return cmd, fmt.Errorf("%w: unknown action %q", ErrBadCommand, cmd.Action)
	}
	return cmd, nil
}

type wireTab struct {
	ID        string `json:"id"`
	URL       string `json:"url,omitempty"`
	Title     string `json:"title,omitempty"`
	Private   bool   `json:"private,omitempty"`
	Suspended bool   `json:"suspended,omitempty"`
	Active    bool   `json:"active,omitempty"`
}

type wireWindow struct {
	ID          string    `json:"id"`
	Private     bool      `json:"private,omitempty"`
	ActiveIndex int       `json:"activeIndex"`
	Tabs        []wireTab `json:"tabs"`
}

// toWire converts a snapshot for clients. Private tabs are listed without
// their URL or title.
func toWire(windows []types.WindowInfo) []wireWindow {
	out := make([]wireWindow, 0, len(windows))
	for _, w := range windows {
		ww := wireWindow{ID: w.ID, Private: w.Private, ActiveIndex: w.ActiveIndex, Tabs: make([]wireTab, 0, len(w.Tabs))}
		for _, t := range w.Tabs {
			wt := wireTab{ID: t.ID, Private: t.Private, Suspended: t.Suspended, Active: t.Active}
			if !t.Private {
				wt.URL = t.URL
				wt.Title = t.Title
			}
			ww.Tabs = append(ww.Tabs, wt)
		}
		out = append(out, ww)
	}
	return out
}
