package server

import (
	"errors"
	"testing"

	"github.com/lotas/tabhost/internal/types"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		name string
		in   string
		ok   bool
	}{
		{"open tab", `{"id":"1","action":"open-tab","window":"w1","url":"go.dev"}`, true},
		{"open tab without window", `{"id":"1","action":"open-tab"}`, false},
		{"close tab", `{"action":"close-tab","tab":"t1"}`, true},
		{"close tab without tab", `{"action":"close-tab"}`, false},
		{"switch tab", `{"action":"switch-tab","window":"w1","index":0}`, true},
		{"switch tab without index", `{"action":"switch-tab","window":"w1"}`, false},
		{"navigate", `{"action":"navigate","tab":"t1","url":"openai.com"}`, true},
		{"navigate without url", `{"action":"navigate","tab":"t1"}`, false},
		{"new window", `{"action":"new-window","private":true}`, true},
		{"list", `{"action":"list"}`, true},
		{"missing action", `{"id":"1"}`, false},
		{"unknown action", `{"action":"reboot"}`, false},
		{"not json", `{`, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseCommand([]byte(c.in))
			if c.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !c.ok {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, ErrBadCommand) {
					t.Errorf("expected ErrBadCommand, got %v", err)
				}
			}
		})
	}
}

func TestParseCommandKeepsIndexZero(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"action":"switch-tab","window":"w1","index":0}`))
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Index == nil || *cmd.Index != 0 {
		t.Errorf("index = %v, want 0", cmd.Index)
	}
}

func TestToWireHidesPrivateTabs(t *testing.T) {
	windows := []types.WindowInfo{{
		ID:          "w1",
		ActiveIndex: 1,
		Tabs: []types.TabInfo{
			{ID: "t1", URL: "https://example.com", Title: "Example"},
			{ID: "t2", URL: "https://secret.example", Title: "Secret", Private: true, Active: true},
		},
	}}

	got := toWire(windows)
	if len(got) != 1 || len(got[0].Tabs) != 2 {
		t.Fatalf("unexpected shape: %+v", got)
	}
	if got[0].Tabs[0].URL != "https://example.com" {
		t.Errorf("public tab URL = %q", got[0].Tabs[0].URL)
	}
	if got[0].Tabs[1].URL != "" || got[0].Tabs[1].Title != "" {
		t.Errorf("private tab leaked %+v", got[0].Tabs[1])
	}
	if !got[0].Tabs[1].Active || got[0].ActiveIndex != 1 {
		t.Errorf("active state lost: %+v", got[0])
	}
}
