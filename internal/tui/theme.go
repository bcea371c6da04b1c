package tui

import "github.com/charmbracelet/lipgloss"

// palette holds the colors every view renders with.
type palette struct {
	Accent  lipgloss.Color
	Dim     lipgloss.Color
	Label   lipgloss.Color
	Good    lipgloss.Color
	Bad     lipgloss.Color
	Private lipgloss.Color
	// glamour style name for rendered markdown.
	markdown string
}

var (
	darkPalette = palette{
		Accent:   "62",
		Dim:      "240",
		Label:    "245",
		Good:     "42",
		Bad:      "196",
		Private:  "135",
		markdown: "dark",
	}
	lightPalette = palette{
		Accent:   "25",
		Dim:      "246",
		Label:    "238",
		Good:     "28",
		Bad:      "160",
		Private:  "91",
		markdown: "light",
	}
)

// colors is the active palette. Views read it on every render.
var colors = darkPalette

func setDarkMode(on bool) {
	if on {
		colors = darkPalette
		return
	}
	colors = lightPalette
}
