package analyzer

import (
	"fmt"
	"strings"

	"github.com/lotas/tabhost/internal/types"
)

// Stats summarises the open windows.
type Stats struct {
	Windows    int
	Tabs       int
	Private    int
	Suspended  int
	Duplicates int // tabs beyond the first of each duplicate group
}

func ComputeStats(windows []types.WindowInfo) Stats {
	stats := Stats{Windows: len(windows)}
	for _, w := range windows {
		for _, t := range w.Tabs {
			stats.Tabs++
			if t.Private {
				stats.Private++
			}
			if t.Suspended {
				stats.Suspended++
			}
		}
	}
	for _, g := range Duplicates(windows) {
		stats.Duplicates += len(g.Tabs) - 1
	}
	return stats
}

// String renders the non-zero counters, e.g. "2 windows · 1 suspended".
func (s Stats) String() string {
	parts := []string{plural(s.Windows, "window")}
	if s.Private > 0 {
		parts = append(parts, fmt.Sprintf("%d private", s.Private))
	}
	if s.Suspended > 0 {
		parts = append(parts, fmt.Sprintf("%d suspended", s.Suspended))
	}
	if s.Duplicates > 0 {
		parts = append(parts, plural(s.Duplicates, "duplicate"))
	}
	return strings.Join(parts, " · ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
