package settings

import "github.com/lotas/tabhost/internal/types"

// MaxHistory is the size of the history ring.
const MaxHistory = 500

// appendHistory appends e and drops the oldest entries beyond limit. The
// result never shares its backing array with a truncated input, so the
// evicted entries can be collected.
func appendHistory(list []types.HistoryEntry, e types.HistoryEntry, limit int) []types.HistoryEntry {
	list = append(list, e)
	if len(list) <= limit {
		return list
	}
	return truncateHistory(list, limit)
}

func truncateHistory(list []types.HistoryEntry, limit int) []types.HistoryEntry {
	if len(list) <= limit {
		return list
	}
	out := make([]types.HistoryEntry, limit)
	copy(out, list[len(list)-limit:])
	return out
}

// recent returns up to n entries, newest first.
func recent(list []types.HistoryEntry, n int) []types.HistoryEntry {
	if n <= 0 || n > len(list) {
		n = len(list)
	}
	out := make([]types.HistoryEntry, 0, n)
	for i := len(list) - 1; i >= len(list)-n; i-- {
		out = append(out, list[i])
	}
	return out
}
