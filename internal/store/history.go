package store

// DefaultHistoryLimit is the number of recent searches retained.
const DefaultHistoryLimit = 5

// History is a most-recent-first list of unique location names with a
// fixed retention bound. It is not safe for concurrent use on its own.
type History struct {
	entries []string

	// retention configuration
	limit int // max number of entries
}

// NewHistory creates an empty History. If limit is <= 0, DefaultHistoryLimit is used.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Add prepends name and enforces retention. A name already present is left
// where it is and Add reports false; repeats are not moved to the front.
func (h *History) Add(name string) bool {
	if h.Contains(name) {
		return false
	}

	next := make([]string, 0, len(h.entries)+1)
	next = append(next, name)
	next = append(next, h.entries...)

	// Enforce retention by count; the oldest entries are at the tail.
	if len(next) > h.limit {
		next = next[:h.limit]
	}
	h.entries = next
	return true
}

// Contains reports whether name is in the history.
func (h *History) Contains(name string) bool {
	for _, e := range h.entries {
		if e == name {
			return true
		}
	}
	return false
}

// Entries returns a copy of the history, most recent first.
func (h *History) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}
