package navigation

// History is the back/forward stack the controller keeps in sync with the
// open article. A Push error means the history cannot be used at all.
type History interface {
	Push(location string) error
	Back() (string, bool)
	Forward() (string, bool)
	Location() string
}

// MemoryHistory is an in-process History. The zero value is not usable; call
// NewMemoryHistory.
type MemoryHistory struct {
	entries []string
	index   int
	limit   int
}

// NewMemoryHistory starts a history at initial. An empty initial location is
// HomeLocation. limit bounds the number of entries; zero means unbounded.
// A full history forgets its oldest entry.
func NewMemoryHistory(initial string, limit int) *MemoryHistory {
	if initial == "" {
		initial = HomeLocation
	}
	return &MemoryHistory{entries: []string{initial}, limit: limit}
}

// Push drops any forward entries and appends location. It never fails.
func (h *MemoryHistory) Push(location string) error {
	h.entries = h.entries[:h.index+1]
	if h.limit > 0 && len(h.entries) >= h.limit {
		drop := len(h.entries) - h.limit + 1
		h.entries = append(h.entries[:0], h.entries[drop:]...)
		h.index -= drop
	}
	h.entries = append(h.entries, location)
	h.index++
	return nil
}

func (h *MemoryHistory) Back() (string, bool) {
	if h.index == 0 {
		return h.entries[0], false
	}
	h.index--
	return h.entries[h.index], true
}

func (h *MemoryHistory) Forward() (string, bool) {
	if h.index >= len(h.entries)-1 {
		return h.entries[h.index], false
	}
	h.index++
	return h.entries[h.index], true
}

func (h *MemoryHistory) Location() string {
	return h.entries[h.index]
}

// Len reports how many entries are held, forward entries included.
func (h *MemoryHistory) Len() int {
	return len(h.entries)
}
