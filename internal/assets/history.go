package assets

import (
	"sync"
	"time"

	"github.com/lait-kelomins/laits-entity-inspector/internal/model"
)

// historyCapacity is the ring size of §3's SessionHistory entry list.
const historyCapacity = 100

// History is a bounded, insertion-ordered ring of draft/publish actions
// taken against the asset/patch wrappers during the current process
// lifetime. It is intentionally in-memory only — persisting captured data
// is out of scope.
type History struct {
	mu    sync.Mutex
	items []model.SessionHistoryEntry
}

func newHistory() *History {
	return &History{items: make([]model.SessionHistoryEntry, 0, historyCapacity)}
}

// record appends an entry, evicting the oldest once the ring is full.
func (h *History) record(filename, baseAssetPath, operation string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.items) >= historyCapacity {
		h.items = h.items[1:]
	}
	h.items = append(h.items, model.SessionHistoryEntry{
		Filename:      filename,
		BaseAssetPath: baseAssetPath,
		Timestamp:     time.Now().UnixMilli(),
		Operation:     operation,
	})
}

// entries returns a copy of the ring, oldest first.
func (h *History) entries() []model.SessionHistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]model.SessionHistoryEntry, len(h.items))
	copy(out, h.items)
	return out
}
