package core

import (
	"context"
	"sync"
	"time"
)

// Operation names recorded in history and metrics.
const (
	OperationDetect  = "detect"
	OperationView    = "view"
	OperationClean   = "clean"
	OperationConvert = "convert"
)

// HistoryEntry records one clean or convert operation. History is an
// operational log only; no conversion ever reads it.
type HistoryEntry struct {
	ID          string        `json:"id"`
	Operation   string        `json:"operation"`
	Format      string        `json:"format,omitempty"`
	FileName    string        `json:"fileName,omitempty"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	Warning     string        `json:"warning,omitempty"`
	Rows        int           `json:"rows"`
	Columns     int           `json:"columns"`
	InputBytes  int64         `json:"inputBytes"`
	OutputBytes int64         `json:"outputBytes"`
	Duration    time.Duration `json:"durationNs"`
	ClientIP    string        `json:"clientIp,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// HistoryStore persists history entries.
type HistoryStore interface {
	Record(ctx context.Context, e HistoryEntry) error
	// Recent returns at most limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]HistoryEntry, error)
	// Purge deletes entries created before cutoff and returns the count.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// DefaultHistoryCapacity bounds MemoryHistory when no capacity is given.
const DefaultHistoryCapacity = 500

// MemoryHistory is a bounded in-memory HistoryStore. Once full, the oldest
// entry is overwritten.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []HistoryEntry
	next    int
	full    bool
}

var _ HistoryStore = (*MemoryHistory)(nil)

// NewMemoryHistory returns a store that keeps the latest capacity entries.
func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &MemoryHistory{entries: make([]HistoryEntry, capacity)}
}

func (h *MemoryHistory) Record(_ context.Context, e HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.next] = e
	h.next = (h.next + 1) % len(h.entries)
	if h.next == 0 {
		h.full = true
	}
	return nil
}

func (h *MemoryHistory) Recent(_ context.Context, limit int) ([]HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := h.lenLocked()
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]HistoryEntry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (h.next - i + len(h.entries)) % len(h.entries)
		out = append(out, h.entries[idx])
	}
	return out, nil
}

func (h *MemoryHistory) Purge(_ context.Context, cutoff time.Time) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := h.lenLocked()
	kept := make([]HistoryEntry, 0, n)
	// Oldest first so the ring order survives.
	for i := n; i >= 1; i-- {
		e := h.entries[(h.next-i+len(h.entries))%len(h.entries)]
		if !e.CreatedAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}

	purged := int64(n - len(kept))
	if purged == 0 {
		return 0, nil
	}

	fresh := make([]HistoryEntry, len(h.entries))
	copy(fresh, kept)
	h.entries = fresh
	h.next = len(kept) % len(fresh)
	h.full = len(kept) == len(fresh)
	return purged, nil
}

// Len returns the number of stored entries.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lenLocked()
}

func (h *MemoryHistory) lenLocked() int {
	if h.full {
		return len(h.entries)
	}
	return h.next
}
