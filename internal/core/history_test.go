package core

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func entryAt(id int, at time.Time) HistoryEntry {
	return HistoryEntry{ID: strconv.Itoa(id), Operation: OperationConvert, CreatedAt: at}
}

func ids(entries []HistoryEntry) string {
	s := ""
	for i, e := range entries {
		if i > 0 {
			s += ","
		}
		s += e.ID
	}
	return s
}

func TestMemoryHistory_RecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory(3)
	base := time.Now()

	got, _ := h.Recent(ctx, 10)
	if len(got) != 0 {
		t.Fatalf("empty history returned %d entries", len(got))
	}

	for i := 1; i <= 5; i++ {
		if err := h.Record(ctx, entryAt(i, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	tests := []struct {
		limit int
		want  string
	}{
		{0, "5,4,3"},
		{10, "5,4,3"},
		{2, "5,4"},
		{1, "5"},
	}
	for _, tt := range tests {
		got, err := h.Recent(ctx, tt.limit)
		if err != nil {
			t.Fatalf("Recent: %v", err)
		}
		if ids(got) != tt.want {
			t.Errorf("Recent(%d) = %s, want %s", tt.limit, ids(got), tt.want)
		}
	}
	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
}

func TestMemoryHistory_Purge(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory(4)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 6; i++ {
		h.Record(ctx, entryAt(i, base.Add(time.Duration(i)*time.Hour)))
	}
	// Ring now holds 3,4,5,6.

	purged, err := h.Purge(ctx, base.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if purged != 2 {
		t.Errorf("purged = %d, want 2", purged)
	}

	got, _ := h.Recent(ctx, 0)
	if ids(got) != "6,5" {
		t.Errorf("after purge Recent = %s, want 6,5", ids(got))
	}

	h.Record(ctx, entryAt(7, base.Add(7*time.Hour)))
	h.Record(ctx, entryAt(8, base.Add(8*time.Hour)))
	h.Record(ctx, entryAt(9, base.Add(9*time.Hour)))
	got, _ = h.Recent(ctx, 0)
	if ids(got) != "9,8,7,6" {
		t.Errorf("after refill Recent = %s, want 9,8,7,6", ids(got))
	}

	if n, _ := h.Purge(ctx, base); n != 0 {
		t.Errorf("Purge with old cutoff removed %d entries", n)
	}
	if n, _ := h.Purge(ctx, base.Add(100*time.Hour)); n != 4 {
		t.Errorf("Purge all removed %d entries, want 4", n)
	}
	if h.Len() != 0 {
		t.Errorf("Len() after purge all = %d", h.Len())
	}
}

func TestMemoryHistory_DefaultCapacity(t *testing.T) {
	h := NewMemoryHistory(0)
	if len(h.entries) != DefaultHistoryCapacity {
		t.Errorf("capacity = %d, want %d", len(h.entries), DefaultHistoryCapacity)
	}
}
