package aggregator

import (
	"context"
	"sync"

	"github.com/jimdaga/viralpilot/internal/campaign"
)

// DefaultHistoryLimit is the number of campaigns kept
const DefaultHistoryLimit = 20

// HistoryRecorder stores finished campaigns
type HistoryRecorder interface {
	Record(ctx context.Context, c campaign.Campaign) error
}

// MemoryHistory keeps campaigns newest-first, de-duplicated by ID and capped
// at Limit with the oldest evicted. It backs the CLI and tests; the server
// uses the database-backed store.
type MemoryHistory struct {
	mu        sync.Mutex
	limit     int
	campaigns []campaign.Campaign
}

// NewMemoryHistory creates a bounded history.
func NewMemoryHistory(limit int) *MemoryHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &MemoryHistory{limit: limit}
}

// Record inserts c at the front, replacing any entry with the same ID.
func (h *MemoryHistory) Record(ctx context.Context, c campaign.Campaign) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.campaigns = Prepend(h.campaigns, c.Clone(), h.limit)
	return nil
}

// List returns copies of the stored campaigns, newest first.
func (h *MemoryHistory) List() []campaign.Campaign {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]campaign.Campaign, len(h.campaigns))
	for i, c := range h.campaigns {
		out[i] = c.Clone()
	}
	return out
}

// Prepend returns list with c first, any older entry with c's ID removed,
// truncated to limit.
func Prepend(list []campaign.Campaign, c campaign.Campaign, limit int) []campaign.Campaign {
	out := make([]campaign.Campaign, 0, min(len(list)+1, limit))
	out = append(out, c)
	for _, existing := range list {
		if len(out) >= limit {
			break
		}
		if existing.ID == c.ID {
			continue
		}
		out = append(out, existing)
	}
	return out
}
