package audit

import (
	"encoding/json"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// TimelineFilters narrows the audit trail. Zero values match everything.
type TimelineFilters struct {
	From     *time.Time
	To       *time.Time
	ActorID  int64
	Entity   string
	EntityID string
	Action   string
	Page     int
	PageSize int
}

// Entry is one row of audit_logs.
type Entry struct {
	ID         int64           `json:"id"`
	ActorID    int64           `json:"actor_id"`
	Action     string          `json:"action"`
	Entity     string          `json:"entity"`
	EntityID   string          `json:"entity_id"`
	Meta       json.RawMessage `json:"meta,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Result wraps one timeline page.
type Result struct {
	Entries []Entry           `json:"entries"`
	Paging  shared.Pagination `json:"paging"`
}
