package memberkit

import (
	"strings"
	"time"
)

// AuditFilter provides options for filtering audit log queries.
type AuditFilter struct {
	// Filter by actor who performed the change
	ActorID string

	// Filter by target user of the change
	TargetUserID string

	// Filter by resource path. Matches the path itself and everything
	// beneath it.
	Path string

	// Filter by action type
	Action AuditAction

	// Filter by time range
	Since time.Time
	Until time.Time

	// Pagination
	Limit  int
	Offset int
}

// NewAuditFilter creates a new AuditFilter with default values.
func NewAuditFilter() AuditFilter {
	return AuditFilter{
		Limit: 100,
	}
}

// WithActor sets the actor ID filter.
func (f AuditFilter) WithActor(actorID string) AuditFilter {
	f.ActorID = actorID
	return f
}

// WithTargetUser sets the target user ID filter.
func (f AuditFilter) WithTargetUser(userID string) AuditFilter {
	f.TargetUserID = userID
	return f
}

// WithPath sets the resource path filter. Entries for the path and its
// descendants match.
func (f AuditFilter) WithPath(path string) AuditFilter {
	f.Path = path
	return f
}

// WithAction sets the action filter.
func (f AuditFilter) WithAction(action AuditAction) AuditFilter {
	f.Action = action
	return f
}

// WithTimeRange sets the time range filter.
func (f AuditFilter) WithTimeRange(since, until time.Time) AuditFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithSince sets the start time filter.
func (f AuditFilter) WithSince(since time.Time) AuditFilter {
	f.Since = since
	return f
}

// WithUntil sets the end time filter.
func (f AuditFilter) WithUntil(until time.Time) AuditFilter {
	f.Until = until
	return f
}

// WithLimit sets the limit for results.
func (f AuditFilter) WithLimit(limit int) AuditFilter {
	f.Limit = limit
	return f
}

// WithOffset sets the offset for pagination.
func (f AuditFilter) WithOffset(offset int) AuditFilter {
	f.Offset = offset
	return f
}

// WithPagination sets both limit and offset.
func (f AuditFilter) WithPagination(limit, offset int) AuditFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}

// matches reports whether an entry passes every set filter field.
func (f AuditFilter) matches(e AuditEntry) bool {
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if f.TargetUserID != "" && e.TargetUserID != f.TargetUserID {
		return false
	}
	if f.Path != "" && e.Path != f.Path && !strings.HasPrefix(e.Path, f.Path+"/") {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	return true
}
