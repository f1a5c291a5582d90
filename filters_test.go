package memberkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestAuditFilterDefaults tests the constructor defaults
func TestAuditFilterDefaults(t *testing.T) {
	filter := NewAuditFilter()
	assert.Equal(t, 100, filter.Limit)
	assert.Zero(t, filter.Offset)
}

// TestAuditFilterChaining tests that the WithX builders compose
func TestAuditFilterChaining(t *testing.T) {
	since := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	until := since.Add(24 * time.Hour)

	filter := NewAuditFilter().
		WithActor("admin1").
		WithTargetUser("u1").
		WithPath("a/1").
		WithAction(AuditMemberAdded).
		WithSince(since).
		WithUntil(until).
		WithPagination(10, 20)

	assert.Equal(t, "admin1", filter.ActorID)
	assert.Equal(t, "u1", filter.TargetUserID)
	assert.Equal(t, "a/1", filter.Path)
	assert.Equal(t, AuditMemberAdded, filter.Action)
	assert.Equal(t, since, filter.Since)
	assert.Equal(t, until, filter.Until)
	assert.Equal(t, 10, filter.Limit)
	assert.Equal(t, 20, filter.Offset)
}

// TestAuditFilterMatches tests field matching
func TestAuditFilterMatches(t *testing.T) {
	ts := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	entry := AuditEntry{
		Timestamp:    ts,
		ActorID:      "admin1",
		Action:       AuditMemberAdded,
		TargetUserID: "u1",
		Path:         "a/1/b/2",
	}

	assert.True(t, AuditFilter{}.matches(entry))
	assert.True(t, AuditFilter{ActorID: "admin1"}.matches(entry))
	assert.False(t, AuditFilter{ActorID: "admin2"}.matches(entry))
	assert.True(t, AuditFilter{TargetUserID: "u1"}.matches(entry))
	assert.False(t, AuditFilter{TargetUserID: "u2"}.matches(entry))
	assert.True(t, AuditFilter{Action: AuditMemberAdded}.matches(entry))
	assert.False(t, AuditFilter{Action: AuditMemberRemoved}.matches(entry))
}

// TestAuditFilterPathMatching tests prefix matching on whole segments
func TestAuditFilterPathMatching(t *testing.T) {
	entry := AuditEntry{Path: "a/1/b/2"}

	assert.True(t, AuditFilter{Path: "a/1/b/2"}.matches(entry))
	assert.True(t, AuditFilter{Path: "a/1"}.matches(entry))
	assert.False(t, AuditFilter{Path: "a/1/b/2/c/3"}.matches(entry))

	// A prefix must end on a segment boundary
	assert.False(t, AuditFilter{Path: "a/1/b"}.matches(AuditEntry{Path: "a/1/bb"}))
}

// TestAuditFilterTimeRange tests inclusive time bounds
func TestAuditFilterTimeRange(t *testing.T) {
	ts := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	entry := AuditEntry{Timestamp: ts}

	assert.True(t, AuditFilter{Since: ts, Until: ts}.matches(entry))
	assert.True(t, AuditFilter{Since: ts.Add(-time.Minute)}.matches(entry))
	assert.False(t, AuditFilter{Since: ts.Add(time.Minute)}.matches(entry))
	assert.True(t, AuditFilter{Until: ts.Add(time.Minute)}.matches(entry))
	assert.False(t, AuditFilter{Until: ts.Add(-time.Minute)}.matches(entry))
}
