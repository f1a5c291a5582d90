package memberkit

import (
	"context"
	mathrand "math/rand"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// DefaultAuditCollection is the collection membership audit entries are
// written to unless WithAuditCollection overrides it.
const DefaultAuditCollection = "membership_audit"

// AuditAction represents the type of membership change in the audit log.
type AuditAction string

const (
	AuditMemberAdded       AuditAction = "member_added"
	AuditMemberUpdated     AuditAction = "member_updated"
	AuditMemberRemoved     AuditAction = "member_removed"
	AuditChatInitialized   AuditAction = "chat_initialized"
	AuditOrgAccessGranted  AuditAction = "org_access_granted"
	AuditPublicChatCreated AuditAction = "public_chat_created"
)

// AuditEntry records one membership change: who did it, to whom, where,
// and the levels before and after.
type AuditEntry struct {
	ID            string
	Timestamp     time.Time
	ActorID       string
	Action        AuditAction
	TargetUserID  string
	Path          string
	Level         Level
	PreviousLevel Level

	// Request metadata for forensics
	IPAddress string
	UserAgent string
	RequestID string
}

// auditEntropy feeds monotonic ULIDs so audit ids sort by creation time.
var auditEntropy = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)

func newAuditID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), auditEntropy).String()
}

func (e *AuditEntry) toData() map[string]any {
	data := map[string]any{
		"timestamp": e.Timestamp,
		"action":    string(e.Action),
		"path":      e.Path,
	}
	if e.ActorID != "" {
		data["actorId"] = e.ActorID
	}
	if e.TargetUserID != "" {
		data["targetUserId"] = e.TargetUserID
	}
	if e.Level != "" {
		data["level"] = e.Level.String()
	}
	if e.PreviousLevel != "" {
		data["previousLevel"] = e.PreviousLevel.String()
	}
	if e.IPAddress != "" {
		data["ipAddress"] = e.IPAddress
	}
	if e.UserAgent != "" {
		data["userAgent"] = e.UserAgent
	}
	if e.RequestID != "" {
		data["requestId"] = e.RequestID
	}
	return data
}

func auditEntryFromDoc(doc Document) AuditEntry {
	entry := AuditEntry{ID: doc.ID}
	data := doc.Data

	if ts, ok := parseTime(data["timestamp"]); ok {
		entry.Timestamp = ts
	}
	if s, ok := data["action"].(string); ok {
		entry.Action = AuditAction(s)
	}
	if s, ok := data["path"].(string); ok {
		entry.Path = s
	}
	if s, ok := data["actorId"].(string); ok {
		entry.ActorID = s
	}
	if s, ok := data["targetUserId"].(string); ok {
		entry.TargetUserID = s
	}
	if s, ok := data["level"].(string); ok {
		entry.Level = Level(s)
	}
	if s, ok := data["previousLevel"].(string); ok {
		entry.PreviousLevel = Level(s)
	}
	if s, ok := data["ipAddress"].(string); ok {
		entry.IPAddress = s
	}
	if s, ok := data["userAgent"].(string); ok {
		entry.UserAgent = s
	}
	if s, ok := data["requestId"].(string); ok {
		entry.RequestID = s
	}
	return entry
}

// logAudit writes an audit entry, best effort. Audit failures are logged
// and never fail the mutation that produced them.
func (m *Manager) logAudit(ctx context.Context, entry *AuditEntry) {
	if m.noAudit {
		return
	}

	if entry.ID == "" {
		entry.ID = newAuditID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	audit := GetAuditContext(ctx)
	if entry.ActorID == "" {
		entry.ActorID = audit.ActorID
	}
	if entry.IPAddress == "" {
		entry.IPAddress = audit.IPAddress
	}
	if entry.UserAgent == "" {
		entry.UserAgent = audit.UserAgent
	}
	if entry.RequestID == "" {
		entry.RequestID = audit.RequestID
	}

	docPath := m.auditPath + "/" + entry.ID
	if err := m.store.SetDocument(ctx, docPath, entry.toData()); err != nil {
		m.logger.Warn("audit write failed",
			zap.String("action", string(entry.Action)),
			zap.String("path", entry.Path),
			zap.Error(err))
	}
}

// GetAuditLog retrieves audit entries matching the filter, newest first.
//
// Example:
//
//	entries, err := manager.GetAuditLog(ctx, memberkit.NewAuditFilter().
//	    WithPath("organizations/org1").
//	    WithAction(memberkit.AuditMemberAdded))
func (m *Manager) GetAuditLog(ctx context.Context, filter AuditFilter) ([]AuditEntry, error) {
	docs, err := m.store.ListCollection(ctx, m.auditPath)
	if err != nil {
		return nil, NewError(ErrStoreRead, "read audit log").WithCause(err)
	}

	entries := make([]AuditEntry, 0, len(docs))
	for _, doc := range docs {
		entry := auditEntryFromDoc(doc)
		if filter.matches(entry) {
			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	limit := filter.Limit
	if limit == 0 {
		limit = 100 // Default limit
	}
	if filter.Offset >= len(entries) {
		return []AuditEntry{}, nil
	}
	entries = entries[filter.Offset:]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
