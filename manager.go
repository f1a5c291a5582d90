package memberkit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Manager mutates membership records in the document store.
//
// Member records live at ${path}/members/member_<userID>: the document id
// is derived from the user id, so writing a record for an existing
// (path, userID) pair overwrites it in full instead of duplicating it.
//
// Unlike the read side, write failures propagate to the caller: they are
// wrapped in ErrStoreWrite with the store error attached as the cause, so
// both errors.Is(err, memberkit.ErrStoreWrite) and matching against the
// store's own error types keep working.
type Manager struct {
	store     DocumentStore
	logger    *zap.Logger
	auditPath string
	noAudit   bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger used for skipped records and
// best-effort audit failures.
func WithManagerLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithAuditCollection overrides the collection audit entries are written
// to. The default is DefaultAuditCollection.
func WithAuditCollection(path string) ManagerOption {
	return func(m *Manager) {
		m.auditPath = path
	}
}

// WithoutAudit disables audit logging entirely.
func WithoutAudit() ManagerOption {
	return func(m *Manager) {
		m.noAudit = true
	}
}

// NewManager creates a Manager over the given store.
//
// Example:
//
//	manager := memberkit.NewManager(store,
//	    memberkit.WithManagerLogger(logger),
//	)
//	err := manager.AddMember(ctx, "organizations/org1", "user1", memberkit.LevelWrite, "admin1")
func NewManager(store DocumentStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:     store,
		logger:    zap.NewNop(),
		auditPath: DefaultAuditCollection,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// AddMember creates or fully overwrites the member record for userID at
// path. A fresh addedAt is set on every call; no fields survive from a
// prior record. When addedBy is empty the actor id from the context is
// used, if any.
//
// Example:
//
//	ctx = memberkit.WithActorID(ctx, "admin1")
//	err := manager.AddMember(ctx, "organizations/org1/chats/chat1", "user1", memberkit.LevelRead, "")
func (m *Manager) AddMember(ctx context.Context, path, userID string, level Level, addedBy string) error {
	if !ValidPath(path) {
		return NewError(ErrInvalidPath, path)
	}
	if userID == "" {
		return NewError(ErrInvalidMember, "empty userId").WithPath(path)
	}
	if !level.Valid() {
		return NewError(ErrInvalidLevel, level.String()).WithPath(path).WithUser(userID)
	}
	if addedBy == "" {
		addedBy = GetActorID(ctx)
	}

	// Previous level, if any, for the audit trail. Best effort.
	previous, _ := m.currentLevel(ctx, path, userID)

	member := Member{
		UserID:  userID,
		Level:   level,
		AddedBy: addedBy,
		AddedAt: time.Now().UTC(),
	}
	if err := m.store.SetDocument(ctx, MemberDocPath(path, userID), member.toData()); err != nil {
		return NewError(ErrStoreWrite, "add member").
			WithCause(err).
			WithPath(path).
			WithUser(userID).
			WithLevel(level)
	}

	m.logAudit(ctx, &AuditEntry{
		Action:        AuditMemberAdded,
		TargetUserID:  userID,
		Path:          path,
		Level:         level,
		PreviousLevel: previous,
		ActorID:       addedBy,
	})

	return nil
}

// UpdateMember changes the level of an existing member record in place,
// preserving addedBy and addedAt and stamping a fresh updatedAt.
// Returns ErrMemberNotFound when no record exists for (path, userID).
func (m *Manager) UpdateMember(ctx context.Context, path, userID string, level Level) error {
	if !ValidPath(path) {
		return NewError(ErrInvalidPath, path)
	}
	if !level.Valid() {
		return NewError(ErrInvalidLevel, level.String()).WithPath(path).WithUser(userID)
	}

	docPath := MemberDocPath(path, userID)
	snap, err := m.store.GetDocument(ctx, docPath)
	if err != nil {
		return NewError(ErrStoreRead, "read member for update").
			WithCause(err).
			WithPath(path).
			WithUser(userID)
	}
	if !snap.Exists {
		return NewError(ErrMemberNotFound, "cannot update").
			WithPath(path).
			WithUser(userID)
	}

	member, err := memberFromData(snap.Data)
	if err != nil {
		return NewError(ErrInvalidMember, "stored record failed validation").
			WithCause(err).
			WithPath(path).
			WithUser(userID)
	}

	previous := member.Level
	member.Level = level
	member.UpdatedAt = time.Now().UTC()

	if err := m.store.SetDocument(ctx, docPath, member.toData()); err != nil {
		return NewError(ErrStoreWrite, "update member").
			WithCause(err).
			WithPath(path).
			WithUser(userID).
			WithLevel(level)
	}

	m.logAudit(ctx, &AuditEntry{
		Action:        AuditMemberUpdated,
		TargetUserID:  userID,
		Path:          path,
		Level:         level,
		PreviousLevel: previous,
	})

	return nil
}

// RemoveMember deletes the member record for userID at path. Removing a
// member that does not exist is a no-op: the delete is idempotent, like
// the store's.
func (m *Manager) RemoveMember(ctx context.Context, path, userID string) error {
	if !ValidPath(path) {
		return NewError(ErrInvalidPath, path)
	}

	// Existing level, if any, for the audit trail. Best effort.
	previous, existed := m.currentLevel(ctx, path, userID)

	if err := m.store.DeleteDocument(ctx, MemberDocPath(path, userID)); err != nil {
		return NewError(ErrStoreWrite, "remove member").
			WithCause(err).
			WithPath(path).
			WithUser(userID)
	}

	if existed {
		m.logAudit(ctx, &AuditEntry{
			Action:        AuditMemberRemoved,
			TargetUserID:  userID,
			Path:          path,
			PreviousLevel: previous,
		})
	}

	return nil
}

// GetMembers returns the valid member records at path. Records that fail
// validation are skipped and logged; a store failure degrades to an empty
// list rather than an error.
func (m *Manager) GetMembers(ctx context.Context, path string) []Member {
	docs, err := m.store.ListCollection(ctx, MembersPath(path))
	if err != nil {
		m.logger.Warn("listing members failed, returning none",
			zap.String("path", path),
			zap.Error(err))
		return []Member{}
	}

	members := make([]Member, 0, len(docs))
	for _, doc := range docs {
		member, err := memberFromData(doc.Data)
		if err != nil {
			m.logger.Warn("skipping invalid member record",
				zap.String("path", path),
				zap.String("doc_id", doc.ID),
				zap.Error(err))
			continue
		}
		members = append(members, member)
	}
	return members
}

// currentLevel reads the existing member record level, tolerating read
// failures. Used only to enrich audit entries.
func (m *Manager) currentLevel(ctx context.Context, path, userID string) (Level, bool) {
	snap, err := m.store.GetDocument(ctx, MemberDocPath(path, userID))
	if err != nil || !snap.Exists {
		return "", false
	}
	member, err := memberFromData(snap.Data)
	if err != nil {
		return "", false
	}
	return member.Level, true
}
