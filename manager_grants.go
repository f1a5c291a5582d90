package memberkit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// InitializeChat creates the resource document at path and grants
// adminUserID admin access to it. Both writes go through one atomic
// batch, so a failure leaves neither an un-owned resource nor a dangling
// member record.
//
// Example:
//
//	err := manager.InitializeChat(ctx, "organizations/org1/chats/chat1", "admin1")
func (m *Manager) InitializeChat(ctx context.Context, path, adminUserID string) error {
	if !ValidPath(path) {
		return NewError(ErrInvalidPath, path)
	}
	if adminUserID == "" {
		return NewError(ErrInvalidMember, "empty admin userId").WithPath(path)
	}

	now := time.Now().UTC()
	resource := Resource{
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: adminUserID,
	}
	admin := Member{
		UserID:  adminUserID,
		Level:   LevelAdmin,
		AddedBy: adminUserID,
		AddedAt: now,
	}

	writes := []BatchWrite{
		{Type: BatchSet, Path: path, Data: resource.toData()},
		{Type: BatchSet, Path: MemberDocPath(path, adminUserID), Data: admin.toData()},
	}
	if err := m.store.AtomicBatch(ctx, writes); err != nil {
		return NewError(ErrStoreWrite, "initialize chat").
			WithCause(err).
			WithPath(path).
			WithUser(adminUserID)
	}

	m.logAudit(ctx, &AuditEntry{
		Action:       AuditChatInitialized,
		TargetUserID: adminUserID,
		Path:         path,
		Level:        LevelAdmin,
		ActorID:      adminUserID,
	})

	return nil
}

// GrantOrgAccess adds every member of orgPath to chatPath at read level,
// attributed to adminUserID, in a single atomic batch: either all org
// members are granted or none are. Existing records at chatPath for the
// same users are overwritten, which downgrades higher org levels to read.
//
// Example:
//
//	err := manager.GrantOrgAccess(ctx, "organizations/org1", "chats/chat1", "admin1")
func (m *Manager) GrantOrgAccess(ctx context.Context, orgPath, chatPath, adminUserID string) error {
	if !ValidPath(orgPath) {
		return NewError(ErrInvalidPath, orgPath)
	}
	if !ValidPath(chatPath) {
		return NewError(ErrInvalidPath, chatPath)
	}

	members := m.GetMembers(ctx, orgPath)
	if len(members) == 0 {
		m.logger.Info("no org members to grant",
			zap.String("org_path", orgPath),
			zap.String("chat_path", chatPath))
		return nil
	}

	now := time.Now().UTC()
	writes := make([]BatchWrite, 0, len(members))
	for _, orgMember := range members {
		grant := Member{
			UserID:  orgMember.UserID,
			Level:   LevelRead,
			AddedBy: adminUserID,
			AddedAt: now,
		}
		writes = append(writes, BatchWrite{
			Type: BatchSet,
			Path: MemberDocPath(chatPath, orgMember.UserID),
			Data: grant.toData(),
		})
	}

	if err := m.store.AtomicBatch(ctx, writes); err != nil {
		return NewError(ErrStoreWrite, "grant org access").
			WithCause(err).
			WithPath(chatPath).
			WithActor(adminUserID)
	}

	m.logAudit(ctx, &AuditEntry{
		Action:  AuditOrgAccessGranted,
		Path:    chatPath,
		Level:   LevelRead,
		ActorID: adminUserID,
	})

	return nil
}

// CreatePublicChat creates the resource document at path with the public
// marker set and no member records.
//
// Access checks do not consult the marker: a user without a member record
// at path or an ancestor is still denied. Callers that want open reads
// must check Evaluator.Resource themselves.
func (m *Manager) CreatePublicChat(ctx context.Context, path, creatorID string) error {
	if !ValidPath(path) {
		return NewError(ErrInvalidPath, path)
	}

	now := time.Now().UTC()
	resource := Resource{
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: creatorID,
		IsPublic:  true,
	}
	if err := m.store.SetDocument(ctx, path, resource.toData()); err != nil {
		return NewError(ErrStoreWrite, "create public chat").
			WithCause(err).
			WithPath(path).
			WithUser(creatorID)
	}

	m.logAudit(ctx, &AuditEntry{
		Action:  AuditPublicChatCreated,
		Path:    path,
		ActorID: creatorID,
	})

	return nil
}
