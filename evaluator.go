package memberkit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Evaluator answers access questions for resource paths.
//
// A user's access to a path is decided across the path's ancestor chain:
// a grant on any ancestor extends to everything beneath it. The decision
// is a union across ancestors, so a lower-level record at a deeper path
// never revokes what a shallower record grants.
//
// All read failures degrade to a denial (fail-closed): HasAccess returns
// false, UserAccessLevel reports no level, PathExists returns false.
// Store errors are logged, never returned.
type Evaluator struct {
	store   DocumentStore
	logger  *zap.Logger
	monitor *decisionMonitor
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithEvaluatorLogger sets the logger used for degraded reads.
func WithEvaluatorLogger(logger *zap.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// NewEvaluator creates an Evaluator over the given store.
//
// Example:
//
//	evaluator := memberkit.NewEvaluator(store,
//	    memberkit.WithEvaluatorLogger(logger),
//	)
//	if evaluator.HasAccess(ctx, "organizations/org1/chats/chat1", userID, memberkit.LevelWrite) {
//	    // user may write to the chat
//	}
func NewEvaluator(store DocumentStore, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		store:   store,
		logger:  zap.NewNop(),
		monitor: newDecisionMonitor(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// HasAccess reports whether userID holds at least the required level on
// path or any of its ancestors.
//
// Ancestor prefixes are checked root-first and the walk short-circuits on
// the first sufficient record. A path with no member record at any level
// yields false, as does any store read failure.
func (e *Evaluator) HasAccess(ctx context.Context, path, userID string, required Level) bool {
	start := time.Now()
	granted, storeErr := e.hasAccess(ctx, path, userID, required)
	e.monitor.record(time.Since(start), granted, storeErr)
	return granted
}

func (e *Evaluator) hasAccess(ctx context.Context, path, userID string, required Level) (granted, storeErr bool) {
	if userID == "" || !required.Valid() {
		return false, false
	}

	for _, prefix := range AncestorPrefixes(path) {
		member, found, err := e.lookupMember(ctx, prefix, userID)
		if err != nil {
			e.logger.Warn("member lookup failed, denying access",
				zap.String("path", prefix),
				zap.String("user_id", userID),
				zap.Error(err))
			return false, true
		}
		if found && member.Level.Satisfies(required) {
			return true, false
		}
	}
	return false, false
}

// UserAccessLevel returns the highest level userID holds on path across
// the path's ancestor chain. The second return value is false when the
// user has no member record at any level, or when a read fails.
//
// Example:
//
//	level, ok := evaluator.UserAccessLevel(ctx, "organizations/org1/chats/chat1", userID)
//	if ok && level == memberkit.LevelAdmin {
//	    // user administers the chat
//	}
func (e *Evaluator) UserAccessLevel(ctx context.Context, path, userID string) (Level, bool) {
	if userID == "" {
		return "", false
	}

	var (
		highest Level
		found   bool
	)
	for _, prefix := range AncestorPrefixes(path) {
		member, ok, err := e.lookupMember(ctx, prefix, userID)
		if err != nil {
			e.logger.Warn("member lookup failed, reporting no level",
				zap.String("path", prefix),
				zap.String("user_id", userID),
				zap.Error(err))
			return "", false
		}
		if !ok {
			continue
		}
		if !found {
			highest = member.Level
			found = true
			continue
		}
		highest = MaxLevel(highest, member.Level)
	}
	return highest, found
}

// PathExists reports whether a document exists at path itself (not in
// its members collection). Read failures degrade to false.
func (e *Evaluator) PathExists(ctx context.Context, path string) bool {
	snap, err := e.store.GetDocument(ctx, path)
	if err != nil {
		e.logger.Warn("existence check failed",
			zap.String("path", path),
			zap.Error(err))
		return false
	}
	return snap.Exists
}

// Resource reads the resource document at path. The second return value
// is false when the document is absent or the read fails.
func (e *Evaluator) Resource(ctx context.Context, path string) (Resource, bool) {
	snap, err := e.store.GetDocument(ctx, path)
	if err != nil {
		e.logger.Warn("resource read failed",
			zap.String("path", path),
			zap.Error(err))
		return Resource{}, false
	}
	if !snap.Exists {
		return Resource{}, false
	}
	return resourceFromData(snap.Data), true
}

// Checker returns a per-user view over this evaluator.
func (e *Evaluator) Checker(userID string) *Checker {
	return NewChecker(userID, e)
}

// Metrics returns decision statistics recorded since the last reset.
func (e *Evaluator) Metrics() DecisionMetrics {
	return e.monitor.getMetrics()
}

// ResetMetrics clears the recorded decision statistics.
func (e *Evaluator) ResetMetrics() {
	e.monitor.reset()
}

// lookupMember fetches userID's member record in the members collection
// of a single prefix. found is false when no record exists; records that
// fail validation count as absent.
func (e *Evaluator) lookupMember(ctx context.Context, prefix, userID string) (Member, bool, error) {
	docs, err := e.store.QueryCollection(ctx, MembersPath(prefix), Filter{
		Field: "userId",
		Op:    OpEqual,
		Value: userID,
	})
	if err != nil {
		return Member{}, false, err
	}
	if len(docs) == 0 {
		return Member{}, false, nil
	}

	member, err := memberFromData(docs[0].Data)
	if err != nil {
		e.logger.Warn("skipping invalid member record",
			zap.String("path", prefix),
			zap.String("doc_id", docs[0].ID),
			zap.Error(err))
		return Member{}, false, nil
	}
	return member, true, nil
}
