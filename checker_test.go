package memberkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCheckerCan tests per-user checks against the evaluator
func TestCheckerCan(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedMember(t, store, "organizations/org1", "u1", LevelWrite)

	checker := NewEvaluator(store).Checker("u1")

	assert.Equal(t, "u1", checker.UserID())
	assert.True(t, checker.Can(ctx, LevelRead, "organizations/org1"))
	assert.True(t, checker.Can(ctx, LevelWrite, "organizations/org1/chats/chat1"))
	assert.False(t, checker.Can(ctx, LevelAdmin, "organizations/org1"))
	assert.False(t, checker.Can(ctx, LevelRead, "organizations/org2"))
}

// TestCheckerCanAnyAll tests multi-path checks
func TestCheckerCanAnyAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedMember(t, store, "a/1", "u1", LevelRead)
	seedMember(t, store, "b/1", "u1", LevelRead)

	checker := NewEvaluator(store).Checker("u1")

	assert.True(t, checker.CanAny(ctx, LevelRead, "c/1", "a/1"))
	assert.False(t, checker.CanAny(ctx, LevelRead, "c/1", "d/1"))

	assert.True(t, checker.CanAll(ctx, LevelRead, "a/1", "b/1"))
	assert.False(t, checker.CanAll(ctx, LevelRead, "a/1", "c/1"))

	// Vacuous truth on no paths
	assert.False(t, checker.CanAny(ctx, LevelRead))
	assert.True(t, checker.CanAll(ctx, LevelRead))
}

// TestCheckerLevelFor tests effective level reporting
func TestCheckerLevelFor(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedMember(t, store, "a/1", "u1", LevelAdmin)

	checker := NewEvaluator(store).Checker("u1")

	level, ok := checker.LevelFor(ctx, "a/1/b/2")
	require.True(t, ok)
	assert.Equal(t, LevelAdmin, level)
	assert.True(t, checker.IsAdmin(ctx, "a/1/b/2"))

	_, ok = checker.LevelFor(ctx, "c/1")
	assert.False(t, ok)
	assert.False(t, checker.IsAdmin(ctx, "c/1"))
}
