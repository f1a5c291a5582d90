package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fernandezvara/memberkit"
)

// requireDatabase skips the test unless TEST_MONGO_URL points at a
// reachable MongoDB replica set.
func requireDatabase(t *testing.T) *Store {
	t.Helper()

	mongoURL := os.Getenv("TEST_MONGO_URL")
	if mongoURL == "" {
		t.Skip("database not available, set TEST_MONGO_URL to run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	store := New(client.Database("memberkit_test"), "")
	if err := store.Ping(ctx); err != nil {
		t.Skipf("database not reachable: %v", err)
	}

	require.NoError(t, store.EnsureIndexes(ctx))
	return store
}

// TestMongoOp tests operator translation
func TestMongoOp(t *testing.T) {
	tests := map[string]string{
		memberkit.OpEqual:        "$eq",
		memberkit.OpNotEqual:     "$ne",
		memberkit.OpGreater:      "$gt",
		memberkit.OpGreaterEqual: "$gte",
		memberkit.OpLess:         "$lt",
		memberkit.OpLessEqual:    "$lte",
	}
	for op, expected := range tests {
		got, err := mongoOp(op)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
	}

	_, err := mongoOp("~=")
	assert.ErrorIs(t, err, memberkit.ErrUnsupportedOp)
}

// TestParentPath tests collection path derivation
func TestParentPath(t *testing.T) {
	assert.Equal(t, "a/1/members", parentPath("a/1/members/member_u1"))
	assert.Equal(t, "a", parentPath("a/1"))
	assert.Equal(t, "", parentPath("toplevel"))
}

// TestNormalizeData tests BSON decode artifact conversion
func TestNormalizeData(t *testing.T) {
	ts := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	data := normalizeData(map[string]any{
		"addedAt": primitive.NewDateTimeFromTime(ts),
		"nested":  primitive.M{"level": "read"},
		"tags":    primitive.A{"a", primitive.M{"b": "c"}},
		"userId":  "u1",
	})

	assert.Equal(t, ts, data["addedAt"])
	assert.Equal(t, map[string]any{"level": "read"}, data["nested"])
	assert.Equal(t, []any{"a", map[string]any{"b": "c"}}, data["tags"])
	assert.Equal(t, "u1", data["userId"])
}

// TestNormalizedMemberDecodes tests that a normalized member document
// passes memberkit validation
func TestNormalizedMemberDecodes(t *testing.T) {
	ts := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	data := normalizeData(map[string]any{
		"userId":  "u1",
		"level":   "write",
		"addedAt": primitive.NewDateTimeFromTime(ts),
	})

	snapStore := memberkit.NewMemoryStore()
	require.NoError(t, snapStore.SetDocument(context.Background(), "a/1/members/member_u1", data))

	evaluator := memberkit.NewEvaluator(snapStore)
	assert.True(t, evaluator.HasAccess(context.Background(), "a/1", "u1", memberkit.LevelWrite))
}

// TestIntegrationDocumentLifecycle tests the store against a real deployment
func TestIntegrationDocumentLifecycle(t *testing.T) {
	store := requireDatabase(t)
	ctx := context.Background()

	path := "mongostore_test/doc1"
	t.Cleanup(func() { _ = store.DeleteDocument(ctx, path) })

	snap, err := store.GetDocument(ctx, path)
	require.NoError(t, err)
	assert.False(t, snap.Exists)

	require.NoError(t, store.SetDocument(ctx, path, map[string]any{"createdBy": "u1"}))

	snap, err = store.GetDocument(ctx, path)
	require.NoError(t, err)
	require.True(t, snap.Exists)
	assert.Equal(t, "u1", snap.Data["createdBy"])

	require.NoError(t, store.DeleteDocument(ctx, path))
	require.NoError(t, store.DeleteDocument(ctx, path))
}

// TestIntegrationQueryAndList tests collection reads against a real deployment
func TestIntegrationQueryAndList(t *testing.T) {
	store := requireDatabase(t)
	ctx := context.Background()

	collection := "mongostore_test/c1/members"
	paths := []string{
		collection + "/member_u1",
		collection + "/member_u2",
	}
	t.Cleanup(func() {
		for _, p := range paths {
			_ = store.DeleteDocument(ctx, p)
		}
	})

	require.NoError(t, store.SetDocument(ctx, paths[0], map[string]any{"userId": "u1", "level": "read"}))
	require.NoError(t, store.SetDocument(ctx, paths[1], map[string]any{"userId": "u2", "level": "admin"}))

	docs, err := store.ListCollection(ctx, collection)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "member_u1", docs[0].ID)

	docs, err = store.QueryCollection(ctx, collection, memberkit.Filter{
		Field: "userId", Op: memberkit.OpEqual, Value: "u2",
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "member_u2", docs[0].ID)
}
