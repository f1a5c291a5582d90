// Package mongostore adapts MongoDB to the memberkit.DocumentStore
// contract.
//
// All documents live in a single collection keyed by their full resource
// path, with the parent collection path denormalized for collection
// scans:
//
//	{ _id: "organizations/org1/members/member_u1",
//	  parent: "organizations/org1/members",
//	  data: { userId: "u1", level: "read", ... } }
//
// AtomicBatch uses a session transaction, so the deployment must be a
// replica set (or mongos); standalone servers reject transactions.
package mongostore

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/fernandezvara/memberkit"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "documents"

// Store implements memberkit.DocumentStore on a MongoDB collection.
type Store struct {
	c *mongo.Collection
}

// New creates a Store over a collection in db. An empty collection name
// selects DefaultCollection. The client backing db stays owned by the
// caller.
func New(db *mongo.Database, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{c: db.Collection(collection)}
}

// storedDoc is the on-disk shape of every document.
type storedDoc struct {
	Path   string         `bson:"_id"`
	Parent string         `bson:"parent"`
	Data   map[string]any `bson:"data"`
}

// GetDocument implements memberkit.DocumentStore.
func (s *Store) GetDocument(ctx context.Context, path string) (memberkit.Snapshot, error) {
	var doc storedDoc
	err := s.c.FindOne(ctx, bson.M{"_id": path}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return memberkit.Snapshot{}, nil
	}
	if err != nil {
		return memberkit.Snapshot{}, err
	}
	return memberkit.Snapshot{Exists: true, Data: normalizeData(doc.Data)}, nil
}

// SetDocument implements memberkit.DocumentStore with upsert semantics.
func (s *Store) SetDocument(ctx context.Context, path string, data map[string]any) error {
	doc := storedDoc{
		Path:   path,
		Parent: parentPath(path),
		Data:   data,
	}
	_, err := s.c.ReplaceOne(ctx, bson.M{"_id": path}, doc, options.Replace().SetUpsert(true))
	return err
}

// DeleteDocument implements memberkit.DocumentStore. Deleting an absent
// document is a no-op.
func (s *Store) DeleteDocument(ctx context.Context, path string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": path})
	return err
}

// QueryCollection implements memberkit.DocumentStore.
func (s *Store) QueryCollection(ctx context.Context, path string, filter memberkit.Filter) ([]memberkit.Document, error) {
	op, err := mongoOp(filter.Op)
	if err != nil {
		return nil, err
	}
	query := bson.M{
		"parent":               path,
		"data." + filter.Field: bson.M{op: filter.Value},
	}
	return s.find(ctx, path, query)
}

// ListCollection implements memberkit.DocumentStore.
func (s *Store) ListCollection(ctx context.Context, path string) ([]memberkit.Document, error) {
	return s.find(ctx, path, bson.M{"parent": path})
}

// AtomicBatch implements memberkit.DocumentStore using a session
// transaction.
func (s *Store) AtomicBatch(ctx context.Context, writes []memberkit.BatchWrite) error {
	sess, err := s.c.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		for _, w := range writes {
			switch w.Type {
			case memberkit.BatchSet:
				if err := s.SetDocument(sc, w.Path, w.Data); err != nil {
					return nil, err
				}
			case memberkit.BatchDelete:
				if err := s.DeleteDocument(sc, w.Path); err != nil {
					return nil, err
				}
			default:
				return nil, memberkit.NewError(memberkit.ErrUnsupportedOp,
					"unknown batch write type "+string(w.Type))
			}
		}
		return nil, nil
	})
	return err
}

// Ping reports whether the backing deployment is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.c.Database().Client().Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the parent index used by collection scans.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "parent", Value: 1}},
	})
	return err
}

func (s *Store) find(ctx context.Context, path string, query bson.M) ([]memberkit.Document, error) {
	cursor, err := s.c.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stored []storedDoc
	if err := cursor.All(ctx, &stored); err != nil {
		return nil, err
	}

	prefix := path + "/"
	docs := make([]memberkit.Document, 0, len(stored))
	for _, d := range stored {
		docs = append(docs, memberkit.Document{
			ID:   strings.TrimPrefix(d.Path, prefix),
			Data: normalizeData(d.Data),
		})
	}
	return docs, nil
}

// mongoOp translates a memberkit filter operator to its Mongo form.
func mongoOp(op string) (string, error) {
	switch op {
	case memberkit.OpEqual:
		return "$eq", nil
	case memberkit.OpNotEqual:
		return "$ne", nil
	case memberkit.OpGreater:
		return "$gt", nil
	case memberkit.OpGreaterEqual:
		return "$gte", nil
	case memberkit.OpLess:
		return "$lt", nil
	case memberkit.OpLessEqual:
		return "$lte", nil
	}
	return "", memberkit.NewError(memberkit.ErrUnsupportedOp, op)
}

// parentPath strips the final segment from a document path, yielding the
// collection it belongs to.
func parentPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// normalizeData rewrites BSON decode artifacts into the plain Go types
// memberkit expects: primitive.DateTime to time.Time, primitive.M to
// map[string]any, primitive.A to []any.
func normalizeData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.M:
		return normalizeData(map[string]any(val))
	case map[string]any:
		return normalizeData(val)
	case primitive.A:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = normalizeValue(item)
		}
		return items
	case time.Time:
		return val.UTC()
	}
	return v
}
