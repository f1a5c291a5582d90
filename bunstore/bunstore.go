// Package bunstore adapts PostgreSQL to the memberkit.DocumentStore
// contract through dbkit and bun.
//
// Every document is one row in the documents table, keyed by its full
// resource path with the parent collection path denormalized for
// collection scans and the payload stored as JSONB. AtomicBatch runs all
// writes in one database transaction.
package bunstore

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"

	"github.com/fernandezvara/memberkit"
)

// Doc is the row shape backing every stored document.
type Doc struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	Path   string         `bun:"path,pk"`
	Parent string         `bun:"parent,notnull"`
	Data   map[string]any `bun:"data,type:jsonb,notnull"`
}

// Store implements memberkit.DocumentStore on PostgreSQL.
type Store struct {
	db dbkit.IDB
}

// New creates a Store over an existing dbkit connection. The connection
// stays owned by the caller.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	store := bunstore.New(db)
//	store.Migrate(ctx)
func New(db dbkit.IDB) *Store {
	return &Store{db: db}
}

// Connect opens a new dbkit connection and wraps it in a Store.
func Connect(databaseURL string) (*Store, error) {
	db, err := dbkit.New(dbkit.Config{URL: databaseURL})
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// Migrations returns the database migrations required for the documents
// table. Run them with Migrate or dbkit directly.
func Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "memberkit-001",
			Description: "Create documents table",
			SQL: `
                CREATE TABLE IF NOT EXISTS documents (
                    path TEXT PRIMARY KEY,
                    parent TEXT NOT NULL,
                    data JSONB NOT NULL
                )`,
		},
		{
			ID:          "memberkit-002",
			Description: "Index documents by parent collection",
			SQL: `
                CREATE INDEX IF NOT EXISTS documents_parent_idx
                    ON documents (parent)`,
		},
	}
}

// Migrate runs the documents table migrations. Requires the Store to be
// backed by a *dbkit.DBKit rather than a transaction.
func (s *Store) Migrate(ctx context.Context) error {
	db, ok := s.db.(*dbkit.DBKit)
	if !ok {
		return fmt.Errorf("bunstore: migrations require a dbkit.DBKit instance")
	}
	_, err := db.Migrate(ctx, Migrations())
	return err
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.PingContext(ctx)
	}
	return nil
}

// Close closes the underlying connection when this Store opened it.
func (s *Store) Close() error {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.Close()
	}
	return nil
}

// GetDocument implements memberkit.DocumentStore.
func (s *Store) GetDocument(ctx context.Context, path string) (memberkit.Snapshot, error) {
	var doc Doc
	err := dbkit.WithErr1(
		s.db.NewSelect().Model(&doc).Where("path = ?", path).Scan(ctx),
		"GetDocument").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return memberkit.Snapshot{}, nil
		}
		return memberkit.Snapshot{}, err
	}
	return memberkit.Snapshot{Exists: true, Data: doc.Data}, nil
}

// SetDocument implements memberkit.DocumentStore with upsert semantics.
func (s *Store) SetDocument(ctx context.Context, path string, data map[string]any) error {
	doc := &Doc{
		Path:   path,
		Parent: parentPath(path),
		Data:   data,
	}
	result, err := s.db.NewInsert().Model(doc).
		On("CONFLICT (path) DO UPDATE").
		Set("parent = EXCLUDED.parent").
		Set("data = EXCLUDED.data").
		Exec(ctx)
	return dbkit.WithErr(result, err, "SetDocument").Err()
}

// DeleteDocument implements memberkit.DocumentStore. Deleting an absent
// document is a no-op.
func (s *Store) DeleteDocument(ctx context.Context, path string) error {
	result, err := s.db.NewDelete().Model((*Doc)(nil)).Where("path = ?", path).Exec(ctx)
	return dbkit.WithErr(result, err, "DeleteDocument").Err()
}

// QueryCollection implements memberkit.DocumentStore. Values are compared
// through their JSONB text representation; only equality operators are
// supported on this backend.
func (s *Store) QueryCollection(ctx context.Context, path string, filter memberkit.Filter) ([]memberkit.Document, error) {
	switch filter.Op {
	case memberkit.OpEqual, memberkit.OpNotEqual:
	default:
		return nil, memberkit.NewError(memberkit.ErrUnsupportedOp, filter.Op)
	}

	q := s.db.NewSelect().Model((*Doc)(nil)).Where("parent = ?", path)
	if filter.Op == memberkit.OpEqual {
		q = q.Where("data->>? = ?", filter.Field, fmt.Sprint(filter.Value))
	} else {
		q = q.Where("data->>? IS DISTINCT FROM ?", filter.Field, fmt.Sprint(filter.Value))
	}

	var docs []Doc
	err := dbkit.WithErr1(q.Order("path ASC").Scan(ctx, &docs), "QueryCollection").Err()
	if err != nil {
		return nil, err
	}
	return toDocuments(path, docs), nil
}

// ListCollection implements memberkit.DocumentStore.
func (s *Store) ListCollection(ctx context.Context, path string) ([]memberkit.Document, error) {
	var docs []Doc
	err := dbkit.WithErr1(
		s.db.NewSelect().Model(&docs).Where("parent = ?", path).Order("path ASC").Scan(ctx),
		"ListCollection").Err()
	if err != nil {
		return nil, err
	}
	return toDocuments(path, docs), nil
}

// AtomicBatch implements memberkit.DocumentStore inside one transaction.
func (s *Store) AtomicBatch(ctx context.Context, writes []memberkit.BatchWrite) error {
	apply := func(store *Store) error {
		for _, w := range writes {
			switch w.Type {
			case memberkit.BatchSet:
				if err := store.SetDocument(ctx, w.Path, w.Data); err != nil {
					return err
				}
			case memberkit.BatchDelete:
				if err := store.DeleteDocument(ctx, w.Path); err != nil {
					return err
				}
			default:
				return memberkit.NewError(memberkit.ErrUnsupportedOp,
					"unknown batch write type "+string(w.Type))
			}
		}
		return nil
	}

	switch db := s.db.(type) {
	case *dbkit.Tx:
		// Already transactional, apply in place.
		return apply(s)
	case *dbkit.DBKit:
		return db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return apply(New(tx))
		})
	}
	return fmt.Errorf("bunstore: atomic batches require a dbkit.DBKit or dbkit.Tx instance")
}

// toDocuments converts rows to collection documents with ids relative to
// the collection path.
func toDocuments(path string, docs []Doc) []memberkit.Document {
	prefix := path + "/"
	out := make([]memberkit.Document, 0, len(docs))
	for _, d := range docs {
		id := d.Path
		if len(id) > len(prefix) && id[:len(prefix)] == prefix {
			id = id[len(prefix):]
		}
		out = append(out, memberkit.Document{ID: id, Data: d.Data})
	}
	return out
}

// parentPath strips the final segment from a document path, yielding the
// collection it belongs to.
func parentPath(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}
