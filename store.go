package memberkit

import "context"

// Filter operators understood by QueryCollection.
const (
	OpEqual        = "=="
	OpNotEqual     = "!="
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpLess         = "<"
	OpLessEqual    = "<="
)

// Snapshot is the result of reading a single document.
type Snapshot struct {
	Exists bool
	Data   map[string]any
}

// Document is a document returned from a collection read, with its id
// relative to the collection.
type Document struct {
	ID   string
	Data map[string]any
}

// Filter selects documents in a collection by a single field condition.
type Filter struct {
	Field string
	Op    string
	Value any
}

// BatchWriteType is the kind of write in an atomic batch.
type BatchWriteType string

const (
	BatchSet    BatchWriteType = "set"
	BatchDelete BatchWriteType = "delete"
)

// BatchWrite is one write inside an atomic batch. Data is required for
// BatchSet and ignored for BatchDelete.
type BatchWrite struct {
	Type BatchWriteType
	Path string
	Data map[string]any
}

// DocumentStore is the hierarchical document store MemberKit runs against.
//
// Documents live at slash-separated paths of alternating collection and
// identifier segments; a collection path holds the documents one segment
// below it. The store is injected into Evaluator and Manager, never owned
// by them, so callers can share one client across instances and swap in
// test doubles.
//
// Implementations in this repository: MemoryStore (in-process),
// mongostore.Store (MongoDB) and bunstore.Store (PostgreSQL).
type DocumentStore interface {
	// GetDocument reads the document at path. A missing document is not
	// an error: the snapshot reports Exists == false.
	GetDocument(ctx context.Context, path string) (Snapshot, error)

	// SetDocument creates or fully overwrites the document at path.
	SetDocument(ctx context.Context, path string, data map[string]any) error

	// DeleteDocument removes the document at path. Deleting a document
	// that does not exist is a no-op, not an error.
	DeleteDocument(ctx context.Context, path string) error

	// QueryCollection returns the documents in the collection at path
	// matching the filter.
	QueryCollection(ctx context.Context, path string, filter Filter) ([]Document, error)

	// ListCollection returns every document in the collection at path.
	ListCollection(ctx context.Context, path string) ([]Document, error)

	// AtomicBatch applies all writes or none of them.
	AtomicBatch(ctx context.Context, writes []BatchWrite) error
}
