package memberkit

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process DocumentStore.
//
// It exists for tests, examples and local development: the full store
// contract, including atomic batches, backed by a map. Reads, writes and
// batches can be forced to fail to exercise fail-closed and all-or-nothing
// behavior.
//
// Example:
//
//	store := memberkit.NewMemoryStore()
//	manager := memberkit.NewManager(store)
//	evaluator := memberkit.NewEvaluator(store)
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]any

	readErr  error
	writeErr error
	batchErr error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]any),
	}
}

// FailReads makes every subsequent read operation return err.
// Pass nil to restore normal behavior.
func (s *MemoryStore) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// FailWrites makes every subsequent single-document write return err.
// Pass nil to restore normal behavior.
func (s *MemoryStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// FailBatches makes every subsequent atomic batch return err without
// applying any of its writes. Pass nil to restore normal behavior.
func (s *MemoryStore) FailBatches(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchErr = err
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// GetDocument implements DocumentStore.
func (s *MemoryStore) GetDocument(ctx context.Context, path string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.readErr != nil {
		return Snapshot{}, s.readErr
	}
	data, ok := s.docs[path]
	if !ok {
		return Snapshot{}, nil
	}
	return Snapshot{Exists: true, Data: cloneData(data)}, nil
}

// SetDocument implements DocumentStore.
func (s *MemoryStore) SetDocument(ctx context.Context, path string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return s.writeErr
	}
	s.docs[path] = cloneData(data)
	return nil
}

// DeleteDocument implements DocumentStore. Deleting an absent document
// is a no-op.
func (s *MemoryStore) DeleteDocument(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return s.writeErr
	}
	delete(s.docs, path)
	return nil
}

// QueryCollection implements DocumentStore.
func (s *MemoryStore) QueryCollection(ctx context.Context, path string, filter Filter) ([]Document, error) {
	docs, err := s.ListCollection(ctx, path)
	if err != nil {
		return nil, err
	}

	matched := docs[:0]
	for _, doc := range docs {
		ok, err := matchFilter(doc.Data, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, doc)
		}
	}
	return matched, nil
}

// ListCollection implements DocumentStore. Documents are returned in
// id order for deterministic iteration.
func (s *MemoryStore) ListCollection(ctx context.Context, path string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.readErr != nil {
		return nil, s.readErr
	}

	prefix := path + "/"
	var docs []Document
	for docPath, data := range s.docs {
		if !strings.HasPrefix(docPath, prefix) {
			continue
		}
		id := docPath[len(prefix):]
		if strings.Contains(id, "/") {
			// Document in a nested collection, not a direct child.
			continue
		}
		docs = append(docs, Document{ID: id, Data: cloneData(data)})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// AtomicBatch implements DocumentStore. The batch is validated up front
// and applied under a single lock, so a failure leaves nothing applied.
func (s *MemoryStore) AtomicBatch(ctx context.Context, writes []BatchWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.batchErr != nil {
		return s.batchErr
	}
	if s.writeErr != nil {
		return s.writeErr
	}

	for _, w := range writes {
		switch w.Type {
		case BatchSet, BatchDelete:
		default:
			return NewError(ErrUnsupportedOp, "unknown batch write type "+string(w.Type))
		}
		if w.Path == "" {
			return NewError(ErrInvalidPath, "batch write with empty path")
		}
	}

	for _, w := range writes {
		switch w.Type {
		case BatchSet:
			s.docs[w.Path] = cloneData(w.Data)
		case BatchDelete:
			delete(s.docs, w.Path)
		}
	}
	return nil
}

// cloneData copies document data so callers never alias store internals.
func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneData(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// matchFilter evaluates a single-field filter against document data.
func matchFilter(data map[string]any, filter Filter) (bool, error) {
	value, ok := data[filter.Field]

	switch filter.Op {
	case OpEqual:
		return ok && reflect.DeepEqual(value, filter.Value), nil
	case OpNotEqual:
		return !ok || !reflect.DeepEqual(value, filter.Value), nil
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
		if !ok {
			return false, nil
		}
		cmp, comparable := compareValues(value, filter.Value)
		if !comparable {
			return false, nil
		}
		switch filter.Op {
		case OpGreater:
			return cmp > 0, nil
		case OpGreaterEqual:
			return cmp >= 0, nil
		case OpLess:
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}
	}
	return false, NewError(ErrUnsupportedOp, filter.Op)
}

// compareValues orders two values of the same comparable kind.
func compareValues(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case int:
		bv, ok := b.(int)
		if !ok {
			return 0, false
		}
		return compareOrdered(av, bv), true
	case int64:
		bv, ok := b.(int64)
		if !ok {
			return 0, false
		}
		return compareOrdered(av, bv), true
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		return compareOrdered(av, bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	}
	return 0, false
}

func compareOrdered[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
