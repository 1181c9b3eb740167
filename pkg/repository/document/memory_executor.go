package document

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryExecutor keeps collections in process memory and evaluates the
// document dialect itself. Ids are random UUID strings. It backs
// database.type=memory and the service tests.
type MemoryExecutor struct {
	mu          sync.RWMutex
	collections map[string][]Document
	closed      bool
}

// NewMemoryExecutor returns an empty store.
func NewMemoryExecutor() *MemoryExecutor {
	return &MemoryExecutor{collections: make(map[string][]Document)}
}

func (e *MemoryExecutor) Find(ctx context.Context, collection string, opts QueryOptions) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, errClosed
	}

	var matched []Document
	for _, doc := range e.collections[collection] {
		ok, err := Matches(doc, opts.Filter)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, doc)
		}
	}

	if len(opts.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return lessBySort(matched[i], matched[j], opts.Sort)
		})
	}

	start := opts.Skip
	if start > int64(len(matched)) {
		start = int64(len(matched))
	}
	end := int64(len(matched))
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	out := make([]Document, 0, end-start)
	for _, doc := range matched[start:end] {
		out = append(out, project(doc, opts.Projection))
	}
	return out, nil
}

func (e *MemoryExecutor) Count(ctx context.Context, collection string, filter Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return 0, errClosed
	}

	var n int64
	for _, doc := range e.collections[collection] {
		ok, err := Matches(doc, filter)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (e *MemoryExecutor) FindOne(ctx context.Context, collection string, filter Filter) (Document, error) {
	docs, err := e.Find(ctx, collection, QueryOptions{Filter: filter, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

func (e *MemoryExecutor) InsertOne(ctx context.Context, collection string, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errClosed
	}

	stored := deepCopy(doc)
	id, _ := stored[IDField].(string)
	if id == "" {
		id = uuid.NewString()
		stored[IDField] = id
	}
	if e.indexOf(collection, id) >= 0 {
		return nil, fmt.Errorf("duplicate %s %q in %s", IDField, id, collection)
	}
	e.collections[collection] = append(e.collections[collection], stored)
	return deepCopy(stored), nil
}

func (e *MemoryExecutor) UpdateByID(ctx context.Context, collection, id string, set Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errClosed
	}

	idx := e.indexOf(collection, id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	doc := e.collections[collection][idx]
	for k, v := range set {
		if k == IDField {
			continue
		}
		doc[k] = copyValue(v)
	}
	return deepCopy(doc), nil
}

func (e *MemoryExecutor) DeleteByID(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errClosed
	}

	idx := e.indexOf(collection, id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	docs := e.collections[collection]
	removed := docs[idx]
	e.collections[collection] = append(docs[:idx:idx], docs[idx+1:]...)
	return removed, nil
}

// HealthCheck fails once the executor is closed.
func (e *MemoryExecutor) HealthCheck(context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return errClosed
	}
	return nil
}

func (e *MemoryExecutor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

var errClosed = fmt.Errorf("memory executor is closed")

func (e *MemoryExecutor) indexOf(collection, id string) int {
	for i, doc := range e.collections[collection] {
		if docID, _ := doc[IDField].(string); docID == id {
			return i
		}
	}
	return -1
}

func lessBySort(a, b Document, keys []Sort) bool {
	for _, key := range keys {
		av, aFound := Lookup(a, key.Field)
		bv, bFound := Lookup(b, key.Field)
		cmp := compareForSort(av, aFound, bv, bFound)
		if cmp == 0 {
			continue
		}
		if key.Order == SortDesc {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}

func project(doc Document, fields []string) Document {
	if len(fields) == 0 {
		return deepCopy(doc)
	}
	out := Document{}
	if id, ok := doc[IDField]; ok {
		out[IDField] = id
	}
	for _, field := range fields {
		if v, ok := doc[field]; ok {
			out[field] = copyValue(v)
		}
	}
	return out
}

func deepCopy(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case Document:
		return map[string]interface{}(deepCopy(t))
	case map[string]interface{}:
		return map[string]interface{}(deepCopy(Document(t)))
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	case time.Time:
		return t.UTC()
	default:
		return v
	}
}
