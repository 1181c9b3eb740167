package document

import (
	"context"
	"errors"
	"testing"
)

func seedMemory(t *testing.T, docs ...Document) *MemoryExecutor {
	t.Helper()
	e := NewMemoryExecutor()
	for _, doc := range docs {
		if _, err := e.InsertOne(context.Background(), "products", doc); err != nil {
			t.Fatalf("seed insert: %v", err)
		}
	}
	return e
}

func names(docs []Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d["name"].(string))
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMemoryExecutor_FindSortSkipLimit(t *testing.T) {
	e := seedMemory(t,
		Document{"name": "a", "price": 30.0, "company": "ikea"},
		Document{"name": "b", "price": 10.0, "company": "liddy"},
		Document{"name": "c", "price": 20.0, "company": "ikea"},
		Document{"name": "d", "price": 20.0, "company": "caressa"},
	)
	ctx := context.Background()

	docs, err := e.Find(ctx, "products", QueryOptions{
		Sort: []Sort{{Field: "price", Order: SortDesc}, {Field: "name", Order: SortAsc}},
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got := names(docs); !equalStrings(got, []string{"a", "c", "d", "b"}) {
		t.Fatalf("unexpected order %v", got)
	}

	docs, err = e.Find(ctx, "products", QueryOptions{
		Sort:  []Sort{{Field: "name", Order: SortAsc}},
		Skip:  1,
		Limit: 2,
	})
	if err != nil {
		t.Fatalf("find page: %v", err)
	}
	if got := names(docs); !equalStrings(got, []string{"b", "c"}) {
		t.Fatalf("unexpected page %v", got)
	}

	docs, err = e.Find(ctx, "products", QueryOptions{Skip: 10})
	if err != nil || len(docs) != 0 {
		t.Fatalf("skip past end should be empty, got %v %v", docs, err)
	}

	n, err := e.Count(ctx, "products", Filter{"company": "ikea"})
	if err != nil || n != 2 {
		t.Fatalf("count = %d, %v", n, err)
	}
}

func TestMemoryExecutor_Projection(t *testing.T) {
	e := seedMemory(t, Document{"name": "a", "price": 30.0, "company": "ikea"})

	docs, err := e.Find(context.Background(), "products", QueryOptions{Projection: []string{"price"}})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
	if _, ok := docs[0][IDField]; !ok {
		t.Fatal("projection must keep the id")
	}
	if _, ok := docs[0]["company"]; ok {
		t.Fatal("projection must drop unlisted fields")
	}
	if docs[0]["price"] != 30.0 {
		t.Fatalf("unexpected price %v", docs[0]["price"])
	}
}

func TestMemoryExecutor_WriteLifecycle(t *testing.T) {
	e := NewMemoryExecutor()
	ctx := context.Background()

	created, err := e.InsertOne(ctx, "products", Document{"name": "chair", "price": 99.0})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id, _ := created[IDField].(string)
	if id == "" {
		t.Fatal("insert must assign an id")
	}

	created["name"] = "mutated"
	stored, err := e.FindOne(ctx, "products", Filter{IDField: id})
	if err != nil {
		t.Fatalf("find one: %v", err)
	}
	if stored["name"] != "chair" {
		t.Fatal("returned documents must not alias stored state")
	}

	updated, err := e.UpdateByID(ctx, "products", id, Document{"price": 79.0, IDField: "other"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated["price"] != 79.0 || updated[IDField] != id {
		t.Fatalf("unexpected update result %v", updated)
	}

	if _, err := e.InsertOne(ctx, "products", Document{IDField: id}); err == nil {
		t.Fatal("duplicate id must be rejected")
	}

	deleted, err := e.DeleteByID(ctx, "products", id)
	if err != nil || deleted["name"] != "chair" {
		t.Fatalf("delete: %v %v", deleted, err)
	}
	if _, err := e.DeleteByID(ctx, "products", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
	if _, err := e.UpdateByID(ctx, "products", id, Document{"price": 1.0}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update of deleted doc should be not found, got %v", err)
	}
	if _, err := e.FindOne(ctx, "products", Filter{IDField: id}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("find of deleted doc should be not found, got %v", err)
	}
}

func TestMemoryExecutor_Closed(t *testing.T) {
	e := NewMemoryExecutor()
	if err := e.HealthCheck(context.Background()); err != nil {
		t.Fatalf("healthy executor reported %v", err)
	}
	_ = e.Close()
	if err := e.HealthCheck(context.Background()); err == nil {
		t.Fatal("closed executor must fail health check")
	}
	if _, err := e.Find(context.Background(), "products", QueryOptions{}); err == nil {
		t.Fatal("closed executor must reject queries")
	}
}

func TestMemoryExecutor_CanceledContext(t *testing.T) {
	e := NewMemoryExecutor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Count(ctx, "products", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestInstrumentedExecutor_Delegates(t *testing.T) {
	inner := seedMemory(t, Document{"name": "a", "price": 1.0})
	e := NewInstrumentedExecutor(inner, "memory")

	n, err := e.Count(context.Background(), "products", Filter{})
	if err != nil || n != 1 {
		t.Fatalf("count through wrapper = %d, %v", n, err)
	}
	if _, err := e.DeleteByID(context.Background(), "products", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("errors must pass through, got %v", err)
	}
}
