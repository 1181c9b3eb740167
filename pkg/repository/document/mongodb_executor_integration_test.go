package document

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nimburion/catalog/pkg/observability/logger"
	mongostore "github.com/nimburion/catalog/pkg/store/mongodb"
	"github.com/nimburion/catalog/pkg/testutil"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func TestMongoDBExecutor_Integration(t *testing.T) {
	testutil.RequireIntegration(t)

	ctx := context.Background()
	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("Failed to start MongoDB container: %v", err)
	}
	defer func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}()

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	adapter, err := mongostore.NewAdapter(mongostore.Config{
		URL:              uri,
		Database:         "catalog_test",
		ConnectTimeout:   10 * time.Second,
		OperationTimeout: 5 * time.Second,
	}, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create adapter: %v", err)
	}
	defer adapter.Close()

	exec, err := NewMongoDBExecutor(adapter)
	if err != nil {
		t.Fatalf("Failed to create executor: %v", err)
	}

	for _, doc := range []Document{
		{"name": "a", "price": 30.0, "company": "ikea", "createdAt": time.Now().UTC()},
		{"name": "b", "price": 10.0, "company": "liddy"},
		{"name": "c", "price": 20.0, "company": "ikea"},
	} {
		if _, err := exec.InsertOne(ctx, "products", doc); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	t.Run("FindFilterSortPage", func(t *testing.T) {
		docs, err := exec.Find(ctx, "products", QueryOptions{
			Filter: Filter{"price": map[string]interface{}{OpGte: 15.0}},
			Sort:   []Sort{{Field: "price", Order: SortDesc}},
			Limit:  1,
			Skip:   1,
		})
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if len(docs) != 1 || docs[0]["name"] != "c" {
			t.Fatalf("unexpected page %v", docs)
		}
		if _, ok := docs[0][IDField].(string); !ok {
			t.Fatalf("ids must be normalized to hex strings, got %T", docs[0][IDField])
		}
	})

	t.Run("FilterByID", func(t *testing.T) {
		created, err := exec.InsertOne(ctx, "products", Document{"name": "d", "price": 40.0})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		id := created[IDField].(string)

		docs, err := exec.Find(ctx, "products", QueryOptions{Filter: Filter{IDField: id}})
		if err != nil {
			t.Fatalf("find by id: %v", err)
		}
		if len(docs) != 1 || docs[0][IDField] != id {
			t.Fatalf("expected the created document, got %v", docs)
		}

		n, err := exec.Count(ctx, "products", Filter{IDField: map[string]interface{}{OpIn: []interface{}{id}}})
		if err != nil || n != 1 {
			t.Fatalf("count by id list = %d, %v", n, err)
		}

		if _, err := exec.Find(ctx, "products", QueryOptions{Filter: Filter{IDField: "missing-42"}}); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}

		if _, err := exec.DeleteByID(ctx, "products", id); err != nil {
			t.Fatalf("delete: %v", err)
		}
	})

	t.Run("Count", func(t *testing.T) {
		n, err := exec.Count(ctx, "products", Filter{"company": "ikea"})
		if err != nil || n != 2 {
			t.Fatalf("count = %d, %v", n, err)
		}
	})

	t.Run("UpdateAndDelete", func(t *testing.T) {
		doc, err := exec.FindOne(ctx, "products", Filter{"name": "b"})
		if err != nil {
			t.Fatalf("find one: %v", err)
		}
		id := doc[IDField].(string)

		updated, err := exec.UpdateByID(ctx, "products", id, Document{"price": 12.5})
		if err != nil || updated["price"] != 12.5 {
			t.Fatalf("update: %v %v", updated, err)
		}
		if _, err := exec.DeleteByID(ctx, "products", id); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := exec.DeleteByID(ctx, "products", id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := exec.UpdateByID(ctx, "products", "not-hex", Document{"price": 1.0}); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})
}
