package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nimburion/catalog/pkg/observability/logger"
	"github.com/nimburion/catalog/pkg/repository/document"
)

func newTestService(t *testing.T, prices ...float64) (*Service, *document.MemoryExecutor) {
	t.Helper()
	exec := document.NewMemoryExecutor()
	companies := []string{"ikea", "liddy", "marcos", "caressa"}
	for i, price := range prices {
		_, err := exec.InsertOne(context.Background(), "products", document.Document{
			"name":    string(rune('a' + i)),
			"price":   price,
			"company": companies[i%len(companies)],
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	svc, err := NewService(exec, Options{Limits: PageLimits{DefaultLimit: 8, MaxLimit: 100}}, logger.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, exec
}

func prices(t *testing.T, docs []document.Document) []float64 {
	t.Helper()
	out := make([]float64, 0, len(docs))
	for _, d := range docs {
		f, ok := document.ToFloat(d["price"])
		if !ok {
			t.Fatalf("document without numeric price: %v", d)
		}
		out = append(out, f)
	}
	return out
}

func equalFloats(a, b []float64) bool {
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

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	q, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("parse query %q: %v", raw, err)
	}
	return q
}

func TestService_List_RangeFilterDefaultSort(t *testing.T) {
	svc, _ := newTestService(t, 10, 50, 100, 150, 200)

	res, err := svc.List(context.Background(), mustQuery(t, "price[gte]=50&price[lte]=150"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := prices(t, res.Data); !equalFloats(got, []float64{150, 100, 50}) {
		t.Fatalf("unexpected prices %v", got)
	}
	if res.Bounds != (Bounds{Min: 10, Max: 200}) {
		t.Fatalf("bounds must ignore filters, got %+v", res.Bounds)
	}
	if res.Pagination.TotalHits != 5 {
		t.Fatalf("totalHits must count the whole collection, got %d", res.Pagination.TotalHits)
	}
}

func TestService_List_SortAndPage(t *testing.T) {
	svc, _ := newTestService(t, 10, 50, 100, 150, 200)

	res, err := svc.List(context.Background(), mustQuery(t, "sort=price&page=2&limit=2"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	// ascending [10 50 100 150 200], skip 2
	if got := prices(t, res.Data); !equalFloats(got, []float64{100, 150}) {
		t.Fatalf("unexpected page %v", got)
	}
	want := PageInfo{TotalPages: 3, CurrentPage: 2, TotalHits: 5}
	if res.Pagination != want {
		t.Fatalf("pagination = %+v, want %+v", res.Pagination, want)
	}
}

func TestService_List_RepeatedValuesIntersectIn(t *testing.T) {
	svc, _ := newTestService(t, 10, 50, 100, 150, 200)

	res, err := svc.List(context.Background(), mustQuery(t, "price=10&price=50&price[in]=200"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(res.Data) != 0 {
		t.Fatalf("disjoint constraints must match nothing, got %v", prices(t, res.Data))
	}
	echo, ok := res.Filtering["price"].(map[string]interface{})
	if !ok || echo["in"] != "200" || !reflect.DeepEqual(echo["eq"], []string{"10", "50"}) {
		t.Fatalf("unexpected filtering echo %#v", res.Filtering["price"])
	}

	res, err = svc.List(context.Background(), mustQuery(t, "price=10&price=50&price[in]=50,200"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := prices(t, res.Data); !equalFloats(got, []float64{50}) {
		t.Fatalf("unexpected prices %v", got)
	}
}

func TestService_List_NoParams(t *testing.T) {
	svc, _ := newTestService(t, 10, 50, 100, 150, 200)

	res, err := svc.List(context.Background(), url.Values{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := prices(t, res.Data); !equalFloats(got, []float64{200, 150, 100, 50, 10}) {
		t.Fatalf("unexpected order %v", got)
	}
	if res.Bounds != (Bounds{Min: 10, Max: 200}) || res.Pagination.TotalHits != 5 {
		t.Fatalf("unexpected metadata %+v %+v", res.Bounds, res.Pagination)
	}

	body, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"filtering":{}`, `"sorting":{}`, `"bounds":{"min":10,"max":200}`, `"pagination":{"totalPages":1,"currentPage":1,"totalHits":5}`} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}
}

func TestService_List_EmptyCollection(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.List(context.Background(), url.Values{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if res.Data == nil || len(res.Data) != 0 {
		t.Fatalf("data must be an empty list, got %#v", res.Data)
	}
	if res.Bounds != (Bounds{}) || res.Pagination.TotalPages != 0 {
		t.Fatalf("unexpected metadata %+v %+v", res.Bounds, res.Pagination)
	}
}

func TestService_List_SelectProjects(t *testing.T) {
	svc, _ := newTestService(t, 10, 20)

	res, err := svc.List(context.Background(), mustQuery(t, "select=name,bogus,name"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, doc := range res.Data {
		if _, ok := doc["price"]; ok {
			t.Fatalf("price should be projected out: %v", doc)
		}
		if _, ok := doc["name"]; !ok {
			t.Fatalf("name should be kept: %v", doc)
		}
	}
	if _, ok := res.Filtering["select"]; ok {
		t.Fatal("select must not be echoed as a filter")
	}
}

func TestService_List_InvalidValue(t *testing.T) {
	svc, _ := newTestService(t, 10)
	if _, err := svc.List(context.Background(), mustQuery(t, "price[gt]=cheap")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_List_IgnoresCallerCancellation(t *testing.T) {
	svc, _ := newTestService(t, 10, 20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := svc.List(ctx, url.Values{})
	if err != nil {
		t.Fatalf("store calls must not observe caller cancellation: %v", err)
	}
	if len(res.Data) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(res.Data))
	}
}

func TestService_CreateThenFilter(t *testing.T) {
	svc, _ := newTestService(t, 10, 50)
	svc.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	name, price, company := "Emperor Bed", 23.99, "ikea"
	created, err := svc.Create(context.Background(), ProductInput{Name: &name, Price: &price, Company: &company})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created[document.IDField] == nil || created["createdAt"] == nil {
		t.Fatalf("created document lacks id or timestamp: %v", created)
	}

	res, err := svc.List(context.Background(), mustQuery(t, "name=Emperor+Bed&price=23.99"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(res.Data) != 1 || res.Data[0][document.IDField] != created[document.IDField] {
		t.Fatalf("round trip should return exactly the created record, got %v", res.Data)
	}
}

func TestService_CreateValidation(t *testing.T) {
	svc, exec := newTestService(t)
	negative := -1.0
	name := "x"
	if _, err := svc.Create(context.Background(), ProductInput{Name: &name, Price: &negative}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Create(context.Background(), ProductInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing fields, got %v", err)
	}
	if n, _ := exec.Count(context.Background(), "products", nil); n != 0 {
		t.Fatalf("invalid input must not be stored, found %d", n)
	}
}

func TestService_UpdateDelete(t *testing.T) {
	svc, exec := newTestService(t, 10)
	docs, _ := exec.Find(context.Background(), "products", document.QueryOptions{})
	id := docs[0][document.IDField].(string)

	price := 12.0
	updated, err := svc.Update(context.Background(), id, ProductInput{Price: &price})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated["price"] != 12.0 || updated["name"] != "a" {
		t.Fatalf("partial update should keep other fields: %v", updated)
	}

	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n, _ := exec.Count(context.Background(), "products", nil); n != 0 {
		t.Fatalf("expected empty collection, found %d", n)
	}
}

func TestService_UnknownID(t *testing.T) {
	svc, exec := newTestService(t, 10, 20)
	price := 1.0

	_, err := svc.Update(context.Background(), "missing", ProductInput{Price: &price})
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != "missing" || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if err.Error() != "Product with id missing was not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}

	docs, _ := exec.Find(context.Background(), "products", document.QueryOptions{Sort: []document.Sort{{Field: "price"}}})
	if got := prices(t, docs); !equalFloats(got, []float64{10, 20}) {
		t.Fatalf("collection must be untouched, got %v", got)
	}
}

type failingExecutor struct {
	document.Executor
	err error
}

func (f failingExecutor) Count(context.Context, string, document.Filter) (int64, error) {
	return 0, f.err
}

func TestService_List_StoreFailure(t *testing.T) {
	boom := errors.New("connection reset")
	svc, err := NewService(failingExecutor{Executor: document.NewMemoryExecutor(), err: boom}, Options{}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, err := svc.List(context.Background(), url.Values{}); !errors.Is(err, boom) {
		t.Fatalf("store error must propagate, got %v", err)
	}
}
