package catalog

import (
	"context"
	"fmt"

	"github.com/nimburion/catalog/pkg/repository/document"
	"golang.org/x/sync/errgroup"
)

// Bounds is the collection-wide range of the bound field.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// BoundsResolver reads the minimum and maximum of one numeric field over the
// whole collection, ignoring request filters.
type BoundsResolver struct {
	executor   document.Executor
	collection string
	field      string
}

// NewBoundsResolver creates a resolver for field in collection.
func NewBoundsResolver(exec document.Executor, collection, field string) *BoundsResolver {
	return &BoundsResolver{executor: exec, collection: collection, field: field}
}

// Resolve issues the max and min queries concurrently. A side with no
// document, or with a non-numeric value, is 0.
func (r *BoundsResolver) Resolve(ctx context.Context) (Bounds, error) {
	var b Bounds
	var g errgroup.Group
	g.Go(func() (err error) {
		b.Max, err = r.edge(ctx, document.SortDesc)
		return err
	})
	g.Go(func() (err error) {
		b.Min, err = r.edge(ctx, document.SortAsc)
		return err
	})
	if err := g.Wait(); err != nil {
		return Bounds{}, err
	}
	return b, nil
}

func (r *BoundsResolver) edge(ctx context.Context, order document.SortOrder) (float64, error) {
	docs, err := r.executor.Find(ctx, r.collection, document.QueryOptions{
		Sort:       []document.Sort{{Field: r.field, Order: order}},
		Projection: []string{r.field},
		Limit:      1,
	})
	if err != nil {
		return 0, fmt.Errorf("%s bound of %s: %w", order, r.field, err)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	v, _ := document.ToFloat(docs[0][r.field])
	return v, nil
}
