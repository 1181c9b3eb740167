// Package catalog implements the product query pipeline: request parameters
// are parsed, translated into a store predicate, sort and page window, and
// executed together with the collection-wide count and price bounds.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/nimburion/catalog/pkg/observability/logger"
	"github.com/nimburion/catalog/pkg/repository/document"
	"golang.org/x/sync/errgroup"
)

// Options configures a Service.
type Options struct {
	Collection string
	BoundField string
	Limits     PageLimits
}

// Service runs product queries and writes against a document executor.
type Service struct {
	executor document.Executor
	schema   Schema
	opts     Options
	bounds   *BoundsResolver
	log      logger.Logger
	now      func() time.Time
}

// NewService creates a product service. Empty options take the defaults
// ("products", "price", 8/100).
func NewService(exec document.Executor, opts Options, log logger.Logger) (*Service, error) {
	if exec == nil {
		return nil, errors.New("document executor is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	if opts.Collection == "" {
		opts.Collection = "products"
	}
	if opts.BoundField == "" {
		opts.BoundField = DefaultSort.Field
	}
	return &Service{
		executor: exec,
		schema:   ProductSchema,
		opts:     opts,
		bounds:   NewBoundsResolver(exec, opts.Collection, opts.BoundField),
		log:      log.With("component", "catalog"),
		now:      time.Now,
	}, nil
}

// List answers one catalog query. Count and bounds cover the whole
// collection regardless of filters. The four store calls run concurrently
// and are not canceled when the caller goes away.
func (s *Service) List(ctx context.Context, query url.Values) (*QueryResult, error) {
	params := ParseParams(query)

	filters, err := TranslateFilters(params, s.schema)
	if err != nil {
		return nil, err
	}
	sortSpec := NormalizeSort(params.Sort, s.schema, DefaultSort)
	page := Paginate(params.Page, params.Limit, s.opts.Limits)

	findOpts := document.QueryOptions{
		Filter:     filters.Predicate(),
		Sort:       sortSpec.StoreSort(),
		Projection: s.selectFields(params.Select),
		Skip:       page.Skip,
		Limit:      page.Limit,
	}

	storeCtx := context.WithoutCancel(ctx)
	var (
		docs   []document.Document
		total  int64
		bounds Bounds
		g      errgroup.Group
	)
	g.Go(func() (err error) {
		docs, err = s.executor.Find(storeCtx, s.opts.Collection, findOpts)
		if err != nil {
			return fmt.Errorf("find %s: %w", s.opts.Collection, err)
		}
		return nil
	})
	g.Go(func() (err error) {
		total, err = s.executor.Count(storeCtx, s.opts.Collection, document.Filter{})
		if err != nil {
			return fmt.Errorf("count %s: %w", s.opts.Collection, err)
		}
		return nil
	})
	g.Go(func() (err error) {
		bounds, err = s.bounds.Resolve(storeCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Debug("catalog query served",
		"filters", len(filters.Criteria),
		"page", page.Page,
		"limit", page.Limit,
		"hits", len(docs),
	)
	return assemble(docs, filters, sortSpec, bounds, page, total), nil
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, in ProductInput) (document.Document, error) {
	if err := in.Validate(false); err != nil {
		return nil, err
	}
	doc := in.Fields()
	doc["createdAt"] = s.now().UTC()

	created, err := s.executor.InsertOne(ctx, s.opts.Collection, doc)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	s.log.WithContext(ctx).Info("product created", "id", created[document.IDField])
	return created, nil
}

// Update sets the provided fields of product id.
func (s *Service) Update(ctx context.Context, id string, in ProductInput) (document.Document, error) {
	if err := in.Validate(true); err != nil {
		return nil, err
	}
	updated, err := s.executor.UpdateByID(ctx, s.opts.Collection, id, in.Fields())
	if err != nil {
		return nil, s.writeError("update", id, err)
	}
	s.log.WithContext(ctx).Info("product updated", "id", id)
	return updated, nil
}

// Delete removes product id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.executor.DeleteByID(ctx, s.opts.Collection, id); err != nil {
		return s.writeError("delete", id, err)
	}
	s.log.WithContext(ctx).Info("product deleted", "id", id)
	return nil
}

func (s *Service) writeError(op, id string, err error) error {
	switch {
	case errors.Is(err, document.ErrNotFound):
		return &NotFoundError{ID: id}
	case errors.Is(err, document.ErrInvalidID):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		return fmt.Errorf("%s product %s: %w", op, id, err)
	}
}

// selectFields keeps the schema fields named in a comma separated select
// value, in request order and without repeats.
func (s *Service) selectFields(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var fields []string
	seen := map[string]struct{}{}
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if !s.schema.Has(token) {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		fields = append(fields, token)
	}
	return fields
}
