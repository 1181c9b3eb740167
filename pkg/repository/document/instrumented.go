package document

import (
	"context"
	"time"

	"github.com/nimburion/catalog/pkg/observability/metrics"
	"github.com/nimburion/catalog/pkg/observability/tracing"
)

// InstrumentedExecutor records a span and a latency sample for every call
// made through the wrapped Executor.
type InstrumentedExecutor struct {
	next   Executor
	system string
}

// NewInstrumentedExecutor wraps next. system names the backing store in spans ("mongodb", "memory").
func NewInstrumentedExecutor(next Executor, system string) *InstrumentedExecutor {
	return &InstrumentedExecutor{next: next, system: system}
}

func (e *InstrumentedExecutor) observe(ctx context.Context, op, collection string, fn func(context.Context) error) error {
	ctx, span := tracing.StartStoreSpan(ctx, e.system, op, collection)
	start := time.Now()
	err := fn(ctx)
	metrics.RecordStoreOperation(op, collection, time.Since(start), err)
	tracing.EndSpan(span, err)
	return err
}

func (e *InstrumentedExecutor) Find(ctx context.Context, collection string, opts QueryOptions) (docs []Document, err error) {
	err = e.observe(ctx, "find", collection, func(ctx context.Context) error {
		docs, err = e.next.Find(ctx, collection, opts)
		return err
	})
	return docs, err
}

func (e *InstrumentedExecutor) Count(ctx context.Context, collection string, filter Filter) (n int64, err error) {
	err = e.observe(ctx, "count", collection, func(ctx context.Context) error {
		n, err = e.next.Count(ctx, collection, filter)
		return err
	})
	return n, err
}

func (e *InstrumentedExecutor) FindOne(ctx context.Context, collection string, filter Filter) (doc Document, err error) {
	err = e.observe(ctx, "find_one", collection, func(ctx context.Context) error {
		doc, err = e.next.FindOne(ctx, collection, filter)
		return err
	})
	return doc, err
}

func (e *InstrumentedExecutor) InsertOne(ctx context.Context, collection string, in Document) (doc Document, err error) {
	err = e.observe(ctx, "insert", collection, func(ctx context.Context) error {
		doc, err = e.next.InsertOne(ctx, collection, in)
		return err
	})
	return doc, err
}

func (e *InstrumentedExecutor) UpdateByID(ctx context.Context, collection, id string, set Document) (doc Document, err error) {
	err = e.observe(ctx, "update", collection, func(ctx context.Context) error {
		doc, err = e.next.UpdateByID(ctx, collection, id, set)
		return err
	})
	return doc, err
}

func (e *InstrumentedExecutor) DeleteByID(ctx context.Context, collection, id string) (doc Document, err error) {
	err = e.observe(ctx, "delete", collection, func(ctx context.Context) error {
		doc, err = e.next.DeleteByID(ctx, collection, id)
		return err
	})
	return doc, err
}
