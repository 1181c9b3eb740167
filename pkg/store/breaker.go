package store

import (
	"context"
	"errors"
	"time"

	"github.com/nimburion/catalog/pkg/observability/logger"
	"github.com/nimburion/catalog/pkg/repository/document"
	"github.com/nimburion/catalog/pkg/resilience"
)

// guardedExecutor fails fast with resilience.ErrCircuitBreakerOpen while
// the store keeps failing.
type guardedExecutor struct {
	next    document.Executor
	breaker *resilience.CircuitBreaker
}

func newGuardedExecutor(next document.Executor, maxFailures int, cooldown time.Duration, log logger.Logger) *guardedExecutor {
	return &guardedExecutor{
		next: next,
		breaker: resilience.NewCircuitBreaker(maxFailures, cooldown,
			resilience.WithFailureClassifier(isStoreFailure),
			resilience.WithStateChange(func(from, to resilience.State) {
				if to == resilience.StateOpen {
					log.Warn("document store circuit opened", "from", from.String(), "cooldown", cooldown)
					return
				}
				log.Info("document store circuit state changed", "from", from.String(), "to", to.String())
			}),
		),
	}
}

// isStoreFailure ignores outcomes that say nothing about store health.
func isStoreFailure(err error) bool {
	switch {
	case errors.Is(err, document.ErrNotFound),
		errors.Is(err, document.ErrInvalidID),
		errors.Is(err, document.ErrUnsupportedOperator),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

func (g *guardedExecutor) Find(ctx context.Context, collection string, opts document.QueryOptions) (docs []document.Document, err error) {
	err = g.breaker.Execute(func() error {
		docs, err = g.next.Find(ctx, collection, opts)
		return err
	})
	return docs, err
}

func (g *guardedExecutor) Count(ctx context.Context, collection string, filter document.Filter) (n int64, err error) {
	err = g.breaker.Execute(func() error {
		n, err = g.next.Count(ctx, collection, filter)
		return err
	})
	return n, err
}

func (g *guardedExecutor) FindOne(ctx context.Context, collection string, filter document.Filter) (doc document.Document, err error) {
	err = g.breaker.Execute(func() error {
		doc, err = g.next.FindOne(ctx, collection, filter)
		return err
	})
	return doc, err
}

func (g *guardedExecutor) InsertOne(ctx context.Context, collection string, in document.Document) (doc document.Document, err error) {
	err = g.breaker.Execute(func() error {
		doc, err = g.next.InsertOne(ctx, collection, in)
		return err
	})
	return doc, err
}

func (g *guardedExecutor) UpdateByID(ctx context.Context, collection, id string, set document.Document) (doc document.Document, err error) {
	err = g.breaker.Execute(func() error {
		doc, err = g.next.UpdateByID(ctx, collection, id, set)
		return err
	})
	return doc, err
}

func (g *guardedExecutor) DeleteByID(ctx context.Context, collection, id string) (doc document.Document, err error) {
	err = g.breaker.Execute(func() error {
		doc, err = g.next.DeleteByID(ctx, collection, id)
		return err
	})
	return doc, err
}
