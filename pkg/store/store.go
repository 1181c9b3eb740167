// Package store selects and opens the document store configured for the service.
package store

import (
	"context"

	"github.com/nimburion/catalog/pkg/repository/document"
)

// Adapter is the minimal lifecycle and health contract for storage adapters.
type Adapter interface {
	HealthCheck(ctx context.Context) error
	Close() error
}

// Preparer creates collections and indexes ahead of traffic.
type Preparer interface {
	Prepare(ctx context.Context, collections map[string][]string) error
}

// DocumentStore is an opened store: the executor used by the services and
// the adapter owning its connection.
type DocumentStore struct {
	Type     string
	Executor document.Executor
	Adapter  Adapter

	preparer Preparer
}

// HealthCheck reports the health of the underlying connection.
func (s *DocumentStore) HealthCheck(ctx context.Context) error {
	return s.Adapter.HealthCheck(ctx)
}

// Close releases the underlying connection.
func (s *DocumentStore) Close() error {
	return s.Adapter.Close()
}

// Prepare ensures every collection exists with ascending indexes on the
// listed fields. Stores without a schema treat it as a no-op.
func (s *DocumentStore) Prepare(ctx context.Context, collections map[string][]string) error {
	if s.preparer == nil {
		return nil
	}
	return s.preparer.Prepare(ctx, collections)
}
