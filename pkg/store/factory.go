package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nimburion/catalog/pkg/config"
	"github.com/nimburion/catalog/pkg/observability/logger"
	"github.com/nimburion/catalog/pkg/repository/document"
	"github.com/nimburion/catalog/pkg/store/mongodb"
)

// NewDocumentStore opens the document store selected by database.type.
// The returned executor is instrumented and, when database.breaker_failures
// is positive, guarded by a circuit breaker. Collections and indexes are
// created later by DocumentStore.Prepare.
func NewDocumentStore(cfg config.DatabaseConfig, log logger.Logger) (*DocumentStore, error) {
	storeType := strings.ToLower(strings.TrimSpace(cfg.Type))
	switch storeType {
	case config.DatabaseTypeMongoDB:
		adapter, err := mongodb.NewAdapter(mongodb.Config{
			URL:              cfg.URL,
			Database:         cfg.DatabaseName,
			ConnectTimeout:   cfg.ConnectTimeout,
			OperationTimeout: cfg.OperationTimeout,
		}, log)
		if err != nil {
			return nil, err
		}
		exec, err := document.NewMongoDBExecutor(adapter)
		if err != nil {
			_ = adapter.Close()
			return nil, err
		}
		return &DocumentStore{
			Type:     storeType,
			Executor: wrapExecutor(exec, storeType, cfg, log),
			Adapter:  adapter,
			preparer: mongoPreparer{adapter: adapter, log: log},
		}, nil
	case config.DatabaseTypeMemory:
		exec := document.NewMemoryExecutor()
		log.Warn("using in-memory document store, data is lost on restart")
		return &DocumentStore{
			Type:     storeType,
			Executor: wrapExecutor(exec, storeType, cfg, log),
			Adapter:  exec,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database.type %q (supported: mongodb, memory)", cfg.Type)
	}
}

// wrapExecutor puts the circuit breaker under the instrumentation so
// rejected calls still show up in spans and metrics.
func wrapExecutor(exec document.Executor, storeType string, cfg config.DatabaseConfig, log logger.Logger) document.Executor {
	if cfg.BreakerFailures > 0 {
		exec = newGuardedExecutor(exec, cfg.BreakerFailures, cfg.BreakerCooldown, log)
	}
	return document.NewInstrumentedExecutor(exec, storeType)
}

type mongoPreparer struct {
	adapter *mongodb.Adapter
	log     logger.Logger
}

func (p mongoPreparer) Prepare(ctx context.Context, collections map[string][]string) error {
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := p.adapter.EnsureCollection(ctx, name); err != nil {
			return fmt.Errorf("ensure collection %s: %w", name, err)
		}
		if fields := collections[name]; len(fields) > 0 {
			if err := p.adapter.CreateIndexes(ctx, name, fields...); err != nil {
				return fmt.Errorf("create indexes on %s: %w", name, err)
			}
		}
		p.log.Info("collection ready", "collection", name, "indexes", collections[name])
	}
	return nil
}
