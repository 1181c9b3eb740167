// Command catalog serves the product catalog API.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nimburion/catalog/pkg/accounts"
	"github.com/nimburion/catalog/pkg/api"
	"github.com/nimburion/catalog/pkg/catalog"
	"github.com/nimburion/catalog/pkg/cli"
	"github.com/nimburion/catalog/pkg/config"
	"github.com/nimburion/catalog/pkg/health"
	"github.com/nimburion/catalog/pkg/observability/logger"
	"github.com/nimburion/catalog/pkg/server"
	"github.com/nimburion/catalog/pkg/store"
)

const storeCheckTimeout = 5 * time.Second

func main() {
	cli.Execute(newCommand())
}

func newCommand() *cobra.Command {
	return cli.NewServiceCommand(cli.ServiceCommandOptions{
		Name:              "catalog",
		Description:       "Product catalog query service",
		RunServer:         runServer,
		CheckDependencies: checkDependencies,
	})
}

func runServer(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	st, err := store.NewDocumentStore(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}

	servers, opts, err := buildServers(cfg, log, st)
	if err != nil {
		_ = st.Close()
		return err
	}
	return server.RunHTTPServersWithSignals(ctx, servers, opts)
}

// buildServers wires the services onto the public router. The returned
// options own the store: it is prepared by a startup hook and closed by a
// shutdown hook.
func buildServers(cfg *config.Config, log logger.Logger, st *store.DocumentStore) (*server.HTTPServers, *server.RunHTTPServersOptions, error) {
	products, err := catalog.NewService(st.Executor, catalog.Options{
		Collection: cfg.Catalog.ProductsCollection,
		BoundField: cfg.Catalog.BoundField,
		Limits: catalog.PageLimits{
			DefaultLimit: cfg.Catalog.DefaultLimit,
			MaxLimit:     cfg.Catalog.MaxLimit,
		},
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("create catalog service: %w", err)
	}
	users, err := accounts.NewService(st.Executor, cfg.Catalog.UsersCollection, log)
	if err != nil {
		return nil, nil, fmt.Errorf("create accounts service: %w", err)
	}

	healthRegistry := health.NewRegistry()
	healthRegistry.Register(health.NewPingChecker("catalog"))
	healthRegistry.Register(health.NewAdapterChecker("document-store", st, storeCheckTimeout))

	opts := &server.RunHTTPServersOptions{
		Config:         cfg,
		Logger:         log,
		HealthRegistry: healthRegistry,
		StartupHooks: []server.LifecycleHook{{
			Name: "prepare-collections",
			Fn: func(ctx context.Context) error {
				return st.Prepare(ctx, collectionIndexes(cfg.Catalog))
			},
		}},
		ShutdownHooks: []server.LifecycleHook{{
			Name: "close-store",
			Fn:   func(context.Context) error { return st.Close() },
		}},
	}

	servers, err := server.BuildHTTPServers(opts)
	if err != nil {
		return nil, nil, err
	}
	api.Register(servers.Public.Router(), products, users, log)
	return servers, opts, nil
}

// collectionIndexes lists the fields indexed per collection: the bound
// field and the common filter keys for products, email for users.
func collectionIndexes(cfg config.CatalogConfig) map[string][]string {
	productFields := []string{cfg.BoundField}
	for _, f := range []string{"name", "company", "category"} {
		if f != cfg.BoundField {
			productFields = append(productFields, f)
		}
	}
	return map[string][]string{
		cfg.ProductsCollection: productFields,
		cfg.UsersCollection:    {"email"},
	}
}

func checkDependencies(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	st, err := store.NewDocumentStore(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(ctx, storeCheckTimeout)
	defer cancel()
	if err := st.HealthCheck(ctx); err != nil {
		return fmt.Errorf("document store unhealthy: %w", err)
	}
	return nil
}
