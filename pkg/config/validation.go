package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nimburion/catalog/pkg/observability/logger"
)

// Validate checks if the configuration is valid. Every problem is reported.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(strings.TrimSpace(c.RouterType)) {
	case "", RouterTypeGin, RouterTypeGorilla, RouterTypeNetHTTP:
	default:
		errs = append(errs, fmt.Errorf("router_type %q is not supported (gin, gorilla, nethttp)", c.RouterType))
	}

	if !validPort(c.HTTP.Port) {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}
	if c.HTTP.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Errorf("http.max_request_size must be positive"))
	}
	if c.Management.Enabled {
		if !validPort(c.Management.Port) {
			errs = append(errs, fmt.Errorf("management.port must be between 1 and 65535, got %d", c.Management.Port))
		} else if c.Management.Port == c.HTTP.Port {
			errs = append(errs, fmt.Errorf("management.port must differ from http.port"))
		}
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, fmt.Errorf("rate_limit.requests_per_second must be positive when rate limiting is enabled"))
		}
		if c.RateLimit.Burst <= 0 {
			errs = append(errs, fmt.Errorf("rate_limit.burst must be positive when rate limiting is enabled"))
		}
	}

	if c.Compression.Enabled {
		if c.Compression.GzipLevel < -2 || c.Compression.GzipLevel > 9 {
			errs = append(errs, fmt.Errorf("compression.gzip_level must be between -2 and 9"))
		}
		if c.Compression.BrotliLevel < 0 || c.Compression.BrotliLevel > 11 {
			errs = append(errs, fmt.Errorf("compression.brotli_level must be between 0 and 11"))
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.Database.Type)) {
	case DatabaseTypeMongoDB:
		if c.Database.URL == "" {
			errs = append(errs, fmt.Errorf("database.url is required for MongoDB"))
		}
		if c.Database.DatabaseName == "" {
			errs = append(errs, fmt.Errorf("database.database_name is required for MongoDB"))
		}
	case DatabaseTypeMemory:
	default:
		errs = append(errs, fmt.Errorf("database.type %q is not supported (mongodb, memory)", c.Database.Type))
	}
	if c.Database.BreakerFailures < 0 {
		errs = append(errs, fmt.Errorf("database.breaker_failures must be >= 0"))
	}
	if c.Database.BreakerFailures > 0 && c.Database.BreakerCooldown <= 0 {
		errs = append(errs, fmt.Errorf("database.breaker_cooldown must be > 0 when the breaker is enabled"))
	}

	if c.Catalog.ProductsCollection == "" {
		errs = append(errs, fmt.Errorf("catalog.products_collection is required"))
	}
	if c.Catalog.UsersCollection == "" {
		errs = append(errs, fmt.Errorf("catalog.users_collection is required"))
	}
	if c.Catalog.BoundField == "" {
		errs = append(errs, fmt.Errorf("catalog.bound_field is required"))
	}
	if c.Catalog.DefaultLimit <= 0 {
		errs = append(errs, fmt.Errorf("catalog.default_limit must be positive"))
	}
	if c.Catalog.MaxLimit < c.Catalog.DefaultLimit {
		errs = append(errs, fmt.Errorf("catalog.max_limit must be at least catalog.default_limit"))
	}

	if _, err := logger.ParseLogLevel(c.Observability.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("observability.log_level: %w", err))
	}
	if _, err := logger.ParseLogFormat(c.Observability.LogFormat); err != nil {
		errs = append(errs, fmt.Errorf("observability.log_format: %w", err))
	}
	if c.Observability.TracingEnabled {
		if c.Observability.TracingEndpoint == "" {
			errs = append(errs, fmt.Errorf("observability.tracing_endpoint is required when tracing is enabled"))
		}
		if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
			errs = append(errs, fmt.Errorf("observability.tracing_sample_rate must be between 0 and 1"))
		}
	}

	return errors.Join(errs...)
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}
