package config

import "time"

// Database type constants
const (
	// DatabaseTypeMongoDB represents MongoDB database
	DatabaseTypeMongoDB = "mongodb"
	// DatabaseTypeMemory keeps documents in process memory
	DatabaseTypeMemory = "memory"
)

// Router type constants
const (
	RouterTypeGin     = "gin"
	RouterTypeGorilla = "gorilla"
	RouterTypeNetHTTP = "nethttp"
)

// Config is the root configuration structure for the catalog service
type Config struct {
	RouterType    string `mapstructure:"router_type"`
	Service       ServiceConfig
	HTTP          HTTPConfig
	Management    ManagementConfig
	CORS          CORSConfig
	RateLimit     RateLimitConfig   `mapstructure:"rate_limit"`
	Compression   CompressionConfig `mapstructure:"compression"`
	Database      DatabaseConfig
	Catalog       CatalogConfig
	Observability ObservabilityConfig
}

// ServiceConfig configures service identity metadata.
type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// HTTPConfig configures the public API server
type HTTPConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	MaxRequestSize int64         `mapstructure:"max_request_size"`
	// StaticDir is served for any path no API route matches. Empty disables it.
	StaticDir string `mapstructure:"static_dir"`
}

// ManagementConfig configures the management server
type ManagementConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// CORSConfig configures CORS middleware for browser-based clients.
type CORSConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	AllowOrigins     []string      `mapstructure:"allow_origins"`
	AllowMethods     []string      `mapstructure:"allow_methods"`
	AllowHeaders     []string      `mapstructure:"allow_headers"`
	ExposeHeaders    []string      `mapstructure:"expose_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	AllowWildcard    bool          `mapstructure:"allow_wildcard"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// CompressionConfig configures response compression.
type CompressionConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	EnableGzip   bool `mapstructure:"enable_gzip"`
	EnableBrotli bool `mapstructure:"enable_brotli"`
	GzipLevel    int  `mapstructure:"gzip_level"`
	BrotliLevel  int  `mapstructure:"brotli_level"`
	MinSize      int  `mapstructure:"min_size"`
}

// DatabaseConfig configures the document store
type DatabaseConfig struct {
	Type             string        `mapstructure:"type"` // mongodb, memory
	URL              string        `mapstructure:"url"`
	DatabaseName     string        `mapstructure:"database_name"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`

	// BreakerFailures consecutive store failures open the circuit for
	// BreakerCooldown. Zero disables the breaker.
	BreakerFailures int           `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
}

// CatalogConfig configures the product query pipeline and account lookups.
type CatalogConfig struct {
	ProductsCollection string `mapstructure:"products_collection"`
	UsersCollection    string `mapstructure:"users_collection"`
	DefaultLimit       int64  `mapstructure:"default_limit"`
	MaxLimit           int64  `mapstructure:"max_limit"`
	// BoundField is the numeric field whose collection-wide min and max are reported.
	BoundField string `mapstructure:"bound_field"`
}

// ObservabilityConfig configures logging and tracing
type ObservabilityConfig struct {
	LogLevel          string  `mapstructure:"log_level"`
	LogFormat         string  `mapstructure:"log_format"` // json, console
	TracingEnabled    bool    `mapstructure:"tracing_enabled"`
	TracingSampleRate float64 `mapstructure:"tracing_sample_rate"`
	TracingEndpoint   string  `mapstructure:"tracing_endpoint"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		RouterType: RouterTypeGin,
		Service: ServiceConfig{
			Name:        "catalog",
			Environment: "production",
		},
		HTTP: HTTPConfig{
			Port:           3000,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    120 * time.Second,
			MaxRequestSize: 1 << 20,
			StaticDir:      "public",
		},
		Management: ManagementConfig{
			Enabled:      true,
			Port:         9090,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		CORS: CORSConfig{
			Enabled:      false,
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
			MaxAge:       12 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 100,
			Burst:             200,
		},
		Compression: CompressionConfig{
			Enabled:      true,
			EnableGzip:   true,
			EnableBrotli: true,
			GzipLevel:    -1,
			BrotliLevel:  4,
			MinSize:      1024,
		},
		Database: DatabaseConfig{
			Type:             DatabaseTypeMongoDB,
			URL:              "mongodb://localhost:27017",
			DatabaseName:     "catalog",
			ConnectTimeout:   10 * time.Second,
			OperationTimeout: 5 * time.Second,
			BreakerFailures:  5,
			BreakerCooldown:  30 * time.Second,
		},
		Catalog: CatalogConfig{
			ProductsCollection: "products",
			UsersCollection:    "users",
			DefaultLimit:       8,
			MaxLimit:           100,
			BoundField:         "price",
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogFormat:         "json",
			TracingEnabled:    false,
			TracingSampleRate: 0.1,
			TracingEndpoint:   "localhost:4317",
		},
	}
}
