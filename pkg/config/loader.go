package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader defines the interface for loading configuration
type Loader interface {
	Load() (*Config, error)
}

// flagKeys maps CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"port":        "http.port",
	"router":      "router_type",
	"log-level":   "observability.log_level",
	"db-type":     "database.type",
	"static-dir":  "http.static_dir",
	"mgmt-port":   "management.port",
	"db-url":      "database.url",
	"db-database": "database.database_name",
}

// envAbbreviations lists short env aliases per section. The short form wins
// when both are set.
var envAbbreviations = map[string]string{
	"management": "MGMT",
	"database":   "DB",
}

// ViperLoader implements Loader using Viper for configuration management
type ViperLoader struct {
	configFile         string
	secretsFile        string
	envPrefix          string
	serviceNameDefault string
	flags              *pflag.FlagSet

	settings   map[string]interface{}
	secretKeys []string
}

// NewViperLoader creates a new ViperLoader
// configFile: path to configuration file (optional, can be empty)
// envPrefix: prefix for environment variables (e.g., "CATALOG")
func NewViperLoader(configFile, envPrefix string) *ViperLoader {
	return &ViperLoader{
		configFile: configFile,
		envPrefix:  envPrefix,
	}
}

// WithServiceNameDefault sets the default service.name used when no config/env override is provided.
func (l *ViperLoader) WithServiceNameDefault(serviceName string) *ViperLoader {
	l.serviceNameDefault = strings.TrimSpace(serviceName)
	return l
}

// WithSecretsFile sets an explicit secrets file, skipping discovery.
func (l *ViperLoader) WithSecretsFile(path string) *ViperLoader {
	l.secretsFile = strings.TrimSpace(path)
	return l
}

// WithFlags binds changed CLI flags. Flags take precedence over env.
func (l *ViperLoader) WithFlags(flags *pflag.FlagSet) *ViperLoader {
	l.flags = flags
	return l
}

// Load loads configuration with precedence: flags > ENV > secrets file > file > defaults
func (l *ViperLoader) Load() (*Config, error) {
	v := viper.New()

	l.setDefaults(v, DefaultConfig())

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
	}

	secretKeys, err := l.mergeSecrets(v)
	if err != nil {
		return nil, err
	}

	l.bindEnvVars(v)
	if err := l.bindFlags(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	l.settings = v.AllSettings()
	l.secretKeys = secretKeys
	return &cfg, nil
}

// Settings returns the settings of the last successful Load with values
// that came from the secrets file masked.
func (l *ViperLoader) Settings() map[string]interface{} {
	return RedactSettings(l.settings, l.secretKeys)
}

// RawSettings returns the settings of the last successful Load unmasked.
func (l *ViperLoader) RawSettings() map[string]interface{} {
	return copySettings(l.settings)
}

// bindEnvVars binds every known key to PREFIX_SECTION_FIELD, plus the short
// section alias when one exists (CATALOG_DB_URL before CATALOG_DATABASE_URL).
func (l *ViperLoader) bindEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		var names []string
		section, rest, nested := strings.Cut(key, ".")
		if abbrev, ok := envAbbreviations[section]; ok && nested {
			names = append(names, l.prefixedEnv(abbrev+"_"+envSuffix(rest)))
		}
		names = append(names, l.prefixedEnv(envSuffix(key)))
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
	_ = v.BindEnv("service.environment", l.prefixedEnv("SERVICE_ENVIRONMENT"), l.prefixedEnv("ENVIRONMENT"))
}

func (l *ViperLoader) bindFlags(v *viper.Viper) error {
	if l.flags == nil {
		return nil
	}
	names := make([]string, 0, len(flagKeys))
	for name := range flagKeys {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		flag := l.flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(flagKeys[name], flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

func (l *ViperLoader) prefixedEnv(suffix string) string {
	prefix := strings.TrimSpace(l.envPrefix)
	if prefix == "" {
		prefix = "CATALOG"
	}
	return fmt.Sprintf("%s_%s", strings.ToUpper(prefix), suffix)
}

func envSuffix(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func (l *ViperLoader) defaultServiceName(fallback string) string {
	if configured := strings.TrimSpace(l.serviceNameDefault); configured != "" {
		return configured
	}
	return strings.TrimSpace(fallback)
}

// setDefaults sets default values in Viper from the default config
func (l *ViperLoader) setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("router_type", cfg.RouterType)
	v.SetDefault("service.name", l.defaultServiceName(cfg.Service.Name))
	v.SetDefault("service.environment", cfg.Service.Environment)

	// HTTP defaults
	v.SetDefault("http.port", cfg.HTTP.Port)
	v.SetDefault("http.read_timeout", cfg.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", cfg.HTTP.WriteTimeout)
	v.SetDefault("http.idle_timeout", cfg.HTTP.IdleTimeout)
	v.SetDefault("http.max_request_size", cfg.HTTP.MaxRequestSize)
	v.SetDefault("http.static_dir", cfg.HTTP.StaticDir)

	// Management defaults
	v.SetDefault("management.enabled", cfg.Management.Enabled)
	v.SetDefault("management.port", cfg.Management.Port)
	v.SetDefault("management.read_timeout", cfg.Management.ReadTimeout)
	v.SetDefault("management.write_timeout", cfg.Management.WriteTimeout)

	// CORS defaults
	v.SetDefault("cors.enabled", cfg.CORS.Enabled)
	v.SetDefault("cors.allow_origins", cfg.CORS.AllowOrigins)
	v.SetDefault("cors.allow_methods", cfg.CORS.AllowMethods)
	v.SetDefault("cors.allow_headers", cfg.CORS.AllowHeaders)
	v.SetDefault("cors.expose_headers", cfg.CORS.ExposeHeaders)
	v.SetDefault("cors.allow_credentials", cfg.CORS.AllowCredentials)
	v.SetDefault("cors.allow_wildcard", cfg.CORS.AllowWildcard)
	v.SetDefault("cors.max_age", cfg.CORS.MaxAge)

	v.SetDefault("rate_limit.enabled", cfg.RateLimit.Enabled)
	v.SetDefault("rate_limit.requests_per_second", cfg.RateLimit.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", cfg.RateLimit.Burst)

	v.SetDefault("compression.enabled", cfg.Compression.Enabled)
	v.SetDefault("compression.enable_gzip", cfg.Compression.EnableGzip)
	v.SetDefault("compression.enable_brotli", cfg.Compression.EnableBrotli)
	v.SetDefault("compression.gzip_level", cfg.Compression.GzipLevel)
	v.SetDefault("compression.brotli_level", cfg.Compression.BrotliLevel)
	v.SetDefault("compression.min_size", cfg.Compression.MinSize)

	// Database defaults
	v.SetDefault("database.type", cfg.Database.Type)
	v.SetDefault("database.url", cfg.Database.URL)
	v.SetDefault("database.database_name", cfg.Database.DatabaseName)
	v.SetDefault("database.connect_timeout", cfg.Database.ConnectTimeout)
	v.SetDefault("database.operation_timeout", cfg.Database.OperationTimeout)
	v.SetDefault("database.breaker_failures", cfg.Database.BreakerFailures)
	v.SetDefault("database.breaker_cooldown", cfg.Database.BreakerCooldown)

	v.SetDefault("catalog.products_collection", cfg.Catalog.ProductsCollection)
	v.SetDefault("catalog.users_collection", cfg.Catalog.UsersCollection)
	v.SetDefault("catalog.default_limit", cfg.Catalog.DefaultLimit)
	v.SetDefault("catalog.max_limit", cfg.Catalog.MaxLimit)
	v.SetDefault("catalog.bound_field", cfg.Catalog.BoundField)

	// Observability defaults
	v.SetDefault("observability.log_level", cfg.Observability.LogLevel)
	v.SetDefault("observability.log_format", cfg.Observability.LogFormat)
	v.SetDefault("observability.tracing_enabled", cfg.Observability.TracingEnabled)
	v.SetDefault("observability.tracing_sample_rate", cfg.Observability.TracingSampleRate)
	v.SetDefault("observability.tracing_endpoint", cfg.Observability.TracingEndpoint)
}
