package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// redactedValue replaces secret values in printed settings.
const redactedValue = "******"

// mergeSecrets overlays the secrets file on top of the config file and
// returns the keys it provided. Precedence: ENV > secrets file > config file > defaults
//
// Example:
//
//	config.yaml:
//	  database:
//	    type: mongodb
//
//	secrets.yaml:
//	  database:
//	    url: mongodb://user:password@db:27017
//
// The secrets file is optional and discovered when not set explicitly:
// - If configFile is "config.yaml", looks for "secrets.yaml" in same directory
// - Can be set via <ENV_PREFIX>_SECRETS_FILE (defaults to CATALOG_SECRETS_FILE)
func (l *ViperLoader) mergeSecrets(v *viper.Viper) ([]string, error) {
	secretsFile, err := l.discoverSecretsFile()
	if err != nil || secretsFile == "" {
		return nil, err
	}

	secretsViper := viper.New()
	secretsViper.SetConfigFile(secretsFile)
	if err := secretsViper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read secrets file %s: %w", secretsFile, err)
	}
	if err := v.MergeConfigMap(secretsViper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to merge secrets: %w", err)
	}

	keys := secretsViper.AllKeys()
	sort.Strings(keys)
	return keys, nil
}

// discoverSecretsFile finds the secrets file using these rules:
// 1. An explicit path from WithSecretsFile
// 2. <ENV_PREFIX>_SECRETS_FILE
// 3. If configFile is set, secrets.{ext} in same directory
// 4. secrets.yaml in current directory
// Explicit paths must exist; discovered ones are optional.
func (l *ViperLoader) discoverSecretsFile() (string, error) {
	if l.secretsFile != "" {
		return l.secretsFile, checkFile("--secret-file", l.secretsFile)
	}

	secretsEnv := l.prefixedEnv("SECRETS_FILE")
	if raw, ok := os.LookupEnv(secretsEnv); ok {
		secretsFile := strings.TrimSpace(raw)
		if secretsFile == "" {
			return "", fmt.Errorf("%s is set but empty", secretsEnv)
		}
		return secretsFile, checkFile(secretsEnv, secretsFile)
	}

	if l.configFile != "" {
		dir := filepath.Dir(l.configFile)
		ext := filepath.Ext(l.configFile)
		secretsFile := filepath.Join(dir, "secrets"+ext)
		if isFile(secretsFile) && secretsFile != filepath.Clean(l.configFile) {
			return secretsFile, nil
		}
	}

	for _, ext := range []string{".yaml", ".yml", ".json"} {
		if secretsFile := "secrets" + ext; isFile(secretsFile) {
			return secretsFile, nil
		}
	}

	return "", nil
}

func checkFile(source, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s points to an inaccessible file %s: %w", source, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s must point to a file, got directory %s", source, path)
	}
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// RedactSettings returns a copy of settings with every dotted key in secretKeys masked.
func RedactSettings(settings map[string]interface{}, secretKeys []string) map[string]interface{} {
	out := copySettings(settings)
	for _, key := range secretKeys {
		parts := strings.Split(key, ".")
		node := out
		for i, part := range parts {
			if i == len(parts)-1 {
				if _, ok := node[part]; ok {
					node[part] = redactedValue
				}
				break
			}
			child, ok := node[part].(map[string]interface{})
			if !ok {
				break
			}
			node = child
		}
	}
	return out
}

func copySettings(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		if nested, ok := v.(map[string]interface{}); ok {
			out[k] = copySettings(nested)
			continue
		}
		out[k] = v
	}
	return out
}
