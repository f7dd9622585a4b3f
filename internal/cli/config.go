// Config loading for the basket CLI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/basket/internal/paths"
	"github.com/mesh-intelligence/basket/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyKey           = "key"
	cfgKeyOnCorrupt     = "on_corrupt"
	cfgKeySyncStrategy  = "sync.strategy"
	cfgKeyBatchSize     = "sync.batch_size"
	cfgKeyBatchInterval = "sync.batch_interval"
	cfgKeyRedisAddr     = "redis.addr"
	cfgKeyRedisPassword = "redis.password"
	cfgKeyRedisDB       = "redis.db"

	defaultBackend = types.BackendSQLite
)

// envBound lists the keys that BASKET_* environment variables override.
// data_dir is resolved separately so config.yaml wins over BASKET_DATA_DIR.
var envBound = map[string]string{
	cfgKeyBackend:       "BASKET_BACKEND",
	cfgKeyKey:           "BASKET_KEY",
	cfgKeyOnCorrupt:     "BASKET_ON_CORRUPT",
	cfgKeySyncStrategy:  "BASKET_SYNC_STRATEGY",
	cfgKeyRedisAddr:     "BASKET_REDIS_ADDR",
	cfgKeyRedisPassword: "BASKET_REDIS_PASSWORD",
	cfgKeyRedisDB:       "BASKET_REDIS_DB",
}

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Basket CLI configuration

# Backend selection: sqlite, file, redis, memory
backend: sqlite

# Data directory for sqlite and file backends (optional; overridable by --data-dir flag)
# data_dir:

# What to do when the stored cart cannot be parsed: reset or fail
# on_corrupt: reset

# When to write the cart back: immediate, batch, on_close
# sync:
#   strategy: immediate

# redis:
#   addr: localhost:6379
`

// loadConfig reads config.yaml from configDir using Viper. It creates the
// config directory and a default config.yaml on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyKey, types.DefaultKey)
	v.SetDefault(cfgKeyOnCorrupt, types.OnCorruptReset)
	v.SetDefault(cfgKeySyncStrategy, types.SyncImmediate)
	v.SetDefault(cfgKeyBatchSize, types.DefaultBatchSize)
	v.SetDefault(cfgKeyBatchInterval, types.DefaultBatchInterval)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	for key, env := range envBound {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// storeConfig resolves directories, loads config.yaml, and returns the
// validated store configuration.
func (a *app) storeConfig() (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return types.Config{}, system("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return types.Config{}, system("%w", err)
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.DataDir, err = paths.ResolveDataDir(a.flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, system("resolve data dir: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config in %s: %w", configDir, err)
	}
	return cfg, nil
}
