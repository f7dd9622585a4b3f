package types

import "errors"

// Config holds backend selection and store parameters for basket.Open.
type Config struct {
	Backend   string      `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir   string      `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	Key       string      `json:"key,omitempty" yaml:"key,omitempty" mapstructure:"key"`
	OnCorrupt string      `json:"on_corrupt,omitempty" yaml:"on_corrupt,omitempty" mapstructure:"on_corrupt"`
	Sync      SyncConfig  `json:"sync,omitempty" yaml:"sync,omitempty" mapstructure:"sync"`
	Redis     RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty" mapstructure:"redis"`
}

// SyncConfig controls when the store writes its state back to the KV store.
type SyncConfig struct {
	Strategy      string `json:"strategy,omitempty" yaml:"strategy,omitempty" mapstructure:"strategy"`
	BatchSize     int    `json:"batch_size,omitempty" yaml:"batch_size,omitempty" mapstructure:"batch_size"`
	BatchInterval int    `json:"batch_interval,omitempty" yaml:"batch_interval,omitempty" mapstructure:"batch_interval"`
}

// RedisConfig holds connection parameters for the redis backend.
type RedisConfig struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty" mapstructure:"addr"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty" mapstructure:"db"`
}

// Supported backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Sync strategies.
const (
	SyncImmediate = "immediate"
	SyncBatch     = "batch"
	SyncOnClose   = "on_close"
)

// Corrupt payload policies applied by Load.
const (
	OnCorruptReset = "reset"
	OnCorruptFail  = "fail"
)

// DefaultKey is the single fixed key the cart is stored under.
const DefaultKey = "products"

// Sync defaults.
const (
	DefaultBatchSize     = 10
	DefaultBatchInterval = 5 // seconds
)

// Config validation errors.
var (
	ErrBackendEmpty         = errors.New("backend must not be empty")
	ErrBackendUnknown       = errors.New("unknown backend")
	ErrSyncStrategyUnknown  = errors.New("unknown sync strategy")
	ErrBatchSizeInvalid     = errors.New("batch size must be positive")
	ErrBatchIntervalInvalid = errors.New("batch interval must be positive")
	ErrCorruptPolicyUnknown = errors.New("unknown corrupt payload policy")
	ErrRedisAddrEmpty       = errors.New("redis address must not be empty")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendMemory: true,
	BackendFile:   true,
	BackendSQLite: true,
	BackendRedis:  true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure. Zero values for optional fields are valid and
// resolve to defaults through the Get* accessors.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendRedis && c.Redis.Addr == "" {
		return ErrRedisAddrEmpty
	}
	switch c.OnCorrupt {
	case "", OnCorruptReset, OnCorruptFail:
	default:
		return ErrCorruptPolicyUnknown
	}
	return c.Sync.Validate()
}

// GetKey returns the storage key, defaulting to DefaultKey.
func (c Config) GetKey() string {
	if c.Key == "" {
		return DefaultKey
	}
	return c.Key
}

// GetOnCorrupt returns the corrupt payload policy, defaulting to reset.
func (c Config) GetOnCorrupt() string {
	if c.OnCorrupt == "" {
		return OnCorruptReset
	}
	return c.OnCorrupt
}

// Validate checks the sync strategy and batch parameters.
func (s SyncConfig) Validate() error {
	switch s.Strategy {
	case "", SyncImmediate, SyncOnClose, SyncBatch:
	default:
		return ErrSyncStrategyUnknown
	}
	if s.BatchSize < 0 {
		return ErrBatchSizeInvalid
	}
	if s.BatchInterval < 0 {
		return ErrBatchIntervalInvalid
	}
	return nil
}

// GetStrategy returns the sync strategy, defaulting to immediate.
func (s SyncConfig) GetStrategy() string {
	if s.Strategy == "" {
		return SyncImmediate
	}
	return s.Strategy
}

// GetBatchSize returns the batch size, defaulting to DefaultBatchSize.
func (s SyncConfig) GetBatchSize() int {
	if s.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return s.BatchSize
}

// GetBatchInterval returns the batch interval in seconds, defaulting to
// DefaultBatchInterval.
func (s SyncConfig) GetBatchInterval() int {
	if s.BatchInterval <= 0 {
		return DefaultBatchInterval
	}
	return s.BatchInterval
}
