package ferry

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the configuration for the Manager.
//
// All duration fields accept standard Go duration strings like "500ms", "5s"
// when loaded from YAML.
type Config struct {
	// DiscoveryBackoff is the pause between discovery rounds. It bounds the
	// metadata query rate during leader-election storms: a shorter backoff
	// re-routes partitions faster but hammers the metadata service harder.
	// Recommended: 500ms - 2s.
	DiscoveryBackoff time.Duration `yaml:"discoveryBackoff"`

	// MetadataTimeout bounds every cluster metadata query. The discovery
	// loop cannot observe a stop signal while a query is in flight, so this
	// is also the worst-case addition to shutdown latency.
	MetadataTimeout time.Duration `yaml:"metadataTimeout"`

	// FetchInterval is each worker's pause between successful fetch
	// round-trips to its node.
	FetchInterval time.Duration `yaml:"fetchInterval"`

	// FetchMaxBytes bounds the per-partition response size of one fetch.
	FetchMaxBytes int32 `yaml:"fetchMaxBytes"`

	// FetchRetryBase is a worker's initial backoff after a failed fetch
	// round-trip. Grows with full jitter up to FetchRetryCap.
	FetchRetryBase time.Duration `yaml:"fetchRetryBase"`

	// FetchRetryCap is the worker backoff ceiling.
	FetchRetryCap time.Duration `yaml:"fetchRetryCap"`

	// ShutdownTimeout bounds StopSession. When exceeded, StopSession returns
	// the context error while teardown continues in the background.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// Default configuration values applied by SetDefaults.
const (
	DefaultDiscoveryBackoff = 1 * time.Second
	DefaultMetadataTimeout  = 5 * time.Second
	DefaultFetchInterval    = 100 * time.Millisecond
	DefaultFetchMaxBytes    = 1 << 20
	DefaultFetchRetryBase   = 100 * time.Millisecond
	DefaultFetchRetryCap    = 5 * time.Second
	DefaultShutdownTimeout  = 30 * time.Second
)

// SetDefaults fills in zero-valued fields with defaults.
func SetDefaults(cfg *Config) {
	if cfg.DiscoveryBackoff <= 0 {
		cfg.DiscoveryBackoff = DefaultDiscoveryBackoff
	}
	if cfg.MetadataTimeout <= 0 {
		cfg.MetadataTimeout = DefaultMetadataTimeout
	}
	if cfg.FetchInterval <= 0 {
		cfg.FetchInterval = DefaultFetchInterval
	}
	if cfg.FetchMaxBytes <= 0 {
		cfg.FetchMaxBytes = DefaultFetchMaxBytes
	}
	if cfg.FetchRetryBase <= 0 {
		cfg.FetchRetryBase = DefaultFetchRetryBase
	}
	if cfg.FetchRetryCap <= 0 {
		cfg.FetchRetryCap = DefaultFetchRetryCap
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Validate checks the configuration for inconsistencies.
//
// Returns:
//   - error: Wrapping ErrInvalidConfig with the first problem found
func (c *Config) Validate() error {
	if c.FetchRetryCap < c.FetchRetryBase {
		return fmt.Errorf("%w: fetchRetryCap (%s) must be >= fetchRetryBase (%s)",
			ErrInvalidConfig, c.FetchRetryCap, c.FetchRetryBase)
	}
	if c.MetadataTimeout > c.ShutdownTimeout {
		return fmt.Errorf("%w: metadataTimeout (%s) must be <= shutdownTimeout (%s), "+
			"otherwise StopSession can time out while a metadata query is still in flight",
			ErrInvalidConfig, c.MetadataTimeout, c.ShutdownTimeout)
	}

	return nil
}

// ValidateWithWarnings logs non-fatal configuration smells.
func (c *Config) ValidateWithWarnings(logger Logger) {
	if c.DiscoveryBackoff < 100*time.Millisecond {
		logger.Warn("discoveryBackoff below 100ms may overload the metadata service during election storms",
			"discoveryBackoff", c.DiscoveryBackoff.String(),
		)
	}
	if c.FetchInterval > c.DiscoveryBackoff {
		logger.Warn("fetchInterval exceeds discoveryBackoff; workers may lag behind leadership changes",
			"fetchInterval", c.FetchInterval.String(),
			"discoveryBackoff", c.DiscoveryBackoff.String(),
		)
	}
}

// LoadConfig reads a YAML configuration file.
//
// Parameters:
//   - path: File path to read
//
// Returns:
//   - *Config: Parsed configuration with defaults applied
//   - error: Read, parse, or validation failure
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
