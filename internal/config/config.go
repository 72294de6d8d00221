// Package config loads the process configuration from a YAML file,
// falling back to sane defaults when no path is given.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidSymbol       = errors.New("config: symbol must not be empty")
	ErrInvalidStoreCap     = errors.New("config: orderbook.store_capacity must be positive")
	ErrInvalidQueueCap     = errors.New("config: orderbook.queue_capacity must be positive")
	ErrInvalidBatchSize    = errors.New("config: dispatch.batch_size must be positive")
	ErrInvalidBindAddress  = errors.New("config: socket_address must not be empty")
)

// Config is the full process configuration, assembled from a YAML file
// (or defaults) and consumed once at startup.
type Config struct {
	SocketAddress string        `yaml:"socket_address"`
	Symbol        string        `yaml:"symbol"`
	EnableFileLog bool          `yaml:"enable_file_log"`

	OrderBook OrderBookConfig `yaml:"orderbook"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	RFQ       RFQConfig       `yaml:"rfq"`
	Egress    EgressConfig    `yaml:"egress"`
	Ingress   IngressConfig   `yaml:"ingress"`
}

// OrderBookConfig controls arena/book sizing and snapshot cadence.
type OrderBookConfig struct {
	QueueCapacity    int           `yaml:"queue_capacity"`
	StoreCapacity    int           `yaml:"store_capacity"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
}

// DispatchConfig controls the ingress queue and the executor's batching.
type DispatchConfig struct {
	QueueCapacity int           `yaml:"queue_capacity"`
	BatchSize     int           `yaml:"batch_size"`
	BatchTimeout  time.Duration `yaml:"batch_timeout"`
}

// RFQConfig bounds a streaming RFQ reader.
type RFQConfig struct {
	MaxCount   int `yaml:"max_count"`
	BufferSize int `yaml:"buffer_size"`
}

// EgressConfig points at the message bus the execution events publish to.
type EgressConfig struct {
	Broker            string        `yaml:"broker"`
	Topic             string        `yaml:"topic"`
	SchemaRegistryURL string        `yaml:"schema_registry_url"`
	PublishTimeout    time.Duration `yaml:"publish_timeout"`
	WorkerPoolSize    int           `yaml:"worker_pool_size"`
	UseInMemoryBus    bool          `yaml:"use_in_memory_bus"`
}

// IngressConfig controls the transport façade's rate limiting.
type IngressConfig struct {
	RateLimitPerSecond int `yaml:"rate_limit_per_second"`
	RateLimitBurst     int `yaml:"rate_limit_burst"`
}

// Default returns the configuration used when no file is given, with the
// defaults named in the configuration surface (1000-operation batches,
// 250ms snapshot cadence, 10k-order arena).
func Default() *Config {
	return &Config{
		SocketAddress: ":8080",
		Symbol:        "XYZ",
		EnableFileLog: false,
		OrderBook: OrderBookConfig{
			QueueCapacity:    10,
			StoreCapacity:    10000,
			SnapshotInterval: 250 * time.Millisecond,
		},
		Dispatch: DispatchConfig{
			QueueCapacity: 10000,
			BatchSize:     1000,
			BatchTimeout:  5 * time.Millisecond,
		},
		RFQ: RFQConfig{
			MaxCount:   0,
			BufferSize: 64,
		},
		Egress: EgressConfig{
			Broker:         "nats://127.0.0.1:4222",
			Topic:          "matchbook.events",
			PublishTimeout: 5 * time.Second,
			WorkerPoolSize: 32,
			UseInMemoryBus: true,
		},
		Ingress: IngressConfig{
			RateLimitPerSecond: 50,
			RateLimitBurst:     100,
		},
	}
}

// Validate checks the invariants Load relies on before handing the
// config to the rest of the process.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return ErrInvalidSymbol
	}
	if c.SocketAddress == "" {
		return ErrInvalidBindAddress
	}
	if c.OrderBook.StoreCapacity <= 0 {
		return ErrInvalidStoreCap
	}
	if c.OrderBook.QueueCapacity <= 0 {
		return ErrInvalidQueueCap
	}
	if c.Dispatch.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	return nil
}

// Load reads and parses a YAML config file at path. An empty path
// returns Default(). A missing file also falls back to Default(),
// matching the teacher's "no config file is not an error" convention.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return cfg, nil
}
