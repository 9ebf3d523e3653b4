// Package config implements the transaction pool configuration options.
package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Config is the transaction pool configuration structure.
type Config struct {
	// MaxPoolSize is the maximum number of pending transactions.
	MaxPoolSize uint64 `yaml:"max_pool_size"`
	// MaxCheckTxBatchSize is the maximum admission check batch size.
	MaxCheckTxBatchSize uint64 `yaml:"check_tx_max_batch_size"`
	// MaxCheckQueueSize is the maximum number of transactions waiting for
	// admission checks.
	MaxCheckQueueSize uint64 `yaml:"check_queue_size"`
	// MaxLastSeenCacheSize is the maximum cache size of recently submitted
	// transactions, used to drop duplicate submissions.
	MaxLastSeenCacheSize uint64 `yaml:"seen_tx_cache_size"`
	// CheckWorkers is the number of workers running admission checks.
	CheckWorkers uint `yaml:"check_workers"`

	// MaxCallDataGrowth is the maximum number of bytes by which a
	// replacement transaction's call data may exceed the call data of the
	// transaction it replaces.
	MaxCallDataGrowth int `yaml:"replace_call_data_growth"`

	// MaxTxAge is the maximum time a transaction may stay pending before
	// it is expired. Zero disables expiry.
	MaxTxAge time.Duration `yaml:"max_tx_age"`
	// ExpireInterval is the cadence of the expiry sweep.
	ExpireInterval time.Duration `yaml:"expire_interval"`

	// ScoreCacheSize is the entry capacity of the score cache.
	ScoreCacheSize int `yaml:"score_cache_size"`
	// ScoreCacheTTL is the time-to-live of cached scores.
	ScoreCacheTTL time.Duration `yaml:"score_cache_ttl"`
}

// Validate validates the configuration settings.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if c.MaxPoolSize == 0 {
		errs = multierror.Append(errs, fmt.Errorf("max_pool_size must be positive"))
	}
	if c.MaxCheckTxBatchSize == 0 {
		errs = multierror.Append(errs, fmt.Errorf("check_tx_max_batch_size must be positive"))
	}
	if c.MaxCheckQueueSize == 0 {
		errs = multierror.Append(errs, fmt.Errorf("check_queue_size must be positive"))
	}
	if c.CheckWorkers == 0 {
		errs = multierror.Append(errs, fmt.Errorf("check_workers must be positive"))
	}
	if c.MaxCallDataGrowth < 0 {
		errs = multierror.Append(errs, fmt.Errorf("replace_call_data_growth must not be negative"))
	}
	if c.MaxTxAge < 0 {
		errs = multierror.Append(errs, fmt.Errorf("max_tx_age must not be negative"))
	}
	if c.MaxTxAge > 0 && c.ExpireInterval <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("expire_interval must be positive when max_tx_age is set"))
	}

	return errs.ErrorOrNil()
}

// DefaultConfig returns the default configuration settings.
func DefaultConfig() Config {
	return Config{
		MaxPoolSize:          50_000,
		MaxCheckTxBatchSize:  128,
		MaxCheckQueueSize:    10_000,
		MaxLastSeenCacheSize: 100_000,
		CheckWorkers:         4,
		MaxCallDataGrowth:    1024,
		MaxTxAge:             0,
		ExpireInterval:       time.Minute,
		ScoreCacheSize:       8192,
		ScoreCacheTTL:        10 * time.Second,
	}
}
