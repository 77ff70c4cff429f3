// Package config loads ladybug configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/AdaWorldAPI/ladybug-learning/internal/fingerprint"
	"github.com/AdaWorldAPI/ladybug-learning/internal/gate"
	"github.com/AdaWorldAPI/ladybug-learning/internal/logging"
	"github.com/AdaWorldAPI/ladybug-learning/internal/resonance"
)

// Config is the root configuration.
type Config struct {
	Store     StoreConfig      `koanf:"store"`
	Log       logging.Config   `koanf:"log"`
	Metrics   MetricsConfig    `koanf:"metrics"`
	Encoder   EncoderConfig    `koanf:"encoder"`
	Gate      gate.GateConfig  `koanf:"gate"`
	Resonance resonance.Config `koanf:"resonance"`
	Recall    RecallConfig     `koanf:"recall"`
}

// StoreConfig locates the SQLite journal. An empty path keeps memory in-process only.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// MetricsConfig controls the Prometheus listener. An empty address disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// EncoderConfig sizes the fingerprint cache.
type EncoderConfig struct {
	CacheSize int `koanf:"cache_size"`
}

// RecallConfig holds the default resonance query parameters.
type RecallConfig struct {
	Threshold float64 `koanf:"threshold"`
	Limit     int     `koanf:"limit"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Store:     StoreConfig{Path: "ladybug.db"},
		Log:       logging.DefaultConfig(),
		Metrics:   MetricsConfig{},
		Encoder:   EncoderConfig{CacheSize: fingerprint.DefaultCacheSize},
		Gate:      gate.DefaultGateConfig(),
		Resonance: resonance.DefaultConfig(),
		Recall:    RecallConfig{Threshold: 0.6, Limit: 5},
	}
}

// defaults flattens Default into koanf keys.
func defaults() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"store.path":                d.Store.Path,
		"log.level":                 d.Log.Level,
		"log.format":                d.Log.Format,
		"metrics.addr":              d.Metrics.Addr,
		"encoder.cache_size":        d.Encoder.CacheSize,
		"gate.max_dispersion":       d.Gate.MaxDispersion,
		"gate.flow_fraction":        d.Gate.FlowFraction,
		"gate.block_fraction":       d.Gate.BlockFraction,
		"gate.clarify_prompt":       d.Gate.ClarifyPrompt,
		"resonance.content_weight":  d.Resonance.ContentWeight,
		"resonance.recency_weight":  d.Resonance.RecencyWeight,
		"resonance.sweet_spot_low":  d.Resonance.SweetSpotLow,
		"resonance.sweet_spot_high": d.Resonance.SweetSpotHigh,
		"recall.threshold":          d.Recall.Threshold,
		"recall.limit":              d.Recall.Limit,
	}
}

// Validate checks every section and joins the failures.
func (c *Config) Validate() error {
	var errs []error
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format: must be json or console, got %q", c.Log.Format))
	}
	if c.Encoder.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("encoder.cache_size: must be positive, got %d", c.Encoder.CacheSize))
	}
	if err := c.Gate.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("gate: %w", err))
	}
	if err := c.Resonance.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("resonance: %w", err))
	}
	if c.Recall.Threshold < 0 || c.Recall.Threshold > 1 {
		errs = append(errs, fmt.Errorf("recall.threshold: must be within [0, 1], got %v", c.Recall.Threshold))
	}
	if c.Recall.Limit < 0 {
		errs = append(errs, fmt.Errorf("recall.limit: must be non-negative, got %d", c.Recall.Limit))
	}
	return errors.Join(errs...)
}
