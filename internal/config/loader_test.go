package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ladybug.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want, *cfg)
	assert.Equal(t, 0.15, cfg.Gate.FlowThreshold())
	assert.Equal(t, "ladybug.db", cfg.Store.Path)
}

func TestLoad_YAMLOverrides(t *testing.T) {
	path := writeConfig(t, `store:
  path: /tmp/moments.db
log:
  level: debug
  format: console
gate:
  max_dispersion: 0.4
resonance:
  content_weight: 0.8
  recency_weight: 0.2
recall:
  limit: 12
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/moments.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 0.4, cfg.Gate.MaxDispersion)
	assert.Equal(t, 0.8, cfg.Resonance.ContentWeight)
	assert.Equal(t, 12, cfg.Recall.Limit)

	// untouched keys keep their defaults
	assert.Equal(t, 0.30, cfg.Gate.FlowFraction)
	assert.Equal(t, 0.95, cfg.Resonance.SweetSpotHigh)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `gate:
  max_dispersion: 0.4
`)
	t.Setenv("LADYBUG_GATE_MAX_DISPERSION", "0.8")
	t.Setenv("LADYBUG_RECALL_LIMIT", "9")
	t.Setenv("LADYBUG_METRICS_ADDR", ":9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.8, cfg.Gate.MaxDispersion)
	assert.Equal(t, 9, cfg.Recall.Limit)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	path := writeConfig(t, `gate:
  flow_fraction: 0.9
  block_fraction: 0.5
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gate")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "gate: [unterminated\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"LADYBUG_GATE_MAX_DISPERSION":      "gate.max_dispersion",
		"LADYBUG_STORE_PATH":               "store.path",
		"LADYBUG_RESONANCE_SWEET_SPOT_LOW": "resonance.sweet_spot_low",
		"LADYBUG_ENCODER_CACHE_SIZE":       "encoder.cache_size",
		"LADYBUG_VERBOSE":                  "verbose",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	cfg.Encoder.CacheSize = 0
	cfg.Recall.Threshold = 1.5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "encoder.cache_size")
	assert.Contains(t, err.Error(), "recall.threshold")
}

func TestValidate_DefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}
