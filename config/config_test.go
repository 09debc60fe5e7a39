package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/espsel/pkg/errors"
	"github.com/YuminosukeSato/espsel/predictor"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "espsel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, predictor.DefaultTrainingConfig(), cfg.ToTrainingConfig())
	assert.Equal(t, "total_head", cfg.Target(predictor.TaskHead))
	assert.Equal(t, "wells", cfg.Table(predictor.TaskGLR))
	assert.Empty(t, cfg.Mapping(predictor.TaskProduction))
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
model_dir: /var/lib/espsel
log_level: debug
max_error_percent: 10
training:
  epochs: 50
  random_seed: 7
feature_mapping:
  glr:
    gor: GasOilRatio
targets:
  glr: GLR
source:
  tables:
    head: head_samples
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/espsel", cfg.ModelDir)
	assert.Equal(t, 10.0, cfg.MaxErrorPercent)
	assert.Equal(t, 36, cfg.IPRPoints)

	tc := cfg.ToTrainingConfig()
	assert.Equal(t, 50, tc.Epochs)
	assert.Equal(t, uint64(7), tc.RandomState)
	assert.Equal(t, 32, tc.BatchSize)

	assert.Equal(t, map[string]string{"gor": "GasOilRatio"}, cfg.Mapping(predictor.TaskGLR))
	assert.Equal(t, "GLR", cfg.Target(predictor.TaskGLR))
	assert.Equal(t, "production", cfg.Target(predictor.TaskProduction))
	assert.Equal(t, "head_samples", cfg.Table(predictor.TaskHead))
	assert.Equal(t, "wells", cfg.Table(predictor.TaskProduction))
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("ESPSEL_MODEL_DIR", "/tmp/models")
	path := writeConfig(t, "model_dir: ${ESPSEL_MODEL_DIR}\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/models", cfg.ModelDir)
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("ESPSEL_A", "1")
	tests := []struct {
		name, in, want string
	}{
		{"set", "a: ${ESPSEL_A}", "a: 1"},
		{"unset", "b: ${ESPSEL_UNSET_VAR}", "b: ${ESPSEL_UNSET_VAR}"},
		{"plain", "c: text", "c: text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(substituteEnvVars([]byte(tt.in))))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty model dir", func(c *Config) { c.ModelDir = "" }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"max error", func(c *Config) { c.MaxErrorPercent = 0 }},
		{"ipr points", func(c *Config) { c.IPRPoints = 1 }},
		{"test split", func(c *Config) { c.Training.TestSplit = 1 }},
		{"quantiles", func(c *Config) { c.Cleaning.LowerQuantile = 0.99 }},
		{"mapping task", func(c *Config) { c.FeatureMapping["pressure"] = map[string]string{} }},
		{"mapping feature", func(c *Config) { c.FeatureMapping["glr"] = map[string]string{"depth": "D"} }},
		{"target task", func(c *Config) { c.Targets["pressure"] = "p" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			var ve *errors.ValidationError
			assert.True(t, errors.As(err, &ve), "got %v", err)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "model_dir: [unterminated"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "ipr_points: 1\n"))
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	assert.Equal(t, Default(), LoadOrDefault(""))
	assert.Equal(t, Default(), LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml")))
	cfg := LoadOrDefault(writeConfig(t, "ipr_points: 20\n"))
	assert.Equal(t, 20, cfg.IPRPoints)
}
