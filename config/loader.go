package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/espsel/pkg/errors"
	"github.com/YuminosukeSato/espsel/pkg/log"
)

// Load reads path over Default, substitutes ${ENV} references and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	data = substituteEnvVars(data)

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return cfg, nil
}

// LoadOrDefault returns Default when path is empty or cannot be loaded.
// Load failures are logged.
func LoadOrDefault(path string) *Config {
	if path == "" {
		return Default()
	}

	cfg, err := Load(path)
	if err != nil {
		log.GetLoggerWithName("config").Warn("Using default configuration",
			log.ErrAttrKey, err,
			"path", path,
		)
		return Default()
	}

	return cfg
}
