package config

import (
	"github.com/YuminosukeSato/espsel/pkg/errors"
	"github.com/YuminosukeSato/espsel/pkg/log"
	"github.com/YuminosukeSato/espsel/predictor"
)

// Validate checks every section.
func (c *Config) Validate() error {
	if c.ModelDir == "" {
		return errors.NewValidationError("model_dir", "must not be empty", c.ModelDir)
	}
	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		return errors.NewValidationError("log_level", "unknown log level", c.LogLevel)
	}
	if !(c.MaxErrorPercent > 0) {
		return errors.NewValidationError("max_error_percent", "must be positive", c.MaxErrorPercent)
	}
	if c.IPRPoints < 2 {
		return errors.NewValidationError("ipr_points", "must be at least 2", c.IPRPoints)
	}
	if err := c.ToTrainingConfig().Validate(); err != nil {
		return err
	}
	if err := c.Cleaning.validate(); err != nil {
		return err
	}
	for task := range c.FeatureMapping {
		if _, err := predictor.ParseTask(task); err != nil {
			return errors.NewValidationError("feature_mapping", "unknown task", task)
		}
	}
	for task, mapping := range c.FeatureMapping {
		known := map[string]bool{}
		for _, f := range predictor.Features(predictor.TaskName(task)) {
			known[f] = true
		}
		for f := range mapping {
			if !known[f] {
				return errors.NewValidationError("feature_mapping."+task, "unknown feature", f)
			}
		}
	}
	for task := range c.Targets {
		if _, err := predictor.ParseTask(task); err != nil {
			return errors.NewValidationError("targets", "unknown task", task)
		}
	}
	return nil
}

func (c CleaningConfig) validate() error {
	if c.LowerQuantile < 0 || c.UpperQuantile > 1 || c.LowerQuantile >= c.UpperQuantile {
		return errors.NewValidationError("cleaning", "quantiles must satisfy 0 <= lower < upper <= 1",
			[]float64{c.LowerQuantile, c.UpperQuantile})
	}
	return nil
}
