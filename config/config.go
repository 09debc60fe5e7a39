// Package config loads the espsel YAML configuration.
package config

import (
	"github.com/YuminosukeSato/espsel/predictor"
)

// Config is the root of the YAML file.
type Config struct {
	ModelDir        string         `yaml:"model_dir"`
	LogLevel        string         `yaml:"log_level"`
	MaxErrorPercent float64        `yaml:"max_error_percent"`
	IPRPoints       int            `yaml:"ipr_points"`
	Training        TrainingConfig `yaml:"training"`
	Cleaning        CleaningConfig `yaml:"cleaning"`
	Source          SourceConfig   `yaml:"source"`
	// FeatureMapping maps task → canonical feature → source column.
	FeatureMapping map[string]map[string]string `yaml:"feature_mapping"`
	// Targets maps task → source column of the training target.
	Targets map[string]string `yaml:"targets"`
}

type TrainingConfig struct {
	Epochs             int     `yaml:"epochs"`
	BatchSize          int     `yaml:"batch_size"`
	LearningRate       float64 `yaml:"learning_rate"`
	Patience           int     `yaml:"patience"`
	TestSplit          float64 `yaml:"test_split"`
	RandomSeed         uint64  `yaml:"random_seed"`
	ValidationFraction float64 `yaml:"validation_fraction"`
	Hidden             int     `yaml:"hidden"`
	Dropout            float64 `yaml:"dropout"`
}

type CleaningConfig struct {
	RemoveOutliers bool    `yaml:"remove_outliers"`
	LowerQuantile  float64 `yaml:"lower_quantile"`
	UpperQuantile  float64 `yaml:"upper_quantile"`
}

// SourceConfig points at the training record store.
type SourceConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// Tables maps task → table. A task without an entry reads Table.
	Table  string            `yaml:"table"`
	Tables map[string]string `yaml:"tables"`
}

// ToTrainingConfig converts the training section.
func (c *Config) ToTrainingConfig() predictor.TrainingConfig {
	t := c.Training
	return predictor.TrainingConfig{
		Epochs:             t.Epochs,
		BatchSize:          t.BatchSize,
		LearningRate:       t.LearningRate,
		Patience:           t.Patience,
		TestSplit:          t.TestSplit,
		RandomState:        t.RandomSeed,
		ValidationFraction: t.ValidationFraction,
		Hidden:             t.Hidden,
		Dropout:            t.Dropout,
	}
}

// Mapping returns the feature mapping of task, possibly empty.
func (c *Config) Mapping(task predictor.TaskName) map[string]string {
	m := make(map[string]string, len(c.FeatureMapping[string(task)]))
	for k, v := range c.FeatureMapping[string(task)] {
		m[k] = v
	}
	return m
}

// Target returns the target column of task.
func (c *Config) Target(task predictor.TaskName) string {
	if t, ok := c.Targets[string(task)]; ok && t != "" {
		return t
	}
	return defaultTargets[task]
}

// Table returns the source table of task.
func (c *Config) Table(task predictor.TaskName) string {
	if t, ok := c.Source.Tables[string(task)]; ok && t != "" {
		return t
	}
	return c.Source.Table
}
