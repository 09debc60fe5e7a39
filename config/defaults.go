package config

import (
	"github.com/YuminosukeSato/espsel/predictor"
)

var defaultTargets = map[predictor.TaskName]string{
	predictor.TaskProduction: "production",
	predictor.TaskHead:       "total_head",
	predictor.TaskGLR:        "gas_rate",
}

// Default returns the built-in configuration.
func Default() *Config {
	tc := predictor.DefaultTrainingConfig()
	return &Config{
		ModelDir:        "./models",
		LogLevel:        "info",
		MaxErrorPercent: 15,
		IPRPoints:       36,
		Training: TrainingConfig{
			Epochs:             tc.Epochs,
			BatchSize:          tc.BatchSize,
			LearningRate:       tc.LearningRate,
			Patience:           tc.Patience,
			TestSplit:          tc.TestSplit,
			RandomSeed:         tc.RandomState,
			ValidationFraction: tc.ValidationFraction,
			Hidden:             tc.Hidden,
			Dropout:            tc.Dropout,
		},
		Cleaning: CleaningConfig{
			LowerQuantile: 0.01,
			UpperQuantile: 0.99,
		},
		Source: SourceConfig{
			Driver: "sqlite",
			DSN:    "wells.db",
			Table:  "wells",
		},
		FeatureMapping: map[string]map[string]string{},
		Targets:        map[string]string{},
	}
}
