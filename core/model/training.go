package model

import (
	"github.com/YuminosukeSato/espsel/pkg/errors"
)

// TrainingConfig holds every training parameter. Values are copied, so a
// config passed to a Predictor cannot change underneath it.
type TrainingConfig struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
	Patience     int
	// TestSplit is the fraction of samples held out for Test.
	TestSplit   float64
	RandomState uint64
	// ValidationFraction is taken from the training partition by iterative
	// backends for early stopping.
	ValidationFraction float64
	Hidden             int
	Dropout            float64
}

// DefaultTrainingConfig returns the defaults used for every task.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Epochs:             500,
		BatchSize:          32,
		LearningRate:       0.001,
		Patience:           50,
		TestSplit:          0.2,
		RandomState:        42,
		ValidationFraction: 0.2,
		Hidden:             64,
		Dropout:            0.1,
	}
}

// Validate checks the ranges of every field.
func (c TrainingConfig) Validate() error {
	switch {
	case c.Epochs < 1:
		return errors.NewValidationError("epochs", "must be at least 1", c.Epochs)
	case c.BatchSize < 1:
		return errors.NewValidationError("batch_size", "must be at least 1", c.BatchSize)
	case !(c.LearningRate > 0):
		return errors.NewValidationError("learning_rate", "must be positive", c.LearningRate)
	case c.Patience < 0:
		return errors.NewValidationError("patience", "must not be negative", c.Patience)
	case !(c.TestSplit > 0 && c.TestSplit < 1):
		return errors.NewValidationError("test_split", "must be in (0, 1)", c.TestSplit)
	case c.ValidationFraction < 0 || c.ValidationFraction >= 1:
		return errors.NewValidationError("validation_fraction", "must be in [0, 1)", c.ValidationFraction)
	case c.Hidden < 1:
		return errors.NewValidationError("hidden", "must be at least 1", c.Hidden)
	case c.Dropout < 0 || c.Dropout >= 1:
		return errors.NewValidationError("dropout", "must be in [0, 1)", c.Dropout)
	}
	return nil
}

// Configurable is implemented by backends whose hyperparameters follow the
// owning Predictor's TrainingConfig. Configure is called before every Fit.
type Configurable interface {
	Configure(cfg TrainingConfig) error
}
