package predictor

import (
	"github.com/YuminosukeSato/espsel/core/model"
)

// TrainingConfig holds every training parameter. Values are copied, so a
// config passed to a Predictor cannot change underneath it.
type TrainingConfig = model.TrainingConfig

// DefaultTrainingConfig returns the defaults used for every task.
func DefaultTrainingConfig() TrainingConfig { return model.DefaultTrainingConfig() }

// ConfigOption modifies a TrainingConfig.
type ConfigOption func(*TrainingConfig)

// WithEpochs sets the maximum number of epochs.
func WithEpochs(n int) ConfigOption { return func(c *TrainingConfig) { c.Epochs = n } }

// WithBatchSize sets the mini-batch size.
func WithBatchSize(n int) ConfigOption { return func(c *TrainingConfig) { c.BatchSize = n } }

// WithLearningRate sets the optimizer step size.
func WithLearningRate(lr float64) ConfigOption { return func(c *TrainingConfig) { c.LearningRate = lr } }

// WithPatience sets the early stopping patience in epochs.
func WithPatience(n int) ConfigOption { return func(c *TrainingConfig) { c.Patience = n } }

// WithTestSplit sets the held-out fraction.
func WithTestSplit(f float64) ConfigOption { return func(c *TrainingConfig) { c.TestSplit = f } }

// WithRandomState sets the seed of every random draw.
func WithRandomState(seed uint64) ConfigOption { return func(c *TrainingConfig) { c.RandomState = seed } }

// WithValidationFraction sets the early stopping validation fraction.
func WithValidationFraction(f float64) ConfigOption {
	return func(c *TrainingConfig) { c.ValidationFraction = f }
}

// WithHidden sets the residual network width.
func WithHidden(n int) ConfigOption { return func(c *TrainingConfig) { c.Hidden = n } }

// WithDropout sets the residual network dropout probability.
func WithDropout(p float64) ConfigOption { return func(c *TrainingConfig) { c.Dropout = p } }

// NewTrainingConfig applies opts to the defaults and validates the result.
func NewTrainingConfig(opts ...ConfigOption) (TrainingConfig, error) {
	c := DefaultTrainingConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c, c.Validate()
}
