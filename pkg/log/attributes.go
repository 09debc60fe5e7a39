// Package log defines standard attribute keys for prediction-engine operations.
//
// Keys follow a hierarchical naming convention (e.g. "ml.operation",
// "data.samples", "esp.task") so log lines from training, cleaning and the
// facade can be filtered the same way.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the backend or transformer type.
	// Examples: "svr", "residual-net", "StandardScaler"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"

	// RunIDKey identifies one training run.
	RunIDKey = "ml.run_id"
)

// Data shape.
const (
	SamplesKey   = "data.samples"
	FeaturesKey  = "data.features"
	RemovedKey   = "data.removed"
	BatchSizeKey = "data.batch_size"
)

// Performance and training progress.
const (
	DurationMsKey = "perf.duration_ms"
	LossKey       = "metrics.loss"
	ValLossKey    = "metrics.val_loss"
	R2ScoreKey    = "metrics.r2_score"
	MAPEKey       = "metrics.mape"
	IterationKey  = "training.iteration"
	EpochKey      = "training.epoch"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	ErrorTypeKey  = "error.type"
	SuggestionKey = "error.suggestion"
)

// Hyperparameters and configuration.
const (
	HyperParamsKey  = "model.hyperparams"
	LearningRateKey = "hyperparams.learning_rate"
	RandomSeedKey   = "config.random_seed"
)

// Domain context.
const (
	// TaskKey names the prediction task ("production", "head", "glr").
	TaskKey = "esp.task"
	// BackendKey names the backend type tag.
	BackendKey = "esp.backend"
	// QuantityKey names a predicted quantity in the facade.
	QuantityKey = "esp.quantity"
	// SourceKey records where a reported value came from (model, empirical, fallback).
	SourceKey = "esp.source"
	// EventKey names a callback event tag.
	EventKey = "esp.event"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationTest    = "test"
	OperationClean   = "clean"
	OperationLoad    = "load"
	OperationSave    = "save"
	OperationPublish = "publish"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseTesting       = "testing"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted      = "NOT_FITTED"
	ErrorMissingColumns = "MISSING_COLUMNS"
	ErrorInsufficient   = "INSUFFICIENT_SAMPLES"
	ErrorModelLoad      = "MODEL_LOAD"
	ErrorTraining       = "TRAINING_FAILED"
	ErrorObserver       = "OBSERVER_FAILED"
)
