// Package errors provides the error handling and warning system of the project.
// It defines structured error types for data, model loading, training and
// prediction, and every error carries a stack trace from cockroachdb/errors.
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// the default handler logs to stderr
		log.Printf("espsel-Warning: %v\n", w)
	}
	// zerolog logger, set lazily to avoid an import cycle
	zerologWarnFunc func(warning error)
)

// SetWarningHandler sets the warning handler.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // ignore warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc sets the zerolog warning function. It is injected to avoid an import cycle.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn raises a warning.
// It is logged as a structured zerolog event when one is configured and goes to the handler otherwise.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warning types
//
// ===========================================================================

// ConvergenceWarning is raised when an optimizer fails to converge.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or adjusting parameters.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject adds the warning fields to a zerolog event.
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning creates a ConvergenceWarning.
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// DataConversionWarning is raised when values are implicitly converted.
type DataConversionWarning struct {
	FromType string
	ToType   string
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("data converted from %s to %s. Reason: %s", w.FromType, w.ToType, w.Reason)
}

// MarshalZerologObject adds the warning fields to a zerolog event.
func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("from_type", w.FromType).
		Str("to_type", w.ToType).
		Str("reason", w.Reason).
		Str("type", "DataConversionWarning")
}

// NewDataConversionWarning creates a DataConversionWarning.
func NewDataConversionWarning(from, to, reason string) *DataConversionWarning {
	return &DataConversionWarning{FromType: from, ToType: to, Reason: reason}
}

// ===========================================================================
//
//	Error kinds (sentinels matched with errors.Is)
//
// ===========================================================================

var (
	// ErrMissingColumns means requested columns are absent from the input.
	ErrMissingColumns = New("missing columns")
	// ErrInsufficientSamples means too few samples remain after cleaning.
	ErrInsufficientSamples = New("insufficient samples")
	// ErrUnconvertible means a value cannot be converted to a number.
	ErrUnconvertible = New("unconvertible value")

	// ErrMissingArtifact means a model artifact file does not exist.
	ErrMissingArtifact = New("missing artifact")
	// ErrCorruptArtifact means a model artifact failed to decode.
	ErrCorruptArtifact = New("corrupt artifact")
	// ErrMissingPolyTransform means the polynomial transform artifact does not exist.
	// Predicting without it is meaningless, so it is kept apart from ErrMissingArtifact.
	ErrMissingPolyTransform = New("missing polynomial transform")

	// ErrBackendFailed means backend training failed.
	ErrBackendFailed = New("backend fit failed")
	// ErrAlreadyRunning means a training run is already active on the instance.
	ErrAlreadyRunning = New("training already running")
	// ErrCanceled means training was canceled.
	ErrCanceled = New("training canceled")

	// ErrNotTrained means Predict or Test was called before training.
	ErrNotTrained = New("not trained")
	// ErrInvalidInput means the prediction input is malformed.
	ErrInvalidInput = New("invalid input")
)

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// DataError reports a failure to validate or clean sample data.
type DataError struct {
	Op      string
	Kind    error
	Columns []string
	Samples int
	Min     int
}

func (e *DataError) Error() string {
	switch {
	case len(e.Columns) > 0:
		return fmt.Sprintf("espsel: %s: %v: [%s]", e.Op, e.Kind, strings.Join(e.Columns, ", "))
	case e.Min > 0:
		return fmt.Sprintf("espsel: %s: %v: %d samples remain, at least %d required", e.Op, e.Kind, e.Samples, e.Min)
	default:
		return fmt.Sprintf("espsel: %s: %v", e.Op, e.Kind)
	}
}

// Is matches the kind sentinel.
func (e *DataError) Is(target error) bool { return target == e.Kind }

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *DataError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("kind", e.Kind.Error()).
		Strs("columns", e.Columns).
		Int("samples", e.Samples).
		Str("type", "DataError")
}

// NewMissingColumnsError creates a DataError for missing columns.
func NewMissingColumnsError(op string, columns []string) error {
	return errors.WithStack(&DataError{Op: op, Kind: ErrMissingColumns, Columns: columns})
}

// NewInsufficientSamplesError creates a DataError for too few samples.
func NewInsufficientSamplesError(op string, got, min int) error {
	return errors.WithStack(&DataError{Op: op, Kind: ErrInsufficientSamples, Samples: got, Min: min})
}

// NewUnconvertibleError creates a DataError for an unconvertible value.
func NewUnconvertibleError(op, column string) error {
	return errors.WithStack(&DataError{Op: op, Kind: ErrUnconvertible, Columns: []string{column}})
}

// ModelLoadError reports a failure to read a model artifact.
type ModelLoadError struct {
	Path string
	Kind error
	Err  error
}

func (e *ModelLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("espsel: load %s: %v: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("espsel: load %s: %v", e.Path, e.Kind)
}

// Is matches the kind sentinel.
func (e *ModelLoadError) Is(target error) bool { return target == e.Kind }

func (e *ModelLoadError) Unwrap() error { return e.Err }

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *ModelLoadError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Str("kind", e.Kind.Error()).
		Str("type", "ModelLoadError")
}

// NewModelLoadError creates a ModelLoadError with a stack trace.
func NewModelLoadError(path string, kind, err error) error {
	return errors.WithStack(&ModelLoadError{Path: path, Kind: kind, Err: err})
}

// TrainingError reports a failed backend training run.
type TrainingError struct {
	Task string
	Kind error
	Err  error
}

func (e *TrainingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("espsel: train %s: %v: %v", e.Task, e.Kind, e.Err)
	}
	return fmt.Sprintf("espsel: train %s: %v", e.Task, e.Kind)
}

// Is matches the kind sentinel.
func (e *TrainingError) Is(target error) bool { return target == e.Kind }

func (e *TrainingError) Unwrap() error { return e.Err }

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *TrainingError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("task", e.Task).
		Str("kind", e.Kind.Error()).
		Str("type", "TrainingError")
}

// NewTrainingError creates a TrainingError with a stack trace.
func NewTrainingError(task string, kind, err error) error {
	return errors.WithStack(&TrainingError{Task: task, Kind: kind, Err: err})
}

// PredictionError reports a broken prediction or evaluation contract.
type PredictionError struct {
	Task    string
	Method  string
	Kind    error
	Message string
}

func (e *PredictionError) Error() string {
	if e.Kind == ErrNotTrained {
		return fmt.Sprintf("espsel: %s: predictor is not trained yet. Call Train() or Load() before using %s()", e.Task, e.Method)
	}
	if e.Message != "" {
		return fmt.Sprintf("espsel: %s.%s: %v: %s", e.Task, e.Method, e.Kind, e.Message)
	}
	return fmt.Sprintf("espsel: %s.%s: %v", e.Task, e.Method, e.Kind)
}

// Is matches the kind sentinel.
func (e *PredictionError) Is(target error) bool { return target == e.Kind }

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *PredictionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("task", e.Task).
		Str("method", e.Method).
		Str("kind", e.Kind.Error()).
		Str("type", "PredictionError")
}

// NewNotTrainedError creates a PredictionError for an untrained predictor.
func NewNotTrainedError(task, method string) error {
	return errors.WithStack(&PredictionError{Task: task, Method: method, Kind: ErrNotTrained})
}

// NewInvalidInputError creates a PredictionError for malformed input.
func NewInvalidInputError(task, method, message string) error {
	return errors.WithStack(&PredictionError{Task: task, Method: method, Kind: ErrInvalidInput, Message: message})
}

// NotFittedError is returned when `Predict` or `Transform` is called on an unfitted transformer or backend.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("espsel: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// Is lets NotFittedError match ErrNotTrained.
func (e *NotFittedError) Is(target error) bool { return target == ErrNotTrained }

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError reports input data whose dimensions differ from the expected ones.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("espsel: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError reports an input parameter that failed validation.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("espsel: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError reports an argument with an inappropriate value.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("espsel: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError is a generic error inside a backend.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("espsel: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("espsel: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a ModelError with a stack trace.
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// NumericalInstabilityError reports a numerical computation that became unstable.
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
	Iteration int
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("espsel: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// NewNumericalInstabilityError creates a NumericalInstabilityError.
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As reports whether err can be assigned to target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps err with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a formatted error.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ErrEmptyData is returned when empty data is passed in.
var ErrEmptyData = New("empty data")
