package svr

import (
	"context"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/espsel/callback"
	"github.com/YuminosukeSato/espsel/core/model"
	"github.com/YuminosukeSato/espsel/pkg/errors"
	"github.com/YuminosukeSato/espsel/pkg/log"
	"github.com/YuminosukeSato/espsel/preprocessing"
)

// Artifact key suffixes.
const (
	ModelSuffix  = "-Model"
	ScalerSuffix = "-Scaler"
)

// Backend is the SVR implementation of model.Trainable.
type Backend struct {
	task    string
	grid    []Params
	workers int
	logger  log.Logger

	mu      sync.RWMutex
	scaler  *preprocessing.StandardScaler
	machine *Machine
	search  *SearchResult
}

var _ model.Trainable = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithGrid replaces the hyperparameter grid.
func WithGrid(grid []Params) Option {
	return func(b *Backend) { b.grid = grid }
}

// WithWorkers bounds the number of concurrently evaluated candidates.
func WithWorkers(n int) Option {
	return func(b *Backend) { b.workers = n }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// New creates an untrained SVR backend for task.
func New(task string, opts ...Option) *Backend {
	b := &Backend{task: task, grid: Grid()}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = log.GetLoggerWithName("svr")
	}
	b.logger = b.logger.With(log.TaskKey, task, log.BackendKey, string(model.BackendSVR))
	return b
}

// Type implements model.Trainable.
func (b *Backend) Type() model.BackendType { return model.BackendSVR }

// Params returns the hyperparameters of the fitted machine.
func (b *Backend) Params() (Params, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.machine == nil {
		return Params{}, false
	}
	m := b.machine
	return Params{C: m.C, Epsilon: m.Epsilon, Kernel: m.Kernel, Gamma: FixedGamma(m.Gamma)}, true
}

// Fit implements model.Trainable.
func (b *Backend) Fit(ctx context.Context, X *mat.Dense, y []float64, pub callback.Publisher) (result map[string]float64, err error) {
	defer errors.Recover(&err, "svr.Fit")

	n, nf := X.Dims()
	if n != len(y) {
		return nil, errors.NewDimensionError("svr.Fit", n, len(y), 0)
	}
	if pub == nil {
		pub = callback.Discard
	}

	scaler := preprocessing.NewStandardScaler()
	Xs, err := scaler.FitTransform(X)
	if err != nil {
		return nil, err
	}

	params := DefaultParams()
	var search *SearchResult
	if n >= MinFolds && len(b.grid) > 0 {
		search, err = GridSearch(ctx, Xs, y, b.grid, b.workers)
		if err != nil {
			return nil, err
		}
		params = search.Best
		b.logger.Info("Grid search finished",
			log.OperationKey, log.OperationFit,
			log.HyperParamsKey, params.String(),
			"cv_neg_mse", search.Score,
		)
	}
	pub.Publish(callback.NewEvent(callback.ProgressUpdate, map[string]any{
		callback.KeyTask:    b.task,
		callback.KeyPercent: 50.0,
		callback.KeyStatus:  "hyperparameters selected: " + params.String(),
	}))

	machine, err := fitMachine(ctx, Xs, y, params, params.Gamma.Resolve(Xs))
	if err != nil {
		return nil, err
	}
	pub.Publish(callback.NewEvent(callback.ProgressUpdate, map[string]any{
		callback.KeyTask:    b.task,
		callback.KeyPercent: 100.0,
		callback.KeyStatus:  "model fitted",
	}))

	b.mu.Lock()
	b.scaler, b.machine, b.search = scaler, machine, search
	b.mu.Unlock()

	b.logger.Debug("SVR fitted",
		log.SamplesKey, n,
		log.FeaturesKey, nf,
		"support_vectors", len(machine.Beta),
		"sweeps", machine.Sweeps,
	)

	result = map[string]float64{
		"c":               machine.C,
		"epsilon":         machine.Epsilon,
		"gamma":           machine.Gamma,
		"support_vectors": float64(len(machine.Beta)),
	}
	if search != nil {
		result["cv_score"] = search.Score
	}
	return result, nil
}

// PredictBatch implements model.Trainable.
func (b *Backend) PredictBatch(X mat.Matrix) ([]float64, error) {
	b.mu.RLock()
	scaler, machine := b.scaler, b.machine
	b.mu.RUnlock()
	if machine == nil || scaler == nil {
		return nil, errors.NewNotFittedError("SVR", "PredictBatch")
	}
	Xs, err := scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return machine.Predict(Xs), nil
}

// Save implements model.Trainable.
func (b *Backend) Save(store model.ArtifactStore) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.machine == nil {
		return errors.NewNotFittedError("SVR", "Save")
	}
	if err := store.Put(b.task+ModelSuffix, b.machine); err != nil {
		return err
	}
	return store.Put(b.task+ScalerSuffix, b.scaler)
}

// Load implements model.Trainable.
func (b *Backend) Load(store model.ArtifactStore) error {
	var machine Machine
	if err := store.Get(b.task+ModelSuffix, &machine); err != nil {
		return err
	}
	var scaler preprocessing.StandardScaler
	if err := store.Get(b.task+ScalerSuffix, &scaler); err != nil {
		return err
	}
	if !scaler.IsFitted() {
		return errors.NewModelLoadError(store.Path(b.task+ScalerSuffix), errors.ErrCorruptArtifact, nil)
	}
	b.mu.Lock()
	b.machine, b.scaler, b.search = &machine, &scaler, nil
	b.mu.Unlock()
	return nil
}
