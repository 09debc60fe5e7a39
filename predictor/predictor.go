// Package predictor wraps one trainable backend in the training lifecycle
// Untrained → Trained → Tested.
//
// A Predictor splits the samples into train and test partitions, fits its
// backend on the training partition, computes the metric bundle of both
// partitions and reports progress on a callback bus. Prediction is legal
// once trained, either by Train or by Load.
package predictor

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/espsel/artifact"
	"github.com/YuminosukeSato/espsel/callback"
	"github.com/YuminosukeSato/espsel/core/model"
	"github.com/YuminosukeSato/espsel/metrics"
	"github.com/YuminosukeSato/espsel/pkg/errors"
	"github.com/YuminosukeSato/espsel/pkg/log"
)

// MinSamples is the smallest sample count Train accepts.
const MinSamples = 4

// TrainResult is returned by a successful training run.
type TrainResult struct {
	RunID        string
	Task         TaskName
	Backend      model.BackendType
	Train        map[string]float64
	Test         map[string]float64
	BackendInfo  map[string]float64
	TrainSamples int
	TestSamples  int
	Duration     time.Duration
}

// TestResult is the evaluation on the held-out partition.
type TestResult struct {
	Metrics map[string]float64
	YTrue   []float64
	YPred   []float64
}

// Predictor owns one backend exclusively.
type Predictor struct {
	task     TaskName
	features []string
	backend  model.Trainable
	cfg      TrainingConfig
	bus      callback.Publisher
	logger   log.Logger

	state   *model.StateManager
	running atomic.Bool

	mu      sync.RWMutex
	xTest   *mat.Dense
	yTest   []float64
	metrics map[string]float64
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithTrainingConfig replaces the default training configuration.
func WithTrainingConfig(cfg TrainingConfig) Option {
	return func(p *Predictor) { p.cfg = cfg }
}

// WithPublisher sets where lifecycle events are published.
func WithPublisher(pub callback.Publisher) Option {
	return func(p *Predictor) { p.bus = pub }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(p *Predictor) { p.logger = l }
}

// New creates an untrained predictor for task backed by backend.
func New(task TaskName, backend model.Trainable, opts ...Option) *Predictor {
	p := &Predictor{
		task:     task,
		features: Features(task),
		backend:  backend,
		cfg:      DefaultTrainingConfig(),
		bus:      callback.Discard,
		state:    model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.GetLoggerWithName("predictor")
	}
	p.logger = p.logger.With(log.TaskKey, string(task), log.BackendKey, string(backend.Type()))
	return p
}

// Task returns the task name.
func (p *Predictor) Task() TaskName { return p.task }

// Features returns the canonical feature order.
func (p *Predictor) Features() []string { return append([]string(nil), p.features...) }

// State returns the lifecycle state.
func (p *Predictor) State() model.Lifecycle { return p.state.State() }

// IsTrained reports whether Predict is allowed.
func (p *Predictor) IsTrained() bool { return p.state.IsTrained() }

// Train splits X and y, fits the backend and evaluates both partitions.
// Only one training run may be active at a time; a concurrent call fails
// with a TrainingError of kind ErrAlreadyRunning.
func (p *Predictor) Train(ctx context.Context, X *mat.Dense, y []float64) (*TrainResult, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, errors.NewTrainingError(string(p.task), errors.ErrAlreadyRunning, nil)
	}
	defer p.running.Store(false)
	return p.train(ctx, X, y, callback.NewRunPublisher(p.bus, uuid.NewString()))
}

func (p *Predictor) train(ctx context.Context, X *mat.Dense, y []float64, pub *callback.RunPublisher) (res *TrainResult, err error) {
	defer errors.Recover(&err, "Predictor.Train")

	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	n, nf := X.Dims()
	if n != len(y) {
		return nil, errors.NewDimensionError("Predictor.Train", n, len(y), 0)
	}
	if nf != len(p.features) {
		return nil, errors.NewDimensionError("Predictor.Train", len(p.features), nf, 1)
	}
	if n < MinSamples {
		return nil, errors.NewInsufficientSamplesError("Predictor.Train", n, MinSamples)
	}

	logger := p.logger.With(log.RunIDKey, pub.RunID())
	start := time.Now()
	logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, nf,
	)
	pub.Publish(callback.NewEvent(callback.TrainingStart, map[string]any{
		callback.KeyTask:    string(p.task),
		callback.KeyBackend: string(p.backend.Type()),
		callback.KeySamples: n,
	}))

	fail := func(kind, cause error) error {
		pub.Publish(callback.NewEvent(callback.TrainingEnd, map[string]any{
			callback.KeyTask:  string(p.task),
			callback.KeyError: cause.Error(),
		}))
		logger.Error("Training failed",
			log.ErrAttrKey, cause,
			log.OperationKey, log.OperationFit,
			log.ErrorCodeKey, log.ErrorTraining,
		)
		return errors.NewTrainingError(string(p.task), kind, cause)
	}

	if c, ok := p.backend.(model.Configurable); ok {
		if err := c.Configure(p.cfg); err != nil {
			return nil, fail(errors.ErrBackendFailed, err)
		}
	}

	XTrain, yTrain, XTest, yTest := split(X, y, p.cfg.TestSplit, p.cfg.RandomState)

	info, err := p.backend.Fit(ctx, XTrain, yTrain, pub)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fail(errors.ErrCanceled, err)
		}
		return nil, fail(errors.ErrBackendFailed, err)
	}

	trainPred, err := p.backend.PredictBatch(XTrain)
	if err != nil {
		return nil, fail(errors.ErrBackendFailed, err)
	}
	testPred, err := p.backend.PredictBatch(XTest)
	if err != nil {
		return nil, fail(errors.ErrBackendFailed, err)
	}
	trainMetrics, err := metrics.Evaluate(yTrain, trainPred)
	if err != nil {
		return nil, fail(errors.ErrBackendFailed, err)
	}
	testMetrics, err := metrics.Evaluate(yTest, testPred)
	if err != nil {
		return nil, fail(errors.ErrBackendFailed, err)
	}

	p.mu.Lock()
	p.xTest, p.yTest, p.metrics = XTest, yTest, testMetrics
	p.mu.Unlock()
	p.state.MarkTrained(nf, len(yTrain))

	res = &TrainResult{
		RunID:        pub.RunID(),
		Task:         p.task,
		Backend:      p.backend.Type(),
		Train:        trainMetrics,
		Test:         testMetrics,
		BackendInfo:  info,
		TrainSamples: len(yTrain),
		TestSamples:  len(yTest),
		Duration:     time.Since(start),
	}

	pub.Publish(callback.NewEvent(callback.MetricUpdate, map[string]any{
		callback.KeyTask:    string(p.task),
		callback.KeyMetrics: testMetrics,
		"train_metrics":     trainMetrics,
	}))
	pub.Publish(callback.NewEvent(callback.TrainingEnd, map[string]any{
		callback.KeyTask: string(p.task),
		callback.KeyResult: map[string]any{
			"train":   trainMetrics,
			"test":    testMetrics,
			"backend": info,
		},
	}))
	logger.Info("Training finished",
		log.OperationKey, log.OperationFit,
		log.DurationMsKey, res.Duration.Milliseconds(),
		log.MAPEKey, testMetrics[metrics.KeyMAPE],
		log.R2ScoreKey, testMetrics[metrics.KeyR2],
	)
	return res, nil
}

// split shuffles the row order with a PCG source seeded by seed and holds
// out round(n·frac) rows, at least one, for testing.
func split(X *mat.Dense, y []float64, frac float64, seed uint64) (*mat.Dense, []float64, *mat.Dense, []float64) {
	n, c := X.Dims()
	rng := rand.New(rand.NewPCG(seed, seed))
	idx := rng.Perm(n)

	nTest := int(frac*float64(n) + 0.5)
	nTest = max(1, min(nTest, n-1))

	take := func(rows []int) (*mat.Dense, []float64) {
		Xs := mat.NewDense(len(rows), c, nil)
		ys := make([]float64, len(rows))
		for i, r := range rows {
			Xs.SetRow(i, X.RawRowView(r))
			ys[i] = y[r]
		}
		return Xs, ys
	}
	XTest, yTest := take(idx[:nTest])
	XTrain, yTrain := take(idx[nTest:])
	return XTrain, yTrain, XTest, yTest
}

// Test evaluates the backend on the held-out partition of the last run.
func (p *Predictor) Test() (*TestResult, error) {
	if !p.state.IsTrained() {
		return nil, errors.NewNotTrainedError(string(p.task), "Test")
	}
	p.mu.RLock()
	XTest, yTest := p.xTest, p.yTest
	p.mu.RUnlock()
	if XTest == nil {
		return nil, errors.NewInvalidInputError(string(p.task), "Test", "no held-out partition, use Evaluate after Load")
	}
	return p.evaluate(XTest, yTest)
}

// Evaluate computes the metric bundle on externally supplied samples.
func (p *Predictor) Evaluate(X *mat.Dense, y []float64) (*TestResult, error) {
	if !p.state.IsTrained() {
		return nil, errors.NewNotTrainedError(string(p.task), "Evaluate")
	}
	return p.evaluate(X, y)
}

func (p *Predictor) evaluate(X *mat.Dense, y []float64) (*TestResult, error) {
	pred, err := p.backend.PredictBatch(X)
	if err != nil {
		return nil, err
	}
	m, err := metrics.Evaluate(y, pred)
	if err != nil {
		return nil, err
	}
	p.state.MarkTested()
	p.bus.Publish(callback.NewEvent(callback.MetricUpdate, map[string]any{
		callback.KeyTask:    string(p.task),
		callback.KeyMetrics: m,
	}))
	p.logger.Info("Evaluation finished",
		log.OperationKey, log.OperationTest,
		log.SamplesKey, len(y),
		log.MAPEKey, m[metrics.KeyMAPE],
	)
	return &TestResult{Metrics: m, YTrue: append([]float64(nil), y...), YPred: pred}, nil
}

// Predict returns the prediction for a single well.
func (p *Predictor) Predict(in PredictionInput) (float64, error) {
	if !p.state.IsTrained() {
		return 0, errors.NewNotTrainedError(string(p.task), "Predict")
	}
	vec, err := in.Vector(p.task)
	if err != nil {
		return 0, err
	}
	out, err := p.backend.PredictBatch(mat.NewDense(1, len(vec), vec))
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// PredictBatch predicts every row of X, which must follow Features().
func (p *Predictor) PredictBatch(X mat.Matrix) ([]float64, error) {
	if !p.state.IsTrained() {
		return nil, errors.NewNotTrainedError(string(p.task), "PredictBatch")
	}
	if _, c := X.Dims(); c != len(p.features) {
		return nil, errors.NewDimensionError("Predictor.PredictBatch", len(p.features), c, 1)
	}
	return p.backend.PredictBatch(X)
}

// Save writes the backend artifacts and info.yaml to <modelDir>/<task>.
func (p *Predictor) Save(modelDir string) error {
	if !p.state.IsTrained() {
		return errors.NewNotTrainedError(string(p.task), "Save")
	}
	store := artifact.Open(modelDir, string(p.task))
	if err := p.backend.Save(store); err != nil {
		return err
	}
	info := model.NewModelInfo(string(p.task), p.backend.Type(), p.features)
	p.mu.RLock()
	info.Metrics = p.metrics
	p.mu.RUnlock()
	if err := store.PutInfo(info); err != nil {
		return err
	}
	p.logger.Info("Model saved", log.OperationKey, log.OperationSave, "dir", store.Dir())
	return nil
}

// Load restores the backend from <modelDir>/<task> and moves to Trained.
// When info.yaml is present its backend tag must match.
func (p *Predictor) Load(modelDir string) error {
	store := artifact.Open(modelDir, string(p.task))
	if store.Has(artifact.InfoKey) {
		info, err := store.Info()
		if err != nil {
			return err
		}
		if info.Backend != p.backend.Type() {
			return errors.NewModelLoadError(store.Path(artifact.InfoKey), errors.ErrCorruptArtifact,
				errors.Newf("artifacts were written by backend %s", info.Backend))
		}
	}
	if err := p.backend.Load(store); err != nil {
		p.logger.Error("Model load failed",
			log.ErrAttrKey, err,
			log.OperationKey, log.OperationLoad,
			log.ErrorCodeKey, log.ErrorModelLoad,
		)
		return err
	}
	p.mu.Lock()
	p.xTest, p.yTest = nil, nil
	p.mu.Unlock()
	p.state.MarkTrained(len(p.features), 0)
	p.logger.Info("Model loaded", log.OperationKey, log.OperationLoad, "dir", store.Dir())
	return nil
}
