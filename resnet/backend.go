package resnet

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/espsel/callback"
	"github.com/YuminosukeSato/espsel/core/model"
	"github.com/YuminosukeSato/espsel/core/parallel"
	"github.com/YuminosukeSato/espsel/metrics"
	"github.com/YuminosukeSato/espsel/pkg/errors"
	"github.com/YuminosukeSato/espsel/pkg/log"
	"github.com/YuminosukeSato/espsel/preprocessing"
)

// Artifact keys.
const (
	ModelKey  = "Model"
	ScalerKey = "Scaler"
	PolyKey   = "Poly"
)

// predictChunk is the batch size below which PredictBatch stays sequential.
const predictChunk = 256

// History keys in loss-update payloads.
const (
	HistoryTrain = "loss"
	HistoryVal   = "val_loss"
)

// Config holds the training hyperparameters.
type Config struct {
	Epochs             int
	BatchSize          int
	LearningRate       float64
	Patience           int
	ValidationFraction float64
	Hidden             int
	Blocks             int
	Dropout            float64
	Seed               uint64
}

// DefaultConfig returns 500 epochs, batch 32, learning rate 0.001,
// patience 50, validation fraction 0.2, width 64, 7 blocks, dropout 0.1.
func DefaultConfig() Config {
	return Config{
		Epochs:             500,
		BatchSize:          32,
		LearningRate:       0.001,
		Patience:           50,
		ValidationFraction: 0.2,
		Hidden:             64,
		Blocks:             7,
		Dropout:            0.1,
		Seed:               42,
	}
}

// Validate checks the ranges of every field.
func (c Config) Validate() error {
	switch {
	case c.Epochs < 1:
		return errors.NewValidationError("epochs", "must be at least 1", c.Epochs)
	case c.BatchSize < 1:
		return errors.NewValidationError("batch_size", "must be at least 1", c.BatchSize)
	case !(c.LearningRate > 0):
		return errors.NewValidationError("learning_rate", "must be positive", c.LearningRate)
	case c.ValidationFraction < 0 || c.ValidationFraction >= 1:
		return errors.NewValidationError("validation_fraction", "must be in [0, 1)", c.ValidationFraction)
	case c.Hidden < 1:
		return errors.NewValidationError("hidden", "must be at least 1", c.Hidden)
	case c.Blocks < 0:
		return errors.NewValidationError("blocks", "must not be negative", c.Blocks)
	case c.Dropout < 0 || c.Dropout >= 1:
		return errors.NewValidationError("dropout", "must be in [0, 1)", c.Dropout)
	}
	return nil
}

// Backend is the residual network implementation of model.Trainable.
type Backend struct {
	task   string
	cfg    Config
	logger log.Logger

	mu     sync.RWMutex
	net    *Network
	scaler *preprocessing.StandardScaler
	poly   *preprocessing.PolynomialFeatures
}

var _ model.Trainable = (*Backend)(nil)
var _ model.Configurable = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithConfig replaces the training configuration.
func WithConfig(cfg Config) Option {
	return func(b *Backend) { b.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// New creates an untrained backend for task.
func New(task string, opts ...Option) *Backend {
	b := &Backend{task: task, cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = log.GetLoggerWithName("resnet")
	}
	b.logger = b.logger.With(log.TaskKey, task, log.BackendKey, string(model.BackendResidualNet))
	return b
}

// Configure implements model.Configurable. Blocks is not part of the
// training config and keeps its current value.
func (b *Backend) Configure(tc model.TrainingConfig) error {
	cfg := Config{
		Epochs:             tc.Epochs,
		BatchSize:          tc.BatchSize,
		LearningRate:       tc.LearningRate,
		Patience:           tc.Patience,
		ValidationFraction: tc.ValidationFraction,
		Hidden:             tc.Hidden,
		Blocks:             b.cfg.Blocks,
		Dropout:            tc.Dropout,
		Seed:               tc.RandomState,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	b.cfg = cfg
	b.mu.Unlock()
	return nil
}

// Type implements model.Trainable.
func (b *Backend) Type() model.BackendType { return model.BackendResidualNet }

// Fit implements model.Trainable.
func (b *Backend) Fit(ctx context.Context, X *mat.Dense, y []float64, pub callback.Publisher) (result map[string]float64, err error) {
	defer errors.Recover(&err, "resnet.Fit")

	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	if n != len(y) {
		return nil, errors.NewDimensionError("resnet.Fit", n, len(y), 0)
	}
	if pub == nil {
		pub = callback.Discard
	}

	poly := preprocessing.NewPolynomialFeatures()
	Xp, err := poly.FitTransform(X)
	if err != nil {
		return nil, err
	}
	scaler := preprocessing.NewStandardScaler()
	Xs, err := scaler.FitTransform(Xp)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(b.cfg.Seed, b.cfg.Seed^0x9e3779b97f4a7c15))
	trainIdx, valIdx := validationSplit(n, b.cfg.ValidationFraction, rng)
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, Xs)
	}

	_, in := Xs.Dims()
	net := newNetwork(in, b.cfg.Hidden, b.cfg.Blocks, b.cfg.Dropout, rng)
	grads := net.zeroLike()
	opt := newAdam(net, b.cfg.LearningRate)
	stopper := NewEarlyStopping(b.cfg.Patience)
	best := net.clone()
	history := map[string][]float64{HistoryTrain: nil, HistoryVal: nil}
	tr := net.newTrace()

	epochsRun := 0
	for epoch := 1; epoch <= b.cfg.Epochs; epoch++ {
		rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })

		var trainLoss float64
		for start := 0; start < len(trainIdx); start += b.cfg.BatchSize {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			end := min(start+b.cfg.BatchSize, len(trainIdx))
			batch := trainIdx[start:end]
			for _, l := range grads.layers() {
				l.reset()
			}
			for _, idx := range batch {
				p := net.forwardTrain(rows[idx], tr, rng)
				denom := math.Abs(y[idx]) + metrics.MAPEEpsilon
				trainLoss += math.Abs(y[idx]-p) / denom
				net.backward(tr, -sign(y[idx]-p)/denom/float64(len(batch)), grads)
			}
			opt.step(net, grads, errors.ClipGradient)
		}
		trainLoss /= float64(len(trainIdx))

		valLoss := mapeOn(net, rows, y, valIdx)
		if err := errors.CheckScalar("resnet.Fit", valLoss, epoch); err != nil {
			return nil, err
		}
		epochsRun = epoch
		history[HistoryTrain] = append(history[HistoryTrain], trainLoss)
		history[HistoryVal] = append(history[HistoryVal], valLoss)

		improved, stop := stopper.Update(epoch, valLoss)
		if improved {
			best = net.clone()
		}
		b.publishEpoch(pub, epoch, trainLoss, valLoss, history)
		if stop {
			b.logger.Info("Early stopping",
				log.EpochKey, epoch,
				"best_epoch", stopper.BestEpoch,
				log.ValLossKey, stopper.BestScore,
			)
			break
		}
	}

	b.mu.Lock()
	b.net, b.scaler, b.poly = best, scaler, poly
	b.mu.Unlock()

	b.logger.Debug("Residual network fitted",
		log.SamplesKey, n,
		log.FeaturesKey, in,
		"epochs_run", epochsRun,
	)

	stopped := 0.0
	if epochsRun < b.cfg.Epochs {
		stopped = 1
	}
	return map[string]float64{
		"best_epoch":    float64(stopper.BestEpoch),
		"best_val_loss": stopper.BestScore,
		"epochs_run":    float64(epochsRun),
		"stopped_early": stopped,
	}, nil
}

func (b *Backend) publishEpoch(pub callback.Publisher, epoch int, trainLoss, valLoss float64, history map[string][]float64) {
	pub.Publish(callback.NewEvent(callback.EpochEnd, map[string]any{
		callback.KeyTask:        b.task,
		callback.KeyEpoch:       epoch,
		callback.KeyTotalEpochs: b.cfg.Epochs,
		callback.KeyTrainLoss:   trainLoss,
		callback.KeyValLoss:     valLoss,
	}))
	pub.Publish(callback.NewEvent(callback.ProgressUpdate, map[string]any{
		callback.KeyTask:    b.task,
		callback.KeyPercent: 100 * float64(epoch) / float64(b.cfg.Epochs),
		callback.KeyStatus:  "training",
	}))
	snapshot := map[string][]float64{
		HistoryTrain: append([]float64(nil), history[HistoryTrain]...),
		HistoryVal:   append([]float64(nil), history[HistoryVal]...),
	}
	pub.Publish(callback.NewEvent(callback.LossUpdate, map[string]any{
		callback.KeyTask:      b.task,
		callback.KeyEpoch:     epoch,
		callback.KeyTrainLoss: trainLoss,
		callback.KeyValLoss:   valLoss,
		callback.KeyHistory:   snapshot,
	}))
}

// validationSplit shuffles [0, n) and holds out frac of it for validation.
// With fewer than two samples or frac = 0 the training rows double as the
// validation rows.
func validationSplit(n int, frac float64, rng *rand.Rand) (train, val []int) {
	idx := rng.Perm(n)
	nVal := int(math.Round(frac * float64(n)))
	if frac > 0 && nVal == 0 && n >= 2 {
		nVal = 1
	}
	if nVal == 0 || nVal >= n {
		return idx, append([]int(nil), idx...)
	}
	return idx[nVal:], idx[:nVal]
}

func mapeOn(net *Network, rows [][]float64, y []float64, idx []int) float64 {
	var s float64
	for _, i := range idx {
		s += math.Abs(y[i]-net.Predict(rows[i])) / (math.Abs(y[i]) + metrics.MAPEEpsilon)
	}
	return s / float64(len(idx))
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// PredictBatch implements model.Trainable.
func (b *Backend) PredictBatch(X mat.Matrix) ([]float64, error) {
	b.mu.RLock()
	net, scaler, poly := b.net, b.scaler, b.poly
	b.mu.RUnlock()
	if net == nil {
		return nil, errors.NewNotFittedError("ResidualNet", "PredictBatch")
	}
	Xp, err := poly.Transform(X)
	if err != nil {
		return nil, err
	}
	Xs, err := scaler.Transform(Xp)
	if err != nil {
		return nil, err
	}
	r, c := Xs.Dims()
	out := make([]float64, r)
	parallel.ParallelizeWithThreshold(r, predictChunk, func(start, end int) {
		row := make([]float64, c)
		for i := start; i < end; i++ {
			mat.Row(row, i, Xs)
			out[i] = net.Predict(row)
		}
	})
	return out, nil
}

// Save implements model.Trainable.
func (b *Backend) Save(store model.ArtifactStore) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.net == nil {
		return errors.NewNotFittedError("ResidualNet", "Save")
	}
	if err := store.Put(ModelKey, b.net); err != nil {
		return err
	}
	if err := store.Put(ScalerKey, b.scaler); err != nil {
		return err
	}
	return store.Put(PolyKey, b.poly)
}

// Load implements model.Trainable.
func (b *Backend) Load(store model.ArtifactStore) error {
	var net Network
	if err := store.Get(ModelKey, &net); err != nil {
		return err
	}
	var scaler preprocessing.StandardScaler
	if err := store.Get(ScalerKey, &scaler); err != nil {
		return err
	}
	if !store.Has(PolyKey) {
		return errors.NewModelLoadError(store.Path(PolyKey), errors.ErrMissingPolyTransform, nil)
	}
	var poly preprocessing.PolynomialFeatures
	if err := store.Get(PolyKey, &poly); err != nil {
		return err
	}
	if !poly.IsFitted() || !scaler.IsFitted() || poly.NOutputFeatures != scaler.NFeatures || net.Input.In != scaler.NFeatures {
		return errors.NewModelLoadError(store.Path(ModelKey), errors.ErrCorruptArtifact, nil)
	}

	b.mu.Lock()
	b.net, b.scaler, b.poly = &net, &scaler, &poly
	b.mu.Unlock()
	return nil
}
