package resnet

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/espsel/artifact"
	"github.com/YuminosukeSato/espsel/callback"
	"github.com/YuminosukeSato/espsel/core/model"
	"github.com/YuminosukeSato/espsel/pkg/errors"
	"github.com/YuminosukeSato/espsel/pkg/log"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Epochs = 20
	cfg.BatchSize = 8
	cfg.LearningRate = 0.01
	cfg.Patience = 5
	cfg.Hidden = 8
	cfg.Blocks = 2
	return cfg
}

func glrData(n int) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewPCG(7, 7))
	X := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a, b := 1+rng.Float64(), 1+rng.Float64()
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y[i] = 10 + 3*a*b
	}
	return X, y
}

func newTestBackend(cfg Config) *Backend {
	return New("glr", WithConfig(cfg), WithLogger(log.NewTestLogger(log.LevelError)))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Dropout = 1
	var vErr *errors.ValidationError
	assert.True(t, errors.As(cfg.Validate(), &vErr))

	cfg = DefaultConfig()
	cfg.Epochs = 0
	assert.Error(t, cfg.Validate())
}

func TestConfigure(t *testing.T) {
	b := newTestBackend(smallConfig())
	tc := model.DefaultTrainingConfig()
	tc.Epochs = 3
	tc.Hidden = 16
	tc.RandomState = 9
	require.NoError(t, b.Configure(tc))
	assert.Equal(t, 3, b.cfg.Epochs)
	assert.Equal(t, 16, b.cfg.Hidden)
	assert.Equal(t, uint64(9), b.cfg.Seed)
	assert.Equal(t, 32, b.cfg.BatchSize)
	assert.Equal(t, 2, b.cfg.Blocks)

	tc.Dropout = 1
	assert.Error(t, b.Configure(tc))
	assert.Equal(t, 3, b.cfg.Epochs)
}

func TestEarlyStopping(t *testing.T) {
	es := NewEarlyStopping(2)
	improved, stop := es.Update(1, 0.5)
	assert.True(t, improved)
	assert.False(t, stop)

	_, stop = es.Update(2, 0.6)
	assert.False(t, stop)
	_, stop = es.Update(3, 0.7)
	assert.True(t, stop)
	assert.Equal(t, 1, es.BestEpoch)
	assert.Equal(t, 0.5, es.BestScore)

	disabled := NewEarlyStopping(0)
	for i := 0; i < 10; i++ {
		_, stop = disabled.Update(i, 1)
		assert.False(t, stop)
	}
}

func TestValidationSplit(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	train, val := validationSplit(10, 0.2, rng)
	assert.Len(t, train, 8)
	assert.Len(t, val, 2)

	train, val = validationSplit(1, 0.2, rng)
	assert.Equal(t, train, val)
}

func TestGradientMatchesFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	net := newNetwork(3, 4, 2, 0, rng)
	x := []float64{0.3, -0.7, 1.1}

	g := net.zeroLike()
	tr := net.newTrace()
	net.forwardTrain(x, tr, rng)
	net.backward(tr, 1, g)

	const h = 1e-6
	for l, layer := range net.layers() {
		for i := range layer.W {
			orig := layer.W[i]
			layer.W[i] = orig + h
			up := net.Predict(x)
			layer.W[i] = orig - h
			down := net.Predict(x)
			layer.W[i] = orig
			assert.InDelta(t, (up-down)/(2*h), g.layers()[l].W[i], 1e-4)
		}
	}
}

func TestBackendFitEvents(t *testing.T) {
	X, y := glrData(40)
	cfg := smallConfig()
	b := newTestBackend(cfg)

	var events []callback.Event
	bus := callback.NewBus()
	bus.SubscribeFunc(func(e callback.Event) { events = append(events, e) })

	res, err := b.Fit(context.Background(), X, y, bus)
	require.NoError(t, err)

	epochs := int(res["epochs_run"])
	require.GreaterOrEqual(t, epochs, 1)
	require.Len(t, events, 3*epochs)
	assert.Equal(t, callback.EpochEnd, events[0].Type)
	assert.Equal(t, callback.ProgressUpdate, events[1].Type)
	assert.Equal(t, callback.LossUpdate, events[2].Type)

	last := events[len(events)-1]
	history, ok := last.Payload[callback.KeyHistory].(map[string][]float64)
	require.True(t, ok)
	assert.Len(t, history[HistoryVal], epochs)
	assert.LessOrEqual(t, res["best_val_loss"], history[HistoryVal][0])

	pred, err := b.PredictBatch(X)
	require.NoError(t, err)
	for _, p := range pred {
		assert.False(t, math.IsNaN(p))
	}
}

func TestBackendTrainingReducesLoss(t *testing.T) {
	X, y := glrData(60)
	cfg := smallConfig()
	cfg.Epochs = 60
	cfg.Patience = 0
	b := newTestBackend(cfg)

	var losses []float64
	bus := callback.NewBus()
	bus.SubscribeFunc(func(e callback.Event) {
		if e.Type == callback.EpochEnd {
			l, _ := e.Float(callback.KeyTrainLoss)
			losses = append(losses, l)
		}
	})
	_, err := b.Fit(context.Background(), X, y, bus)
	require.NoError(t, err)
	require.Len(t, losses, 60)
	assert.Less(t, losses[len(losses)-1], losses[0])
}

func TestBackendSaveLoad(t *testing.T) {
	X, y := glrData(30)
	b := newTestBackend(smallConfig())
	_, err := b.Fit(context.Background(), X, y, nil)
	require.NoError(t, err)

	store := artifact.Open(t.TempDir(), "glr")
	require.NoError(t, b.Save(store))
	for _, key := range []string{ModelKey, ScalerKey, PolyKey} {
		assert.True(t, store.Has(key), key)
	}

	restored := newTestBackend(smallConfig())
	require.NoError(t, restored.Load(store))

	want, err := b.PredictBatch(X)
	require.NoError(t, err)
	got, err := restored.PredictBatch(X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-9)
}

func TestBackendLoadWithoutPoly(t *testing.T) {
	X, y := glrData(20)
	b := newTestBackend(smallConfig())
	_, err := b.Fit(context.Background(), X, y, nil)
	require.NoError(t, err)

	store := artifact.Open(t.TempDir(), "glr")
	require.NoError(t, b.Save(store))
	require.NoError(t, store.Erase(PolyKey))

	err = newTestBackend(smallConfig()).Load(store)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMissingPolyTransform))
}

func TestBackendCancel(t *testing.T) {
	X, y := glrData(20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := newTestBackend(smallConfig())
	_, err := b.Fit(ctx, X, y, nil)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = b.PredictBatch(X)
	assert.True(t, errors.Is(err, errors.ErrNotTrained))
}
