package svr

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/espsel/artifact"
	"github.com/YuminosukeSato/espsel/callback"
	"github.com/YuminosukeSato/espsel/pkg/errors"
	"github.com/YuminosukeSato/espsel/pkg/log"
)

func sineData(n int) (*mat.Dense, []float64) {
	X := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x := 3 * float64(i) / float64(n-1)
		X.Set(i, 0, x)
		y[i] = math.Sin(x)
	}
	return X, y
}

func smallGrid() []Params {
	return []Params{
		{C: 0.1, Epsilon: 0.5, Kernel: KernelLinear, Gamma: Gamma{Mode: GammaScale}},
		{C: 10, Epsilon: 0.01, Kernel: KernelRBF, Gamma: Gamma{Mode: GammaScale}},
	}
}

func newTestBackend(opts ...Option) *Backend {
	opts = append([]Option{WithLogger(log.NewTestLogger(log.LevelError))}, opts...)
	return New("production", opts...)
}

func TestKFold(t *testing.T) {
	folds := KFold(7, 5)
	require.Len(t, folds, 5)

	sizes := make([]int, len(folds))
	seen := map[int]int{}
	for i, f := range folds {
		sizes[i] = len(f.TestIndices)
		assert.Len(t, f.TrainIndices, 7-len(f.TestIndices))
		for _, idx := range f.TestIndices {
			seen[idx]++
		}
	}
	assert.Equal(t, []int{2, 2, 1, 1, 1}, sizes)
	assert.Equal(t, []int{0, 1}, folds[0].TestIndices)
	assert.Len(t, seen, 7)

	assert.Len(t, KFold(3, 5), 3)
	assert.Nil(t, KFold(1, 5))
}

func TestGrid(t *testing.T) {
	grid := Grid()
	assert.Len(t, grid, 4*3*5)
	assert.Equal(t, Params{C: 0.1, Epsilon: 0.01, Kernel: KernelRBF, Gamma: Gamma{Mode: GammaScale}}, grid[0])
	assert.Equal(t, KernelLinear, grid[4].Kernel)
	assert.Equal(t, 100.0, grid[len(grid)-1].C)
}

func TestGammaResolve(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{-1, -1, 1, 1})
	assert.InDelta(t, 0.5, Gamma{Mode: GammaAuto}.Resolve(X), 1e-12)
	assert.InDelta(t, 0.5, Gamma{Mode: GammaScale}.Resolve(X), 1e-12)
	assert.Equal(t, 0.1, FixedGamma(0.1).Resolve(X))
	assert.Equal(t, 1.0, Gamma{Mode: GammaScale}.Resolve(mat.NewDense(2, 1, []float64{3, 3})))
	assert.Equal(t, "0.01", FixedGamma(0.01).String())
}

func TestGridSearchTieKeepsFirst(t *testing.T) {
	X, y := sineData(10)
	p := DefaultParams()
	res, err := GridSearch(context.Background(), X, y, []Params{p, p}, 2)
	require.NoError(t, err)
	assert.Equal(t, res.Scores[0], res.Scores[1])
	assert.Equal(t, p, res.Best)
}

func TestBackendFitPredict(t *testing.T) {
	X, y := sineData(25)
	b := newTestBackend(WithGrid(smallGrid()[1:]))

	var events []callback.Event
	bus := callback.NewBus()
	bus.SubscribeFunc(func(e callback.Event) { events = append(events, e) })

	res, err := b.Fit(context.Background(), X, y, bus)
	require.NoError(t, err)
	assert.Contains(t, res, "cv_score")

	params, ok := b.Params()
	require.True(t, ok)
	assert.Equal(t, KernelRBF, params.Kernel)
	assert.Equal(t, 10.0, params.C)

	pred, err := b.PredictBatch(X)
	require.NoError(t, err)
	var mae float64
	for i := range y {
		mae += math.Abs(pred[i] - y[i])
	}
	assert.Less(t, mae/float64(len(y)), 0.1)

	require.Len(t, events, 2)
	assert.Equal(t, callback.ProgressUpdate, events[1].Type)
}

func TestBackendSingleSampleUsesDefaults(t *testing.T) {
	b := newTestBackend()
	res, err := b.Fit(context.Background(), mat.NewDense(1, 2, []float64{1, 2}), []float64{5}, nil)
	require.NoError(t, err)
	assert.NotContains(t, res, "cv_score")
	assert.Equal(t, 1.0, res["c"])
	assert.Equal(t, 0.1, res["epsilon"])
}

func TestBackendSaveLoadRoundTrip(t *testing.T) {
	X, y := sineData(12)
	b := newTestBackend(WithGrid(smallGrid()))
	_, err := b.Fit(context.Background(), X, y, nil)
	require.NoError(t, err)

	store := artifact.Open(t.TempDir(), "production")
	require.NoError(t, b.Save(store))
	assert.True(t, store.Has("production-Model"))
	assert.True(t, store.Has("production-Scaler"))

	restored := newTestBackend()
	require.NoError(t, restored.Load(store))

	probe := mat.NewDense(3, 1, []float64{0.2, 1.7, 2.9})
	want, err := b.PredictBatch(probe)
	require.NoError(t, err)
	got, err := restored.PredictBatch(probe)
	require.NoError(t, err)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-6)
	}
}

func TestBackendErrors(t *testing.T) {
	b := newTestBackend()
	_, err := b.PredictBatch(mat.NewDense(1, 1, nil))
	assert.True(t, errors.Is(err, errors.ErrNotTrained))

	err = b.Load(artifact.Open(t.TempDir(), "production"))
	assert.True(t, errors.Is(err, errors.ErrMissingArtifact))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	X, y := sineData(10)
	_, err = b.Fit(ctx, X, y, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
