package facade

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/espsel/core/model"
	"github.com/YuminosukeSato/espsel/formula"
	"github.com/YuminosukeSato/espsel/hybrid"
	"github.com/YuminosukeSato/espsel/pkg/errors"
	"github.com/YuminosukeSato/espsel/pkg/log"
	"github.com/YuminosukeSato/espsel/predictor"
	"github.com/YuminosukeSato/espsel/svr"
)

func well() predictor.PredictionInput {
	return predictor.PredictionInput{
		Geopressure:        20,
		ProduceIndex:       5,
		BHT:                80,
		ExpectedProduction: 40,
		WaterCut:           0.3,
		API:                30,
		GOR:                100,
		SaturationPressure: 10,
		WellheadPressure:   1.5,
		PerforationDepth:   6000,
		PumpHangingDepth:   5000,
	}
}

func quietLogger() log.Logger { return log.NewTestLogger(log.LevelError) }

func svrFactory(task predictor.TaskName) (model.Trainable, error) {
	grid := []svr.Params{svr.DefaultParams()}
	return svr.New(string(task), svr.WithGrid(grid), svr.WithLogger(quietLogger())), nil
}

// trainAndSave fits an SVR predictor for task on synthetic rows and writes
// it under dir.
func trainAndSave(t *testing.T, dir string, task predictor.TaskName) {
	t.Helper()
	n := 16
	features := predictor.Features(task)
	X := mat.NewDense(n, len(features), nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := range features {
			X.Set(i, j, float64((i*(j+3))%7)+float64(j))
		}
		y[i] = 50 + 3*X.At(i, 0) - X.At(i, 2)
	}
	backend, err := svrFactory(task)
	require.NoError(t, err)
	p := predictor.New(task, backend, predictor.WithLogger(quietLogger()))
	_, err = p.Train(context.Background(), X, y)
	require.NoError(t, err)
	require.NoError(t, p.Save(dir))
}

func TestEmpiricalValues(t *testing.T) {
	in := well()

	q, err := EmpiricalProduction(in)
	require.NoError(t, err)
	assert.InDelta(t, 40.0, q, 1e-9)

	in.ProduceIndex = 0
	q, err = EmpiricalProduction(in)
	require.NoError(t, err)
	assert.InDelta(t, 40.0, q, 1e-9, "PI derived from expected production")

	assert.InDelta(t, 13.80809858538453, EmpiricalGasRate(well()), 1e-9)

	head := EmpiricalTotalHead(well())
	assert.Greater(t, head, 0.0)
	assert.Equal(t, head, formula.TotalHead(formula.HeadInput{
		PerforationDepth:   6000,
		PumpHangingDepth:   5000,
		WellheadPressure:   formula.MPaToPSI(1.5),
		BottomHolePressure: formula.MPaToPSI(20),
		PumpMeasuredDepth:  5000,
		WaterRatio:         0.3,
		API:                30,
	}))
}

func TestEmpiricalProductionAtReservoirPressure(t *testing.T) {
	in := well()
	in.SaturationPressure = 20
	q, err := EmpiricalProduction(in)
	require.NoError(t, err)
	assert.Equal(t, 0.0, q)
}

func TestPredictAllFallsBackWithoutModels(t *testing.T) {
	f, err := New(Config{ModelDir: t.TempDir()}, WithLogger(quietLogger()))
	require.NoError(t, err)

	res, err := f.PredictAll(context.Background(), well())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfidence, res.Confidence)
	require.Len(t, res.Details, 3)
	for task, q := range res.Details {
		assert.Equal(t, SourceFallback, q.Source, task)
		assert.Equal(t, hybrid.MethodEmpirical, q.SelectionMethod)
		assert.NotEmpty(t, q.Error)
	}
	assert.InDelta(t, 40.0, res.Production, 1e-9)
	assert.InDelta(t, EmpiricalTotalHead(well()), res.TotalHead, 1e-9)
	assert.InDelta(t, EmpiricalGasRate(well()), res.GasRate, 1e-9)
}

func TestPredictAllUsesLoadedModels(t *testing.T) {
	dir := t.TempDir()
	trainAndSave(t, dir, predictor.TaskProduction)
	trainAndSave(t, dir, predictor.TaskHead)

	f, err := New(Config{ModelDir: dir}, WithBackendFactory(svrFactory), WithLogger(quietLogger()))
	require.NoError(t, err)

	res, err := f.PredictAll(context.Background(), well())
	require.NoError(t, err)

	for _, task := range []predictor.TaskName{predictor.TaskProduction, predictor.TaskHead} {
		q := res.Details[task]
		assert.Contains(t, []Source{SourceModel, SourceEmpirical}, q.Source, task)
		assert.Empty(t, q.Error)
		want := hybrid.Select(q.ModelValue, q.EmpiricalValue)
		assert.Equal(t, want.SelectedValue, q.SelectedValue)
	}
	assert.Equal(t, res.Details[predictor.TaskProduction].SelectedValue, res.Production)
	assert.Equal(t, SourceFallback, res.Details[predictor.TaskGLR].Source)
}

func TestPredictAllIsolatesEmpiricalFailure(t *testing.T) {
	dir := t.TempDir()
	trainAndSave(t, dir, predictor.TaskProduction)
	trainAndSave(t, dir, predictor.TaskHead)

	f, err := New(Config{ModelDir: dir}, WithBackendFactory(svrFactory), WithLogger(quietLogger()))
	require.NoError(t, err)

	in := well()
	in.Geopressure = 0
	_, empErr := EmpiricalProduction(in)
	require.Error(t, empErr)

	res, err := f.PredictAll(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, res.Details, 3)

	prod := res.Details[predictor.TaskProduction]
	assert.Equal(t, SourceModel, prod.Source)
	assert.Equal(t, hybrid.MethodModel, prod.SelectionMethod)
	assert.False(t, prod.IsReliable)
	assert.Equal(t, prod.ModelValue, prod.SelectedValue)
	assert.Equal(t, empErr.Error(), prod.Error)
	assert.Equal(t, prod.SelectedValue, res.Production)

	head := res.Details[predictor.TaskHead]
	assert.Empty(t, head.Error)
	assert.InDelta(t, EmpiricalTotalHead(in), head.EmpiricalValue, 1e-9)

	glr := res.Details[predictor.TaskGLR]
	assert.Equal(t, SourceFallback, glr.Source)
	assert.InDelta(t, EmpiricalGasRate(in), res.GasRate, 1e-9)
}

func TestPredictAllReportsUnavailableQuantity(t *testing.T) {
	f, err := New(Config{ModelDir: t.TempDir()}, WithLogger(quietLogger()))
	require.NoError(t, err)

	in := well()
	in.Geopressure = 0
	res, err := f.PredictAll(context.Background(), in)
	require.NoError(t, err)

	prod := res.Details[predictor.TaskProduction]
	assert.Equal(t, SourceUnavailable, prod.Source)
	assert.Equal(t, 0.0, prod.SelectedValue)
	assert.Contains(t, prod.Error, "model:")
	assert.Equal(t, SourceFallback, res.Details[predictor.TaskHead].Source)
	assert.InDelta(t, EmpiricalGasRate(in), res.GasRate, 1e-9)
}

func TestPredictAllHonorsContext(t *testing.T) {
	f, err := New(Config{ModelDir: t.TempDir()}, WithLogger(quietLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.PredictAll(ctx, well())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredictorLoadsOnce(t *testing.T) {
	dir := t.TempDir()
	trainAndSave(t, dir, predictor.TaskProduction)

	var calls atomic.Int32
	factory := func(task predictor.TaskName) (model.Trainable, error) {
		calls.Add(1)
		return svrFactory(task)
	}
	f, err := New(Config{ModelDir: dir}, WithBackendFactory(factory), WithLogger(quietLogger()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.Predictor(predictor.TaskProduction)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())

	f.Invalidate(predictor.TaskProduction)
	_, err = f.Predictor(predictor.TaskProduction)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	f.Reset()
	_, err = f.Predictor(predictor.TaskProduction)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPredictorMissingArtifacts(t *testing.T) {
	f, err := New(Config{ModelDir: t.TempDir()}, WithLogger(quietLogger()))
	require.NoError(t, err)
	_, err = f.Predictor(predictor.TaskHead)
	assert.True(t, errors.Is(err, errors.ErrMissingArtifact))
}

func TestIPRCurve(t *testing.T) {
	f, err := New(Config{IPRPoints: 11}, WithLogger(quietLogger()))
	require.NoError(t, err)
	points, err := f.IPRCurve(well())
	require.NoError(t, err)
	require.Len(t, points, 11)
	assert.Equal(t, 20.0, points[0].Pressure)
	assert.Equal(t, 0.0, points[0].Production)
	assert.Equal(t, 0.0, points[10].Pressure)
}

func TestNewBackend(t *testing.T) {
	for task, want := range map[predictor.TaskName]model.BackendType{
		predictor.TaskProduction: model.BackendSVR,
		predictor.TaskHead:       model.BackendSVR,
		predictor.TaskGLR:        model.BackendResidualNet,
	} {
		b, err := NewBackend(task)
		require.NoError(t, err)
		assert.Equal(t, want, b.Type(), task)
	}
	_, err := NewBackend("pressure")
	assert.Error(t, err)
}
