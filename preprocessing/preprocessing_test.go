package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/espsel/core/model"
	"github.com/YuminosukeSato/espsel/pkg/errors"
)

func TestStandardScalerFitTransform(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	scaler := NewStandardScaler()
	Xs, err := scaler.FitTransform(X)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, scaler.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), scaler.Scale[0], 1e-12)
	// constant columns get scale 1
	assert.Equal(t, 1.0, scaler.Scale[1])

	sum := 0.0
	for i := 0; i < 4; i++ {
		sum += Xs.At(i, 0)
		assert.Equal(t, 0.0, Xs.At(i, 1))
	}
	assert.InDelta(t, 0, sum, 1e-12)

	back, err := scaler.InverseTransform(Xs)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))
}

func TestStandardScalerErrors(t *testing.T) {
	scaler := NewStandardScaler()
	_, err := scaler.Transform(mat.NewDense(1, 2, nil))
	assert.True(t, errors.Is(err, errors.ErrNotTrained))

	require.NoError(t, scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	_, err = scaler.Transform(mat.NewDense(1, 3, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestStandardScalerGobRoundTrip(t *testing.T) {
	scaler := NewStandardScaler()
	require.NoError(t, scaler.Fit(mat.NewDense(3, 1, []float64{1, 2, 6})))

	data, err := model.EncodeGob(scaler)
	require.NoError(t, err)

	var restored StandardScaler
	require.NoError(t, model.DecodeGob(data, &restored))
	assert.True(t, restored.IsFitted())

	in := mat.NewDense(1, 1, []float64{4})
	want, _ := scaler.Transform(in)
	got, err := restored.Transform(in)
	require.NoError(t, err)
	assert.InDelta(t, want.At(0, 0), got.At(0, 0), 1e-12)
}

func TestPolynomialFeaturesExpansion(t *testing.T) {
	X := mat.NewDense(1, 3, []float64{2, 3, 5})
	poly := NewPolynomialFeatures()

	out, err := poly.FitTransform(X)
	require.NoError(t, err)

	assert.Equal(t, 10, poly.NOutputFeatures)
	want := []float64{1, 2, 3, 5, 4, 6, 10, 9, 15, 25}
	assert.Equal(t, want, mat.Row(nil, 0, out))
}

func TestPolynomialFeaturesWithoutBias(t *testing.T) {
	poly := &PolynomialFeatures{IncludeBias: false}
	out, err := poly.FitTransform(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	require.NoError(t, err)

	r, c := out.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 5, c)
	assert.Equal(t, []float64{3, 4, 9, 12, 16}, mat.Row(nil, 1, out))

	_, err = poly.Transform(mat.NewDense(1, 3, nil))
	assert.Error(t, err)
}
