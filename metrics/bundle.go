package metrics

import (
	"math"

	"github.com/YuminosukeSato/espsel/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Bundle keys.
const (
	KeyMAPE = "mape"
	KeyMAE  = "mae"
	KeyMSE  = "mse"
	KeyRMSE = "rmse"
	KeyR2   = "r2"
)

// Evaluate computes mape, mae, mse, rmse and r2 in one pass.
// r2 is 0 when yTrue has zero variance.
func Evaluate(yTrue, yPred []float64) (map[string]float64, error) {
	if len(yTrue) == 0 {
		return nil, errors.NewValueError("Evaluate", "empty vector")
	}
	if len(yPred) != len(yTrue) {
		return nil, errors.NewDimensionError("Evaluate", len(yTrue), len(yPred), 0)
	}

	t := mat.NewVecDense(len(yTrue), append([]float64(nil), yTrue...))
	p := mat.NewVecDense(len(yPred), append([]float64(nil), yPred...))

	mse, err := MSE(t, p)
	if err != nil {
		return nil, err
	}
	mae, err := MAE(t, p)
	if err != nil {
		return nil, err
	}
	mape, err := MAPE(t, p)
	if err != nil {
		return nil, err
	}
	r2, err := R2Score(t, p)
	if err != nil {
		r2 = 0
	}

	return map[string]float64{
		KeyMAPE: mape,
		KeyMAE:  mae,
		KeyMSE:  mse,
		KeyRMSE: math.Sqrt(mse),
		KeyR2:   r2,
	}, nil
}
