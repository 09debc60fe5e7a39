package preprocessing

import (
	"fmt"

	"github.com/YuminosukeSato/espsel/core/model"
	"github.com/YuminosukeSato/espsel/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// PolynomialFeatures expands inputs into degree-2 polynomial features.
// Output columns are ordered [1, x0, x1, ..., x0*x0, x0*x1, ..., x(n-1)*x(n-1)].
type PolynomialFeatures struct {
	model.BaseEstimator

	// IncludeBias prepends the constant column.
	IncludeBias bool

	// NInputFeatures is the input width.
	NInputFeatures int

	// NOutputFeatures is the expanded width.
	NOutputFeatures int
}

// NewPolynomialFeatures returns a degree-2 expander with a bias column.
func NewPolynomialFeatures() *PolynomialFeatures {
	return &PolynomialFeatures{IncludeBias: true}
}

// Fit derives the output width from the input width.
func (p *PolynomialFeatures) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("PolynomialFeatures.Fit", "empty data", errors.ErrEmptyData)
	}
	p.NInputFeatures = c
	p.NOutputFeatures = c + c*(c+1)/2
	if p.IncludeBias {
		p.NOutputFeatures++
	}
	p.SetFitted()
	return nil
}

// Transform expands every row.
func (p *PolynomialFeatures) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PolynomialFeatures", "Transform")
	}
	r, c := X.Dims()
	if c != p.NInputFeatures {
		return nil, errors.NewDimensionError("PolynomialFeatures.Transform", p.NInputFeatures, c, 1)
	}

	out := mat.NewDense(r, p.NOutputFeatures, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		k := 0
		if p.IncludeBias {
			out.Set(i, k, 1)
			k++
		}
		for j := 0; j < c; j++ {
			out.Set(i, k, row[j])
			k++
		}
		for a := 0; a < c; a++ {
			for b := a; b < c; b++ {
				out.Set(i, k, row[a]*row[b])
				k++
			}
		}
	}
	return out, nil
}

// FitTransform runs Fit then Transform.
func (p *PolynomialFeatures) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

func (p *PolynomialFeatures) String() string {
	return fmt.Sprintf("PolynomialFeatures(degree=2, include_bias=%t, n_output=%d)", p.IncludeBias, p.NOutputFeatures)
}
