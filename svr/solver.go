package svr

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/espsel/core/parallel"
	"github.com/YuminosukeSato/espsel/pkg/errors"
)

const (
	solverTol      = 1e-6
	solverMaxSweep = 1000
	pruneTol       = 1e-12
	// predictChunk is the batch size below which Predict stays sequential.
	predictChunk   = 256
)

// Machine is a fitted kernel regression function
// f(x) = Σ Beta[i] · (k(SupportVectors[i], x) + 1).
type Machine struct {
	Kernel         KernelType
	Gamma          float64
	C              float64
	Epsilon        float64
	SupportVectors [][]float64
	Beta           []float64
	Sweeps         int
}

// fitMachine solves
//
//	min ½βᵀKβ − yᵀβ + ε‖β‖₁  subject to −C ≤ β ≤ C
//
// by cyclic coordinate descent over rows of X.
func fitMachine(ctx context.Context, X *mat.Dense, y []float64, p Params, gamma float64) (*Machine, error) {
	n, _ := X.Dims()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, X)
	}

	k := newKernel(p.Kernel, gamma)
	K := make([][]float64, n)
	for i := range K {
		K[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := k(rows[i], rows[j])
			K[i][j] = v
			K[j][i] = v
		}
	}

	beta := make([]float64, n)
	f := make([]float64, n) // f = Kβ
	sweeps, converged := 0, false
	for ; sweeps < solverMaxSweep; sweeps++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		maxDelta := 0.0
		for i := 0; i < n; i++ {
			kii := K[i][i]
			z := y[i] - (f[i] - kii*beta[i])
			next := errors.ClipValue(softThreshold(z, p.Epsilon)/kii, -p.C, p.C)
			delta := next - beta[i]
			if delta == 0 {
				continue
			}
			beta[i] = next
			for j := 0; j < n; j++ {
				f[j] += K[j][i] * delta
			}
			if a := math.Abs(delta); a > maxDelta {
				maxDelta = a
			}
		}
		if maxDelta < solverTol {
			sweeps++
			converged = true
			break
		}
	}
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("svr", sweeps, "coordinate descent did not reach tolerance"))
	}
	if err := errors.CheckNumericalStability("svr.fitMachine", beta, sweeps); err != nil {
		return nil, err
	}

	m := &Machine{Kernel: p.Kernel, Gamma: gamma, C: p.C, Epsilon: p.Epsilon, Sweeps: sweeps}
	for i, b := range beta {
		if math.Abs(b) > pruneTol {
			m.SupportVectors = append(m.SupportVectors, rows[i])
			m.Beta = append(m.Beta, b)
		}
	}
	return m, nil
}

func softThreshold(z, t float64) float64 {
	switch {
	case z > t:
		return z - t
	case z < -t:
		return z + t
	default:
		return 0
	}
}

// Predict evaluates the machine on every row of X.
func (m *Machine) Predict(X mat.Matrix) []float64 {
	r, c := X.Dims()
	k := newKernel(m.Kernel, m.Gamma)
	out := make([]float64, r)
	parallel.ParallelizeWithThreshold(r, predictChunk, func(start, end int) {
		row := make([]float64, c)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			var s float64
			for j, sv := range m.SupportVectors {
				s += m.Beta[j] * k(sv, row)
			}
			out[i] = s
		}
	})
	return out
}
