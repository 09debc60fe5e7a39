package svr

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// KernelType selects the kernel function.
type KernelType string

const (
	KernelRBF    KernelType = "rbf"
	KernelLinear KernelType = "linear"
)

// GammaMode tells how the RBF width is derived.
type GammaMode string

const (
	// GammaScale is 1 / (n_features · Var(X)).
	GammaScale GammaMode = "scale"
	// GammaAuto is 1 / n_features.
	GammaAuto GammaMode = "auto"
	// GammaFixed uses Gamma.Value.
	GammaFixed GammaMode = "fixed"
)

// Gamma is the RBF width setting.
type Gamma struct {
	Mode  GammaMode
	Value float64
}

// FixedGamma returns a literal gamma.
func FixedGamma(v float64) Gamma { return Gamma{Mode: GammaFixed, Value: v} }

func (g Gamma) String() string {
	if g.Mode == GammaFixed {
		return strconv.FormatFloat(g.Value, 'g', -1, 64)
	}
	return string(g.Mode)
}

// Resolve returns the numeric gamma for training data X.
func (g Gamma) Resolve(X mat.Matrix) float64 {
	_, c := X.Dims()
	switch g.Mode {
	case GammaAuto:
		return 1 / float64(c)
	case GammaScale:
		v := stat.PopVariance(mat.DenseCopyOf(X).RawMatrix().Data, nil)
		if v == 0 || math.IsNaN(v) {
			return 1
		}
		return 1 / (float64(c) * v)
	default:
		return g.Value
	}
}

// Params are the hyperparameters of one SVR fit.
type Params struct {
	C       float64
	Epsilon float64
	Kernel  KernelType
	Gamma   Gamma
}

// DefaultParams is used when there are too few samples to cross-validate.
func DefaultParams() Params {
	return Params{C: 1, Epsilon: 0.1, Kernel: KernelRBF, Gamma: Gamma{Mode: GammaScale}}
}

func (p Params) String() string {
	if p.Kernel == KernelLinear {
		return fmt.Sprintf("C=%g epsilon=%g kernel=linear", p.C, p.Epsilon)
	}
	return fmt.Sprintf("C=%g epsilon=%g kernel=rbf gamma=%s", p.C, p.Epsilon, p.Gamma)
}

// kernelFunc evaluates k(a, b) + 1.
type kernelFunc func(a, b []float64) float64

func newKernel(kind KernelType, gamma float64) kernelFunc {
	if kind == KernelLinear {
		return func(a, b []float64) float64 {
			var dot float64
			for i := range a {
				dot += a[i] * b[i]
			}
			return dot + 1
		}
	}
	return func(a, b []float64) float64 {
		var d2 float64
		for i := range a {
			d := a[i] - b[i]
			d2 += d * d
		}
		return math.Exp(-gamma*d2) + 1
	}
}
