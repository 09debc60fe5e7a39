package svr

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/espsel/core/parallel"
	"github.com/YuminosukeSato/espsel/metrics"
)

// MinFolds is the smallest sample count for which grid search runs.
const MinFolds = 2

// MaxFolds is the upper bound on k.
const MaxFolds = 5

// Fold holds the row indices of one cross-validation split.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold splits n samples into k contiguous folds without shuffling. The
// first n%k folds get one extra sample.
func KFold(n, k int) []Fold {
	if k > n {
		k = n
	}
	if k < 2 {
		return nil
	}
	folds := make([]Fold, k)
	size, rem := n/k, n%k
	start := 0
	for i := range folds {
		testSize := size
		if i < rem {
			testSize++
		}
		end := start + testSize
		f := Fold{
			TestIndices:  make([]int, 0, testSize),
			TrainIndices: make([]int, 0, n-testSize),
		}
		for j := 0; j < n; j++ {
			if j >= start && j < end {
				f.TestIndices = append(f.TestIndices, j)
			} else {
				f.TrainIndices = append(f.TrainIndices, j)
			}
		}
		folds[i] = f
		start = end
	}
	return folds
}

// Grid returns every candidate in evaluation order. Gamma varies only for
// the RBF kernel.
func Grid() []Params {
	cs := []float64{0.1, 1, 10, 100}
	epsilons := []float64{0.01, 0.1, 0.5}
	gammas := []Gamma{{Mode: GammaScale}, {Mode: GammaAuto}, FixedGamma(0.01), FixedGamma(0.1)}

	var grid []Params
	for _, c := range cs {
		for _, eps := range epsilons {
			for _, g := range gammas {
				grid = append(grid, Params{C: c, Epsilon: eps, Kernel: KernelRBF, Gamma: g})
			}
			grid = append(grid, Params{C: c, Epsilon: eps, Kernel: KernelLinear, Gamma: Gamma{Mode: GammaScale}})
		}
	}
	return grid
}

// SearchResult is the outcome of GridSearch.
type SearchResult struct {
	Best   Params
	Score  float64 // mean negative MSE of Best
	Scores []float64
}

// GridSearch scores every candidate by k-fold cross-validation with
// k = min(MaxFolds, n) and returns the one with the highest mean negative
// MSE. Equal scores keep the earlier candidate. Candidates are evaluated
// concurrently.
func GridSearch(ctx context.Context, X *mat.Dense, y []float64, grid []Params, workers int) (*SearchResult, error) {
	n, _ := X.Dims()
	folds := KFold(n, MaxFolds)
	splits := make([]split, len(folds))
	for i, f := range folds {
		splits[i] = newSplit(X, y, f)
	}

	scores := make([]float64, len(grid))
	err := parallel.ForEach(ctx, len(grid), workers, func(i int) error {
		s, err := crossValidate(ctx, splits, grid[i])
		if err != nil {
			return err
		}
		scores[i] = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return &SearchResult{Best: grid[best], Score: scores[best], Scores: scores}, nil
}

type split struct {
	XTrain *mat.Dense
	yTrain []float64
	XTest  *mat.Dense
	yTest  []float64
}

func newSplit(X *mat.Dense, y []float64, f Fold) split {
	return split{
		XTrain: subset(X, f.TrainIndices),
		yTrain: pick(y, f.TrainIndices),
		XTest:  subset(X, f.TestIndices),
		yTest:  pick(y, f.TestIndices),
	}
}

func crossValidate(ctx context.Context, splits []split, p Params) (float64, error) {
	var total float64
	for _, s := range splits {
		m, err := fitMachine(ctx, s.XTrain, s.yTrain, p, p.Gamma.Resolve(s.XTrain))
		if err != nil {
			return 0, err
		}
		mse, err := metrics.MSE(mat.NewVecDense(len(s.yTest), s.yTest), mat.NewVecDense(len(s.yTest), m.Predict(s.XTest)))
		if err != nil {
			return 0, err
		}
		total += mse
	}
	score := -total / float64(len(splits))
	if math.IsNaN(score) {
		score = math.Inf(-1)
	}
	return score, nil
}

func subset(X *mat.Dense, idx []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		out.SetRow(i, X.RawRowView(r))
	}
	return out
}

func pick(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, r := range idx {
		out[i] = y[r]
	}
	return out
}
