package dataclean

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/espsel/pkg/errors"
	"github.com/YuminosukeSato/espsel/pkg/log"
)

// MinSamples is the smallest sample count that still permits a train/test split.
const MinSamples = 4

// Step names used in Report.
const (
	StepSelect   = "select columns"
	StepMissing  = "drop missing"
	StepOutliers = "remove outliers"
)

type options struct {
	removeOutliers bool
	lower, upper   float64
	logger         log.Logger
}

// Option configures Clean.
type Option func(*options)

// WithOutlierRemoval enables quantile based outlier removal.
func WithOutlierRemoval(enabled bool) Option {
	return func(o *options) { o.removeOutliers = enabled }
}

// WithQuantiles sets the lower and upper quantiles used for outlier bounds.
func WithQuantiles(lower, upper float64) Option {
	return func(o *options) {
		o.lower = lower
		o.upper = upper
	}
}

// WithLogger overrides the logger that receives the cleaning trace.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Clean selects features and target from rows, coerces them to float64 and
// drops unusable rows. The returned matrix has one column per feature, in
// the order given.
func Clean(rows []map[string]any, features []string, target string, opts ...Option) (*mat.Dense, []float64, *Report, error) {
	o := options{lower: 0.01, upper: 0.99}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.GetLoggerWithName("dataclean")
	}
	if len(features) == 0 {
		return nil, nil, nil, errors.NewValueError("dataclean.Clean", "no feature columns requested")
	}
	if !(o.lower >= 0 && o.lower < o.upper && o.upper <= 1) {
		return nil, nil, nil, errors.NewValidationError("quantiles", "must satisfy 0 <= lower < upper <= 1", [2]float64{o.lower, o.upper})
	}

	if len(rows) == 0 {
		o.logger.Error("No input rows",
			log.OperationKey, log.OperationClean,
			log.ErrorCodeKey, log.ErrorInsufficient,
		)
		return nil, nil, &Report{}, errors.NewInsufficientSamplesError("dataclean.Clean", 0, MinSamples)
	}

	columns := append(append([]string(nil), features...), target)
	if missing := missingColumns(rows, columns); len(missing) > 0 {
		o.logger.Error("Missing columns",
			log.OperationKey, log.OperationClean,
			log.ErrorCodeKey, log.ErrorMissingColumns,
			"columns", missing,
		)
		return nil, nil, nil, errors.NewMissingColumnsError("dataclean.Clean", missing)
	}

	report := &Report{Original: len(rows)}
	report.addStep(StepSelect, len(rows), len(rows))

	// Coerce and drop rows with any missing value.
	data := make([][]float64, 0, len(rows))
	for _, row := range rows {
		vals := make([]float64, len(columns))
		complete := true
		for j, c := range columns {
			f, status, converted := toFloat(row[c])
			if converted {
				report.Converted++
			}
			switch status {
			case cellOK:
				vals[j] = f
			case cellUnconvertible:
				report.Unconvertible++
				complete = false
			case cellNonFinite:
				report.NonFinite++
				complete = false
			default:
				complete = false
			}
		}
		if complete {
			data = append(data, vals)
		}
	}
	report.addStep(StepMissing, len(rows), len(data))
	if report.Converted > 0 {
		o.logger.Debug("Cells coerced to float64",
			log.OperationKey, log.OperationClean,
			"converted", report.Converted,
			log.ErrAttrKey, errors.NewDataConversionWarning("non-float64", "float64",
				fmt.Sprintf("%d cells coerced", report.Converted)),
		)
	}

	if o.removeOutliers && len(data) > 0 {
		before := len(data)
		data, report.Bounds = removeOutliers(data, columns, o.lower, o.upper)
		report.addStep(StepOutliers, before, len(data))
	}

	report.Final = len(data)
	o.logger.Debug("Cleaning finished",
		log.OperationKey, log.OperationClean,
		log.SamplesKey, report.Final,
		log.RemovedKey, report.Removed(),
		"report", report.String(),
	)

	if report.Final < MinSamples {
		o.logger.Error("Insufficient samples after cleaning",
			log.OperationKey, log.OperationClean,
			log.ErrorCodeKey, log.ErrorInsufficient,
			log.SamplesKey, report.Final,
		)
		return nil, nil, report, errors.NewInsufficientSamplesError("dataclean.Clean", report.Final, MinSamples)
	}

	nf := len(features)
	X := mat.NewDense(len(data), nf, nil)
	y := make([]float64, len(data))
	for i, vals := range data {
		X.SetRow(i, vals[:nf])
		y[i] = vals[nf]
	}
	return X, y, report, nil
}

// missingColumns returns every requested column that no row carries.
func missingColumns(rows []map[string]any, columns []string) []string {
	var missing []string
	for _, c := range columns {
		found := false
		for _, row := range rows {
			if _, ok := row[c]; ok {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, c)
		}
	}
	return missing
}

// removeOutliers keeps rows whose every column lies within the quantile
// bounds computed on the input rows. Bounds are computed once, before any
// row is dropped.
func removeOutliers(data [][]float64, columns []string, lower, upper float64) ([][]float64, map[string]Bound) {
	bounds := make([]Bound, len(columns))
	named := make(map[string]Bound, len(columns))
	col := make([]float64, len(data))
	for j, c := range columns {
		for i := range data {
			col[i] = data[i][j]
		}
		sort.Float64s(col)
		b := Bound{
			Lower: stat.Quantile(lower, stat.LinInterp, col, nil),
			Upper: stat.Quantile(upper, stat.LinInterp, col, nil),
		}
		// Quantiles 0 and 1 keep the extreme rows.
		if lower == 0 {
			b.Lower = floats.Min(col)
		}
		if upper == 1 {
			b.Upper = floats.Max(col)
		}
		bounds[j] = b
		named[c] = b
	}

	kept := data[:0:0]
	for _, vals := range data {
		inside := true
		for j, v := range vals {
			if v < bounds[j].Lower || v > bounds[j].Upper {
				inside = false
				break
			}
		}
		if inside {
			kept = append(kept, vals)
		}
	}
	return kept, named
}
