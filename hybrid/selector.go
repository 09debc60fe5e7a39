// Package hybrid arbitrates between a learned prediction and the empirical
// correlation for the same quantity.
package hybrid

import "math"

// DefaultMaxErrorPercent is the largest disagreement for which the model
// value is still trusted.
const DefaultMaxErrorPercent = 15.0

// Method tells which value a SelectionResult selected.
type Method string

const (
	MethodModel     Method = "model"
	MethodEmpirical Method = "empirical"
)

// SelectionResult is the outcome of Select.
type SelectionResult struct {
	ModelValue      float64 `json:"model_value"`
	EmpiricalValue  float64 `json:"empirical_value"`
	SelectedValue   float64 `json:"selected_value"`
	ErrorPercent    float64 `json:"error_percent"`
	SelectionMethod Method  `json:"selection_method"`
	IsReliable      bool    `json:"is_reliable"`
}

type options struct {
	maxErrorPercent float64
}

// Option configures Select.
type Option func(*options)

// WithMaxErrorPercent overrides DefaultMaxErrorPercent.
func WithMaxErrorPercent(p float64) Option {
	return func(o *options) { o.maxErrorPercent = p }
}

// ErrorPercent returns the disagreement between model and empirical as a
// percentage of the empirical value, or of the mean of both when the
// empirical value is 0. Two zero values agree exactly.
func ErrorPercent(model, empirical float64) float64 {
	diff := math.Abs(model - empirical)
	if diff == 0 {
		return 0
	}
	ref := empirical
	if ref == 0 {
		ref = (model + empirical) / 2
	}
	return math.Abs(diff / ref * 100)
}

// Select returns model when it lies within the allowed error of empirical,
// and empirical otherwise.
func Select(model, empirical float64, opts ...Option) SelectionResult {
	o := options{maxErrorPercent: DefaultMaxErrorPercent}
	for _, opt := range opts {
		opt(&o)
	}

	errPct := ErrorPercent(model, empirical)
	res := SelectionResult{
		ModelValue:     model,
		EmpiricalValue: empirical,
		ErrorPercent:   errPct,
		IsReliable:     errPct < o.maxErrorPercent,
	}
	if res.IsReliable {
		res.SelectedValue = model
		res.SelectionMethod = MethodModel
	} else {
		res.SelectedValue = empirical
		res.SelectionMethod = MethodEmpirical
	}
	return res
}
