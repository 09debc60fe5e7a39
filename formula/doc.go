// Package formula implements the petroleum engineering correlations used as
// the empirical side of hybrid prediction.
//
// All functions are pure. Denominators that can reach zero are floored at
// errors.Epsilon and results that must be non-negative are clamped, so no
// function here returns an error.
package formula
