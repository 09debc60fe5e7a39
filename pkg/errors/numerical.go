package errors

import (
	"math"
)

// Epsilon is the floor applied to denominators that may reach zero.
const Epsilon = 1e-9

// CheckNumericalStability checks if values contain NaN or Inf
// and returns an error if numerical instability is detected.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckScalar checks a single scalar value for numerical instability.
func CheckScalar(operation string, value float64, iteration int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

// FloorAbs keeps the sign of value but raises its magnitude to at least eps.
// Zero is mapped to +eps.
func FloorAbs(value, eps float64) float64 {
	if math.Abs(value) >= eps {
		return value
	}
	if value < 0 {
		return -eps
	}
	return eps
}

// SafeDivide divides numerator by denominator floored at Epsilon in magnitude.
func SafeDivide(numerator, denominator float64) float64 {
	return numerator / FloorAbs(denominator, Epsilon)
}

// ClipValue clips a value to the range [min, max].
func ClipValue(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClipGradient clips gradient values in place to prevent explosion.
func ClipGradient(gradient []float64, maxNorm float64) {
	var norm float64
	for _, g := range gradient {
		norm += g * g
	}
	norm = math.Sqrt(norm)

	if norm > maxNorm {
		scale := maxNorm / norm
		for i := range gradient {
			gradient[i] *= scale
		}
	}
}
