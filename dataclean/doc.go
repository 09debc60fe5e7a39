// Package dataclean turns raw tabular sample rows into a numeric feature
// matrix and target vector suitable for training.
//
// The pipeline selects the requested columns, coerces every value to
// float64, drops rows with missing or non-finite values and optionally
// removes outliers by quantile bounds. Every step is recorded in a Report.
//
//	X, y, report, err := dataclean.Clean(rows, features, "production",
//	    dataclean.WithOutlierRemoval(true))
package dataclean
