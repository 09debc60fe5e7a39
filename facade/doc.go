// Package facade combines the three task predictors with the empirical
// correlations into a single well prediction.
//
// Predictors are loaded from <ModelDir>/<task> on first use and cached.
// A quantity whose model cannot be loaded or evaluated falls back to its
// empirical value instead of failing the whole prediction.
package facade
