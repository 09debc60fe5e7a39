package dataclean

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/espsel/pkg/errors"
	"github.com/YuminosukeSato/espsel/pkg/log"
)

var features = []string{"geopressure", "bht", "water_cut"}

func cleanRows() []map[string]any {
	return []map[string]any{
		{"geopressure": 18.2, "bht": 92.0, "water_cut": 0.41, "production": 120.0},
		{"geopressure": 17.9, "bht": 95.0, "water_cut": 0.38, "production": 131.0},
		{"geopressure": 19.4, "bht": 90.0, "water_cut": 0.52, "production": 98.0},
		{"geopressure": 16.8, "bht": 88.0, "water_cut": 0.33, "production": 140.0},
		{"geopressure": 20.1, "bht": 97.0, "water_cut": 0.47, "production": 110.0},
	}
}

func silent() Option {
	return WithLogger(log.NewTestLogger(log.LevelDebug))
}

func TestCleanKeepsCleanRows(t *testing.T) {
	X, y, report, err := Clean(cleanRows(), features, "production", WithOutlierRemoval(false), silent())
	require.NoError(t, err)

	r, c := X.Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, []float64{120, 131, 98, 140, 110}, y)
	assert.Equal(t, 5, report.Original)
	assert.Equal(t, 5, report.Final)
	assert.Equal(t, 0, report.Removed())
	for _, s := range report.Steps {
		assert.Equal(t, 0, s.Removed, s.Name)
	}
	assert.Equal(t, 17.9, X.At(1, 0))
}

func TestCleanMissingColumns(t *testing.T) {
	_, _, _, err := Clean(cleanRows(), []string{"geopressure", "api", "gor"}, "production", silent())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMissingColumns))

	var dataErr *errors.DataError
	require.True(t, errors.As(err, &dataErr))
	assert.Equal(t, []string{"api", "gor"}, dataErr.Columns)
}

func TestCleanCoercesAndDrops(t *testing.T) {
	rows := cleanRows()
	rows = append(rows,
		map[string]any{"geopressure": " 18.0 ", "bht": 91, "water_cut": json.Number("0.4"), "production": true},
		map[string]any{"geopressure": "n/a", "bht": 91.0, "water_cut": 0.4, "production": 100.0},
		map[string]any{"geopressure": math.Inf(1), "bht": 91.0, "water_cut": 0.4, "production": 100.0},
		map[string]any{"geopressure": 18.0, "bht": nil, "water_cut": 0.4, "production": 100.0},
		map[string]any{"geopressure": 18.0, "water_cut": 0.4, "production": 100.0},
		map[string]any{"geopressure": "1,200", "bht": 91.0, "water_cut": 0.4, "production": 100.0},
	)

	X, y, report, err := Clean(rows, features, "production", silent())
	require.NoError(t, err)

	r, _ := X.Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 18.0, X.At(5, 0))
	assert.Equal(t, 91.0, X.At(5, 1))
	assert.Equal(t, 1.0, y[5])
	assert.Equal(t, 11, report.Original)
	assert.Equal(t, 5, report.Removed())
	assert.GreaterOrEqual(t, report.Converted, 4)
	assert.Equal(t, 2, report.Unconvertible)
	assert.Equal(t, 1, report.NonFinite)

	for i := 0; i < r; i++ {
		for j := 0; j < 3; j++ {
			v := X.At(i, j)
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
}

func TestCleanInsufficientSamples(t *testing.T) {
	rows := cleanRows()[:3]
	_, _, report, err := Clean(rows, features, "production", silent())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientSamples))
	require.NotNil(t, report)
	assert.Equal(t, 3, report.Final)
}

func TestCleanEmptyInput(t *testing.T) {
	_, _, report, err := Clean(nil, features, "production", silent())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientSamples))
	assert.False(t, errors.Is(err, errors.ErrMissingColumns))
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Final)
}

func TestCleanOutlierRemovalIntersection(t *testing.T) {
	rows := make([]map[string]any, 0, 100)
	for i := 1; i <= 99; i++ {
		rows = append(rows, map[string]any{
			"geopressure": float64(i),
			"bht":         90.0,
			"water_cut":   0.4,
			"production":  float64(i),
		})
	}
	rows = append(rows, map[string]any{
		"geopressure": 50.0, "bht": 90.0, "water_cut": 0.4, "production": 1e6,
	})

	_, y, report, err := Clean(rows, features, "production", WithOutlierRemoval(true), silent())
	require.NoError(t, err)

	assert.NotContains(t, y, 1e6)
	assert.Greater(t, report.Removed(), 0)
	require.Contains(t, report.Bounds, "production")
	assert.Less(t, report.Bounds["production"].Upper, 1e6)
	assert.Len(t, report.Steps, 3)
	assert.Equal(t, StepOutliers, report.Steps[2].Name)
}

func TestCleanRejectsBadQuantiles(t *testing.T) {
	_, _, _, err := Clean(cleanRows(), features, "production", WithQuantiles(0.9, 0.1), silent())
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestReportString(t *testing.T) {
	_, _, report, err := Clean(cleanRows(), features, "production", WithOutlierRemoval(true), WithQuantiles(0, 1), silent())
	require.NoError(t, err)

	s := report.String()
	assert.Contains(t, s, "original rows: 5")
	assert.Contains(t, s, "remove outliers: 5 -> 5 (removed 0)")
	assert.Contains(t, s, "final rows: 5")
}

func TestCleanLogsTrace(t *testing.T) {
	logger := log.NewTestLogger(log.LevelDebug)
	_, _, _, err := Clean(cleanRows(), features, "production", WithLogger(logger))
	require.NoError(t, err)
	assert.True(t, logger.ContainsMessage("Cleaning finished"))
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{in: 3, want: 3, ok: true},
		{in: " 2.5", want: 2.5, ok: true},
		{in: false, want: 0, ok: true},
		{in: json.Number("7"), want: 7, ok: true},
		{in: []byte("8"), want: 8, ok: true},
		{in: "abc"},
		{in: nil},
		{in: math.NaN()},
		{in: struct{}{}},
	}
	for _, tt := range tests {
		got, ok := Coerce(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestCleanLogsConversionAtDebug(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	t.Cleanup(func() { errors.SetWarningHandler(nil) })

	logger := log.NewTestLogger(log.LevelDebug)
	rows := cleanRows()
	rows[0]["bht"] = "92"
	_, _, report, err := Clean(rows, features, "production", WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Converted)

	assert.Empty(t, warnings)
	assert.True(t, logger.ContainsMessage("Cells coerced to float64"))
	assert.True(t, logger.ContainsField("converted", 1.0))
	assert.True(t, logger.ContainsMessage("1 cells coerced"))
}
