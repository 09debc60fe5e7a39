package chart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/espsel/ipr"
)

func TestRenderIPR(t *testing.T) {
	points, err := ipr.Generate(ipr.Params{Pr: 20, Pb: 10, PI: 5, Points: 11})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ipr.png")
	require.NoError(t, RenderIPR(points, path, &OperatingPoint{Pressure: 12, Production: 40}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRenderIPRRejectsShortCurve(t *testing.T) {
	err := RenderIPR([]ipr.Point{{Pressure: 1}}, filepath.Join(t.TempDir(), "ipr.png"), nil)
	assert.Error(t, err)
}

func TestRenderLoss(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loss.svg")
	history := map[string][]float64{
		"loss":     {0.9, 0.5, 0.3},
		"val_loss": {1.0, 0.6, 0.4},
	}
	require.NoError(t, RenderLoss(history, path))
	_, err := os.Stat(path)
	assert.NoError(t, err)

	assert.Error(t, RenderLoss(map[string][]float64{"loss": nil}, path))
}
