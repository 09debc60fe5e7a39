package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/YuminosukeSato/espsel/facade"
	"github.com/YuminosukeSato/espsel/ipr"
	"github.com/YuminosukeSato/espsel/predictor"
)

// run executes the root command with fresh global flag state.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, logLevel, modelDir, jsonOut = "", "", "", false
	inputFile, chartPath, lossChartDir, noProgress = "", "", "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const wellYAML = `
geopressure: 20
produce_index: 5
bht: 80
expected_production: 40
water_cut: 0.3
api: 30
gor: 100
saturation_pressure: 10
wellhead_pressure: 1.5
perforation_depth: 6000
pump_hanging_depth: 5000
`

// seedWells writes a production training table to a sqlite file.
func seedWells(t *testing.T, dsn string) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE wells (
		GeoPressure REAL, produce_index REAL, bht REAL, water_cut REAL, api REAL,
		gor REAL, saturation_pressure REAL, wellhead_pressure REAL, production REAL)`).Error)
	for i := 0; i < 20; i++ {
		pr := 15 + float64(i%7)
		pi := 3 + float64(i%4)
		q := pi * (pr - 12)
		require.NoError(t, db.Exec(`INSERT INTO wells VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			pr, pi, 70+float64(i%5), 0.2+0.01*float64(i), 30, 100, 10, 1.5, q).Error)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func TestParseTasks(t *testing.T) {
	tasks, err := parseTasks(nil)
	require.NoError(t, err)
	assert.Equal(t, predictor.Tasks, tasks)

	tasks, err = parseTasks([]string{"glr"})
	require.NoError(t, err)
	assert.Equal(t, []predictor.TaskName{predictor.TaskGLR}, tasks)

	_, err = parseTasks([]string{"pressure"})
	assert.Error(t, err)
}

func TestReadInput(t *testing.T) {
	dir := t.TempDir()
	in, err := readInput(writeFile(t, dir, "well.yaml", wellYAML))
	require.NoError(t, err)
	assert.Equal(t, 20.0, in.Geopressure)
	assert.Equal(t, 5000.0, in.PumpHangingDepth)

	in, err = readInput(writeFile(t, dir, "well.json", `{"gor": 120, "api": 28}`))
	require.NoError(t, err)
	assert.Equal(t, 120.0, in.GOR)

	_, err = readInput("")
	assert.Error(t, err)
}

func TestIPRCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "well.yaml", wellYAML)
	chart := filepath.Join(dir, "ipr.png")

	out, err := run(t, "ipr", "--json", "-i", input, "--chart", chart)
	require.NoError(t, err)

	var points []ipr.Point
	require.NoError(t, json.Unmarshal([]byte(out), &points))
	assert.Len(t, points, ipr.DefaultPoints)
	assert.Equal(t, 20.0, points[0].Pressure)
	assert.FileExists(t, chart)
}

func TestPredictWithoutModelsFallsBack(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "well.yaml", wellYAML)

	out, err := run(t, "predict", "--json", "-i", input, "--model-dir", filepath.Join(dir, "models"))
	require.NoError(t, err)

	var res facade.PredictionResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, facade.DefaultConfidence, res.Confidence)
	assert.InDelta(t, 40.0, res.Production, 1e-9)
	assert.Equal(t, facade.SourceFallback, res.Details[predictor.TaskHead].Source)
}

func TestTrainThenPredict(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "wells.db")
	seedWells(t, dsn)
	models := filepath.Join(dir, "models")
	config := writeFile(t, dir, "espsel.yaml", fmt.Sprintf(`
model_dir: %s
log_level: error
source:
  dsn: %s
  table: wells
feature_mapping:
  production:
    geopressure: GeoPressure
`, models, dsn))

	out, err := run(t, "train", "production", "-c", config, "--no-progress", "--json")
	require.NoError(t, err)
	var res predictor.TrainResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, predictor.TaskProduction, res.Task)
	assert.Equal(t, 16, res.TrainSamples)
	assert.FileExists(t, filepath.Join(models, "production", "production-Model"))

	out, err = run(t, "test", "production", "-c", config, "--json")
	require.NoError(t, err)
	var metrics map[string]map[string]float64
	require.NoError(t, json.Unmarshal([]byte(out), &metrics))
	assert.Contains(t, metrics["production"], "mape")

	input := writeFile(t, dir, "well.yaml", wellYAML)
	out, err = run(t, "predict", "-c", config, "-i", input, "--json")
	require.NoError(t, err)
	var pred facade.PredictionResult
	require.NoError(t, json.Unmarshal([]byte(out), &pred))
	assert.NotEqual(t, facade.SourceFallback, pred.Details[predictor.TaskProduction].Source)
	assert.Equal(t, facade.SourceFallback, pred.Details[predictor.TaskGLR].Source)
}
