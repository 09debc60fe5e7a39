package cli

import (
	"context"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/espsel/dataclean"
	"github.com/YuminosukeSato/espsel/facade"
	"github.com/YuminosukeSato/espsel/pkg/errors"
	"github.com/YuminosukeSato/espsel/predictor"
	"github.com/YuminosukeSato/espsel/source"
)

// parseTasks returns every task when args is empty.
func parseTasks(args []string) ([]predictor.TaskName, error) {
	if len(args) == 0 {
		return append([]predictor.TaskName(nil), predictor.Tasks...), nil
	}
	tasks := make([]predictor.TaskName, len(args))
	for i, a := range args {
		t, err := predictor.ParseTask(a)
		if err != nil {
			return nil, err
		}
		tasks[i] = t
	}
	return tasks, nil
}

// loadSamples reads the records of task from the configured source and
// cleans them into a design matrix in canonical feature order.
func loadSamples(ctx context.Context, src *source.SQLSource, task predictor.TaskName) (*mat.Dense, []float64, *dataclean.Report, error) {
	mapping := facade.FeatureMapping(cfg.Mapping(task))
	target := cfg.Target(task)
	columns := append(mapping.Columns(task), target)

	rows, err := src.Rows(ctx, cfg.Table(task), columns)
	if err != nil {
		return nil, nil, nil, err
	}
	return dataclean.Clean(mapping.Canonicalize(rows), predictor.Features(task), target,
		dataclean.WithOutlierRemoval(cfg.Cleaning.RemoveOutliers),
		dataclean.WithQuantiles(cfg.Cleaning.LowerQuantile, cfg.Cleaning.UpperQuantile),
	)
}

// readInput decodes a PredictionInput from a YAML or JSON file.
func readInput(path string) (predictor.PredictionInput, error) {
	var in predictor.PredictionInput
	if path == "" {
		return in, errors.NewValidationError("input", "an input file is required", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return in, errors.Wrap(err, "failed to read input file")
	}
	if err := yaml.Unmarshal(data, &in); err != nil {
		return in, errors.Wrap(err, "failed to parse input file")
	}
	return in, nil
}

func newFacade() (*facade.Facade, error) {
	return facade.New(facade.Config{
		ModelDir:        cfg.ModelDir,
		MaxErrorPercent: cfg.MaxErrorPercent,
		IPRPoints:       cfg.IPRPoints,
		Training:        cfg.ToTrainingConfig(),
	})
}
