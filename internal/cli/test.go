package cli

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/espsel/source"
)

var testCmd = &cobra.Command{
	Use:   "test [task...]",
	Short: "Evaluate saved task models on the configured source",
	RunE:  runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	tasks, err := parseTasks(args)
	if err != nil {
		return err
	}
	f, err := newFacade()
	if err != nil {
		return err
	}
	src, err := source.Open(cfg.Source.Driver, cfg.Source.DSN)
	if err != nil {
		return err
	}
	defer src.Close()

	out := cmd.OutOrStdout()
	results := map[string]map[string]float64{}
	for _, task := range tasks {
		p, err := f.Predictor(task)
		if err != nil {
			return err
		}
		X, y, _, err := loadSamples(cmd.Context(), src, task)
		if err != nil {
			return err
		}
		res, err := p.Evaluate(X, y)
		if err != nil {
			return err
		}
		if jsonOut {
			results[string(task)] = res.Metrics
			continue
		}
		printMetrics(out, string(task), res.Metrics)
	}
	if jsonOut {
		return printJSON(out, results)
	}
	return nil
}
