package cli

import (
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/espsel/chart"
	"github.com/YuminosukeSato/espsel/facade"
	"github.com/YuminosukeSato/espsel/pkg/log"
	"github.com/YuminosukeSato/espsel/predictor"
	"github.com/YuminosukeSato/espsel/source"
)

var (
	lossChartDir string
	noProgress   bool
)

var trainCmd = &cobra.Command{
	Use:   "train [task...]",
	Short: "Train and save task models from the configured source",
	Long: `Train reads the records of each task (production, head, glr; all when
none is given), cleans them, trains the task backend and writes the
artifacts to the model directory.`,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&lossChartDir, "loss-chart", "", "directory for training loss charts")
	trainCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	tasks, err := parseTasks(args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	src, err := source.Open(cfg.Source.Driver, cfg.Source.DSN)
	if err != nil {
		return err
	}
	defer src.Close()

	logger := log.GetLoggerWithName("cli")
	tc := cfg.ToTrainingConfig()
	out := cmd.OutOrStdout()

	for _, task := range tasks {
		X, y, report, err := loadSamples(ctx, src, task)
		if err != nil {
			return err
		}
		logger.Info("Samples cleaned",
			log.TaskKey, string(task),
			log.SamplesKey, report.Final,
			log.RemovedKey, report.Removed(),
		)

		backend, err := facade.NewBackend(task)
		if err != nil {
			return err
		}
		p := predictor.New(task, backend, predictor.WithTrainingConfig(tc))

		view := newTrainingView(cmd.ErrOrStderr(), string(task), !noProgress && !jsonOut)
		run := p.Start(ctx, X, y)
		for e := range run.Events() {
			_ = view.Notify(e)
		}
		res, err := run.Wait()
		if err != nil {
			return err
		}
		if err := p.Save(cfg.ModelDir); err != nil {
			return err
		}

		if lossChartDir != "" && len(view.history) > 0 {
			path := filepath.Join(lossChartDir, string(task)+"-loss.png")
			if err := chart.RenderLoss(view.history, path); err != nil {
				return err
			}
		}
		if err := printTrainResult(out, res); err != nil {
			return err
		}
	}
	return nil
}
