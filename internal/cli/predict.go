package cli

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/espsel/chart"
	"github.com/YuminosukeSato/espsel/facade"
)

var (
	inputFile string
	chartPath string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict production, total head and gas rate for one well",
	Long: `Predict reads a well description (YAML or JSON with the canonical
feature names) and reports each quantity with the value source.`,
	RunE: runPredict,
}

var iprCmd = &cobra.Command{
	Use:   "ipr",
	Short: "Print the inflow performance curve of one well",
	RunE:  runIPR,
}

func init() {
	for _, c := range []*cobra.Command{predictCmd, iprCmd} {
		c.Flags().StringVarP(&inputFile, "input", "i", "", "well description file")
		c.Flags().StringVar(&chartPath, "chart", "", "write the IPR chart to this path")
		rootCmd.AddCommand(c)
	}
}

func runPredict(cmd *cobra.Command, args []string) error {
	in, err := readInput(inputFile)
	if err != nil {
		return err
	}
	f, err := newFacade()
	if err != nil {
		return err
	}
	res, err := f.PredictAll(cmd.Context(), in)
	if err != nil {
		return err
	}
	if chartPath != "" {
		points, err := f.IPRCurve(in)
		if err != nil {
			return err
		}
		op := &chart.OperatingPoint{
			Pressure:   facade.OperatingPressure(in),
			Production: res.Production,
		}
		if err := chart.RenderIPR(points, chartPath, op); err != nil {
			return err
		}
	}
	return printPrediction(cmd.OutOrStdout(), res)
}

func runIPR(cmd *cobra.Command, args []string) error {
	in, err := readInput(inputFile)
	if err != nil {
		return err
	}
	f, err := newFacade()
	if err != nil {
		return err
	}
	points, err := f.IPRCurve(in)
	if err != nil {
		return err
	}
	if chartPath != "" {
		if err := chart.RenderIPR(points, chartPath, nil); err != nil {
			return err
		}
	}
	return printCurve(cmd.OutOrStdout(), points)
}
