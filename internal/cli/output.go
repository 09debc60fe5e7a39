package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/YuminosukeSato/espsel/facade"
	"github.com/YuminosukeSato/espsel/ipr"
	"github.com/YuminosukeSato/espsel/predictor"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printMetrics(w io.Writer, title string, m map[string]float64) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-8s %.6g\n", k, m[k])
	}
}

func printTrainResult(w io.Writer, res *predictor.TrainResult) error {
	if jsonOut {
		return printJSON(w, res)
	}
	fmt.Fprintf(w, "=== %s (%s) ===\n", res.Task, res.Backend)
	fmt.Fprintf(w, "run %s, %d train / %d test samples, %s\n",
		res.RunID, res.TrainSamples, res.TestSamples, res.Duration.Round(time.Millisecond))
	printMetrics(w, "train", res.Train)
	printMetrics(w, "test", res.Test)
	return nil
}

func printPrediction(w io.Writer, res *facade.PredictionResult) error {
	if jsonOut {
		return printJSON(w, res)
	}
	fmt.Fprintln(w, "=== Prediction ===")
	fmt.Fprintf(w, "Production: %.4g\n", res.Production)
	fmt.Fprintf(w, "Total head: %.4g\n", res.TotalHead)
	fmt.Fprintf(w, "Gas rate:   %.4g\n", res.GasRate)
	fmt.Fprintf(w, "Confidence: %.2f\n", res.Confidence)
	for _, task := range predictor.Tasks {
		q, ok := res.Details[task]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %-10s model=%.4g empirical=%.4g error=%.2f%% source=%s\n",
			task, q.ModelValue, q.EmpiricalValue, q.ErrorPercent, q.Source)
	}
	return nil
}

func printCurve(w io.Writer, points []ipr.Point) error {
	if jsonOut {
		return printJSON(w, points)
	}
	fmt.Fprintf(w, "%12s %12s\n", "pressure", "production")
	for _, p := range points {
		fmt.Fprintf(w, "%12.4f %12.4f\n", p.Pressure, p.Production)
	}
	return nil
}
