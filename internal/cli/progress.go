package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/cheggaaa/pb/v3"

	"github.com/YuminosukeSato/espsel/callback"
)

// trainingView renders the events of one run: a progress bar plus log
// lines on w. It keeps the latest loss history for charting.
type trainingView struct {
	w       io.Writer
	bar     *pb.ProgressBar
	ui      *callback.UIAdapter
	history map[string][]float64
}

func newTrainingView(w io.Writer, task string, showProgress bool) *trainingView {
	v := &trainingView{w: w}
	if showProgress {
		v.bar = pb.New(100)
		v.bar.SetWriter(w)
		v.bar.Set("prefix", task+" ")
		v.bar.Start()
	}
	v.ui = &callback.UIAdapter{
		Progress: func(percent float64, status string) {
			if v.bar != nil {
				v.bar.SetCurrent(int64(percent))
			}
		},
		Log: func(message string) {
			if v.bar == nil {
				fmt.Fprintln(w, message)
			}
		},
		Loss: func(epoch int, trainLoss, valLoss float64, history map[string][]float64) {
			v.history = history
		},
		Completed: func(name string, result map[string]any) {
			v.finish()
			fmt.Fprintf(w, "%s trained\n", name)
		},
		Error: func(message string) {
			v.finish()
			fmt.Fprintf(w, "training failed: %s\n", strings.TrimSpace(message))
		},
	}
	return v
}

// Notify implements callback.Observer.
func (v *trainingView) Notify(e callback.Event) error { return v.ui.Notify(e) }

func (v *trainingView) finish() {
	if v.bar != nil {
		v.bar.SetCurrent(100)
		v.bar.Finish()
		v.bar = nil
	}
}
