package callback

import (
	"fmt"
	"sort"
	"strings"
)

// UIAdapter maps bus events onto the five notifications a UI consumes.
// Nil hooks are skipped.
type UIAdapter struct {
	Progress  func(percent float64, status string)
	Log       func(message string)
	Loss      func(epoch int, trainLoss, valLoss float64, history map[string][]float64)
	Completed func(name string, result map[string]any)
	Error     func(message string)
}

// Notify implements Observer.
func (u *UIAdapter) Notify(e Event) error {
	task, _ := e.String(KeyTask)

	switch e.Type {
	case TrainingStart:
		samples, _ := e.Int(KeySamples)
		u.log(fmt.Sprintf("training %s started on %d samples", task, samples))
	case ProgressUpdate:
		if u.Progress != nil {
			percent, _ := e.Float(KeyPercent)
			status, _ := e.String(KeyStatus)
			u.Progress(percent, status)
		}
	case LossUpdate:
		if u.Loss != nil {
			epoch, _ := e.Int(KeyEpoch)
			trainLoss, _ := e.Float(KeyTrainLoss)
			valLoss, _ := e.Float(KeyValLoss)
			history, _ := e.Payload[KeyHistory].(map[string][]float64)
			u.Loss(epoch, trainLoss, valLoss, history)
		}
	case MetricUpdate:
		if metrics, ok := e.Payload[KeyMetrics].(map[string]float64); ok {
			u.log(fmt.Sprintf("%s metrics: %s", task, formatMetrics(metrics)))
		}
	case TrainingEnd:
		if msg, failed := e.String(KeyError); failed {
			if u.Error != nil {
				u.Error(msg)
			}
			return nil
		}
		if u.Completed != nil {
			result, _ := e.Payload[KeyResult].(map[string]any)
			u.Completed(task, result)
		}
	}
	return nil
}

func (u *UIAdapter) log(message string) {
	if u.Log != nil {
		u.Log(message)
	}
}

func formatMetrics(m map[string]float64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%.4f", k, m[k])
	}
	return strings.Join(parts, " ")
}
