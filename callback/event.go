// Package callback provides the synchronous event bus used to report
// training lifecycle events (start, end, per-epoch loss, progress, metrics)
// to observers such as loggers, progress bars or a UI adapter.
//
// Observers are diagnostic: a failing observer is logged and skipped, it
// never aborts the operation that published the event.
package callback

import "time"

// EventType tags a callback event.
type EventType string

const (
	TrainingStart  EventType = "training-start"
	TrainingEnd    EventType = "training-end"
	EpochEnd       EventType = "epoch-end"
	ProgressUpdate EventType = "progress-update"
	LossUpdate     EventType = "loss-update"
	MetricUpdate   EventType = "metric-update"
)

// Payload keys shared by publishers and observers.
const (
	KeyTask        = "task"
	KeyBackend     = "backend"
	KeyEpoch       = "epoch"
	KeyTotalEpochs = "total_epochs"
	KeyTrainLoss   = "train_loss"
	KeyValLoss     = "val_loss"
	KeyHistory     = "history"
	KeyPercent     = "percent"
	KeyStatus      = "status"
	KeyMetrics     = "metrics"
	KeyResult      = "result"
	KeyError       = "error"
	KeySamples     = "samples"
)

// Event is one notification published on a Bus.
// RunID and Seq are stamped by a RunPublisher; Seq increases by one per
// event within a run, so consumers can check ordering.
type Event struct {
	Type    EventType
	Payload map[string]any
	RunID   string
	Seq     uint64
	Time    time.Time
}

// NewEvent creates an event with the current time.
func NewEvent(t EventType, payload map[string]any) Event {
	if payload == nil {
		payload = map[string]any{}
	}
	return Event{Type: t, Payload: payload, Time: time.Now()}
}

// Float returns a numeric payload value, or 0 and false.
func (e Event) Float(key string) (float64, bool) {
	switch v := e.Payload[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// Int returns an integer payload value, or 0 and false.
func (e Event) Int(key string) (int, bool) {
	v, ok := e.Payload[key].(int)
	return v, ok
}

// String returns a string payload value, or "" and false.
func (e Event) String(key string) (string, bool) {
	v, ok := e.Payload[key].(string)
	return v, ok
}
