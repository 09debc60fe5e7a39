package predictor

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/espsel/callback"
	"github.com/YuminosukeSato/espsel/pkg/errors"
)

// Task is a training run executing on its own goroutine.
type Task struct {
	runID  string
	obs    *callback.ChannelObserver
	cancel context.CancelFunc
	done   chan struct{}

	once sync.Once
	res  *TrainResult
	err  error
}

// Start runs Train in the background. Events of the run are delivered in
// order on Task.Events, which is closed when the run ends. Events must be
// drained for the forwarding goroutine to exit.
func (p *Predictor) Start(ctx context.Context, X *mat.Dense, y []float64) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		runID:  uuid.NewString(),
		obs:    callback.NewChannelObserver(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	if !p.running.CompareAndSwap(false, true) {
		t.finish(nil, errors.NewTrainingError(string(p.task), errors.ErrAlreadyRunning, nil))
		return t
	}

	fanout := callback.PublisherFunc(func(e callback.Event) {
		p.bus.Publish(e)
		_ = t.obs.Notify(e)
	})
	go func() {
		res, err := p.train(ctx, X, y, callback.NewRunPublisher(fanout, t.runID))
		p.running.Store(false)
		t.finish(res, err)
	}()
	return t
}

func (t *Task) finish(res *TrainResult, err error) {
	t.once.Do(func() {
		t.res, t.err = res, err
		t.obs.Close()
		t.cancel()
		close(t.done)
	})
}

// RunID returns the identifier stamped on every event of the run.
func (t *Task) RunID() string { return t.runID }

// Events returns the ordered event stream of the run.
func (t *Task) Events() <-chan callback.Event { return t.obs.Events() }

// Done is closed when the run has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel asks the run to stop at the next iteration boundary.
func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the run finishes and returns its outcome. Events not
// yet received are dropped and the Events channel is closed, so range over
// Events before calling Wait to see the whole stream.
func (t *Task) Wait() (*TrainResult, error) {
	<-t.done
	t.obs.Discard()
	return t.res, t.err
}
