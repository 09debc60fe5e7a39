package resnet

import "math"

// EarlyStopping tracks the best validation loss and counts epochs without
// improvement.
type EarlyStopping struct {
	Patience        int     // epochs without improvement before stopping
	BestScore       float64 // best validation loss so far
	BestEpoch       int     // epoch with the best loss
	RoundsNoImprove int     // epochs since the last improvement
	Enabled         bool
}

// NewEarlyStopping creates a handler. patience <= 0 disables stopping while
// still tracking the best epoch.
func NewEarlyStopping(patience int) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		BestScore: math.Inf(1),
		BestEpoch: -1,
		Enabled:   patience > 0,
	}
}

// Update records the loss of epoch and reports whether it improved and
// whether training should stop.
func (es *EarlyStopping) Update(epoch int, loss float64) (improved, stop bool) {
	if loss < es.BestScore {
		es.BestScore = loss
		es.BestEpoch = epoch
		es.RoundsNoImprove = 0
		improved = true
	} else {
		es.RoundsNoImprove++
	}
	return improved, es.ShouldStop()
}

// ShouldStop reports whether patience is exhausted.
func (es *EarlyStopping) ShouldStop() bool {
	return es.Enabled && es.RoundsNoImprove >= es.Patience
}
