// Package model provides the lifecycle state, backend contract and
// persistence helpers shared by every trainable backend.
package model

import (
	"sync"
)

// EstimatorState is the fit state of a transformer or backend.
type EstimatorState int

const (
	// NotFitted means Fit has not run.
	NotFitted EstimatorState = iota
	// Fitted means Fit has completed.
	Fitted
)

// BaseEstimator is the fit state embedded in transformers.
// Its field is exported so gob can persist it.
type BaseEstimator struct {
	State EstimatorState
}

// IsFitted reports whether Fit has completed.
func (e *BaseEstimator) IsFitted() bool {
	return e.State == Fitted
}

// SetFitted marks the estimator fitted.
func (e *BaseEstimator) SetFitted() {
	e.State = Fitted
}

// Reset returns to the unfitted state.
func (e *BaseEstimator) Reset() {
	e.State = NotFitted
}

// Lifecycle is the Predictor state machine: Untrained → Trained → Tested.
// Tested only records that an evaluation ran at least once; prediction is
// legal in both Trained and Tested.
type Lifecycle int

const (
	Untrained Lifecycle = iota
	Trained
	Tested
)

func (l Lifecycle) String() string {
	switch l {
	case Untrained:
		return "untrained"
	case Trained:
		return "trained"
	case Tested:
		return "tested"
	default:
		return "unknown"
	}
}

// StateManager guards a Lifecycle together with the training dimensions.
type StateManager struct {
	mu        sync.RWMutex
	state     Lifecycle
	nFeatures int
	nSamples  int
}

// NewStateManager creates a StateManager in the Untrained state.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// State returns the current lifecycle state.
func (s *StateManager) State() Lifecycle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsTrained reports whether prediction is allowed.
func (s *StateManager) IsTrained() bool {
	return s.State() >= Trained
}

// MarkTrained records a finished training run or a successful load.
func (s *StateManager) MarkTrained(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Trained
	s.nFeatures = nFeatures
	s.nSamples = nSamples
}

// MarkTested moves Trained to Tested. It is a no-op when untrained.
func (s *StateManager) MarkTested() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Trained {
		s.state = Tested
	}
}

// Reset returns to Untrained.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Untrained
	s.nFeatures = 0
	s.nSamples = 0
}

// Dimensions returns the number of features and samples seen during training.
func (s *StateManager) Dimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nSamples
}
