package model

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/espsel/callback"
)

// BackendType tags a backend implementation.
type BackendType string

const (
	BackendSVR         BackendType = "svr"
	BackendResidualNet BackendType = "residual-net"
)

// Trainable is the contract every regression backend implements. A
// backend instance belongs to exactly one Predictor.
//
// Fit receives only the training partition. Iterative backends publish
// epoch-end, progress-update and loss-update events on pub and must return
// ctx.Err() promptly once ctx is done. PredictBatch must not mutate the
// backend so it can be called concurrently after Fit or Load.
type Trainable interface {
	Type() BackendType
	Fit(ctx context.Context, X *mat.Dense, y []float64, pub callback.Publisher) (map[string]float64, error)
	PredictBatch(X mat.Matrix) ([]float64, error)
	Save(store ArtifactStore) error
	Load(store ArtifactStore) error
}

// ArtifactStore persists named, gob-encoded artifacts of one task.
type ArtifactStore interface {
	// Put encodes v under key.
	Put(key string, v any) error
	// Get decodes key into v. A missing key yields a ModelLoadError of kind
	// ErrMissingArtifact, a decode failure one of kind ErrCorruptArtifact.
	Get(key string, v any) error
	// Has reports whether key exists.
	Has(key string) bool
	// Path returns the on-disk location of key.
	Path(key string) string
}
