package model

import (
	"github.com/YuminosukeSato/espsel/pkg/errors"
)

// InfoVersion is written into every ModelInfo produced by this build.
const InfoVersion = "1.0.0"

// ModelInfo identifies the artifacts stored in one task directory.
type ModelInfo struct {
	// Task is the prediction task ("production", "head", "glr").
	Task string `yaml:"task" json:"task"`

	// Backend is the backend type tag.
	Backend BackendType `yaml:"backend" json:"backend"`

	// Version of the artifact layout.
	Version string `yaml:"version" json:"version"`

	// Features lists the canonical feature order the model was trained on.
	Features []string `yaml:"features,omitempty" json:"features,omitempty"`

	// Metrics holds the test metrics of the saved run.
	Metrics map[string]float64 `yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

// NewModelInfo creates a ModelInfo at the current layout version.
func NewModelInfo(task string, backend BackendType, features []string) ModelInfo {
	return ModelInfo{
		Task:     task,
		Backend:  backend,
		Version:  InfoVersion,
		Features: append([]string(nil), features...),
	}
}

// Validate checks the mandatory fields.
func (mi ModelInfo) Validate() error {
	if mi.Task == "" {
		return errors.NewValidationError("task", "is required", mi.Task)
	}
	switch mi.Backend {
	case BackendSVR, BackendResidualNet:
	default:
		return errors.NewValidationError("backend", "unknown backend type", mi.Backend)
	}
	if mi.Version == "" {
		return errors.NewValidationError("version", "is required", mi.Version)
	}
	return nil
}
