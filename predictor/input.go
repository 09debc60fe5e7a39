package predictor

import (
	"math"

	"github.com/YuminosukeSato/espsel/core/model"
	"github.com/YuminosukeSato/espsel/pkg/errors"
)

// TaskName identifies a prediction task.
type TaskName string

const (
	TaskProduction TaskName = "production"
	TaskHead       TaskName = "head"
	TaskGLR        TaskName = "glr"
)

// Tasks lists every task in report order.
var Tasks = []TaskName{TaskProduction, TaskHead, TaskGLR}

// Canonical feature names.
const (
	FeatureGeopressure        = "geopressure"
	FeatureProduceIndex       = "produce_index"
	FeatureBHT                = "bht"
	FeatureExpectedProduction = "expected_production"
	FeatureWaterCut           = "water_cut"
	FeatureAPI                = "api"
	FeatureGOR                = "gor"
	FeatureSaturationPressure = "saturation_pressure"
	FeatureWellheadPressure   = "wellhead_pressure"
	FeaturePerforationDepth   = "perforation_depth"
	FeaturePumpHangingDepth   = "pump_hanging_depth"
)

var taskFeatures = map[TaskName][]string{
	TaskProduction: {
		FeatureGeopressure, FeatureProduceIndex, FeatureBHT, FeatureWaterCut,
		FeatureAPI, FeatureGOR, FeatureSaturationPressure, FeatureWellheadPressure,
	},
	TaskHead: {
		FeaturePerforationDepth, FeaturePumpHangingDepth, FeatureWellheadPressure,
		FeatureGeopressure, FeatureWaterCut, FeatureAPI, FeatureExpectedProduction,
	},
	TaskGLR: {
		FeatureGeopressure, FeatureSaturationPressure, FeatureBHT, FeatureWaterCut, FeatureGOR,
	},
}

var taskBackends = map[TaskName]model.BackendType{
	TaskProduction: model.BackendSVR,
	TaskHead:       model.BackendSVR,
	TaskGLR:        model.BackendResidualNet,
}

// Features returns the canonical feature order of task, or nil for an
// unknown task.
func Features(task TaskName) []string {
	return append([]string(nil), taskFeatures[task]...)
}

// BackendOf returns the backend type used for task.
func BackendOf(task TaskName) (model.BackendType, bool) {
	b, ok := taskBackends[task]
	return b, ok
}

// ParseTask validates a task name.
func ParseTask(s string) (TaskName, error) {
	t := TaskName(s)
	if _, ok := taskFeatures[t]; !ok {
		return "", errors.NewValidationError("task", "unknown task", s)
	}
	return t, nil
}

// PredictionInput holds the physical quantities of one well.
type PredictionInput struct {
	Geopressure        float64 `json:"geopressure" yaml:"geopressure"`                 // MPa
	ProduceIndex       float64 `json:"produce_index" yaml:"produce_index"`             // m³/d/MPa
	BHT                float64 `json:"bht" yaml:"bht"`                                 // °C
	ExpectedProduction float64 `json:"expected_production" yaml:"expected_production"` // m³/d
	WaterCut           float64 `json:"water_cut" yaml:"water_cut"`                     // fraction, >1 read as percent
	API                float64 `json:"api" yaml:"api"`
	GOR                float64 `json:"gor" yaml:"gor"`                                 // m³/m³
	SaturationPressure float64 `json:"saturation_pressure" yaml:"saturation_pressure"` // MPa
	WellheadPressure   float64 `json:"wellhead_pressure" yaml:"wellhead_pressure"`     // MPa
	PerforationDepth   float64 `json:"perforation_depth" yaml:"perforation_depth"`     // ft
	PumpHangingDepth   float64 `json:"pump_hanging_depth" yaml:"pump_hanging_depth"`   // ft
}

// Value returns the named canonical feature.
func (in PredictionInput) Value(feature string) (float64, bool) {
	switch feature {
	case FeatureGeopressure:
		return in.Geopressure, true
	case FeatureProduceIndex:
		return in.ProduceIndex, true
	case FeatureBHT:
		return in.BHT, true
	case FeatureExpectedProduction:
		return in.ExpectedProduction, true
	case FeatureWaterCut:
		return in.WaterCut, true
	case FeatureAPI:
		return in.API, true
	case FeatureGOR:
		return in.GOR, true
	case FeatureSaturationPressure:
		return in.SaturationPressure, true
	case FeatureWellheadPressure:
		return in.WellheadPressure, true
	case FeaturePerforationDepth:
		return in.PerforationDepth, true
	case FeaturePumpHangingDepth:
		return in.PumpHangingDepth, true
	}
	return 0, false
}

// Set assigns the named canonical feature.
func (in *PredictionInput) Set(feature string, v float64) bool {
	switch feature {
	case FeatureGeopressure:
		in.Geopressure = v
	case FeatureProduceIndex:
		in.ProduceIndex = v
	case FeatureBHT:
		in.BHT = v
	case FeatureExpectedProduction:
		in.ExpectedProduction = v
	case FeatureWaterCut:
		in.WaterCut = v
	case FeatureAPI:
		in.API = v
	case FeatureGOR:
		in.GOR = v
	case FeatureSaturationPressure:
		in.SaturationPressure = v
	case FeatureWellheadPressure:
		in.WellheadPressure = v
	case FeaturePerforationDepth:
		in.PerforationDepth = v
	case FeaturePumpHangingDepth:
		in.PumpHangingDepth = v
	default:
		return false
	}
	return true
}

// Vector projects in onto the canonical feature order of task.
func (in PredictionInput) Vector(task TaskName) ([]float64, error) {
	features, ok := taskFeatures[task]
	if !ok {
		return nil, errors.NewValidationError("task", "unknown task", string(task))
	}
	out := make([]float64, len(features))
	for i, f := range features {
		v, _ := in.Value(f)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.NewInvalidInputError(string(task), "Predict", f+" is not finite")
		}
		out[i] = v
	}
	return out, nil
}
