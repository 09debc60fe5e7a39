package formula

import (
	"math"

	"github.com/YuminosukeSato/espsel/pkg/errors"
)

// DefaultFrictionFactor is the tubing friction factor Kf.
const DefaultFrictionFactor = 0.017

// HeadInput are the inputs of the total dynamic head correlation. Depths
// are in feet and pressures in psi.
type HeadInput struct {
	PerforationDepth   float64
	PumpHangingDepth   float64
	WellheadPressure   float64 // Pwh
	BottomHolePressure float64 // Pperfs
	PumpMeasuredDepth  float64
	WaterRatio         float64
	API                float64
	// Kf is the friction factor; zero selects DefaultFrictionFactor.
	Kf float64
}

// FluidGradient returns the relative mixture density pfi of water and oil.
func FluidGradient(waterRatio, api float64) float64 {
	return waterRatio + (1-waterRatio)*141.5/(131.5+api)
}

// TotalHead returns the total dynamic head the pump must deliver, in feet.
func TotalHead(in HeadInput) float64 {
	kf := in.Kf
	if kf == 0 {
		kf = DefaultFrictionFactor
	}
	pfi := math.Max(FluidGradient(in.WaterRatio, in.API), errors.Epsilon)
	pwfPi := 0.433 * (in.PerforationDepth - in.PumpHangingDepth) * pfi
	head := in.PumpHangingDepth + (in.WellheadPressure-(in.BottomHolePressure-pwfPi))*2.31/pfi + kf*in.PumpMeasuredDepth
	return math.Abs(head)
}
