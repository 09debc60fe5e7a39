package facade

import (
	"math"

	"github.com/YuminosukeSato/espsel/formula"
	"github.com/YuminosukeSato/espsel/ipr"
	"github.com/YuminosukeSato/espsel/predictor"
)

// OperatingPressure returns the assumed intake pressure 1.2·Pb, capped at
// the reservoir pressure.
func OperatingPressure(in predictor.PredictionInput) float64 {
	pi := formula.DefaultOperatingPressure(in.SaturationPressure)
	if in.Geopressure > 0 {
		pi = math.Min(pi, in.Geopressure)
	}
	return pi
}

// productivityIndex uses ProduceIndex when given and otherwise derives it
// from ExpectedProduction at the operating pressure.
func productivityIndex(in predictor.PredictionInput) float64 {
	if in.ProduceIndex > 0 {
		return in.ProduceIndex
	}
	pi, err := ipr.ProductivityIndex(in.ExpectedProduction, in.Geopressure, OperatingPressure(in), in.SaturationPressure)
	if err != nil {
		return 0
	}
	return pi
}

func iprParams(in predictor.PredictionInput, points int) ipr.Params {
	return ipr.Params{
		Pr:     in.Geopressure,
		Pb:     in.SaturationPressure,
		PI:     productivityIndex(in),
		Points: points,
	}
}

// EmpiricalProduction is the IPR inflow at the operating pressure.
func EmpiricalProduction(in predictor.PredictionInput) (float64, error) {
	return ipr.Inflow(iprParams(in, 0), OperatingPressure(in))
}

// EmpiricalTotalHead is the total dynamic head with pressures converted to
// psi and the pump measured depth taken as the hanging depth.
func EmpiricalTotalHead(in predictor.PredictionInput) float64 {
	return formula.TotalHead(formula.HeadInput{
		PerforationDepth:   in.PerforationDepth,
		PumpHangingDepth:   in.PumpHangingDepth,
		WellheadPressure:   formula.MPaToPSI(in.WellheadPressure),
		BottomHolePressure: formula.MPaToPSI(in.Geopressure),
		PumpMeasuredDepth:  in.PumpHangingDepth,
		WaterRatio:         formula.NormalizeWaterCut(in.WaterCut),
		API:                in.API,
	})
}

// EmpiricalGasRate is the gas-liquid ratio at the operating pressure 1.2·Pb.
func EmpiricalGasRate(in predictor.PredictionInput) float64 {
	return formula.GasLiquidRatio(formula.GLRInput{
		PiMPa:      formula.DefaultOperatingPressure(in.SaturationPressure),
		PbMPa:      in.SaturationPressure,
		T:          in.BHT,
		WaterRatio: formula.NormalizeWaterCut(in.WaterCut),
		GOR:        in.GOR,
	})
}
