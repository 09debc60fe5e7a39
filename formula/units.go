package formula

// PSIPerMPa converts megapascals to pounds per square inch.
const PSIPerMPa = 145.0377

// MPaToPSI converts a pressure in MPa to psi.
func MPaToPSI(mpa float64) float64 { return mpa * PSIPerMPa }

// PSIToMPa converts a pressure in psi to MPa.
func PSIToMPa(psi float64) float64 { return psi / PSIPerMPa }

// OperatingPressureFactor scales the saturation pressure into the assumed
// pump intake pressure.
//
// The factor has no engineering derivation behind it and is kept only so
// results line up with existing field reports.
const OperatingPressureFactor = 1.2

// DefaultOperatingPressure returns the assumed operating pressure for a
// saturation pressure pb, in the same unit as pb.
func DefaultOperatingPressure(pb float64) float64 {
	return pb * OperatingPressureFactor
}

// NormalizeWaterCut returns a water cut as a fraction. Values above 1 are
// read as percent. The result is clamped to [0, 1].
func NormalizeWaterCut(wc float64) float64 {
	if wc > 1 {
		wc /= 100
	}
	if wc < 0 {
		return 0
	}
	if wc > 1 {
		return 1
	}
	return wc
}
