package formula

import (
	"math"

	"github.com/YuminosukeSato/espsel/pkg/errors"
)

// GLRConstants are the fluid constants of the gas-liquid ratio correlation.
// A zero field selects its default.
type GLRConstants struct {
	Z  float64 // gas deviation factor
	Rg float64 // gas relative density
	Ro float64 // oil relative density
}

// DefaultGLRConstants returns Z=0.8, Rg=0.896, Ro=0.849.
func DefaultGLRConstants() GLRConstants {
	return GLRConstants{Z: 0.8, Rg: 0.896, Ro: 0.849}
}

func (c GLRConstants) withDefaults() GLRConstants {
	d := DefaultGLRConstants()
	if c.Z == 0 {
		c.Z = d.Z
	}
	if c.Rg == 0 {
		c.Rg = d.Rg
	}
	if c.Ro == 0 {
		c.Ro = d.Ro
	}
	return c
}

// GLRInput are the inputs of the gas-liquid ratio at pump intake.
type GLRInput struct {
	PiMPa      float64 // pump intake (operating) pressure
	PbMPa      float64 // saturation pressure
	T          float64 // bottom-hole temperature in °C
	WaterRatio float64 // water cut as a fraction
	GOR        float64 // production gas-oil ratio in m³/m³
	Constants  GLRConstants
}

type glrTerms struct {
	rsp, bg, bo float64
}

func (in GLRInput) terms() glrTerms {
	c := in.Constants.withDefaults()
	tf := 1.8*in.T + 32

	f13 := math.Pow(10, 0.0125*(141.5/c.Ro-131.5))
	f14 := math.Pow(10, 0.00091*tf)
	base := 10 * in.PbMPa * f13 / f14
	rsp := 0.0
	if base > 0 {
		rsp = 0.1342 * c.Rg * math.Pow(base, 1/0.83)
	}
	bg := 0.0003458 * c.Z * (in.T + 273) / math.Max(in.PiMPa, errors.Epsilon)
	bo := 0.972 + 0.000147*math.Pow(5.61*rsp*math.Sqrt(c.Rg/c.Ro)+1.25*tf, 1.175)
	return glrTerms{rsp: rsp, bg: bg, bo: bo}
}

// SolutionGOR returns the saturated solution gas-oil ratio Rsp at the
// saturation pressure.
func SolutionGOR(in GLRInput) float64 {
	return in.terms().rsp
}

// GasLiquidRatio returns the free gas percentage at pump intake using the
// continuous correlation. With WaterRatio = 1 the numerator vanishes and
// the result is 0.
func GasLiquidRatio(in GLRInput) float64 {
	t := in.terms()
	return freeGasPercent(in.WaterRatio, in.GOR-t.rsp, t.bg, t.bo)
}

// GasLiquidRatioPiecewise is the older branch based variant. Above the
// saturation pressure all gas stays in solution and the result is 0.
// Below it the solution gas is scaled to the intake pressure before the
// free gas term is computed.
//
// Hybrid prediction uses GasLiquidRatio. This variant is kept for
// comparing against reports produced with it.
func GasLiquidRatioPiecewise(in GLRInput) float64 {
	if in.PiMPa >= in.PbMPa {
		return 0
	}
	t := in.terms()
	rs := t.rsp * math.Pow(math.Max(in.PiMPa, 0)/math.Max(in.PbMPa, errors.Epsilon), 1/0.83)
	return freeGasPercent(in.WaterRatio, in.GOR-rs, t.bg, t.bo)
}

func freeGasPercent(wr, freeGOR, bg, bo float64) float64 {
	oil := 1 - wr
	num := oil * freeGOR * bg
	den := oil*bo + oil*freeGOR*bg + wr
	return math.Max(0, math.Abs(errors.SafeDivide(num, den))*100)
}
