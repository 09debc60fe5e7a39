// Package ipr generates inflow performance relationship curves: production
// rate as a function of flowing bottom-hole pressure.
//
// Above the saturation pressure inflow is linear in the drawdown. Below it
// the Vogel correlation applies.
package ipr

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/espsel/pkg/errors"
)

// DefaultPoints is the number of points generated when Params.Points is 0.
const DefaultPoints = 36

// Params describe one well. Pressures share a unit and PI is expressed in
// rate per that unit.
type Params struct {
	Pr     float64 // reservoir pressure
	Pb     float64 // saturation (bubble point) pressure
	PI     float64 // productivity index
	Points int
}

// Point is one (pressure, production) sample of the curve.
type Point struct {
	Pressure   float64 `json:"pressure"`
	Production float64 `json:"production"`
}

func (p Params) normalize() (Params, error) {
	if p.Points == 0 {
		p.Points = DefaultPoints
	}
	if !(p.Pr > 0) {
		return p, errors.NewValueError("ipr", "reservoir pressure must be positive")
	}
	if p.PI < 0 || math.IsNaN(p.PI) {
		return p, errors.NewValueError("ipr", "productivity index must not be negative")
	}
	if p.Points < 2 {
		return p, errors.NewValueError("ipr", "at least 2 points are required")
	}
	p.Pb = errors.ClipValue(p.Pb, 0, p.Pr)
	return p, nil
}

func (p Params) inflow(pwf float64) float64 {
	var q float64
	if pwf >= p.Pb {
		q = p.PI * (p.Pr - pwf)
	} else {
		r := pwf / p.Pb
		q = p.PI*(p.Pr-p.Pb) + p.PI*p.Pb/1.8*(1-0.2*r-0.8*r*r)
	}
	return math.Max(0, q)
}

// Generate returns the curve from Pr down to 0 inclusive with pressures
// stepped linearly, sorted by descending pressure.
func Generate(p Params) ([]Point, error) {
	p, err := p.normalize()
	if err != nil {
		return nil, err
	}

	points := make([]Point, p.Points)
	step := p.Pr / float64(p.Points-1)
	for i := range points {
		pwf := p.Pr - float64(i)*step
		if i == p.Points-1 {
			pwf = 0
		}
		points[i] = Point{Pressure: pwf, Production: p.inflow(pwf)}
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Pressure > points[j].Pressure
	})
	return points, nil
}

// Inflow evaluates the curve at a single flowing pressure. pwf is clamped to
// [0, Pr].
func Inflow(p Params, pwf float64) (float64, error) {
	p, err := p.normalize()
	if err != nil {
		return 0, err
	}
	return p.inflow(errors.ClipValue(pwf, 0, p.Pr)), nil
}

// MaxRate returns the absolute open flow, the rate at zero flowing pressure.
func MaxRate(p Params) (float64, error) {
	return Inflow(p, 0)
}

// ProductivityIndex derives PI from a rate q observed at flowing pressure
// pwf, inverting the inflow relation for the matching region.
func ProductivityIndex(q, pr, pwf, pb float64) (float64, error) {
	if !(pr > 0) {
		return 0, errors.NewValueError("ipr.ProductivityIndex", "reservoir pressure must be positive")
	}
	if pwf < 0 || pwf >= pr {
		return 0, errors.NewValueError("ipr.ProductivityIndex", "flowing pressure must lie in [0, Pr)")
	}
	if q < 0 {
		return 0, errors.NewValueError("ipr.ProductivityIndex", "rate must not be negative")
	}
	pb = errors.ClipValue(pb, 0, pr)

	var unit float64
	if pwf >= pb {
		unit = pr - pwf
	} else {
		r := pwf / pb
		unit = (pr - pb) + pb/1.8*(1-0.2*r-0.8*r*r)
	}
	return errors.SafeDivide(q, unit), nil
}
