package resnet

import (
	"math"
	"math/rand/v2"
)

// Dense is a fully connected layer y = W·x + B with W stored row-major
// as Out rows of In columns.
type Dense struct {
	In, Out int
	W       []float64
	B       []float64
}

// newDense creates a layer with He-normal weights and zero bias.
func newDense(in, out int, rng *rand.Rand) Dense {
	d := Dense{In: in, Out: out, W: make([]float64, in*out), B: make([]float64, out)}
	std := math.Sqrt(2 / float64(in))
	for i := range d.W {
		d.W[i] = rng.NormFloat64() * std
	}
	return d
}

func (d *Dense) forward(x, out []float64) {
	for o := 0; o < d.Out; o++ {
		row := d.W[o*d.In : (o+1)*d.In]
		s := d.B[o]
		for i, w := range row {
			s += w * x[i]
		}
		out[o] = s
	}
}

// backward accumulates the gradients of the layer for upstream gradient
// dy and input x into g, and writes dL/dx into dx when dx is not nil.
func (d *Dense) backward(x, dy []float64, g *Dense, dx []float64) {
	if dx != nil {
		for i := range dx {
			dx[i] = 0
		}
	}
	for o := 0; o < d.Out; o++ {
		gy := dy[o]
		if gy == 0 {
			continue
		}
		g.B[o] += gy
		row := d.W[o*d.In : (o+1)*d.In]
		grow := g.W[o*d.In : (o+1)*d.In]
		for i := range row {
			grow[i] += gy * x[i]
			if dx != nil {
				dx[i] += gy * row[i]
			}
		}
	}
}

func (d *Dense) zeroLike() Dense {
	return Dense{In: d.In, Out: d.Out, W: make([]float64, len(d.W)), B: make([]float64, len(d.B))}
}

func (d *Dense) clone() Dense {
	return Dense{In: d.In, Out: d.Out, W: append([]float64(nil), d.W...), B: append([]float64(nil), d.B...)}
}

func (d *Dense) reset() {
	for i := range d.W {
		d.W[i] = 0
	}
	for i := range d.B {
		d.B[i] = 0
	}
}

func relu(v []float64) {
	for i, x := range v {
		if x < 0 {
			v[i] = 0
		}
	}
}
