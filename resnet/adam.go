package resnet

import "math"

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
	// gradClipNorm bounds the gradient norm of each layer per step.
	gradClipNorm = 5.0
)

type adamState struct {
	m, v *Network
	t    int
	lr   float64
}

func newAdam(n *Network, lr float64) *adamState {
	return &adamState{m: n.zeroLike(), v: n.zeroLike(), lr: lr}
}

// step applies one Adam update of grads g to n.
func (s *adamState) step(n, g *Network, clip func([]float64, float64)) {
	s.t++
	c1 := 1 - math.Pow(adamBeta1, float64(s.t))
	c2 := 1 - math.Pow(adamBeta2, float64(s.t))
	params, grads := n.layers(), g.layers()
	ms, vs := s.m.layers(), s.v.layers()
	for l := range params {
		clip(grads[l].W, gradClipNorm)
		clip(grads[l].B, gradClipNorm)
		update(params[l].W, grads[l].W, ms[l].W, vs[l].W, s.lr, c1, c2)
		update(params[l].B, grads[l].B, ms[l].B, vs[l].B, s.lr, c1, c2)
	}
}

func update(p, g, m, v []float64, lr, c1, c2 float64) {
	for i := range p {
		m[i] = adamBeta1*m[i] + (1-adamBeta1)*g[i]
		v[i] = adamBeta2*v[i] + (1-adamBeta2)*g[i]*g[i]
		p[i] -= lr * (m[i] / c1) / (math.Sqrt(v[i]/c2) + adamEpsilon)
	}
}
