package resnet

import (
	"math/rand/v2"
)

// Block is one residual block: ReLU(x + B·dropout(ReLU(A·x))).
type Block struct {
	A, B Dense
}

// Network is the residual regression network.
type Network struct {
	Input  Dense
	Blocks []Block
	Output Dense
	// Dropout is the drop probability applied inside every block during
	// training.
	Dropout float64
}

func newNetwork(in, hidden, blocks int, dropout float64, rng *rand.Rand) *Network {
	n := &Network{
		Input:   newDense(in, hidden, rng),
		Blocks:  make([]Block, blocks),
		Output:  newDense(hidden, 1, rng),
		Dropout: dropout,
	}
	for i := range n.Blocks {
		n.Blocks[i] = Block{A: newDense(hidden, hidden, rng), B: newDense(hidden, hidden, rng)}
	}
	return n
}

// layers returns every dense layer in a fixed order.
func (n *Network) layers() []*Dense {
	ls := make([]*Dense, 0, 2+2*len(n.Blocks))
	ls = append(ls, &n.Input)
	for i := range n.Blocks {
		ls = append(ls, &n.Blocks[i].A, &n.Blocks[i].B)
	}
	return append(ls, &n.Output)
}

func (n *Network) clone() *Network {
	c := &Network{Input: n.Input.clone(), Output: n.Output.clone(), Dropout: n.Dropout, Blocks: make([]Block, len(n.Blocks))}
	for i, b := range n.Blocks {
		c.Blocks[i] = Block{A: b.A.clone(), B: b.B.clone()}
	}
	return c
}

func (n *Network) zeroLike() *Network {
	c := &Network{Input: n.Input.zeroLike(), Output: n.Output.zeroLike(), Blocks: make([]Block, len(n.Blocks))}
	for i, b := range n.Blocks {
		c.Blocks[i] = Block{A: b.A.zeroLike(), B: b.B.zeroLike()}
	}
	return c
}

func (n *Network) hidden() int { return n.Input.Out }

// Predict evaluates the network without dropout. It does not mutate n.
func (n *Network) Predict(x []float64) float64 {
	h := make([]float64, n.hidden())
	a := make([]float64, n.hidden())
	c := make([]float64, n.hidden())
	n.Input.forward(x, h)
	relu(h)
	for i := range n.Blocks {
		b := &n.Blocks[i]
		b.A.forward(h, a)
		relu(a)
		b.B.forward(a, c)
		for j := range h {
			h[j] += c[j]
		}
		relu(h)
	}
	var out [1]float64
	n.Output.forward(h, out[:])
	return out[0]
}

// trace keeps the activations of one training forward pass.
type trace struct {
	x     []float64
	h     [][]float64 // h[0] input projection, h[k+1] output of block k
	a     [][]float64 // post-ReLU inner activation of block k
	d     [][]float64 // a after dropout
	scale [][]float64 // dropout multiplier per unit (0 or 1/(1-p))
	out   float64
}

func (n *Network) newTrace() *trace {
	H, k := n.hidden(), len(n.Blocks)
	t := &trace{h: make([][]float64, k+1), a: make([][]float64, k), d: make([][]float64, k), scale: make([][]float64, k)}
	for i := range t.h {
		t.h[i] = make([]float64, H)
	}
	for i := 0; i < k; i++ {
		t.a[i] = make([]float64, H)
		t.d[i] = make([]float64, H)
		t.scale[i] = make([]float64, H)
	}
	return t
}

func (n *Network) forwardTrain(x []float64, t *trace, rng *rand.Rand) float64 {
	t.x = x
	n.Input.forward(x, t.h[0])
	relu(t.h[0])
	keep := 1 - n.Dropout
	c := make([]float64, n.hidden())
	for k := range n.Blocks {
		b := &n.Blocks[k]
		b.A.forward(t.h[k], t.a[k])
		relu(t.a[k])
		for j, v := range t.a[k] {
			s := 1.0
			if n.Dropout > 0 {
				if rng.Float64() < n.Dropout {
					s = 0
				} else {
					s = 1 / keep
				}
			}
			t.scale[k][j] = s
			t.d[k][j] = v * s
		}
		b.B.forward(t.d[k], c)
		next := t.h[k+1]
		for j := range next {
			next[j] = t.h[k][j] + c[j]
		}
		relu(next)
	}
	var out [1]float64
	n.Output.forward(t.h[len(n.Blocks)], out[:])
	t.out = out[0]
	return t.out
}

// backward accumulates into g the gradients for dL/dout = gout.
func (n *Network) backward(t *trace, gout float64, g *Network) {
	H, k := n.hidden(), len(n.Blocks)
	dh := make([]float64, H)
	n.Output.backward(t.h[k], []float64{gout}, &g.Output, dh)

	dpre := make([]float64, H)
	dd := make([]float64, H)
	dx := make([]float64, H)
	for i := k - 1; i >= 0; i-- {
		b := &n.Blocks[i]
		for j := range dpre {
			if t.h[i+1][j] > 0 {
				dpre[j] = dh[j]
			} else {
				dpre[j] = 0
			}
		}
		b.B.backward(t.d[i], dpre, &g.Blocks[i].B, dd)
		for j := range dd {
			if t.a[i][j] > 0 {
				dd[j] *= t.scale[i][j]
			} else {
				dd[j] = 0
			}
		}
		b.A.backward(t.h[i], dd, &g.Blocks[i].A, dx)
		for j := range dh {
			dh[j] = dpre[j] + dx[j]
		}
	}
	for j := range dh {
		if t.h[0][j] <= 0 {
			dh[j] = 0
		}
	}
	n.Input.backward(t.x, dh, &g.Input, nil)
}
