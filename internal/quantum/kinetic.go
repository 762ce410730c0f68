package quantum

import "gonum.org/v1/gonum/mat"

// FiniteDifferenceWeights returns the weights for the derivatives of order
// 0..m at z using the values at the given points (Fornberg's algorithm).
// The result is indexed as w[point][order].
func FiniteDifferenceWeights(z float64, points []float64, m int) [][]float64 {
	n := len(points)
	w := make([][]float64, n)
	for i := range w {
		w[i] = make([]float64, m+1)
	}
	if n == 0 {
		return w
	}

	c1 := 1.0
	c4 := points[0] - z
	w[0][0] = 1
	for i := 1; i < n; i++ {
		mn := min(i, m)
		c2 := 1.0
		c5 := c4
		c4 = points[i] - z
		for j := 0; j < i; j++ {
			c3 := points[i] - points[j]
			c2 *= c3
			if j == i-1 {
				for k := mn; k >= 1; k-- {
					w[i][k] = c1 * (float64(k)*w[i-1][k-1] - c5*w[i-1][k]) / c2
				}
				w[i][0] = -c1 * c5 * w[i-1][0] / c2
			}
			for k := mn; k >= 1; k-- {
				w[j][k] = (c4*w[j][k] - float64(k)*w[j][k-1]) / c3
			}
			w[j][0] = c4 * w[j][0] / c3
		}
		c1 = c2
	}
	return w
}

// kineticOperator builds -1/2 d²/dx² from centred weights. Points outside
// the grid are dropped, which is a hard-wall boundary and keeps the
// operator symmetric.
func kineticOperator(n int, dx float64, stencil int) *mat.SymDense {
	half := (stencil - 1) / 2
	offsets := make([]float64, stencil)
	for k := range offsets {
		offsets[k] = float64(k-half) * dx
	}
	w := FiniteDifferenceWeights(0, offsets, 2)

	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for d := 0; d <= half && i+d < n; d++ {
			k.SetSym(i, i+d, -0.5*w[half+d][2])
		}
	}
	return k
}
