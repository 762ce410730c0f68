// Package observables extracts densities and density matrices from
// single-particle states and time-dependent frames.
package observables

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/dynrev/internal/quantum"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Densities bundles the spin-resolved densities and density matrices that
// Hamiltonians are built from. Density matrices are nil when the densities
// come from a time-dependent frame.
type Densities struct {
	N, Up, Down   []float64
	P, UpP, DownP *mat.SymDense
}

// Density returns the total, spin-up and spin-down densities of state.
func Density(s *quantum.System, state *quantum.State) (n, up, down []float64) {
	up = spinDensity(s.Points(), state.Up)
	down = spinDensity(s.Points(), state.Down)
	n = make([]float64, len(up))
	floats.AddTo(n, up, down)
	return n, up, down
}

func spinDensity(points int, o quantum.Orbitals) []float64 {
	n := make([]float64, points)
	if o.Values == nil {
		return n
	}
	for _, k := range o.Occupied() {
		occ := o.Occupations[k]
		for i := 0; i < points; i++ {
			v := o.Values.At(i, k)
			n[i] += occ * v * v
		}
	}
	return n
}

// DensityMatrix returns the total, spin-up and spin-down density matrices
// p(x,x') = Σ occ φ(x)φ(x') of state.
func DensityMatrix(s *quantum.System, state *quantum.State) (p, up, down *mat.SymDense) {
	up = spinDensityMatrix(s.Points(), state.Up)
	down = spinDensityMatrix(s.Points(), state.Down)
	p = mat.NewSymDense(s.Points(), nil)
	p.AddSym(up, down)
	return p, up, down
}

func spinDensityMatrix(points int, o quantum.Orbitals) *mat.SymDense {
	p := mat.NewSymDense(points, nil)
	if o.Values == nil {
		return p
	}
	col := make([]float64, points)
	for _, k := range o.Occupied() {
		mat.Col(col, k, o.Values)
		p.SymRankOne(p, o.Occupations[k], mat.NewVecDense(points, col))
	}
	return p
}

// Of returns the densities and density matrices of state.
func Of(s *quantum.System, state *quantum.State) Densities {
	n, up, down := Density(s, state)
	p, upP, downP := DensityMatrix(s, state)
	return Densities{N: n, Up: up, Down: down, P: p, UpP: upP, DownP: downP}
}

// FrameDensity returns the total, spin-up and spin-down densities of a
// time-dependent frame.
func FrameDensity(f *quantum.Frame) (n, up, down []float64) {
	points := 0
	switch {
	case len(f.Up) > 0:
		points = len(f.Up[0])
	case len(f.Down) > 0:
		points = len(f.Down[0])
	}
	up = wavefunctionDensity(points, f.Up)
	down = wavefunctionDensity(points, f.Down)
	n = make([]float64, points)
	floats.AddTo(n, up, down)
	return n, up, down
}

func wavefunctionDensity(points int, ws []quantum.Wavefunction) []float64 {
	n := make([]float64, points)
	for _, w := range ws {
		for i, c := range w {
			a := cmplx.Abs(c)
			n[i] += a * a
		}
	}
	return n
}

// OfFrame returns the densities of a time-dependent frame.
func OfFrame(f *quantum.Frame) Densities {
	n, up, down := FrameDensity(f)
	return Densities{N: n, Up: up, Down: down}
}

// L1 returns the grid-weighted L1 distance dx Σ|a-b|.
func L1(dx float64, a, b []float64) float64 {
	return dx * floats.Distance(a, b, 1)
}

// MeanAbs returns the mean absolute difference between a and b.
func MeanAbs(a, b []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	return floats.Distance(a, b, 1) / float64(len(a))
}

// Electrons returns the number of electrons in density n, Σ n dx.
func Electrons(dx float64, n []float64) float64 {
	return dx * floats.Sum(n)
}

// Pow returns n^pe element-wise.
func Pow(n []float64, pe float64) []float64 {
	out := make([]float64, len(n))
	for i, v := range n {
		out[i] = math.Pow(v, pe)
	}
	return out
}

// SingleParticleEnergy returns Σ occ·ε over both spin channels.
func SingleParticleEnergy(state *quantum.State) float64 {
	return orbitalEnergy(state.Up) + orbitalEnergy(state.Down)
}

func orbitalEnergy(o quantum.Orbitals) float64 {
	e := 0.0
	for k, occ := range o.Occupations {
		if occ != 0 {
			e += occ * o.Energies[k]
		}
	}
	return e
}
