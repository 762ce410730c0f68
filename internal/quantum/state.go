package quantum

import (
	"gonum.org/v1/gonum/mat"
)

// Orbitals holds the single-particle orbitals of one spin channel. Each
// column of Values is an orbital normalised so that Σ|φ|²dx = 1.
type Orbitals struct {
	Values      *mat.Dense
	Energies    []float64
	Occupations []float64
}

// Occupied returns the column indices with non-zero occupation.
func (o Orbitals) Occupied() []int {
	idx := make([]int, 0, len(o.Occupations))
	for k, occ := range o.Occupations {
		if occ != 0 {
			idx = append(idx, k)
		}
	}
	return idx
}

// State is a spin-resolved single-particle solution of a System.
type State struct {
	Up   Orbitals
	Down Orbitals
}

// Wavefunction is a complex orbital sampled on the grid.
type Wavefunction []complex128

// Clone returns a copy of the wavefunction.
func (w Wavefunction) Clone() Wavefunction {
	return append(Wavefunction(nil), w...)
}

// Frame holds the occupied time-dependent orbitals at one time index.
type Frame struct {
	Up   []Wavefunction
	Down []Wavefunction
}

// FrameFromState returns the frame made of the occupied orbitals of state.
func FrameFromState(state *State) *Frame {
	return &Frame{
		Up:   occupiedWavefunctions(state.Up),
		Down: occupiedWavefunctions(state.Down),
	}
}

func occupiedWavefunctions(o Orbitals) []Wavefunction {
	occ := o.Occupied()
	out := make([]Wavefunction, 0, len(occ))
	if o.Values == nil {
		return out
	}
	rows, _ := o.Values.Dims()
	for _, k := range occ {
		w := make(Wavefunction, rows)
		for i := 0; i < rows; i++ {
			w[i] = complex(o.Values.At(i, k), 0)
		}
		out = append(out, w)
	}
	return out
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := &Frame{
		Up:   make([]Wavefunction, len(f.Up)),
		Down: make([]Wavefunction, len(f.Down)),
	}
	for k, w := range f.Up {
		c.Up[k] = w.Clone()
	}
	for k, w := range f.Down {
		c.Down[k] = w.Clone()
	}
	return c
}
