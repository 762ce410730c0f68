package quantum

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// DefaultStencil is the number of points used for the kinetic operator.
const DefaultStencil = 13

// uniformity tolerance relative to the grid spacing
const gridEps = 1e-9

// System is a model system: a uniform grid, the external potential sampled
// on it, an optional pairwise interaction and the electrons it holds.
type System struct {
	X         []float64
	Dx        float64
	VExt      []float64
	VInt      *mat.SymDense
	Electrons string
	Stencil   int

	kinetic *mat.SymDense
}

// NewSystem validates its inputs and returns a System. vInt may be nil for
// models without interaction. A zero stencil selects DefaultStencil.
func NewSystem(x, vExt []float64, vInt *mat.SymDense, electrons string, stencil int) (*System, error) {
	if stencil == 0 {
		stencil = DefaultStencil
	}
	s := &System{
		X:         append([]float64(nil), x...),
		VExt:      append([]float64(nil), vExt...),
		VInt:      vInt,
		Electrons: electrons,
		Stencil:   stencil,
	}
	if len(x) >= 2 {
		s.Dx = x[1] - x[0]
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return s, nil
}

// Check verifies the invariants of the system.
func (s *System) Check() error {
	n := len(s.X)
	if n < 3 || s.Dx <= 0 {
		return ErrGrid
	}
	for i := 1; i < n; i++ {
		if math.Abs((s.X[i]-s.X[i-1])-s.Dx) > gridEps*s.Dx*float64(n) {
			return fmt.Errorf("%w: spacing differs at index %d", ErrGrid, i)
		}
	}
	if len(s.VExt) != n {
		return fmt.Errorf("%w: v_ext has %d points, grid has %d", ErrShape, len(s.VExt), n)
	}
	if s.VInt != nil {
		if r := s.VInt.SymmetricDim(); r != n {
			return fmt.Errorf("%w: v_int is %dx%d, grid has %d points", ErrShape, r, r, n)
		}
	}
	if strings.Trim(s.Electrons, "ud") != "" {
		return fmt.Errorf("%w: got %q", ErrElectrons, s.Electrons)
	}
	switch s.Stencil {
	case 3, 5, 7, 9, 11, 13:
	default:
		return fmt.Errorf("%w: got %d", ErrStencil, s.Stencil)
	}
	if s.Stencil > n {
		return fmt.Errorf("%w: stencil %d wider than grid of %d points", ErrStencil, s.Stencil, n)
	}
	return nil
}

// Points returns the number of grid points.
func (s *System) Points() int { return len(s.X) }

// Count returns the number of electrons.
func (s *System) Count() int { return len(s.Electrons) }

// UpCount returns the number of spin-up electrons.
func (s *System) UpCount() int { return strings.Count(s.Electrons, "u") }

// DownCount returns the number of spin-down electrons.
func (s *System) DownCount() int { return strings.Count(s.Electrons, "d") }

// Kinetic returns the single-particle kinetic operator -1/2 d²/dx².
// The operator is shared between snapshots and must not be modified.
func (s *System) Kinetic() *mat.SymDense {
	if s.kinetic == nil {
		s.kinetic = kineticOperator(len(s.X), s.Dx, s.Stencil)
	}
	return s.kinetic
}

// Clone returns a deep copy of the system. The kinetic operator and the
// interaction are read-only and shared.
func (s *System) Clone() *System {
	c := *s
	c.X = append([]float64(nil), s.X...)
	c.VExt = append([]float64(nil), s.VExt...)
	return &c
}

// WithPotential returns a snapshot of s whose external potential is v.
func (s *System) WithPotential(v []float64) *System {
	c := s.Clone()
	copy(c.VExt, v)
	return c
}

func (s *System) String() string {
	n := len(s.X)
	if n == 0 {
		return "System{}"
	}
	return fmt.Sprintf("System{x=[%.3f,...,%.3f], dx=%.4f, v_ext=[%.3f,...,%.3f], electrons=%s}",
		s.X[0], s.X[n-1], s.Dx, s.VExt[0], s.VExt[n-1], s.Electrons)
}
