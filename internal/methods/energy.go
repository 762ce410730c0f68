package methods

import (
	"fmt"

	"github.com/san-kum/dynrev/internal/observables"
	"github.com/san-kum/dynrev/internal/quantum"
	"gonum.org/v1/gonum/floats"
)

// Energetic is implemented by methods that can evaluate the total energy of
// one of their states.
type Energetic interface {
	TotalEnergy(s *quantum.System, state *quantum.State) (float64, error)
}

// TotalEnergy returns the total energy of state under m.
func TotalEnergy(m Method, s *quantum.System, state *quantum.State) (float64, error) {
	e, ok := m.(Energetic)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoEnergy, m.Name())
	}
	return e.TotalEnergy(s, state)
}

// TotalEnergy is the sum of the occupied orbital energies.
func (m *NonInteracting) TotalEnergy(s *quantum.System, state *quantum.State) (float64, error) {
	return observables.SingleParticleEnergy(state), nil
}

// TotalEnergy removes the double counted repulsion from the orbital
// energies: E = Σ occ·ε - ½ dx Σ n·v_h.
func (m *Hartree) TotalEnergy(s *quantum.System, state *quantum.State) (float64, error) {
	n, _, _ := observables.Density(s, state)
	vh, err := HartreePotential(s, n)
	if err != nil {
		return 0, err
	}
	return observables.SingleParticleEnergy(state) - 0.5*s.Dx*floats.Dot(n, vh), nil
}
