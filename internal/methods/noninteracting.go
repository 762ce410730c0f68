package methods

import (
	"context"

	"github.com/san-kum/dynrev/internal/observables"
	"github.com/san-kum/dynrev/internal/quantum"
)

// NonInteracting solves independent electrons in the external potential.
type NonInteracting struct {
	Propagator Propagator
}

func NewNonInteracting() *NonInteracting {
	return &NonInteracting{Propagator: Exact}
}

func (m *NonInteracting) Name() string { return "non_interacting" }

// Hamiltonian returns K + v_ext for both spins; the densities are unused.
func (m *NonInteracting) Hamiltonian(s *quantum.System, d observables.Densities) (*Hamiltonian, error) {
	h := baseHamiltonian(s)
	return &Hamiltonian{Total: h, Up: h, Down: h}, nil
}

func (m *NonInteracting) Solve(ctx context.Context, s *quantum.System, opts ...SolveOption) (*quantum.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := NewSolveConfig(opts...)
	h, err := m.Hamiltonian(s, observables.Densities{})
	if err != nil {
		return nil, err
	}
	return solveHamiltonian(s, h, cfg.Restricted)
}

func (m *NonInteracting) PropagateStep(s *quantum.System, evo *quantum.Evolution, h *Hamiltonian, vRow []float64, j int, dt float64, restricted bool) (*quantum.Frame, error) {
	return propagateStep(m.Propagator, s, evo, h, vRow, j, dt, restricted)
}
