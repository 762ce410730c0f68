package methods

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/dynrev/internal/observables"
	"github.com/san-kum/dynrev/internal/quantum"
	"gonum.org/v1/gonum/mat"
)

// Method is the capability a reverser needs from a solver.
type Method interface {
	Name() string

	// Solve returns the ground state of s under its external potential.
	Solve(ctx context.Context, s *quantum.System, opts ...SolveOption) (*quantum.State, error)

	// Hamiltonian returns the instantaneous unperturbed operator for the
	// densities d.
	Hamiltonian(s *quantum.System, d observables.Densities) (*Hamiltonian, error)

	// PropagateStep advances frame j-1 of evo by dt under h plus the local
	// potential vRow and returns the frame for index j. evo is not modified.
	PropagateStep(s *quantum.System, evo *quantum.Evolution, h *Hamiltonian, vRow []float64, j int, dt float64, restricted bool) (*quantum.Frame, error)
}

// Hamiltonian is a spin-resolved single-particle operator.
type Hamiltonian struct {
	Total *mat.SymDense
	Up    *mat.SymDense
	Down  *mat.SymDense
}

// spinShared reports whether both spin channels use the same operator.
func (h *Hamiltonian) spinShared() bool {
	return h.Up == h.Down
}

// SolveConfig holds the options accepted by Method.Solve.
type SolveConfig struct {
	Restricted    bool
	Mixing        float64
	Tolerance     float64
	MaxIterations int
	Initial       *observables.Densities
}

// SolveOption configures a call to Method.Solve.
type SolveOption func(*SolveConfig)

const (
	DefaultMixing        = 0.5
	DefaultSCFTolerance  = 1e-10
	DefaultSCFIterations = 10000
)

// NewSolveConfig applies opts over the defaults.
func NewSolveConfig(opts ...SolveOption) SolveConfig {
	cfg := SolveConfig{
		Mixing:        DefaultMixing,
		Tolerance:     DefaultSCFTolerance,
		MaxIterations: DefaultSCFIterations,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithRestricted uses one set of spatial orbitals for both spins.
func WithRestricted(restricted bool) SolveOption {
	return func(c *SolveConfig) { c.Restricted = restricted }
}

// WithMixing sets the weight of the new density in self-consistent loops.
func WithMixing(mixing float64) SolveOption {
	return func(c *SolveConfig) { c.Mixing = mixing }
}

// WithTolerance sets the self-consistency tolerance on the density matrix.
func WithTolerance(tol float64) SolveOption {
	return func(c *SolveConfig) { c.Tolerance = tol }
}

// WithMaxIterations caps the self-consistent loop.
func WithMaxIterations(n int) SolveOption {
	return func(c *SolveConfig) { c.MaxIterations = n }
}

// WithInitialDensity seeds the self-consistent loop.
func WithInitialDensity(d observables.Densities) SolveOption {
	return func(c *SolveConfig) { c.Initial = &d }
}

// baseHamiltonian returns K + diag(v_ext).
func baseHamiltonian(s *quantum.System) *mat.SymDense {
	h := mat.NewSymDense(s.Points(), nil)
	h.CopySym(s.Kinetic())
	for i, v := range s.VExt {
		h.SetSym(i, i, h.At(i, i)+v)
	}
	return h
}

// diagonalize returns the eigenpairs of h as orbitals with the lowest count
// occupied.
func diagonalize(s *quantum.System, h *mat.SymDense, count int) (quantum.Orbitals, error) {
	n := s.Points()
	if count > n {
		return quantum.Orbitals{}, fmt.Errorf("%w: %d electrons on %d points", ErrTooManyElectrons, count, n)
	}

	var es mat.EigenSym
	if ok := es.Factorize(h, true); !ok {
		return quantum.Orbitals{}, ErrEigen
	}
	energies := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	vecs.Scale(1/math.Sqrt(s.Dx), &vecs)

	occ := make([]float64, n)
	for k := 0; k < count; k++ {
		occ[k] = 1
	}
	return quantum.Orbitals{Values: &vecs, Energies: energies, Occupations: occ}, nil
}

// solveHamiltonian fills the lowest orbitals of each spin channel.
func solveHamiltonian(s *quantum.System, h *Hamiltonian, restricted bool) (*quantum.State, error) {
	up, err := diagonalize(s, h.Up, s.UpCount())
	if err != nil {
		return nil, fmt.Errorf("up: %w", err)
	}

	if restricted || h.spinShared() {
		down := quantum.Orbitals{
			Values:      up.Values,
			Energies:    up.Energies,
			Occupations: make([]float64, len(up.Occupations)),
		}
		if s.DownCount() > len(down.Occupations) {
			return nil, fmt.Errorf("down: %w", ErrTooManyElectrons)
		}
		for k := 0; k < s.DownCount(); k++ {
			down.Occupations[k] = 1
		}
		return &quantum.State{Up: up, Down: down}, nil
	}

	down, err := diagonalize(s, h.Down, s.DownCount())
	if err != nil {
		return nil, fmt.Errorf("down: %w", err)
	}
	return &quantum.State{Up: up, Down: down}, nil
}
