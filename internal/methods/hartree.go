package methods

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/dynrev/internal/observables"
	"github.com/san-kum/dynrev/internal/quantum"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Hartree adds the classical electrostatic repulsion of the density to the
// non-interacting Hamiltonian and solves it self-consistently.
type Hartree struct {
	Propagator Propagator
	Logger     *slog.Logger
}

func NewHartree() *Hartree {
	return &Hartree{Propagator: Exact}
}

func (m *Hartree) Name() string { return "hartree" }

func (m *Hartree) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// HartreePotential returns v_h(x) = Σ n(x') v_int(x,x') dx.
func HartreePotential(s *quantum.System, n []float64) ([]float64, error) {
	if s.VInt == nil {
		return nil, ErrNoInteraction
	}
	if len(n) != s.Points() {
		return nil, fmt.Errorf("%w: density has %d points, grid has %d", ErrDimension, len(n), s.Points())
	}
	vh := mat.NewVecDense(s.Points(), nil)
	vh.MulVec(s.VInt, mat.NewVecDense(len(n), n))
	vh.ScaleVec(s.Dx, vh)
	return vh.RawVector().Data, nil
}

// Hamiltonian returns K + v_ext + v_h[n] for both spins. A nil density is
// treated as zero.
func (m *Hartree) Hamiltonian(s *quantum.System, d observables.Densities) (*Hamiltonian, error) {
	h := baseHamiltonian(s)
	n := d.N
	if n == nil {
		n = make([]float64, s.Points())
	}
	vh, err := HartreePotential(s, n)
	if err != nil {
		return nil, err
	}
	for i, v := range vh {
		h.SetSym(i, i, h.At(i, i)+v)
	}
	return &Hamiltonian{Total: h, Up: h, Down: h}, nil
}

// Solve iterates H[n] -> state -> n, mixing the densities and density
// matrices, until Σ|p - p_old| dx² falls below the tolerance.
func (m *Hartree) Solve(ctx context.Context, s *quantum.System, opts ...SolveOption) (*quantum.State, error) {
	cfg := NewSolveConfig(opts...)
	points := s.Points()

	d := observables.Densities{
		N:     make([]float64, points),
		Up:    make([]float64, points),
		Down:  make([]float64, points),
		P:     mat.NewSymDense(points, nil),
		UpP:   mat.NewSymDense(points, nil),
		DownP: mat.NewSymDense(points, nil),
	}
	if cfg.Initial != nil {
		d = *cfg.Initial
	}
	pOld := mat.NewSymDense(points, nil)
	if d.P != nil {
		pOld.CopySym(d.P)
	}

	var diff mat.SymDense
	for it := 0; it < cfg.MaxIterations; it++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		h, err := m.Hamiltonian(s, d)
		if err != nil {
			return nil, err
		}
		state, err := solveHamiltonian(s, h, cfg.Restricted)
		if err != nil {
			return nil, err
		}
		next := observables.Of(s, state)
		d = mix(d, next, cfg.Mixing)

		diff.ScaleSym(-1, pOld)
		diff.AddSym(&diff, d.P)
		convergence := symAbsSum(&diff) * s.Dx * s.Dx
		pOld.CopySym(d.P)

		m.logger().Debug("hartree iteration", "iteration", it, "convergence", convergence)
		if convergence < cfg.Tolerance {
			return state, nil
		}
	}
	return nil, fmt.Errorf("%w after %d iterations", ErrSCFNotConverged, cfg.MaxIterations)
}

func (m *Hartree) PropagateStep(s *quantum.System, evo *quantum.Evolution, h *Hamiltonian, vRow []float64, j int, dt float64, restricted bool) (*quantum.Frame, error) {
	return propagateStep(m.Propagator, s, evo, h, vRow, j, dt, restricted)
}

// mix returns (1-w) old + w next for densities and density matrices.
func mix(old, next observables.Densities, w float64) observables.Densities {
	mixVec := func(a, b []float64) []float64 {
		out := make([]float64, len(b))
		if a == nil {
			a = make([]float64, len(b))
		}
		floats.AddScaledTo(out, floats.ScaleTo(out, 1-w, a), w, b)
		return out
	}
	mixSym := func(a, b *mat.SymDense) *mat.SymDense {
		out := mat.NewSymDense(b.SymmetricDim(), nil)
		if a != nil {
			out.ScaleSym(1-w, a)
		}
		var scaled mat.SymDense
		scaled.ScaleSym(w, b)
		out.AddSym(out, &scaled)
		return out
	}
	return observables.Densities{
		N:     mixVec(old.N, next.N),
		Up:    mixVec(old.Up, next.Up),
		Down:  mixVec(old.Down, next.Down),
		P:     mixSym(old.P, next.P),
		UpP:   mixSym(old.UpP, next.UpP),
		DownP: mixSym(old.DownP, next.DownP),
	}
}

func symAbsSum(a *mat.SymDense) float64 {
	n := a.SymmetricDim()
	sum := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := a.At(i, j)
			if v < 0 {
				v = -v
			}
			sum += v
		}
	}
	return sum
}
