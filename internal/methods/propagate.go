package methods

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/dynrev/internal/integrators"
	"github.com/san-kum/dynrev/internal/observables"
	"github.com/san-kum/dynrev/internal/quantum"
	"gonum.org/v1/gonum/mat"
)

// Propagator selects how a time step is integrated.
type Propagator int

const (
	// Exact applies exp(-i dt H) through the eigendecomposition of H.
	Exact Propagator = iota
	// RK4 integrates the split real and imaginary parts with sub-stepped RK4.
	RK4
)

func (p Propagator) String() string {
	switch p {
	case Exact:
		return "exact"
	case RK4:
		return "rk4"
	default:
		return fmt.Sprintf("Propagator(%d)", int(p))
	}
}

// ParsePropagator returns the propagator with the given name.
func ParsePropagator(name string) (Propagator, error) {
	switch name {
	case "", "exact":
		return Exact, nil
	case "rk4":
		return RK4, nil
	default:
		return Exact, fmt.Errorf("unknown propagator: %s", name)
	}
}

type evolver func(w quantum.Wavefunction) quantum.Wavefunction

// perturbed returns h + diag(v).
func perturbed(h *mat.SymDense, v []float64) *mat.SymDense {
	hp := mat.NewSymDense(h.SymmetricDim(), nil)
	hp.CopySym(h)
	for i, vi := range v {
		hp.SetSym(i, i, hp.At(i, i)+vi)
	}
	return hp
}

func newEvolver(p Propagator, h *mat.SymDense, dt float64) (evolver, error) {
	switch p {
	case Exact:
		return spectralEvolver(h, dt)
	case RK4:
		return rk4Evolver(h, dt), nil
	default:
		return nil, fmt.Errorf("unknown propagator: %v", p)
	}
}

func spectralEvolver(h *mat.SymDense, dt float64) (evolver, error) {
	var es mat.EigenSym
	if ok := es.Factorize(h, true); !ok {
		return nil, ErrEigen
	}
	vals := es.Values(nil)
	var v mat.Dense
	es.VectorsTo(&v)

	n := len(vals)
	cos := make([]float64, n)
	sin := make([]float64, n)
	for k, e := range vals {
		sin[k], cos[k] = math.Sincos(dt * e)
	}

	return func(w quantum.Wavefunction) quantum.Wavefunction {
		re := mat.NewVecDense(n, nil)
		im := mat.NewVecDense(n, nil)
		for i, c := range w {
			re.SetVec(i, real(c))
			im.SetVec(i, imag(c))
		}

		var a, b mat.VecDense
		a.MulVec(v.T(), re)
		b.MulVec(v.T(), im)
		// (a + ib)(cos - i sin)
		for k := 0; k < n; k++ {
			ak, bk := a.AtVec(k), b.AtVec(k)
			a.SetVec(k, ak*cos[k]+bk*sin[k])
			b.SetVec(k, bk*cos[k]-ak*sin[k])
		}
		re.MulVec(&v, &a)
		im.MulVec(&v, &b)

		out := make(quantum.Wavefunction, n)
		for i := range out {
			out[i] = complex(re.AtVec(i), im.AtVec(i))
		}
		return out
	}, nil
}

// gershgorin returns an upper bound of the spectral radius of h.
func gershgorin(h *mat.SymDense) float64 {
	n := h.SymmetricDim()
	bound := 0.0
	for i := 0; i < n; i++ {
		row := 0.0
		for j := 0; j < n; j++ {
			row += math.Abs(h.At(i, j))
		}
		bound = math.Max(bound, row)
	}
	return bound
}

func rk4Evolver(h *mat.SymDense, dt float64) evolver {
	n := h.SymmetricDim()
	sub := max(1, int(math.Ceil(math.Abs(dt)*gershgorin(h))))
	hdt := dt / float64(sub)

	// x = [re; im], dre/dt = H im, dim/dt = -H re
	sys := integrators.SystemFunc(func(dst, x integrators.State, t float64) {
		re := mat.NewVecDense(n, x[:n])
		im := mat.NewVecDense(n, x[n:])
		dre := mat.NewVecDense(n, dst[:n])
		dim := mat.NewVecDense(n, dst[n:])
		dre.MulVec(h, im)
		dim.MulVec(h, re)
		dim.ScaleVec(-1, dim)
	})

	return func(w quantum.Wavefunction) quantum.Wavefunction {
		x := make(integrators.State, 2*n)
		for i, c := range w {
			x[i] = real(c)
			x[n+i] = imag(c)
		}
		x = integrators.Integrate(integrators.NewRK4(), sys, x, 0, hdt, sub)

		out := make(quantum.Wavefunction, n)
		for i := range out {
			out[i] = complex(x[i], x[n+i])
		}
		return out
	}
}

func evolveAll(ev evolver, ws []quantum.Wavefunction) []quantum.Wavefunction {
	out := make([]quantum.Wavefunction, len(ws))
	for k, w := range ws {
		out[k] = ev(w)
	}
	return out
}

// propagateStep is shared by the methods: it perturbs the spin operators by
// vRow and evolves the orbitals of frame j-1.
func propagateStep(p Propagator, s *quantum.System, evo *quantum.Evolution, h *Hamiltonian, vRow []float64, j int, dt float64, restricted bool) (*quantum.Frame, error) {
	if len(vRow) != s.Points() {
		return nil, fmt.Errorf("%w: potential row has %d points, grid has %d", ErrDimension, len(vRow), s.Points())
	}
	prev, err := evo.Frame(j - 1)
	if err != nil {
		return nil, err
	}

	upEv, err := newEvolver(p, perturbed(h.Up, vRow), dt)
	if err != nil {
		return nil, err
	}
	frame := &quantum.Frame{Up: evolveAll(upEv, prev.Up)}

	switch {
	case restricted:
		if len(prev.Down) > len(frame.Up) {
			return nil, fmt.Errorf("%w: %d down, %d up", ErrRestrictedSpin, len(prev.Down), len(frame.Up))
		}
		frame.Down = make([]quantum.Wavefunction, len(prev.Down))
		for k := range frame.Down {
			frame.Down[k] = frame.Up[k].Clone()
		}
	case h.spinShared():
		frame.Down = evolveAll(upEv, prev.Down)
	default:
		downEv, err := newEvolver(p, perturbed(h.Down, vRow), dt)
		if err != nil {
			return nil, err
		}
		frame.Down = evolveAll(downEv, prev.Down)
	}
	return frame, nil
}

// Propagate evolves state over the time grid t under the local perturbation
// vPtrb, indexed as vPtrb[time][space].
func Propagate(ctx context.Context, m Method, s *quantum.System, state *quantum.State, vPtrb [][]float64, t []float64, restricted bool) (*quantum.Evolution, error) {
	if len(vPtrb) != len(t) {
		return nil, fmt.Errorf("%w: %d perturbation rows for %d times", ErrDimension, len(vPtrb), len(t))
	}
	evo := quantum.NewEvolution(t, s.Points(), quantum.FrameFromState(state))
	if len(t) < 2 {
		return evo, nil
	}
	dt, err := quantum.CheckTimeGrid(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTimeGrid, err)
	}

	for j := 1; j < len(t); j++ {
		select {
		case <-ctx.Done():
			return evo, ctx.Err()
		default:
		}

		prev, err := evo.Frame(j - 1)
		if err != nil {
			return nil, err
		}
		h, err := m.Hamiltonian(s, observables.OfFrame(prev))
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", j, err)
		}
		frame, err := m.PropagateStep(s, evo, h, vPtrb[j], j, dt, restricted)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", j, err)
		}
		if err := evo.Commit(j, vPtrb[j], frame); err != nil {
			return nil, err
		}
	}
	return evo, nil
}
