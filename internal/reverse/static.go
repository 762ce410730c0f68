package reverse

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/dynrev/internal/methods"
	"github.com/san-kum/dynrev/internal/observables"
	"github.com/san-kum/dynrev/internal/quantum"
)

const (
	DefaultMu              = 1.0
	DefaultPe              = 0.1
	DefaultStaticTolerance = 1e-12
	DefaultMaxIterations   = 100000
)

// Outcome is the state of a static inversion.
type Outcome int

const (
	Iterating Outcome = iota
	Converged
	MaxIterationsExceeded
)

func (o Outcome) String() string {
	switch o {
	case Iterating:
		return "iterating"
	case Converged:
		return "converged"
	case MaxIterationsExceeded:
		return "max iterations exceeded"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// StaticConfig controls Static. Zero numeric fields take their defaults.
type StaticConfig struct {
	// InitialGuess replaces the potential of the base system when set.
	InitialGuess []float64

	Mu            float64
	Pe            float64
	Tolerance     float64
	MaxIterations int

	// SolveOptions are passed to Method.Solve unchanged.
	SolveOptions []methods.SolveOption

	Observer Observer
	Logger   *slog.Logger
}

// DefaultStaticConfig returns the default static settings.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		Mu:            DefaultMu,
		Pe:            DefaultPe,
		Tolerance:     DefaultStaticTolerance,
		MaxIterations: DefaultMaxIterations,
	}
}

func (c StaticConfig) withDefaults() StaticConfig {
	d := DefaultStaticConfig()
	if c.Mu == 0 {
		c.Mu = d.Mu
	}
	if c.Pe == 0 {
		c.Pe = d.Pe
	}
	if c.Tolerance == 0 {
		c.Tolerance = d.Tolerance
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// StaticResult is the last snapshot of a static inversion.
type StaticResult struct {
	System      *quantum.System
	Convergence float64
	Iterations  int
	Outcome     Outcome
}

// Static searches for the external potential under which m reproduces the
// target density. base is not modified.
//
// Each iteration solves the current snapshot, applies
// v ← v + mu (n^pe - target^pe) and measures dx Σ|n - target| on the density
// of the solve. The loop ends once that measure is below the tolerance.
// If MaxIterations is reached first, the last snapshot is returned with
// ErrNotConverged.
func Static(ctx context.Context, m methods.Method, base *quantum.System, target []float64, cfg StaticConfig) (*StaticResult, error) {
	cfg = cfg.withDefaults()
	log := cfg.Logger.With("method", m.Name(), "stage", StageStatic.String())

	if len(target) != base.Points() {
		return nil, fmt.Errorf("%w: target has %d points, grid has %d", ErrDimension, len(target), base.Points())
	}
	sys := base.Clone()
	if cfg.InitialGuess != nil {
		if len(cfg.InitialGuess) != base.Points() {
			return nil, fmt.Errorf("%w: guess has %d points, grid has %d", ErrDimension, len(cfg.InitialGuess), base.Points())
		}
		sys = sys.WithPotential(cfg.InitialGuess)
	}
	sys.Kinetic()

	targetP := observables.Pow(target, cfg.Pe)
	res := &StaticResult{System: sys, Convergence: math.Inf(1), Outcome: Iterating}

	for res.Iterations < cfg.MaxIterations {
		select {
		case <-ctx.Done():
			return res, fmt.Errorf("reverse: static canceled after %d iterations: %w", res.Iterations, ctx.Err())
		default:
		}

		state, err := m.Solve(ctx, res.System, cfg.SolveOptions...)
		if err != nil {
			return res, fmt.Errorf("reverse: solve at iteration %d: %w", res.Iterations+1, err)
		}
		n, _, _ := observables.Density(res.System, state)
		p := observables.Pow(n, cfg.Pe)

		v := make([]float64, len(n))
		for i := range v {
			v[i] = res.System.VExt[i] + cfg.Mu*(p[i]-targetP[i])
		}
		res.System = res.System.WithPotential(v)
		res.Iterations++
		res.Convergence = observables.L1(res.System.Dx, n, target)

		switch {
		case res.Convergence < cfg.Tolerance:
			res.Outcome = Converged
		case res.Iterations == cfg.MaxIterations:
			res.Outcome = MaxIterationsExceeded
		}

		log.Debug("iteration", "index", res.Iterations, "convergence", res.Convergence)
		notify(cfg.Observer, Progress{
			Stage:       StageStatic,
			Index:       res.Iterations,
			Total:       cfg.MaxIterations,
			Convergence: res.Convergence,
			Status:      res.Outcome.String(),
			Converged:   res.Outcome == Converged,
			Evaluations: res.Iterations,
		})

		if res.Outcome == Converged {
			log.Info("static inversion converged", "iterations", res.Iterations, "convergence", res.Convergence)
			return res, nil
		}
	}

	res.Outcome = MaxIterationsExceeded
	log.Warn("static inversion hit the iteration cap", "iterations", res.Iterations, "convergence", res.Convergence)
	return res, fmt.Errorf("%w: %d iterations, convergence %g", ErrNotConverged, res.Iterations, res.Convergence)
}
