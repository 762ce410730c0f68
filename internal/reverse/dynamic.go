package reverse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/dynrev/internal/methods"
	"github.com/san-kum/dynrev/internal/observables"
	"github.com/san-kum/dynrev/internal/quantum"
	"github.com/san-kum/dynrev/internal/rootfind"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultDynamicTolerance = 1e-10

	// DefaultRankTolerance discards the constant-shift direction of the
	// step Jacobian, which forward differences only resolve to roundoff.
	DefaultRankTolerance = 1e-3
)

// DynamicConfig controls Dynamic. Zero numeric fields take their defaults.
type DynamicConfig struct {
	Restricted bool

	// Tolerance is passed to the per-step root solve.
	Tolerance float64

	// MaxEvaluations is the residual budget of each time step. Defaults to
	// rootfind.DefaultMaxEvaluations(points).
	MaxEvaluations int

	// RankTolerance is the relative singular value cutoff of the Newton
	// step.
	RankTolerance float64

	Observer Observer
	Logger   *slog.Logger
}

// StepReport describes the root solve of one time step.
type StepReport struct {
	Index int
	Time  float64

	Evaluations int
	Status      rootfind.Status

	// Residual is ‖n - target‖₂ at the solver's best point.
	Residual float64
	// Error is mean|n - target| after the step was committed.
	Error float64
}

// DynamicResult is the reconstructed trajectory. Evolution.VPtrb holds the
// corrections, which act on top of the baseline perturbation.
type DynamicResult struct {
	Evolution *quantum.Evolution
	Error     []float64
	Steps     []StepReport
}

// Unconverged returns the reports of the steps whose root solve did not
// converge.
func (r *DynamicResult) Unconverged() []StepReport {
	var out []StepReport
	for _, s := range r.Steps {
		if s.Status != rootfind.Converged {
			out = append(out, s)
		}
	}
	return out
}

// Dynamic reconstructs the correction to vPtrb under which the fictitious
// system s, started from initial, follows the target densities over the
// time grid t. target and vPtrb are indexed [time][space] and are not
// modified.
//
// Time index 0 is taken from the occupied orbitals of initial. Every later
// index j is solved from the committed frame j-1, warm-started from
// correction j-1, then propagated once more with the solution and
// committed. A step that runs out of evaluations is still committed; its
// status is in the matching StepReport.
func Dynamic(ctx context.Context, m methods.Method, s *quantum.System, initial *quantum.State, target, vPtrb [][]float64, t []float64, cfg DynamicConfig) (*DynamicResult, error) {
	if err := checkTrajectory(s, target, vPtrb, t); err != nil {
		return nil, err
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = DefaultDynamicTolerance
	}
	if cfg.RankTolerance == 0 {
		cfg.RankTolerance = DefaultRankTolerance
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	log := cfg.Logger.With("method", m.Name(), "stage", StageDynamic.String())

	evo := quantum.NewEvolution(t, s.Points(), quantum.FrameFromState(initial))
	res := &DynamicResult{
		Evolution: evo,
		Error:     make([]float64, len(t)),
		Steps:     make([]StepReport, 0, len(t)-1),
	}

	n0, _, _ := observables.Density(s, initial)
	res.Error[0] = observables.MeanAbs(n0, target[0])
	notify(cfg.Observer, Progress{
		Stage:       StageDynamic,
		Index:       0,
		Total:       len(t),
		Convergence: res.Error[0],
		Status:      "initial",
		Converged:   true,
	})

	dt, _ := quantum.CheckTimeGrid(t)
	settings := &rootfind.Settings{
		MaxEvaluations: cfg.MaxEvaluations,
		Tolerance:      cfg.Tolerance,
		RankTolerance:  cfg.RankTolerance,
	}

	for j := 1; j < len(t); j++ {
		select {
		case <-ctx.Done():
			return res, &StepError{Index: j, Time: t[j], Wrapped: ctx.Err()}
		default:
		}

		residual := &StepResidual{
			Method:     m,
			System:     s,
			Evolution:  evo,
			VPtrb:      vPtrb,
			Target:     target,
			Index:      j,
			Dt:         dt,
			Restricted: cfg.Restricted,
		}
		guess := append([]float64(nil), evo.VPtrb[j-1]...)

		sol, err := rootfind.Hybrid(ctx, rootfind.Problem{Func: residual.Evaluate}, guess, settings)
		if err != nil {
			return res, &StepError{Index: j, Time: t[j], Wrapped: err}
		}

		frame, n, err := residual.Propagate(sol.X)
		if err != nil {
			return res, &StepError{Index: j, Time: t[j], Wrapped: err}
		}
		if err := evo.Commit(j, sol.X, frame); err != nil {
			return res, &StepError{Index: j, Time: t[j], Wrapped: err}
		}
		res.Error[j] = observables.MeanAbs(n, target[j])

		report := StepReport{
			Index:       j,
			Time:        t[j],
			Evaluations: sol.Evaluations,
			Status:      sol.Status,
			Residual:    sol.Norm,
			Error:       res.Error[j],
		}
		res.Steps = append(res.Steps, report)

		if sol.Status != rootfind.Converged {
			log.Warn("step did not converge", "index", j, "status", sol.Status.String(),
				"evaluations", sol.Evaluations, "error", res.Error[j])
		} else {
			log.Debug("step", "index", j, "evaluations", sol.Evaluations, "error", res.Error[j])
		}
		notify(cfg.Observer, Progress{
			Stage:       StageDynamic,
			Index:       j,
			Total:       len(t),
			Convergence: res.Error[j],
			Status:      sol.Status.String(),
			Converged:   sol.Status == rootfind.Converged,
			Evaluations: sol.Evaluations,
		})
	}

	log.Info("dynamic inversion finished", "steps", len(t)-1,
		"unconverged", len(res.Unconverged()), "max_error", floats.Max(res.Error))
	return res, nil
}

func checkTrajectory(s *quantum.System, target, vPtrb [][]float64, t []float64) error {
	if len(t) == 0 {
		return ErrTimeGrid
	}
	if _, err := quantum.CheckTimeGrid(t); err != nil {
		return fmt.Errorf("%w: %v", ErrTimeGrid, err)
	}
	if len(target) != len(t) || len(vPtrb) != len(t) {
		return fmt.Errorf("%w: %d targets and %d perturbations for %d times", ErrDimension, len(target), len(vPtrb), len(t))
	}
	for j := range t {
		if len(target[j]) != s.Points() || len(vPtrb[j]) != s.Points() {
			return fmt.Errorf("%w: row %d does not match %d grid points", ErrDimension, j, s.Points())
		}
	}
	return nil
}
