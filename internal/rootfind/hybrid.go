package rootfind

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Problem is a square system of equations.
type Problem struct {
	// Func writes F(x) into dst. dst and x have the same length and must not
	// be retained.
	Func func(dst, x []float64) error
}

// Settings controls Hybrid. Zero fields take their defaults.
type Settings struct {
	// MaxEvaluations bounds the calls to Problem.Func, Jacobian estimates
	// included. Defaults to DefaultMaxEvaluations(len(x0)).
	MaxEvaluations int

	// Tolerance stops the solve once ‖F‖ or the trust radius relative to
	// ‖x‖ falls to or below it.
	Tolerance float64

	// Factor scales ‖x0‖ (or 1 when x0 is zero) into the initial trust
	// radius.
	Factor float64

	// RankTolerance drops singular values below RankTolerance·σ_max when
	// solving for the Newton step.
	RankTolerance float64
}

const (
	DefaultTolerance     = 1e-10
	DefaultFactor        = 100
	DefaultRankTolerance = 1e-6
)

// DefaultMaxEvaluations is the budget used for n unknowns.
func DefaultMaxEvaluations(n int) int { return 100 * (n + 1) }

func (s *Settings) withDefaults(n int) Settings {
	var out Settings
	if s != nil {
		out = *s
	}
	if out.MaxEvaluations == 0 {
		out.MaxEvaluations = DefaultMaxEvaluations(n)
	}
	if out.Tolerance == 0 {
		out.Tolerance = DefaultTolerance
	}
	if out.Factor == 0 {
		out.Factor = DefaultFactor
	}
	if out.RankTolerance == 0 {
		out.RankTolerance = DefaultRankTolerance
	}
	return out
}

// Result is the best point seen during a solve.
type Result struct {
	X    []float64
	F    []float64
	Norm float64

	Evaluations int
	Iterations  int
	Jacobians   int
	Status      Status
}

const (
	acceptRatio = 1e-4
	poorRatio   = 0.1
	goodRatio   = 0.5
	maxFailures = 2
	maxStall    = 10
)

type solver struct {
	p   Problem
	set Settings
	n   int

	x, f  []float64
	fnorm float64
	jac   *mat.Dense

	evals      int
	iterations int
	jacobians  int

	bestX, bestF []float64
	bestNorm     float64
}

// Hybrid searches for a root of p starting from x0. The returned Result
// holds the point with the smallest residual norm seen, whatever the
// Status. An error is returned only when p.Func fails or ctx is done; in
// the latter case the Result is still populated.
func Hybrid(ctx context.Context, p Problem, x0 []float64, settings *Settings) (*Result, error) {
	n := len(x0)
	if n == 0 {
		return nil, ErrDimension
	}
	set := settings.withDefaults(n)
	if set.MaxEvaluations < 1 {
		return nil, ErrBudget
	}

	s := &solver{
		p:   p,
		set: set,
		n:   n,
		x:   append([]float64(nil), x0...),
		f:   make([]float64, n),
		jac: mat.NewDense(n, n, nil),
	}
	if err := s.eval(s.f, s.x); err != nil {
		return nil, fmt.Errorf("rootfind: initial evaluation: %w", err)
	}
	s.fnorm = floats.Norm(s.f, 2)
	s.record()

	delta := set.Factor * floats.Norm(s.x, 2)
	if delta == 0 {
		delta = set.Factor
	}

	status, err := s.run(ctx, delta)
	return s.result(status), err
}

func (s *solver) run(ctx context.Context, delta float64) (Status, error) {
	if s.fnorm <= s.set.Tolerance {
		return Converged, nil
	}

	var (
		pN    = make([]float64, s.n)
		pC    = make([]float64, s.n)
		step  = make([]float64, s.n)
		xt    = make([]float64, s.n)
		ft    = make([]float64, s.n)
		stale = true
		fresh bool

		failures, stall int
	)

	for {
		if err := ctx.Err(); err != nil {
			return NoProgress, fmt.Errorf("rootfind: %w", err)
		}

		if stale {
			if s.evals+s.n > s.set.MaxEvaluations {
				return EvaluationLimit, nil
			}
			if err := s.jacobian(); err != nil {
				return NoProgress, fmt.Errorf("rootfind: jacobian: %w", err)
			}
			stale, fresh = false, true
			failures = 0
		}
		s.iterations++

		s.cauchy(pC, delta)
		if !s.newton(pN) {
			copy(pN, pC)
		}
		dogleg(step, pN, pC, delta)

		pnorm := floats.Norm(step, 2)
		if pnorm == 0 {
			if fresh {
				return NoProgress, nil
			}
			stale = true
			continue
		}

		if s.evals >= s.set.MaxEvaluations {
			return EvaluationLimit, nil
		}
		floats.AddTo(xt, s.x, step)
		if err := s.eval(ft, xt); err != nil {
			return NoProgress, fmt.Errorf("rootfind: evaluation: %w", err)
		}
		ftnorm := floats.Norm(ft, 2)

		rho := 0.0
		if pred := s.predicted(step); pred > 0 {
			rho = (s.fnorm*s.fnorm - ftnorm*ftnorm) / pred
		}

		s.broyden(step, ft)
		fresh = false

		if rho > acceptRatio {
			copy(s.x, xt)
			copy(s.f, ft)
			s.fnorm = ftnorm
		}

		switch {
		case rho < poorRatio:
			delta = 0.5 * math.Min(delta, pnorm)
			failures++
			if failures >= maxFailures {
				stale = true
			}
		case rho >= goodRatio:
			delta = math.Max(delta, 2*pnorm)
			failures = 0
		default:
			failures = 0
		}

		if s.record() {
			stall = 0
		} else {
			stall++
		}

		if s.fnorm <= s.set.Tolerance || delta <= s.set.Tolerance*floats.Norm(s.x, 2) {
			return Converged, nil
		}
		if stall >= maxStall {
			return NoProgress, nil
		}
	}
}

func (s *solver) eval(dst, x []float64) error {
	s.evals++
	return s.p.Func(dst, x)
}

// record keeps the current point if it is the best so far.
func (s *solver) record() bool {
	if s.bestX != nil && s.fnorm >= s.bestNorm {
		return false
	}
	s.bestX = append(s.bestX[:0], s.x...)
	s.bestF = append(s.bestF[:0], s.f...)
	s.bestNorm = s.fnorm
	return true
}

func (s *solver) result(status Status) *Result {
	return &Result{
		X:           s.bestX,
		F:           s.bestF,
		Norm:        s.bestNorm,
		Evaluations: s.evals,
		Iterations:  s.iterations,
		Jacobians:   s.jacobians,
		Status:      status,
	}
}

// jacobian re-estimates the Jacobian at x by forward differences, reusing
// the known F(x).
func (s *solver) jacobian() error {
	var ferr error
	fd.Jacobian(s.jac, func(y, x []float64) {
		if ferr == nil {
			ferr = s.eval(y, x)
		}
		if ferr != nil {
			for i := range y {
				y[i] = math.NaN()
			}
		}
	}, s.x, &fd.JacobianSettings{
		Formula:     fd.Forward,
		OriginValue: s.f,
	})
	s.jacobians++
	return ferr
}

// newton writes the minimum-norm least-squares solution of J p = -f.
func (s *solver) newton(dst []float64) bool {
	var svd mat.SVD
	if !svd.Factorize(s.jac, mat.SVDThin) {
		return false
	}
	rank := svd.Rank(s.set.RankTolerance)
	if rank == 0 {
		for i := range dst {
			dst[i] = 0
		}
		return true
	}

	neg := make([]float64, s.n)
	floats.ScaleTo(neg, -1, s.f)
	var p mat.VecDense
	svd.SolveVecTo(&p, mat.NewVecDense(s.n, neg), rank)
	for i := range dst {
		dst[i] = p.AtVec(i)
	}
	return true
}

// cauchy writes the minimiser of the linear model along the steepest
// descent direction -Jᵀf.
func (s *solver) cauchy(dst []float64, delta float64) {
	for i := range dst {
		dst[i] = 0
	}

	var g, jg mat.VecDense
	g.MulVec(s.jac.T(), mat.NewVecDense(s.n, s.f))
	gnorm := mat.Norm(&g, 2)
	if gnorm == 0 {
		return
	}
	jg.MulVec(s.jac, &g)

	alpha := delta / gnorm
	if jgn2 := mat.Dot(&jg, &jg); jgn2 > 0 {
		alpha = gnorm * gnorm / jgn2
	}
	for i := range dst {
		dst[i] = -alpha * g.AtVec(i)
	}
}

// predicted returns ‖f‖² - ‖f + J p‖².
func (s *solver) predicted(step []float64) float64 {
	var fp mat.VecDense
	fp.MulVec(s.jac, mat.NewVecDense(s.n, step))
	fp.AddVec(&fp, mat.NewVecDense(s.n, s.f))
	return s.fnorm*s.fnorm - mat.Dot(&fp, &fp)
}

// broyden applies J += (ft - f - J p) pᵀ / pᵀp.
func (s *solver) broyden(step, ft []float64) {
	pv := mat.NewVecDense(s.n, step)
	var u mat.VecDense
	u.MulVec(s.jac, pv)
	for i := 0; i < s.n; i++ {
		u.SetVec(i, ft[i]-s.f[i]-u.AtVec(i))
	}
	s.jac.RankOne(s.jac, 1/floats.Dot(step, step), &u, pv)
}

// dogleg picks the point on the path 0 -> pC -> pN inside the trust radius.
func dogleg(dst, pN, pC []float64, delta float64) {
	if floats.Norm(pN, 2) <= delta {
		copy(dst, pN)
		return
	}
	nC := floats.Norm(pC, 2)
	if nC >= delta {
		floats.ScaleTo(dst, delta/nC, pC)
		return
	}

	d := make([]float64, len(pN))
	floats.SubTo(d, pN, pC)
	a := floats.Dot(d, d)
	b := 2 * floats.Dot(pC, d)
	c := nC*nC - delta*delta
	tau := (-b + math.Sqrt(b*b-4*a*c)) / (2 * a)
	floats.AddScaledTo(dst, pC, tau, d)
}
