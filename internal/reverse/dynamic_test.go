package reverse

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/dynrev/internal/methods"
	"github.com/san-kum/dynrev/internal/observables"
	"github.com/san-kum/dynrev/internal/quantum"
	"github.com/san-kum/dynrev/internal/rootfind"

	. "github.com/onsi/gomega"
)

// driven is a box driven by x sin(10 t), together with the density
// trajectory the drive produces under method.
type driven struct {
	method  methods.Method
	system  *quantum.System
	initial *quantum.State
	t       []float64
	drive   [][]float64
	target  [][]float64
	zero    [][]float64
}

func box() []float64 { return quantum.Linspace(-0.35, 0.35, 8) }

// newDriven holds one free electron.
func newDriven(g *WithT, steps int) *driven {
	x := box()
	s, err := quantum.NewSystem(x, make([]float64, len(x)), nil, "u", 3)
	g.Expect(err).NotTo(HaveOccurred())
	return drive(g, methods.NewNonInteracting(), s, steps)
}

// newDrivenPair holds two electrons repelling through the Hartree
// potential.
func newDrivenPair(g *WithT, steps int) *driven {
	x := box()
	s, err := quantum.NewSystem(x, make([]float64, len(x)), quantum.SoftenedInteraction(x, 1, 1), "ud", 3)
	g.Expect(err).NotTo(HaveOccurred())
	return drive(g, methods.NewHartree(), s, steps)
}

func drive(g *WithT, m methods.Method, s *quantum.System, steps int) *driven {
	ctx := context.Background()
	initial, err := m.Solve(ctx, s)
	g.Expect(err).NotTo(HaveOccurred())

	d := &driven{method: m, system: s, initial: initial, t: quantum.Linspace(0, 0.01*float64(steps-1), steps)}
	for _, tj := range d.t {
		row := make([]float64, s.Points())
		for i, xi := range s.X {
			row[i] = xi * math.Sin(10*tj)
		}
		d.drive = append(d.drive, row)
		d.zero = append(d.zero, make([]float64, s.Points()))
	}

	evo, err := methods.Propagate(ctx, m, s, initial, d.drive, d.t, false)
	g.Expect(err).NotTo(HaveOccurred())
	for j := range d.t {
		n, _, _ := observables.FrameDensity(evo.Frames[j])
		d.target = append(d.target, n)
	}
	return d
}

func (d *driven) run(g *WithT, cfg DynamicConfig) *DynamicResult {
	res, err := Dynamic(context.Background(), d.method, d.system, d.initial, d.target, d.zero, d.t, cfg)
	g.Expect(err).NotTo(HaveOccurred())
	return res
}

func TestDynamicRecoversDrive(t *testing.T) {
	g := NewWithT(t)
	d := newDriven(g, 6)

	res := d.run(g, DynamicConfig{})
	g.Expect(res.Evolution.Committed()).To(Equal(len(d.t)))
	g.Expect(res.Error).To(HaveLen(len(d.t)))
	g.Expect(res.Error[0]).To(BeNumerically("<", 1e-15))
	g.Expect(res.Steps).To(HaveLen(len(d.t) - 1))
	g.Expect(res.Unconverged()).To(BeEmpty())

	for j := 1; j < len(d.t); j++ {
		g.Expect(res.Error[j]).To(BeNumerically("<", 1e-9), "step %d", j)

		got, want := centered(res.Evolution.VPtrb[j]), centered(d.drive[j])
		for i := range want {
			g.Expect(got[i]).To(BeNumerically("~", want[i], 1e-5), "step %d point %d", j, i)
		}
	}
}

func TestDynamicRecoversDriveWithRepulsion(t *testing.T) {
	g := NewWithT(t)
	d := newDrivenPair(g, 6)

	res := d.run(g, DynamicConfig{})
	g.Expect(res.Evolution.Committed()).To(Equal(len(d.t)))
	g.Expect(res.Unconverged()).To(BeEmpty())
	g.Expect(res.Error[0]).To(BeNumerically("<", 1e-12))

	for j := 1; j < len(d.t); j++ {
		g.Expect(res.Error[j]).To(BeNumerically("<", 1e-9), "step %d", j)

		got, want := centered(res.Evolution.VPtrb[j]), centered(d.drive[j])
		for i := range want {
			g.Expect(got[i]).To(BeNumerically("~", want[i], 5e-5), "step %d point %d", j, i)
		}
	}

	// the same trajectory is not reproduced without the repulsion
	free := &StepResidual{
		Method:    methods.NewNonInteracting(),
		System:    d.system,
		Evolution: res.Evolution,
		VPtrb:     d.zero,
		Target:    d.target,
		Index:     1,
		Dt:        d.t[1] - d.t[0],
	}
	_, n, err := free.Propagate(res.Evolution.VPtrb[1])
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(observables.MeanAbs(n, d.target[1])).To(BeNumerically(">", 1e-9))
}

func TestDynamicCommittedStepsAreReproducible(t *testing.T) {
	g := NewWithT(t)
	d := newDriven(g, 5)
	res := d.run(g, DynamicConfig{})
	evo := res.Evolution

	for j := 1; j < len(d.t); j++ {
		r := &StepResidual{
			Method:    methods.NewNonInteracting(),
			System:    d.system,
			Evolution: evo,
			VPtrb:     d.zero,
			Target:    d.target,
			Index:     j,
			Dt:        d.t[1] - d.t[0],
		}
		frame, n, err := r.Propagate(evo.VPtrb[j])
		g.Expect(err).NotTo(HaveOccurred())

		recorded, _, _ := observables.FrameDensity(evo.Frames[j])
		g.Expect(n).To(Equal(recorded), "step %d", j)
		g.Expect(frame.Up).To(Equal(evo.Frames[j].Up))
		g.Expect(observables.MeanAbs(n, d.target[j])).To(Equal(res.Error[j]))
	}
}

func TestDynamicWarmStartContinuity(t *testing.T) {
	g := NewWithT(t)
	d := newDriven(g, 8)
	res := d.run(g, DynamicConfig{})

	// |d/dt x sin(10t)| <= 0.35 * 10, so successive corrections move by at
	// most 0.035 per step.
	for j := 2; j < len(d.t); j++ {
		prev, cur := centered(res.Evolution.VPtrb[j-1]), centered(res.Evolution.VPtrb[j])
		for i := range cur {
			g.Expect(math.Abs(cur[i]-prev[i])).To(BeNumerically("<", 0.05), "step %d point %d", j, i)
		}
	}
}

func TestDynamicBudgetExhaustionIsReported(t *testing.T) {
	g := NewWithT(t)
	d := newDriven(g, 4)

	var seen []Progress
	res := d.run(g, DynamicConfig{
		MaxEvaluations: 1,
		Observer:       ObserverFunc(func(p Progress) { seen = append(seen, p) }),
	})

	g.Expect(res.Evolution.Committed()).To(Equal(len(d.t)))
	g.Expect(res.Unconverged()).To(HaveLen(len(d.t) - 1))
	for _, step := range res.Steps {
		g.Expect(step.Status).To(Equal(rootfind.EvaluationLimit))
		g.Expect(step.Evaluations).To(Equal(1))
	}
	// the warm start from a zero correction is kept
	g.Expect(res.Evolution.VPtrb[len(d.t)-1]).To(Equal(make([]float64, d.system.Points())))
	g.Expect(res.Error[len(d.t)-1]).To(BeNumerically(">", 0))

	g.Expect(seen).To(HaveLen(len(d.t)))
	g.Expect(seen[0].Status).To(Equal("initial"))
	g.Expect(seen[1].Converged).To(BeFalse())
	g.Expect(seen[1].Status).To(Equal("evaluation limit"))
}

func TestStepResidualLeavesInputsAlone(t *testing.T) {
	g := NewWithT(t)
	d := newDriven(g, 3)
	evo := quantum.NewEvolution(d.t, d.system.Points(), quantum.FrameFromState(d.initial))

	r := &StepResidual{
		Method:    methods.NewNonInteracting(),
		System:    d.system,
		Evolution: evo,
		VPtrb:     d.drive,
		Target:    d.target,
		Index:     1,
		Dt:        d.t[1] - d.t[0],
	}
	before := append([]float64(nil), d.drive[1]...)

	dst := make([]float64, d.system.Points())
	g.Expect(r.Evaluate(dst, make([]float64, d.system.Points()))).To(Succeed())

	// the drive is the exact potential, so a zero correction leaves no residual
	for i := range dst {
		g.Expect(dst[i]).To(BeNumerically("~", 0, 1e-14))
	}
	g.Expect(d.drive[1]).To(Equal(before))
	g.Expect(evo.Committed()).To(Equal(1))

	g.Expect(r.Evaluate(dst, []float64{1})).To(MatchError(ErrDimension))
}

func TestDynamicInputErrors(t *testing.T) {
	g := NewWithT(t)
	d := newDriven(g, 3)
	m := methods.NewNonInteracting()
	ctx := context.Background()

	_, err := Dynamic(ctx, m, d.system, d.initial, d.target[:2], d.zero, d.t, DynamicConfig{})
	g.Expect(err).To(MatchError(ErrDimension))

	_, err = Dynamic(ctx, m, d.system, d.initial, d.target, d.zero, []float64{0, 0, 0}, DynamicConfig{})
	g.Expect(err).To(MatchError(ErrTimeGrid))

	_, err = Dynamic(ctx, m, d.system, d.initial, d.target, d.zero, []float64{0, 0.01, 0.03}, DynamicConfig{})
	g.Expect(err).To(MatchError(ErrTimeGrid), "uneven spacing")

	_, err = Dynamic(ctx, m, d.system, d.initial, nil, nil, nil, DynamicConfig{})
	g.Expect(err).To(MatchError(ErrTimeGrid))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	res, err := Dynamic(canceled, m, d.system, d.initial, d.target, d.zero, d.t, DynamicConfig{})
	var stepErr *StepError
	g.Expect(errors.As(err, &stepErr)).To(BeTrue())
	g.Expect(stepErr.Index).To(Equal(1))
	g.Expect(err).To(MatchError(context.Canceled))
	g.Expect(res.Evolution.Committed()).To(Equal(1))
}

func TestDynamicSingleTime(t *testing.T) {
	g := NewWithT(t)
	d := newDriven(g, 1)

	res := d.run(g, DynamicConfig{})
	g.Expect(res.Steps).To(BeEmpty())
	g.Expect(res.Error).To(HaveLen(1))
	g.Expect(res.Error[0]).To(BeNumerically("<", 1e-15))
}
