package metrics

import (
	"math"

	"github.com/san-kum/dynrev/internal/reverse"
)

// StepError is the largest mean density error over the dynamic steps.
type StepError struct {
	name     string
	maxError float64
}

func NewStepError() *StepError {
	return &StepError{name: "max_step_error"}
}

func (m *StepError) Name() string { return m.name }

func (m *StepError) Observe(p reverse.Progress) {
	if p.Stage == reverse.StageDynamic {
		m.maxError = math.Max(m.maxError, p.Convergence)
	}
}

func (m *StepError) Value() float64 { return m.maxError }

func (m *StepError) Reset() { m.maxError = 0 }

// Evaluations totals the residual evaluations spent by the dynamic root
// solves.
type Evaluations struct {
	name  string
	total int
}

func NewEvaluations() *Evaluations {
	return &Evaluations{name: "evaluations"}
}

func (m *Evaluations) Name() string { return m.name }

func (m *Evaluations) Observe(p reverse.Progress) {
	if p.Stage == reverse.StageDynamic {
		m.total += p.Evaluations
	}
}

func (m *Evaluations) Value() float64 { return float64(m.total) }

func (m *Evaluations) Reset() { m.total = 0 }

// Unconverged counts the time steps whose root solve stopped short of the
// tolerance.
type Unconverged struct {
	name  string
	count int
}

func NewUnconverged() *Unconverged {
	return &Unconverged{name: "unconverged_steps"}
}

func (m *Unconverged) Name() string { return m.name }

func (m *Unconverged) Observe(p reverse.Progress) {
	if p.Stage == reverse.StageDynamic && p.Index > 0 && !p.Converged {
		m.count++
	}
}

func (m *Unconverged) Value() float64 { return float64(m.count) }

func (m *Unconverged) Reset() { m.count = 0 }
