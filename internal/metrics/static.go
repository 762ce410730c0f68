package metrics

import "github.com/san-kum/dynrev/internal/reverse"

// Iterations counts static iterations.
type Iterations struct {
	name  string
	count int
}

func NewIterations() *Iterations {
	return &Iterations{name: "iterations"}
}

func (m *Iterations) Name() string { return m.name }

func (m *Iterations) Observe(p reverse.Progress) {
	if p.Stage == reverse.StageStatic {
		m.count++
	}
}

func (m *Iterations) Value() float64 { return float64(m.count) }

func (m *Iterations) Reset() { m.count = 0 }

// Convergence is the last static convergence value, dx Σ|n - target|.
type Convergence struct {
	name    string
	last    float64
	samples int
}

func NewConvergence() *Convergence {
	return &Convergence{name: "convergence"}
}

func (m *Convergence) Name() string { return m.name }

func (m *Convergence) Observe(p reverse.Progress) {
	if p.Stage != reverse.StageStatic {
		return
	}
	m.last = p.Convergence
	m.samples++
}

func (m *Convergence) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.last
}

func (m *Convergence) Reset() {
	m.last = 0
	m.samples = 0
}
