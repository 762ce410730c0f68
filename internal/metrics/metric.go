package metrics

import (
	"sort"

	"github.com/san-kum/dynrev/internal/reverse"
)

// Metric summarises the progress stream of a reverser.
type Metric interface {
	Name() string
	Observe(p reverse.Progress)
	Value() float64
	Reset()
}

// Recorder is a reverse.Observer that feeds every update to its metrics.
type Recorder struct {
	metrics []Metric
}

func NewRecorder(ms ...Metric) *Recorder {
	return &Recorder{metrics: ms}
}

// NewDefaultRecorder records every metric of this package.
func NewDefaultRecorder() *Recorder {
	return NewRecorder(
		NewIterations(),
		NewConvergence(),
		NewStepError(),
		NewEvaluations(),
		NewUnconverged(),
	)
}

func (r *Recorder) Add(m Metric) { r.metrics = append(r.metrics, m) }

func (r *Recorder) Observe(p reverse.Progress) {
	for _, m := range r.metrics {
		m.Observe(p)
	}
}

// Values returns the current value of every metric by name.
func (r *Recorder) Values() map[string]float64 {
	out := make(map[string]float64, len(r.metrics))
	for _, m := range r.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Names returns the metric names in sorted order.
func (r *Recorder) Names() []string {
	names := make([]string, 0, len(r.metrics))
	for _, m := range r.metrics {
		names = append(names, m.Name())
	}
	sort.Strings(names)
	return names
}

func (r *Recorder) Reset() {
	for _, m := range r.metrics {
		m.Reset()
	}
}
