package metrics

import (
	"math"
	"reflect"
	"testing"

	"github.com/san-kum/dynrev/internal/reverse"
)

func staticRun() []reverse.Progress {
	return []reverse.Progress{
		{Stage: reverse.StageStatic, Index: 1, Convergence: 0.5},
		{Stage: reverse.StageStatic, Index: 2, Convergence: 0.1},
		{Stage: reverse.StageStatic, Index: 3, Convergence: 1e-9, Converged: true},
	}
}

func dynamicRun() []reverse.Progress {
	return []reverse.Progress{
		{Stage: reverse.StageDynamic, Index: 0, Convergence: 1e-16, Converged: true},
		{Stage: reverse.StageDynamic, Index: 1, Convergence: 1e-11, Evaluations: 20, Converged: true},
		{Stage: reverse.StageDynamic, Index: 2, Convergence: 3e-4, Evaluations: 900},
		{Stage: reverse.StageDynamic, Index: 3, Convergence: 2e-11, Evaluations: 25, Converged: true},
	}
}

func TestRecorder(t *testing.T) {
	r := NewDefaultRecorder()
	for _, p := range append(staticRun(), dynamicRun()...) {
		r.Observe(p)
	}

	want := map[string]float64{
		"iterations":        3,
		"convergence":       1e-9,
		"max_step_error":    3e-4,
		"evaluations":       945,
		"unconverged_steps": 1,
	}
	got := r.Values()
	for name, w := range want {
		if math.Abs(got[name]-w) > 1e-15 {
			t.Errorf("%s = %v, want %v", name, got[name], w)
		}
	}

	names := []string{"convergence", "evaluations", "iterations", "max_step_error", "unconverged_steps"}
	if !reflect.DeepEqual(r.Names(), names) {
		t.Errorf("names = %v", r.Names())
	}
}

func TestRecorderReset(t *testing.T) {
	r := NewDefaultRecorder()
	for _, p := range dynamicRun() {
		r.Observe(p)
	}
	r.Reset()

	for name, v := range r.Values() {
		if v != 0 {
			t.Errorf("%s = %v after reset", name, v)
		}
	}
}

func TestRecorderAsObserver(t *testing.T) {
	r := NewRecorder(NewIterations())
	var obs reverse.Observer = reverse.Observers(r)

	for _, p := range staticRun() {
		obs.Observe(p)
	}
	if v := r.Values()["iterations"]; v != 3 {
		t.Errorf("iterations = %v, want 3", v)
	}

	r.Add(NewConvergence())
	if len(r.Names()) != 2 {
		t.Errorf("names = %v", r.Names())
	}
}

func TestStagesAreSeparate(t *testing.T) {
	it := NewIterations()
	se := NewStepError()
	for _, p := range dynamicRun() {
		it.Observe(p)
	}
	for _, p := range staticRun() {
		se.Observe(p)
	}
	if it.Value() != 0 {
		t.Errorf("dynamic progress counted as iterations: %v", it.Value())
	}
	if se.Value() != 0 {
		t.Errorf("static progress counted as step error: %v", se.Value())
	}
}
