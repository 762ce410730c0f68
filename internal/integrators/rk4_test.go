package integrators

import (
	"math"
	"testing"
)

func oscillator() System {
	return SystemFunc(func(dst, x State, t float64) {
		dst[0] = x[1]
		dst[1] = -x[0]
	})
}

func TestRK4Accuracy(t *testing.T) {
	integ := NewRK4()

	x0 := State{1.0, 0.0}
	dt := 0.01
	steps := 100

	x := Integrate(integ, oscillator(), x0, 0, dt, steps)

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-8 {
		t.Errorf("position error too large: got %.10f, expected %.10f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-8 {
		t.Errorf("velocity error too large: got %.10f, expected %.10f", x[1], expectedV)
	}

	if x0[0] != 1.0 || x0[1] != 0.0 {
		t.Errorf("initial state modified: %v", x0)
	}
}

func TestRK4TimeDependent(t *testing.T) {
	// dx/dt = t, x(0) = 0 => x(1) = 0.5, exact for RK4
	sys := SystemFunc(func(dst, x State, t float64) { dst[0] = t })

	x := Integrate(NewRK4(), sys, State{0}, 0, 0.1, 10)
	if math.Abs(x[0]-0.5) > 1e-12 {
		t.Errorf("got %.14f, want 0.5", x[0])
	}
}

func TestRK4ScratchResize(t *testing.T) {
	integ := NewRK4()
	decay := SystemFunc(func(dst, x State, t float64) {
		for i := range x {
			dst[i] = -x[i]
		}
	})

	a := integ.Step(decay, State{1}, 0, 0.1)
	b := integ.Step(decay, State{1, 2, 3}, 0, 0.1)
	if len(a) != 1 || len(b) != 3 {
		t.Fatalf("unexpected lengths %d and %d", len(a), len(b))
	}
	if math.Abs(b[2]-3*a[0]) > 1e-15 {
		t.Errorf("scaled decay mismatch: %v vs %v", b[2], 3*a[0])
	}
}
