// Package integrators provides fixed-step integrators for first-order
// systems dx/dt = f(x, t) on real state vectors.
package integrators

// State is a real state vector.
type State []float64

// System evaluates the derivative of x at time t into dst.
type System interface {
	Derive(dst, x State, t float64)
}

// SystemFunc adapts a function to the System interface.
type SystemFunc func(dst, x State, t float64)

// Derive calls f(dst, x, t).
func (f SystemFunc) Derive(dst, x State, t float64) { f(dst, x, t) }

// Integrator advances a state by one step of size dt.
type Integrator interface {
	Step(sys System, x State, t, dt float64) State
}
