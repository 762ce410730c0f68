// Package methods provides the solvers that turn a potential into a
// quantum state and advance time-dependent states.
//
// Each solver implements [Method]:
//
//   - Solve: ground state of a system under its external potential
//   - Hamiltonian: instantaneous single-particle operator for given densities
//   - PropagateStep: advance an evolution by one time step
//
// Two models are available:
//
//   - [NonInteracting]: H = K + v_ext
//   - [Hartree]: H = K + v_ext + v_h[n], solved self-consistently
//
// # Propagation
//
// Both methods propagate with the spectral propagator exp(-i dt H) by
// default. Setting the Propagator field to [RK4] switches to sub-stepped
// Runge-Kutta integration of the split real and imaginary parts.
package methods
