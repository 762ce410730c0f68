// Package quantum defines the data model shared by the solvers and the
// reversers: model systems on a uniform 1D grid, single-particle states and
// time-dependent evolutions.
//
//   - [System]: grid, external potential, interaction and electrons
//   - [State]: spin-resolved orbitals with energies and occupations
//   - [Frame]: occupied time-dependent orbitals at one time index
//   - [Evolution]: potential corrections and frames over a time grid
//
// # Value Semantics
//
// A System is never mutated after construction. Use [System.WithPotential]
// to derive a new snapshot with a different external potential:
//
//	s, _ := quantum.QHO(100)
//	shifted := s.WithPotential(v)
//
// An Evolution is append-only: entry j can only be committed once entry
// j-1 has been committed.
package quantum
