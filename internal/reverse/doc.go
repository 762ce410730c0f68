// Package reverse finds fictitious potentials that reproduce a target
// density under a chosen method.
//
// Static runs a density-mixing fixed point,
//
//	v ← v + mu (n^pe - target^pe)
//
// until dx Σ|n - target| falls below the tolerance, or until the iteration
// cap is reached, in which case ErrNotConverged is returned together with
// the last snapshot.
//
// Dynamic reconstructs a time-dependent potential correction one time step
// at a time. Each step is a root solve of [StepResidual] warm-started from
// the previous correction. Steps are strictly sequential: step j is built
// from the committed frame of step j-1. A step whose root solve exhausts
// its evaluation budget is kept and reported through [StepReport.Status].
//
// Both reversers accept an [Observer] that is called once per iteration or
// time step.
package reverse
