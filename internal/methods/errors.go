package methods

import "errors"

var (
	// ErrDimension indicates a potential or density of the wrong length.
	ErrDimension = errors.New("methods: dimension mismatch")

	// ErrEigen indicates a failed symmetric eigendecomposition.
	ErrEigen = errors.New("methods: eigendecomposition failed")

	// ErrTooManyElectrons indicates more electrons of one spin than orbitals.
	ErrTooManyElectrons = errors.New("methods: more electrons than grid points")

	// ErrNoInteraction indicates an interacting method used on a system without v_int.
	ErrNoInteraction = errors.New("methods: system has no interaction potential")

	// ErrSCFNotConverged indicates the self-consistent loop hit its iteration cap.
	ErrSCFNotConverged = errors.New("methods: self-consistency did not converge")

	// ErrRestrictedSpin indicates a restricted propagation with more down than up orbitals.
	ErrRestrictedSpin = errors.New("methods: restricted propagation needs down count <= up count")

	// ErrTimeGrid indicates a time grid without uniform positive spacing.
	ErrTimeGrid = errors.New("methods: time grid needs uniform positive spacing")

	// ErrNoEnergy indicates a method without a total energy.
	ErrNoEnergy = errors.New("methods: total energy not available")
)
