package quantum

import "errors"

// Domain errors for model construction and evolution bookkeeping.
var (
	// ErrGrid indicates a grid with too few points or non-uniform spacing.
	ErrGrid = errors.New("quantum: grid must have at least 3 uniformly spaced points")

	// ErrShape indicates an array whose shape does not match the grid.
	ErrShape = errors.New("quantum: array shape does not match grid")

	// ErrElectrons indicates an electron string with runes other than 'u' and 'd'.
	ErrElectrons = errors.New("quantum: electrons must only contain 'u' and 'd'")

	// ErrStencil indicates an unsupported finite difference stencil.
	ErrStencil = errors.New("quantum: stencil must be one of 3, 5, 7, 9, 11, 13")

	// ErrCausality indicates an evolution entry committed out of time order.
	ErrCausality = errors.New("quantum: evolution entries must be committed in time order")

	// ErrTimeGrid indicates a time grid without uniform positive spacing.
	ErrTimeGrid = errors.New("quantum: time grid needs uniform positive spacing")

	// ErrTimeIndex indicates a time index outside the evolution.
	ErrTimeIndex = errors.New("quantum: time index out of range")
)
