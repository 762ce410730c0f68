package rootfind

import "errors"

var (
	// ErrDimension indicates an empty starting point.
	ErrDimension = errors.New("rootfind: initial point must not be empty")

	// ErrBudget indicates a budget too small for one residual evaluation.
	ErrBudget = errors.New("rootfind: evaluation budget must be positive")
)
