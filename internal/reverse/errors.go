package reverse

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConverged indicates the static reverser hit its iteration cap.
	ErrNotConverged = errors.New("reverse: static inversion did not converge")

	// ErrDimension indicates a target, guess or perturbation of the wrong shape.
	ErrDimension = errors.New("reverse: dimension mismatch")

	// ErrTimeGrid indicates an empty time grid or one without uniform
	// positive spacing.
	ErrTimeGrid = errors.New("reverse: time grid needs at least one point and uniform positive spacing")
)

// StepError wraps a failure at one time step of the dynamic reverser.
type StepError struct {
	Index   int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("reverse: step %d (t=%g): %v", e.Index, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
