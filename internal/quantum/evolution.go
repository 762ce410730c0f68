package quantum

import (
	"fmt"
	"math"
)

// Evolution is the trajectory of a fictitious system: the potential
// correction applied at every time index and the frame it produced.
type Evolution struct {
	T      []float64
	VPtrb  [][]float64
	Frames []*Frame

	committed int
}

// NewEvolution returns an evolution over the time grid t for a grid of n
// points, with frame0 committed at time index 0 and zero corrections.
func NewEvolution(t []float64, n int, frame0 *Frame) *Evolution {
	e := &Evolution{
		T:      append([]float64(nil), t...),
		VPtrb:  make([][]float64, len(t)),
		Frames: make([]*Frame, len(t)),
	}
	for j := range e.VPtrb {
		e.VPtrb[j] = make([]float64, n)
	}
	if len(t) > 0 {
		e.Frames[0] = frame0
		e.committed = 1
	}
	return e
}

// Len returns the number of time indices.
func (e *Evolution) Len() int { return len(e.T) }

// Committed returns the number of finalised time indices.
func (e *Evolution) Committed() int { return e.committed }

// Frame returns the committed frame at time index j.
func (e *Evolution) Frame(j int) (*Frame, error) {
	if j < 0 || j >= e.committed {
		return nil, fmt.Errorf("%w: frame %d not committed (%d committed)", ErrTimeIndex, j, e.committed)
	}
	return e.Frames[j], nil
}

// Commit finalises time index j with the given correction and frame.
// Entries must be committed in order.
func (e *Evolution) Commit(j int, correction []float64, frame *Frame) error {
	if j < 0 || j >= len(e.T) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrTimeIndex, j, len(e.T))
	}
	if j != e.committed {
		return fmt.Errorf("%w: commit %d, expected %d", ErrCausality, j, e.committed)
	}
	if len(correction) != len(e.VPtrb[j]) {
		return fmt.Errorf("%w: correction has %d points, expected %d", ErrShape, len(correction), len(e.VPtrb[j]))
	}
	copy(e.VPtrb[j], correction)
	e.Frames[j] = frame
	e.committed++
	return nil
}

// CheckTimeGrid returns the step of a uniform, increasing time grid. Grids
// with fewer than two points have step 0.
func CheckTimeGrid(t []float64) (float64, error) {
	if len(t) < 2 {
		return 0, nil
	}
	dt := t[1] - t[0]
	if dt <= 0 {
		return 0, fmt.Errorf("%w: step %g", ErrTimeGrid, dt)
	}
	for j := 2; j < len(t); j++ {
		if math.Abs((t[j]-t[j-1])-dt) > gridEps*dt*float64(len(t)) {
			return 0, fmt.Errorf("%w: spacing differs at index %d", ErrTimeGrid, j)
		}
	}
	return dt, nil
}
