package reverse

import (
	"fmt"

	"github.com/san-kum/dynrev/internal/methods"
	"github.com/san-kum/dynrev/internal/observables"
	"github.com/san-kum/dynrev/internal/quantum"
	"gonum.org/v1/gonum/floats"
)

// StepResidual measures, for time index Index, the density mismatch left
// by propagating frame Index-1 one step under VPtrb[Index] plus a trial
// correction. It keeps no state between calls and never writes to VPtrb,
// Target or Evolution.
type StepResidual struct {
	Method     methods.Method
	System     *quantum.System
	Evolution  *quantum.Evolution
	VPtrb      [][]float64
	Target     [][]float64
	Index      int
	Dt         float64
	Restricted bool
}

// Evaluate writes n(Index) - Target[Index] for the trial correction to dst.
func (r *StepResidual) Evaluate(dst, trial []float64) error {
	_, n, err := r.Propagate(trial)
	if err != nil {
		return err
	}
	floats.SubTo(dst, n, r.Target[r.Index])
	return nil
}

// Propagate returns the frame and density that the trial correction
// produces at time index Index.
func (r *StepResidual) Propagate(trial []float64) (*quantum.Frame, []float64, error) {
	j := r.Index
	if len(trial) != r.System.Points() {
		return nil, nil, fmt.Errorf("%w: trial has %d points, grid has %d", ErrDimension, len(trial), r.System.Points())
	}

	row := make([]float64, len(trial))
	floats.AddTo(row, r.VPtrb[j], trial)

	prev, err := r.Evolution.Frame(j - 1)
	if err != nil {
		return nil, nil, err
	}
	h, err := r.Method.Hamiltonian(r.System, observables.OfFrame(prev))
	if err != nil {
		return nil, nil, err
	}
	frame, err := r.Method.PropagateStep(r.System, r.Evolution, h, row, j, r.Dt, r.Restricted)
	if err != nil {
		return nil, nil, err
	}
	n, _, _ := observables.FrameDensity(frame)
	return frame, n, nil
}
