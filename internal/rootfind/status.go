package rootfind

import "fmt"

// Status describes how a solve terminated.
type Status int

const (
	// Converged means the residual norm or the trust radius fell below the
	// tolerance.
	Converged Status = iota
	// EvaluationLimit means the evaluation budget ran out first.
	EvaluationLimit
	// NoProgress means the residual stopped decreasing even with a fresh
	// Jacobian.
	NoProgress
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case EvaluationLimit:
		return "evaluation limit"
	case NoProgress:
		return "no progress"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}
