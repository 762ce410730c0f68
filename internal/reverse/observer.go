package reverse

// Stage identifies the reverser reporting progress.
type Stage int

const (
	StageStatic Stage = iota
	StageDynamic
)

func (s Stage) String() string {
	if s == StageDynamic {
		return "dynamic"
	}
	return "static"
}

// Progress is reported once per static iteration or dynamic time step.
type Progress struct {
	Stage Stage

	// Index is the 1-based iteration (static) or the time index (dynamic).
	Index int
	// Total is the iteration cap (static) or the number of time indices.
	Total int

	// Convergence is dx Σ|n - target| (static) or mean|n - target| at the
	// committed step (dynamic).
	Convergence float64

	Status      string
	Converged   bool
	Evaluations int
}

// Observer receives progress from a reverser. Observe is called
// synchronously from the reverser's loop.
type Observer interface {
	Observe(Progress)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(Progress)

func (f ObserverFunc) Observe(p Progress) { f(p) }

type observers []Observer

func (o observers) Observe(p Progress) {
	for _, obs := range o {
		obs.Observe(p)
	}
}

// Observers fans progress out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	out := make(observers, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func notify(o Observer, p Progress) {
	if o != nil {
		o.Observe(p)
	}
}
