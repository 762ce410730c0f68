package quantum

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// DefaultPoints is the grid size of the built-in systems.
const DefaultPoints = 300

// Linspace returns n evenly spaced values over [start, stop].
func Linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// SoftenedInteraction returns v(x,x') = strength / (|x-x'| + softening).
func SoftenedInteraction(x []float64, strength, softening float64) *mat.SymDense {
	n := len(x)
	v := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v.SetSym(i, j, strength/(math.Abs(x[i]-x[j])+softening))
		}
	}
	return v
}

// QHO returns two spin-up electrons in a harmonic trap of frequency 0.25.
func QHO(points int) (*System, error) {
	if points == 0 {
		points = DefaultPoints
	}
	x := Linspace(-10, 10, points)
	v := make([]float64, points)
	for i, xi := range x {
		v[i] = 0.5 * 0.25 * 0.25 * xi * xi
	}
	return NewSystem(x, v, SoftenedInteraction(x, 1, 1), "uu", DefaultStencil)
}

// Atom returns a softened two-electron atom with opposite spins.
func Atom(points int) (*System, error) {
	if points == 0 {
		points = DefaultPoints
	}
	x := Linspace(-20, 20, points)
	v := make([]float64, points)
	for i, xi := range x {
		v[i] = -2.0 / (math.Abs(xi) + 1.0)
	}
	return NewSystem(x, v, SoftenedInteraction(x, 1, 1), "ud", DefaultStencil)
}

var builtins = map[string]func(points int) (*System, error){
	"qho":  QHO,
	"atom": Atom,
}

// Preset returns the built-in system with the given name.
func Preset(name string, points int) (*System, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown system: %s", name)
	}
	return fn(points)
}

// Presets returns the names of the built-in systems.
func Presets() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
