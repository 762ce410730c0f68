package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/dynrev/internal/methods"
	"github.com/san-kum/dynrev/internal/quantum"
	"github.com/san-kum/dynrev/internal/reverse"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSystem     = "qho"
	DefaultPoints     = 60
	DefaultStencil    = quantum.DefaultStencil
	DefaultReference  = "hartree"
	DefaultFictitious = "non_interacting"
	DefaultPropagator = "exact"

	DefaultMixing        = methods.DefaultMixing
	DefaultSCFTolerance  = methods.DefaultSCFTolerance
	DefaultSCFIterations = methods.DefaultSCFIterations

	DefaultMu              = reverse.DefaultMu
	DefaultPe              = reverse.DefaultPe
	DefaultStaticTolerance = reverse.DefaultStaticTolerance
	DefaultMaxIterations   = reverse.DefaultMaxIterations

	DefaultDt               = 0.01
	DefaultSteps            = 20
	DefaultField            = 0.01
	DefaultDynamicTolerance = reverse.DefaultDynamicTolerance
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	System     SystemConfig  `yaml:"system"`
	Reference  string        `yaml:"reference"`
	Fictitious string        `yaml:"fictitious"`
	Propagator string        `yaml:"propagator"`
	SCF        SCFConfig     `yaml:"scf"`
	Static     StaticConfig  `yaml:"static"`
	Dynamic    DynamicConfig `yaml:"dynamic"`
	Silent     bool          `yaml:"silent"`
}

type SystemConfig struct {
	Preset  string `yaml:"preset"`
	Points  int    `yaml:"points"`
	Stencil int    `yaml:"stencil"`
}

// SCFConfig is passed to the reference solve.
type SCFConfig struct {
	Mixing        float64 `yaml:"mixing"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
	Restricted    bool    `yaml:"restricted"`
}

type StaticConfig struct {
	Mu            float64 `yaml:"mu"`
	Pe            float64 `yaml:"pe"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
}

// DynamicConfig describes the reference run, a linear field E·x switched
// on after t = 0, and its inversion.
type DynamicConfig struct {
	Dt             float64 `yaml:"dt"`
	Steps          int     `yaml:"steps"`
	Field          float64 `yaml:"field"`
	Tolerance      float64 `yaml:"tolerance"`
	MaxEvaluations int     `yaml:"max_evaluations"`
	Restricted     bool    `yaml:"restricted"`
}

func DefaultConfig() *Config {
	return &Config{
		System: SystemConfig{
			Preset:  DefaultSystem,
			Points:  DefaultPoints,
			Stencil: DefaultStencil,
		},
		Reference:  DefaultReference,
		Fictitious: DefaultFictitious,
		Propagator: DefaultPropagator,
		SCF: SCFConfig{
			Mixing:        DefaultMixing,
			Tolerance:     DefaultSCFTolerance,
			MaxIterations: DefaultSCFIterations,
		},
		Static: StaticConfig{
			Mu:            DefaultMu,
			Pe:            DefaultPe,
			Tolerance:     DefaultStaticTolerance,
			MaxIterations: DefaultMaxIterations,
		},
		Dynamic: DynamicConfig{
			Dt:        DefaultDt,
			Steps:     DefaultSteps,
			Field:     DefaultField,
			Tolerance: DefaultDynamicTolerance,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto overlays the file at path on cfg. Keys missing from the file
// keep the values already in cfg.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first value no run could use.
func (c *Config) Validate() error {
	switch {
	case c.System.Points < 3:
		return fmt.Errorf("%w: system.points %d", ErrInvalid, c.System.Points)
	case c.SCF.Mixing <= 0 || c.SCF.Mixing > 1:
		return fmt.Errorf("%w: scf.mixing %g not in (0, 1]", ErrInvalid, c.SCF.Mixing)
	case c.Static.Mu <= 0:
		return fmt.Errorf("%w: static.mu %g", ErrInvalid, c.Static.Mu)
	case c.Static.Pe <= 0:
		return fmt.Errorf("%w: static.pe %g", ErrInvalid, c.Static.Pe)
	case c.Static.Tolerance <= 0:
		return fmt.Errorf("%w: static.tolerance %g", ErrInvalid, c.Static.Tolerance)
	case c.Static.MaxIterations < 1:
		return fmt.Errorf("%w: static.max_iterations %d", ErrInvalid, c.Static.MaxIterations)
	case c.Dynamic.Dt <= 0:
		return fmt.Errorf("%w: dynamic.dt %g", ErrInvalid, c.Dynamic.Dt)
	case c.Dynamic.Steps < 1:
		return fmt.Errorf("%w: dynamic.steps %d", ErrInvalid, c.Dynamic.Steps)
	case c.Dynamic.MaxEvaluations < 0:
		return fmt.Errorf("%w: dynamic.max_evaluations %d", ErrInvalid, c.Dynamic.MaxEvaluations)
	}
	if _, err := methods.ParsePropagator(c.Propagator); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// BuildSystem returns the preset system on the configured grid.
func (c *Config) BuildSystem() (*quantum.System, error) {
	s, err := quantum.Preset(c.System.Preset, c.System.Points)
	if err != nil {
		return nil, err
	}
	if c.System.Stencil != 0 && c.System.Stencil != s.Stencil {
		return quantum.NewSystem(s.X, s.VExt, s.VInt, s.Electrons, c.System.Stencil)
	}
	return s, nil
}

// Method returns the named method with the configured propagator.
func (c *Config) Method(r *methods.Registry, name string) (methods.Method, error) {
	m, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	p, err := methods.ParsePropagator(c.Propagator)
	if err != nil {
		return nil, err
	}
	methods.SetPropagator(m, p)
	return m, nil
}

func (c *Config) SolveOptions() []methods.SolveOption {
	return []methods.SolveOption{
		methods.WithMixing(c.SCF.Mixing),
		methods.WithTolerance(c.SCF.Tolerance),
		methods.WithMaxIterations(c.SCF.MaxIterations),
		methods.WithRestricted(c.SCF.Restricted),
	}
}

func (c *Config) StaticSettings() reverse.StaticConfig {
	return reverse.StaticConfig{
		Mu:            c.Static.Mu,
		Pe:            c.Static.Pe,
		Tolerance:     c.Static.Tolerance,
		MaxIterations: c.Static.MaxIterations,
	}
}

func (c *Config) DynamicSettings() reverse.DynamicConfig {
	return reverse.DynamicConfig{
		Restricted:     c.Dynamic.Restricted,
		Tolerance:      c.Dynamic.Tolerance,
		MaxEvaluations: c.Dynamic.MaxEvaluations,
	}
}

// TimeGrid returns Steps+1 times from 0 spaced by Dt.
func (c *Config) TimeGrid() []float64 {
	return quantum.Linspace(0, c.Dynamic.Dt*float64(c.Dynamic.Steps), c.Dynamic.Steps+1)
}

// Kick returns the perturbation E·x at every time after t = 0, indexed
// [time][space].
func (c *Config) Kick(s *quantum.System, t []float64) [][]float64 {
	v := make([][]float64, len(t))
	for j := range v {
		v[j] = make([]float64, s.Points())
		if j == 0 {
			continue
		}
		for i, x := range s.X {
			v[j][i] = c.Dynamic.Field * x
		}
	}
	return v
}
