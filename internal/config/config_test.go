package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/dynrev/internal/methods"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.System.Preset != "qho" {
		t.Errorf("expected system qho, got %s", cfg.System.Preset)
	}
	if cfg.Static.Mu != 1.0 || cfg.Static.Pe != 0.1 {
		t.Errorf("mu/pe = %v/%v, want 1/0.1", cfg.Static.Mu, cfg.Static.Pe)
	}
	if cfg.Static.Tolerance != 1e-12 || cfg.Dynamic.Tolerance != 1e-10 {
		t.Errorf("tolerances = %v/%v", cfg.Static.Tolerance, cfg.Dynamic.Tolerance)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte("system:\n  preset: atom\n  points: 80\nstatic:\n  pe: 1\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.System.Preset != "atom" || cfg.System.Points != 80 {
		t.Errorf("system = %+v", cfg.System)
	}
	if cfg.Static.Pe != 1 {
		t.Errorf("pe = %v, want 1", cfg.Static.Pe)
	}
	if cfg.Static.Mu != DefaultMu || cfg.Dynamic.Dt != DefaultDt || cfg.System.Stencil != DefaultStencil {
		t.Errorf("unset values lost their defaults: %+v", cfg)
	}
}

func TestLoadIntoKeepsProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("static:\n  pe: 0.5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := GetPreset("atom", "accurate")
	if err := LoadInto(path, cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Static.Pe != 0.5 {
		t.Errorf("pe = %v, want 0.5", cfg.Static.Pe)
	}
	if cfg.System.Preset != "atom" || cfg.System.Points != 150 || cfg.System.Stencil != 13 {
		t.Errorf("profile system lost: %+v", cfg.System)
	}
	if cfg.Static.Tolerance != 1e-12 || cfg.Dynamic.Steps != 50 {
		t.Errorf("profile settings lost: tol=%v steps=%d", cfg.Static.Tolerance, cfg.Dynamic.Steps)
	}
	if Presets["atom"]["accurate"].Static.Pe != DefaultPe {
		t.Error("loading into a preset copy changed the preset table")
	}

	if err := LoadInto(filepath.Join(t.TempDir(), "missing.yaml"), cfg); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := DefaultConfig()
	cfg.Dynamic.Field = 0.05
	cfg.Silent = true

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *got != *cfg {
		t.Errorf("loaded %+v, want %+v", got, cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"points", func(c *Config) { c.System.Points = 2 }},
		{"mixing", func(c *Config) { c.SCF.Mixing = 1.5 }},
		{"mu", func(c *Config) { c.Static.Mu = 0 }},
		{"pe zero", func(c *Config) { c.Static.Pe = 0 }},
		{"pe negative", func(c *Config) { c.Static.Pe = -0.5 }},
		{"tolerance", func(c *Config) { c.Static.Tolerance = -1 }},
		{"iterations", func(c *Config) { c.Static.MaxIterations = 0 }},
		{"dt", func(c *Config) { c.Dynamic.Dt = 0 }},
		{"steps", func(c *Config) { c.Dynamic.Steps = 0 }},
		{"evaluations", func(c *Config) { c.Dynamic.MaxEvaluations = -5 }},
		{"propagator", func(c *Config) { c.Propagator = "leapfrog" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestBuildSystem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.System.Points = 30
	cfg.System.Stencil = 5

	s, err := cfg.BuildSystem()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if s.Points() != 30 || s.Stencil != 5 {
		t.Errorf("points=%d stencil=%d", s.Points(), s.Stencil)
	}

	cfg.System.Stencil = 4
	if _, err := cfg.BuildSystem(); err == nil {
		t.Error("expected error for even stencil")
	}

	cfg.System.Preset = "nonexistent"
	if _, err := cfg.BuildSystem(); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestTimeGridAndKick(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dynamic.Steps = 4
	cfg.Dynamic.Dt = 0.5
	cfg.Dynamic.Field = 2
	cfg.System.Points = 10

	grid := cfg.TimeGrid()
	if len(grid) != 5 || grid[4] != 2 {
		t.Errorf("grid = %v", grid)
	}

	s, err := cfg.BuildSystem()
	if err != nil {
		t.Fatal(err)
	}
	kick := cfg.Kick(s, grid)
	for i := range s.X {
		if kick[0][i] != 0 {
			t.Fatalf("kick at t=0: %v", kick[0])
		}
		if kick[3][i] != 2*s.X[i] {
			t.Fatalf("kick = %v, want 2x", kick[3])
		}
	}
}

func TestMethod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Propagator = "rk4"

	m, err := cfg.Method(methods.NewRegistry(), "hartree")
	if err != nil {
		t.Fatalf("method: %v", err)
	}
	if h, ok := m.(*methods.Hartree); !ok || h.Propagator != methods.RK4 {
		t.Errorf("method = %#v", m)
	}

	if _, err := cfg.Method(methods.NewRegistry(), "dft"); err == nil {
		t.Error("expected error for unknown method")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("qho", "quick")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.System.Points != 40 {
		t.Errorf("expected 40 points, got %d", cfg.System.Points)
	}

	cfg.System.Points = 1
	if Presets["qho"]["quick"].System.Points != 40 {
		t.Error("GetPreset must return a copy")
	}

	if GetPreset("qho", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "quick") != nil {
		t.Error("expected nil for nonexistent system")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("atom")
	if len(presets) != 2 || presets[0] != "accurate" {
		t.Errorf("presets = %v", presets)
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent system")
	}
}
