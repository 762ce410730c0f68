package config

import "sort"

// Presets are named run profiles per system preset.
var Presets = map[string]map[string]*Config{
	"qho": {
		"quick":    profile("qho", 40, 7, 10, 1e-10),
		"accurate": profile("qho", 120, 13, 50, 1e-12),
	},
	"atom": {
		"quick":    profile("atom", 60, 7, 10, 1e-10),
		"accurate": profile("atom", 150, 13, 50, 1e-12),
	},
}

func profile(system string, points, stencil, steps int, tol float64) *Config {
	cfg := DefaultConfig()
	cfg.System = SystemConfig{Preset: system, Points: points, Stencil: stencil}
	cfg.Static.Tolerance = tol
	cfg.Dynamic.Steps = steps
	return cfg
}

// GetPreset returns a copy of the named profile, or nil.
func GetPreset(system, preset string) *Config {
	profiles, ok := Presets[system]
	if !ok {
		return nil
	}
	cfg, ok := profiles[preset]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets(system string) []string {
	profiles, ok := Presets[system]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
