package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if cfg.Sol.DurationSeconds != 60 {
		t.Errorf("sol duration = %v, want 60", cfg.Sol.DurationSeconds)
	}
	if cfg.Panels.MissionTarget != 20 {
		t.Errorf("mission target = %d, want 20", cfg.Panels.MissionTarget)
	}
	if len(cfg.Processes) != 4 {
		t.Fatalf("expected 4 processes, got %d", len(cfg.Processes))
	}

	refinery, ok := cfg.Process("refinery")
	if !ok {
		t.Fatal("refinery not found")
	}
	if refinery.Duration != 15 || refinery.Inputs["regolith"] != 20 || refinery.Outputs["iron_ore"] != 4 {
		t.Errorf("unexpected refinery definition: %+v", refinery)
	}
	if _, ok := cfg.Process("smelter"); ok {
		t.Error("unknown process should not be found")
	}

	want := []string{"battery_expansion", "improved_life_support"}
	if len(cfg.Derived.UpgradeNames) != len(want) {
		t.Fatalf("upgrade names = %v, want %v", cfg.Derived.UpgradeNames, want)
	}
	for i, n := range want {
		if cfg.Derived.UpgradeNames[i] != n {
			t.Errorf("upgrade names = %v, want sorted %v", cfg.Derived.UpgradeNames, want)
		}
	}

	// start, three detours, one revisit, start
	if cfg.Derived.MissionPoints != 6 {
		t.Errorf("mission points = %d, want 6", cfg.Derived.MissionPoints)
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	override := `
sol:
  duration_seconds: 120
colony:
  resources:
    oxygen: 10
`
	if err := os.WriteFile(path, []byte(override), 0644); err != nil {
		t.Fatalf("writing override: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Sol.DurationSeconds != 120 {
		t.Errorf("sol duration = %v, want override 120", cfg.Sol.DurationSeconds)
	}
	if cfg.Sol.MorningTime != 0.3 {
		t.Errorf("morning time = %v, want default 0.3", cfg.Sol.MorningTime)
	}
	if cfg.Colony.Resources["oxygen"] != 10 {
		t.Errorf("oxygen = %v, want override 10", cfg.Colony.Resources["oxygen"])
	}
	if cfg.Colony.Resources["water"] != 78 {
		t.Errorf("water = %v, want default 78", cfg.Colony.Resources["water"])
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero sol", "sol:\n  duration_seconds: 0\n"},
		{"zero integrate cadence", "power:\n  integrate_every: 0\n"},
		{"duplicate process", "processes:\n  - {name: a, duration: 1}\n  - {name: a, duration: 2}\n"},
		{"bad return index", "mission:\n  return_via: [7]\n"},
		{"inverted yield", "mission:\n  ore_yield: {min: 5, max: 1}\n"},
		{"narrow canyon", "terrain:\n  top_width: 10\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatalf("writing config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWriteYAMLReloads(t *testing.T) {
	cfg := Default()
	cfg.Autopilot.BatteryReserve = 0.55

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.Autopilot.BatteryReserve != 0.55 {
		t.Errorf("battery reserve = %v, want 0.55", reloaded.Autopilot.BatteryReserve)
	}
}

func TestCfgPanicsBeforeInit(t *testing.T) {
	saved := global
	global = nil
	defer func() {
		global = saved
		if recover() == nil {
			t.Error("expected panic from Cfg before Init")
		}
	}()
	Cfg()
}
