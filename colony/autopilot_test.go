package colony

import (
	"reflect"
	"testing"

	"github.com/pthm-cable/colony/components"
	"github.com/pthm-cable/colony/config"
)

func runAutopilot(t *testing.T, seed int64, ticks int, dt float64) (*Colony, map[string]int) {
	t.Helper()
	c := newTestColony(t, seed, nil)
	pilot := NewAutopilot(AutopilotParamsFrom(c.Config().Autopilot))
	counts := make(map[string]int)

	for i := 0; i < ticks && !c.Victory(); i++ {
		if _, err := c.Advance(dt); err != nil {
			t.Fatalf("tick %d: Advance: %v", i, err)
		}
		actions, err := pilot.Step(c)
		if err != nil {
			t.Fatalf("tick %d: Step: %v", i, err)
		}
		for _, a := range actions {
			counts[a.Command]++
		}
	}
	return c, counts
}

func TestAutopilot_FirstStep(t *testing.T) {
	c := newTestColony(t, 1, nil)
	pilot := NewAutopilot(AutopilotParamsFrom(c.Config().Autopilot))

	actions, err := pilot.Step(c)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}

	// Plates 10 cover one panel (5) plus the reserve (2), but not two.
	if c.PanelCount() != 5 {
		t.Errorf("panels = %d, want 5", c.PanelCount())
	}
	if !c.MissionActive() {
		t.Error("expected rover to be deployed with a half-full battery")
	}
	if c.ProcessActive("electrolysis") {
		t.Error("electrolysis should wait until oxygen drops below the floor")
	}
	if !c.ProcessActive("refinery") {
		t.Error("expected refinery to start with 50 regolith")
	}

	var sawBuild, sawDeploy bool
	for _, a := range actions {
		switch a.Command {
		case "build_panel":
			sawBuild = true
		case "deploy_mission":
			sawDeploy = true
		}
	}
	if !sawBuild || !sawDeploy {
		t.Errorf("actions = %+v, want a build and a deploy", actions)
	}
}

func TestAutopilot_OxygenFloorFollowsOutputs(t *testing.T) {
	tests := []struct {
		name   string
		oxygen float64
		want   bool
	}{
		{"above floor", 94, false},
		{"below floor", 20, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestColony(t, 1, func(cfg *config.Config) {
				cfg.Processes = []config.ProcessConfig{{
					Name:     "sabatier",
					Duration: 20,
					Power:    120,
					Inputs:   map[string]float64{"water": 5},
					Outputs:  map[string]float64{"oxygen": 4},
				}}
				cfg.Colony.Resources["oxygen"] = tt.oxygen
			})
			pilot := NewAutopilot(AutopilotParamsFrom(c.Config().Autopilot))

			if _, err := pilot.Step(c); err != nil {
				t.Fatalf("Step: %v", err)
			}
			if got := c.ProcessActive("sabatier"); got != tt.want {
				t.Errorf("sabatier active = %v, want %v at oxygen %v", got, tt.want, tt.oxygen)
			}
		})
	}
}

func TestAutopilot_AdvancesDay(t *testing.T) {
	c := newTestColony(t, 1, func(cfg *config.Config) {
		cfg.Colony.TimeOfDay = 0.96
	})
	pilot := NewAutopilot(AutopilotParamsFrom(c.Config().Autopilot))

	if _, err := pilot.Step(c); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c.Sol() != 2 {
		t.Errorf("sol = %d, want 2 after late-day step", c.Sol())
	}
}

func TestAutopilot_RespectsBatteryReserve(t *testing.T) {
	c := newTestColony(t, 1, func(cfg *config.Config) {
		cfg.Colony.BatteryCharge = 1000 // 10%, below the 30% reserve
	})
	pilot := NewAutopilot(AutopilotParamsFrom(c.Config().Autopilot))

	if _, err := pilot.Step(c); err != nil {
		t.Fatalf("Step: %v", err)
	}
	for _, name := range []string{"refinery", "arc_furnace", "fabricator", "electrolysis"} {
		if c.ProcessActive(name) {
			t.Errorf("%s started below the battery reserve", name)
		}
	}
	if c.MissionActive() {
		t.Error("rover deployed below the battery reserve")
	}
}

func TestAutopilot_MakesProgress(t *testing.T) {
	c, counts := runAutopilot(t, 42, 20000, 0.5)

	if counts["start_process"] == 0 || counts["deploy_mission"] == 0 || counts["advance_day"] == 0 {
		t.Errorf("autopilot idle: %v", counts)
	}
	if c.PanelCount() <= 4 {
		t.Errorf("panels = %d, expected growth from 4", c.PanelCount())
	}
	for _, r := range components.AllResources() {
		if v := c.Resource(r); v < 0 {
			t.Errorf("%s negative: %v", r, v)
		}
	}
}

func TestAutopilot_Deterministic(t *testing.T) {
	a, countsA := runAutopilot(t, 7, 3000, 0.5)
	b, countsB := runAutopilot(t, 7, 3000, 0.5)

	if !reflect.DeepEqual(countsA, countsB) {
		t.Errorf("action counts differ: %v vs %v", countsA, countsB)
	}
	if !reflect.DeepEqual(a.Snapshot(), b.Snapshot()) {
		t.Error("same seed produced different colony state")
	}
}
