package colony

import (
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/colony/components"
	"github.com/pthm-cable/colony/config"
	"github.com/pthm-cable/colony/systems"
)

// newTestColony builds a colony from the embedded defaults, optionally adjusted.
func newTestColony(t *testing.T, seed int64, adjust func(*config.Config)) *Colony {
	t.Helper()
	cfg := config.Default()
	if adjust != nil {
		adjust(cfg)
	}
	c, err := New(cfg, Options{
		Rand:   rand.New(rand.NewSource(seed)),
		Logger: slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_InitialState(t *testing.T) {
	c := newTestColony(t, 1, nil)
	s := c.Snapshot()

	if s.Sol != 1 || s.TimeOfDay != 0.3 {
		t.Errorf("sol/time = %d/%v, want 1/0.3", s.Sol, s.TimeOfDay)
	}
	if s.BatteryCharge != 5000 || s.BatteryCapacity != 10000 {
		t.Errorf("battery = %v/%d, want 5000/10000", s.BatteryCharge, s.BatteryCapacity)
	}
	if s.BatteryPercent != 50 {
		t.Errorf("battery percent = %v, want 50", s.BatteryPercent)
	}
	if s.PanelCount != 4 || s.Victory {
		t.Errorf("panels = %d victory = %v, want 4 and false", s.PanelCount, s.Victory)
	}
	if s.Resources[components.Oxygen] != 94 || s.Resources[components.IronPlates] != 10 {
		t.Errorf("unexpected starting resources: %v", s.Resources)
	}
	if len(s.Processes) != 4 {
		t.Errorf("expected 4 process statuses, got %d", len(s.Processes))
	}
	for name, installed := range s.Upgrades {
		if installed {
			t.Errorf("upgrade %s installed at start", name)
		}
	}
}

func TestAdvance_RejectsBadDelta(t *testing.T) {
	c := newTestColony(t, 1, nil)
	for _, dt := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := c.Advance(dt)
		if !errors.Is(err, systems.ErrPrecondition) {
			t.Errorf("Advance(%v): expected ErrPrecondition, got %v", dt, err)
		}
	}
	if c.Tick() != 0 || c.Clock() != 0 {
		t.Error("rejected advance moved the clock")
	}
}

func TestAdvance_DayCycleWraps(t *testing.T) {
	c := newTestColony(t, 1, nil)

	if _, err := c.Advance(30); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got := c.TimeOfDay(); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("timeOfDay = %v, want 0.8", got)
	}
	if _, err := c.Advance(30); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got := c.TimeOfDay(); math.Abs(got-0.3) > 1e-9 {
		t.Errorf("timeOfDay = %v, want wrapped 0.3", got)
	}
	if c.Sol() != 1 {
		t.Errorf("sol = %d, want 1: only AdvanceDay moves the sol", c.Sol())
	}
}

func TestAdvance_ProcessCompletes(t *testing.T) {
	c := newTestColony(t, 1, nil)

	if err := c.StartProcess("refinery"); err != nil {
		t.Fatalf("StartProcess: %v", err)
	}
	if got := c.Resource(components.Regolith); got != 30 {
		t.Errorf("regolith = %v, want 30", got)
	}
	if got := c.Consumption(); got != 250 {
		t.Errorf("consumption = %v, want base 50 + refinery 200", got)
	}

	var completed []string
	for i := 0; i < 15; i++ {
		report, err := c.Advance(1)
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
		completed = append(completed, report.CompletedProcesses...)
	}

	if len(completed) != 1 || completed[0] != "refinery" {
		t.Fatalf("completed = %v, want [refinery]", completed)
	}
	if got := c.Resource(components.IronOre); got != 29 {
		t.Errorf("iron ore = %v, want 25 + 4", got)
	}
	if got := c.Resource(components.Electronics); got != 7 {
		t.Errorf("electronics = %v, want 5 + 2", got)
	}
}

func TestAdvance_PowerIntegrationCadence(t *testing.T) {
	c := newTestColony(t, 1, func(cfg *config.Config) {
		cfg.Colony.PanelCount = 0
		cfg.Power.IntegrateEvery = 1
	})

	// Half a second is not enough to integrate
	report, err := c.Advance(0.5)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if report.PowerIntegrated || c.BatteryCharge() != 5000 {
		t.Errorf("integrated early: report=%v charge=%v", report.PowerIntegrated, c.BatteryCharge())
	}

	// The accumulated second is integrated in one step
	report, err = c.Advance(0.5)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if !report.PowerIntegrated {
		t.Fatal("expected integration after one accumulated second")
	}
	want := 5000 - 50.0/60.0
	if math.Abs(c.BatteryCharge()-want) > 1e-9 {
		t.Errorf("charge = %v, want %v", c.BatteryCharge(), want)
	}
}

func TestAdvance_PowerCriticalCrossing(t *testing.T) {
	c := newTestColony(t, 1, func(cfg *config.Config) {
		cfg.Colony.PanelCount = 0
		cfg.Colony.BatteryCharge = 2005
	})

	crossings := 0
	for i := 0; i < 60; i++ {
		report, err := c.Advance(1)
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
		if report.PowerCritical {
			crossings++
			if c.BatteryFraction() >= 0.2 {
				t.Errorf("critical reported at fraction %v", c.BatteryFraction())
			}
		}
	}

	if crossings != 1 {
		t.Errorf("power critical reported %d times, want exactly once", crossings)
	}
}

func TestAdvance_PowerCriticalAfterCommand(t *testing.T) {
	tests := []struct {
		name   string
		charge float64
		act    func(c *Colony) error
		want   int
	}{
		{
			name:   "deploy draw crosses threshold",
			charge: 2040,
			act:    func(c *Colony) error { return c.DeployMission() },
			want:   1,
		},
		{
			name:   "capacity expansion lowers fraction",
			charge: 3000,
			act:    func(c *Colony) error { return c.ApplyUpgrade("battery_expansion") },
			want:   1,
		},
		{
			name:   "already below at start",
			charge: 1000,
			act:    func(c *Colony) error { return nil },
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestColony(t, 1, func(cfg *config.Config) {
				cfg.Colony.PanelCount = 0
				cfg.Colony.BatteryCharge = tt.charge
				cfg.Colony.Resources["iron_plates"] = 20
				cfg.Colony.Resources["electronics"] = 10
			})
			if err := tt.act(c); err != nil {
				t.Fatalf("command: %v", err)
			}
			if c.BatteryFraction() >= 0.2 && tt.want > 0 {
				t.Fatalf("fraction after command = %v, expected below 0.2", c.BatteryFraction())
			}

			crossings := 0
			for i := 0; i < 120; i++ {
				report, err := c.Advance(1)
				if err != nil {
					t.Fatalf("Advance: %v", err)
				}
				if report.PowerCritical {
					crossings++
				}
			}
			if crossings != tt.want {
				t.Errorf("power critical reported %d times, want %d", crossings, tt.want)
			}
		})
	}
}

func TestAdvance_MissionCreditsYield(t *testing.T) {
	c := newTestColony(t, 7, nil)

	if err := c.DeployMission(); err != nil {
		t.Fatalf("DeployMission: %v", err)
	}
	if got := c.BatteryCharge(); got != 4950 {
		t.Errorf("charge after deploy = %v, want 4950", got)
	}
	if !c.MissionActive() {
		t.Fatal("expected mission to be active")
	}
	path := c.Snapshot().Mission.Path
	if len(path) != 6 || path[0] != path[5] || path[1] != path[4] {
		t.Errorf("unexpected route: %v", path)
	}

	var completion *MissionCompletion
	for i := 0; i < 12 && completion == nil; i++ {
		report, err := c.Advance(1)
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
		completion = report.Mission
	}
	if completion == nil {
		t.Fatal("mission did not complete within its duration")
	}
	if c.MissionActive() {
		t.Error("mission still active after completion")
	}

	y := completion.Yield
	if got := c.Resource(components.IronOre); got != 25+y.IronOre {
		t.Errorf("iron ore = %v, want 25 + %v", got, y.IronOre)
	}
	if got := c.Resource(components.Regolith); got != 50+y.Regolith {
		t.Errorf("regolith = %v, want 50 + %v", got, y.Regolith)
	}
	if rover := c.Snapshot().Mission.Rover.Position; rover != path[0] {
		t.Errorf("rover at %v, want back home at %v", rover, path[0])
	}
}

func TestMissionRoute_UsesHeight(t *testing.T) {
	cfg := config.Default()
	c, err := New(cfg, Options{
		Seed:   1,
		Logger: slog.New(slog.DiscardHandler),
		Height: func(x, z float64) float64 { return -40 },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.DeployMission(); err != nil {
		t.Fatalf("DeployMission: %v", err)
	}
	for i, p := range c.Snapshot().Mission.Path {
		if p.Y != -40 {
			t.Errorf("waypoint %d at height %v, want -40", i, p.Y)
		}
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	c := newTestColony(t, 1, nil)
	s := c.Snapshot()
	s.Resources[components.Oxygen] = 0
	s.Upgrades["battery_expansion"] = true

	if got := c.Resource(components.Oxygen); got != 94 {
		t.Errorf("mutating snapshot changed oxygen to %v", got)
	}
	if c.Upgraded("battery_expansion") {
		t.Error("mutating snapshot installed an upgrade")
	}
}
