package colony

import (
	"testing"

	"github.com/pthm-cable/colony/telemetry"
)

func TestRecorder_FlushesWindows(t *testing.T) {
	c := newTestColony(t, 3, nil)
	pilot := NewAutopilot(AutopilotParamsFrom(c.Config().Autopilot))
	rec := NewRecorder(c, nil, nil, false)

	var windows []telemetry.WindowStats
	rec.StatsCallback = func(s telemetry.WindowStats) {
		windows = append(windows, s)
	}

	// 200 simulated seconds with a 60 second window
	for i := 0; i < 200; i++ {
		report, err := c.Advance(1)
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
		actions, err := pilot.Step(c)
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		rec.Observe(c, report, actions)
	}

	if len(windows) != 3 {
		t.Fatalf("expected 3 flushed windows, got %d", len(windows))
	}

	// Close the partial window so every event is covered
	rec.Flush(c)
	if len(windows) != 4 {
		t.Fatalf("expected final flush to add a window, got %d", len(windows))
	}

	const eps = 1e-12
	for i, w := range windows {
		if w.BatteryMin > w.BatteryMean+eps || w.BatteryMean > w.BatteryMax+eps {
			t.Errorf("window %d: battery stats out of order: %+v", i, w)
		}
		if w.Panels < 4 {
			t.Errorf("window %d: panels = %d", i, w.Panels)
		}
	}

	var missions, processes int
	for _, w := range windows {
		missions += w.MissionsCompleted
		processes += w.ProcessesCompleted
	}
	if missions == 0 || processes == 0 {
		t.Errorf("expected completed work in windows: missions=%d processes=%d", missions, processes)
	}

	counts := rec.Events().CountByType()
	if counts[telemetry.EventPanelBuilt] == 0 {
		t.Error("expected a panel_built event")
	}
	if counts[telemetry.EventMissionComplete] != missions {
		t.Errorf("mission events = %d, window total = %d", counts[telemetry.EventMissionComplete], missions)
	}
}

func TestRecorder_VictoryEventOnce(t *testing.T) {
	c := newTestColony(t, 1, nil)
	rec := NewRecorder(c, nil, nil, false)
	c.cfg.Panels.MissionTarget = 5

	if _, err := c.BuildPanel(); err != nil {
		t.Fatalf("BuildPanel: %v", err)
	}
	report, err := c.Advance(0.1)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	rec.Observe(c, report, []Action{{Command: "build_panel"}})
	rec.Observe(c, report, nil)

	if got := rec.Events().CountByType()[telemetry.EventVictory]; got != 1 {
		t.Errorf("victory events = %d, want 1", got)
	}
}
