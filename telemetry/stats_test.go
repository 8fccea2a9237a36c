package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeSeriesStats(t *testing.T) {
	// Unsorted on purpose: the helper must not depend on input order.
	values := []float64{0.7, 0.1, 1.0, 0.4, 0.3, 0.9, 0.2, 0.6, 0.8, 0.5}
	mean, lo, hi, p10 := ComputeSeriesStats(values)

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	if lo != 0.1 {
		t.Errorf("min = %v, want 0.1", lo)
	}
	if hi != 1.0 {
		t.Errorf("max = %v, want 1.0", hi)
	}
	if math.Abs(p10-0.19) > 0.01 {
		t.Errorf("p10 = %v, want ~0.19", p10)
	}

	// Input slice must be left untouched
	if values[0] != 0.7 {
		t.Errorf("input was reordered: values[0] = %v", values[0])
	}
}

func TestComputeSeriesStatsEmpty(t *testing.T) {
	mean, lo, hi, p10 := ComputeSeriesStats(nil)
	if mean != 0 || lo != 0 || hi != 0 || p10 != 0 {
		t.Errorf("expected all zeros for empty input, got %v %v %v %v", mean, lo, hi, p10)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(60)

	c.RecordSample(0.5, 320, 150)
	c.RecordSample(0.3, 0, 150)
	c.RecordProcessComplete()
	c.RecordProcessComplete()
	c.RecordMission(12, 30)
	c.RecordPowerCritical()

	if c.ShouldFlush(59.9) {
		t.Error("window should not flush before its duration elapses")
	}
	if !c.ShouldFlush(60) {
		t.Error("window should flush once its duration elapses")
	}

	stats := c.Flush(60, 60, ColonyLevels{
		Sol:       2,
		TimeOfDay: 0.4,
		Panels:    5,
		Resources: map[string]float64{"oxygen": 90, "iron_plates": 7},
	})

	if math.Abs(stats.BatteryMean-0.4) > 1e-9 {
		t.Errorf("battery mean = %v, want 0.4", stats.BatteryMean)
	}
	if stats.BatteryMin != 0.3 || stats.BatteryMax != 0.5 {
		t.Errorf("battery range = [%v, %v], want [0.3, 0.5]", stats.BatteryMin, stats.BatteryMax)
	}
	if math.Abs(stats.NetPowerMean-10) > 1e-9 {
		t.Errorf("net power mean = %v, want 10", stats.NetPowerMean)
	}
	if stats.ProcessesCompleted != 2 || stats.MissionsCompleted != 1 || stats.PowerCritical != 1 {
		t.Errorf("unexpected counters: %+v", stats)
	}
	if stats.OreRecovered != 12 || stats.RegolithRecovered != 30 {
		t.Errorf("unexpected haul: ore=%v regolith=%v", stats.OreRecovered, stats.RegolithRecovered)
	}
	if stats.Oxygen != 90 || stats.IronPlates != 7 || stats.Water != 0 {
		t.Errorf("unexpected levels: oxygen=%v plates=%v water=%v", stats.Oxygen, stats.IronPlates, stats.Water)
	}

	// Counters reset and the window restarts at the flush time
	next := c.Flush(120, 120, ColonyLevels{})
	if next.ProcessesCompleted != 0 || next.MissionsCompleted != 0 || next.BatteryMean != 0 {
		t.Errorf("expected reset counters, got %+v", next)
	}
	if next.WindowStartTick != 60 {
		t.Errorf("window start = %d, want 60", next.WindowStartTick)
	}
	if c.ShouldFlush(150) {
		t.Error("window restarted at 120 should not flush at 150")
	}
}
