package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`
	Sol             int     `csv:"sol"`
	TimeOfDay       float64 `csv:"time_of_day"`

	// Battery fraction distribution over the window
	BatteryMean float64 `csv:"battery_mean"`
	BatteryMin  float64 `csv:"battery_min"`
	BatteryMax  float64 `csv:"battery_max"`
	BatteryP10  float64 `csv:"battery_p10"`

	// Power balance (watts, averaged over samples)
	GenerationMean  float64 `csv:"generation_mean"`
	ConsumptionMean float64 `csv:"consumption_mean"`
	NetPowerMean    float64 `csv:"net_power_mean"`

	// Ledger levels at window end
	Oxygen      float64 `csv:"oxygen"`
	Water       float64 `csv:"water"`
	Regolith    float64 `csv:"regolith"`
	IronOre     float64 `csv:"iron_ore"`
	IronPlates  float64 `csv:"iron_plates"`
	Electronics float64 `csv:"electronics"`

	// Events during window
	ProcessesCompleted int     `csv:"processes_completed"`
	MissionsCompleted  int     `csv:"missions_completed"`
	OreRecovered       float64 `csv:"ore_recovered"`
	RegolithRecovered  float64 `csv:"regolith_recovered"`
	PowerCritical      int     `csv:"power_critical"`

	Panels int  `csv:"panels"`
	Storm  bool `csv:"storm"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeSeriesStats returns mean, min, max and p10 of values.
func ComputeSeriesStats(values []float64) (mean, lo, hi, p10 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	lo = floats.Min(values)
	hi = floats.Max(values)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	p10 = Percentile(sorted, 0.10)

	return mean, lo, hi, p10
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("sol", s.Sol),
		slog.Float64("time_of_day", s.TimeOfDay),
		slog.Float64("battery_mean", s.BatteryMean),
		slog.Float64("battery_min", s.BatteryMin),
		slog.Float64("battery_max", s.BatteryMax),
		slog.Float64("battery_p10", s.BatteryP10),
		slog.Float64("generation_mean", s.GenerationMean),
		slog.Float64("consumption_mean", s.ConsumptionMean),
		slog.Float64("net_power_mean", s.NetPowerMean),
		slog.Float64("oxygen", s.Oxygen),
		slog.Float64("water", s.Water),
		slog.Float64("regolith", s.Regolith),
		slog.Float64("iron_ore", s.IronOre),
		slog.Float64("iron_plates", s.IronPlates),
		slog.Float64("electronics", s.Electronics),
		slog.Int("processes_completed", s.ProcessesCompleted),
		slog.Int("missions_completed", s.MissionsCompleted),
		slog.Float64("ore_recovered", s.OreRecovered),
		slog.Float64("regolith_recovered", s.RegolithRecovered),
		slog.Int("power_critical", s.PowerCritical),
		slog.Int("panels", s.Panels),
		slog.Bool("storm", s.Storm),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
