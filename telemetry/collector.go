package telemetry

// ColonyLevels is the end-of-window state the caller samples for a flush.
type ColonyLevels struct {
	Sol       int
	TimeOfDay float64
	Panels    int
	Storm     bool
	Resources map[string]float64
}

// Collector accumulates samples and events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec float64

	// Current window tracking
	windowStartTick int64
	windowStartTime float64

	// Per-tick samples for current window
	battery     []float64
	generation  []float64
	consumption []float64

	// Event counters for current window
	processesCompleted int
	missionsCompleted  int
	oreRecovered       float64
	regolithRecovered  float64
	powerCritical      int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds.
func NewCollector(windowDurationSec float64) *Collector {
	if windowDurationSec <= 0 {
		windowDurationSec = 60
	}
	return &Collector{windowDurationSec: windowDurationSec}
}

// RecordSample records the instantaneous power state for one tick.
func (c *Collector) RecordSample(batteryFraction, generation, consumption float64) {
	c.battery = append(c.battery, batteryFraction)
	c.generation = append(c.generation, generation)
	c.consumption = append(c.consumption, consumption)
}

// RecordProcessComplete records a finished process run.
func (c *Collector) RecordProcessComplete() {
	c.processesCompleted++
}

// RecordMission records a returned rover and its haul.
func (c *Collector) RecordMission(ore, regolith float64) {
	c.missionsCompleted++
	c.oreRecovered += ore
	c.regolithRecovered += regolith
}

// RecordPowerCritical records a critical battery crossing.
func (c *Collector) RecordPowerCritical() {
	c.powerCritical++
}

// ShouldFlush returns true if enough simulated time has passed to flush the window.
func (c *Collector) ShouldFlush(simTime float64) bool {
	return simTime-c.windowStartTime >= c.windowDurationSec
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int64, simTime float64, levels ColonyLevels) WindowStats {
	batteryMean, batteryMin, batteryMax, batteryP10 := ComputeSeriesStats(c.battery)
	genMean, _, _, _ := ComputeSeriesStats(c.generation)
	consMean, _, _, _ := ComputeSeriesStats(c.consumption)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      simTime,
		Sol:             levels.Sol,
		TimeOfDay:       levels.TimeOfDay,

		BatteryMean: batteryMean,
		BatteryMin:  batteryMin,
		BatteryMax:  batteryMax,
		BatteryP10:  batteryP10,

		GenerationMean:  genMean,
		ConsumptionMean: consMean,
		NetPowerMean:    genMean - consMean,

		Oxygen:      levels.Resources["oxygen"],
		Water:       levels.Resources["water"],
		Regolith:    levels.Resources["regolith"],
		IronOre:     levels.Resources["iron_ore"],
		IronPlates:  levels.Resources["iron_plates"],
		Electronics: levels.Resources["electronics"],

		ProcessesCompleted: c.processesCompleted,
		MissionsCompleted:  c.missionsCompleted,
		OreRecovered:       c.oreRecovered,
		RegolithRecovered:  c.regolithRecovered,
		PowerCritical:      c.powerCritical,

		Panels: levels.Panels,
		Storm:  levels.Storm,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.windowStartTime = simTime
	c.battery = c.battery[:0]
	c.generation = c.generation[:0]
	c.consumption = c.consumption[:0]
	c.processesCompleted = 0
	c.missionsCompleted = 0
	c.oreRecovered = 0
	c.regolithRecovered = 0
	c.powerCritical = 0

	return stats
}
