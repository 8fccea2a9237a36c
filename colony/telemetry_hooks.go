package colony

import (
	"log/slog"

	"github.com/pthm-cable/colony/components"
	"github.com/pthm-cable/colony/telemetry"
)

// Recorder turns tick reports and autopilot actions into telemetry windows and events.
type Recorder struct {
	collector *telemetry.Collector
	events    *telemetry.EventLog
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
	logStats  bool

	pending    []telemetry.Event // events not yet written to CSV
	sawVictory bool

	// StatsCallback, when set, receives every flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// NewRecorder wires the telemetry sinks. perf and output may be nil.
func NewRecorder(c *Colony, perf *telemetry.PerfCollector, output *telemetry.OutputManager, logStats bool) *Recorder {
	tcfg := c.Config().Telemetry
	return &Recorder{
		collector:  telemetry.NewCollector(tcfg.StatsWindow),
		events:     telemetry.NewEventLog(tcfg.EventHistorySize),
		perf:       perf,
		output:     output,
		logStats:   logStats,
		sawVictory: c.Victory(),
	}
}

// Events returns the in-memory event history.
func (r *Recorder) Events() *telemetry.EventLog { return r.events }

// Observe records one tick. Call after Advance and the autopilot step.
func (r *Recorder) Observe(c *Colony, report TickReport, actions []Action) {
	r.collector.RecordSample(c.BatteryFraction(), c.Generation(), c.Consumption())

	for _, name := range report.CompletedProcesses {
		r.collector.RecordProcessComplete()
		r.emit(c, telemetry.EventProcessComplete, name, 0)
	}
	if report.Mission != nil {
		y := report.Mission.Yield
		r.collector.RecordMission(float64(y.IronOre), float64(y.Regolith))
		r.emit(c, telemetry.EventMissionComplete, "", float64(y.IronOre))
	}
	if report.PowerCritical {
		r.collector.RecordPowerCritical()
		r.emit(c, telemetry.EventPowerCritical, "", c.BatteryFraction())
	}

	for _, a := range actions {
		switch a.Command {
		case "build_panel":
			r.emit(c, telemetry.EventPanelBuilt, "", float64(c.PanelCount()))
		case "apply_upgrade":
			r.emit(c, telemetry.EventUpgrade, a.Target, 0)
		case "advance_day":
			r.emit(c, telemetry.EventDayAdvance, "", float64(c.Sol()))
		}
	}

	if c.Victory() && !r.sawVictory {
		r.sawVictory = true
		r.emit(c, telemetry.EventVictory, "", float64(c.PanelCount()))
	}

	if r.collector.ShouldFlush(c.Clock()) {
		r.Flush(c)
	}
}

// Flush closes the current stats window and writes pending output.
func (r *Recorder) Flush(c *Colony) {
	levels := telemetry.ColonyLevels{
		Sol:       c.Sol(),
		TimeOfDay: c.TimeOfDay(),
		Panels:    c.PanelCount(),
		Storm:     c.storm,
		Resources: make(map[string]float64, len(components.AllResources())),
	}
	for _, res := range components.AllResources() {
		levels.Resources[string(res)] = c.Resource(res)
	}

	stats := r.collector.Flush(c.Tick(), c.Clock(), levels)
	perfStats := r.perf.Stats()

	if r.StatsCallback != nil {
		r.StatsCallback(stats)
	}

	if r.logStats {
		stats.LogStats()
		if r.perf != nil {
			perfStats.LogStats()
		}
	}

	if r.output != nil {
		if err := r.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if r.perf != nil {
			if err := r.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
				slog.Error("failed to write perf", "error", err)
			}
		}
		if err := r.output.WriteEvents(r.pending); err != nil {
			slog.Error("failed to write events", "error", err)
		}
	}
	r.pending = r.pending[:0]
}

func (r *Recorder) emit(c *Colony, typ telemetry.EventType, subject string, amount float64) {
	e := telemetry.Event{
		Type:    typ,
		Tick:    c.Tick(),
		SimTime: c.Clock(),
		Sol:     c.Sol(),
		Subject: subject,
		Amount:  amount,
	}
	r.events.Append(e)
	r.pending = append(r.pending, e)
	if r.logStats {
		e.LogEvent()
	}
}
