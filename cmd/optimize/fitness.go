package main

import (
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/colony/colony"
	"github.com/pthm-cable/colony/config"
	"github.com/pthm-cable/colony/telemetry"
)

// FitnessEvaluator runs headless colonies under the autopilot and computes fitness.
type FitnessEvaluator struct {
	params   *ParamVector
	maxTicks int64
	dt       float64
	seeds    []int64
	cfg      *config.Config // shared read-only by all runs

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
	lastReached int     // seeds that reached the panel target in the last Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, dt float64, seeds []int64, cfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:   params,
		maxTicks: maxTicks,
		dt:       dt,
		seeds:    seeds,
		cfg:      cfg,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// LastReached returns how many seeds reached victory in the most recent evaluation.
func (fe *FitnessEvaluator) LastReached() int {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastReached
}

// runResult holds the results from a single simulation run.
type runResult struct {
	ticks       int64 // ticks to victory, or maxTicks if not reached
	reached     bool
	panels      int
	windowStats []telemetry.WindowStats // collected via StatsCallback each window
	err         error
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	params := fe.params.Autopilot(x)

	// Run all seeds in parallel
	results := make([]*runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(params, s)
		}(i, seed)
	}
	wg.Wait()

	fitness := make([]float64, len(results))
	quality := make([]float64, len(results))
	reached := 0
	for i, r := range results {
		if r.err != nil {
			slog.Warn("run failed", "seed", fe.seeds[i], "error", r.err)
		}
		quality[i] = computeQuality(r.windowStats)
		fitness[i] = fe.computeFitness(r, quality[i])
		if r.reached {
			reached++
		}
	}

	fe.mu.Lock()
	fe.lastQuality = stat.Mean(quality, nil)
	fe.lastReached = reached
	fe.mu.Unlock()

	return stat.Mean(fitness, nil)
}

// runSimulation executes one colony until victory or maxTicks.
func (fe *FitnessEvaluator) runSimulation(params colony.AutopilotParams, seed int64) *runResult {
	result := &runResult{ticks: fe.maxTicks}

	c, err := colony.New(fe.cfg, colony.Options{
		Seed:   seed,
		Logger: slog.New(slog.DiscardHandler),
	})
	if err != nil {
		result.err = err
		return result
	}

	recorder := colony.NewRecorder(c, nil, nil, false)
	recorder.StatsCallback = func(stats telemetry.WindowStats) {
		result.windowStats = append(result.windowStats, stats)
	}
	pilot := colony.NewAutopilot(params)

	for c.Tick() < fe.maxTicks {
		report, err := c.Advance(fe.dt)
		if err != nil {
			result.err = err
			break
		}
		actions, err := pilot.Step(c)
		if err != nil {
			result.err = err
			break
		}
		recorder.Observe(c, report, actions)

		if c.Victory() {
			result.ticks = c.Tick()
			result.reached = true
			break
		}
	}
	recorder.Flush(c)
	result.panels = c.PanelCount()
	return result
}

// computeFitness calculates the scalar fitness (lower = better).
// Reaching the target scores ticks-to-victory; a miss scores maxTicks plus a
// penalty proportional to the panels still missing. Quality trims up to 10%.
func (fe *FitnessEvaluator) computeFitness(r *runResult, quality float64) float64 {
	ticks := float64(r.ticks)
	if !r.reached {
		target := float64(fe.cfg.Panels.MissionTarget)
		missing := clamp01((target - float64(r.panels)) / target)
		ticks = float64(fe.maxTicks) * (1 + missing)
	}
	return ticks * (1.0 - 0.1*quality)
}

// Quality component weights.
const (
	qualityWeightReserve  = 0.5
	qualityWeightCritical = 0.3
	qualityWeightOxygen   = 0.2

	qualityOxygenTarget = 50.0
)

// computeQuality scores how comfortably the colony ran, in [0, 1].
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) == 0 {
		return 0
	}

	p10 := make([]float64, len(windows))
	var critical, oxygenOK int
	for i, w := range windows {
		p10[i] = w.BatteryP10
		if w.PowerCritical > 0 {
			critical++
		}
		if w.Oxygen >= qualityOxygenTarget {
			oxygenOK++
		}
	}

	n := float64(len(windows))
	reserveScore := clamp01(stat.Mean(p10, nil))
	criticalScore := 1 - float64(critical)/n
	oxygenScore := float64(oxygenOK) / n

	return clamp01(qualityWeightReserve*reserveScore +
		qualityWeightCritical*criticalScore +
		qualityWeightOxygen*oxygenScore)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
