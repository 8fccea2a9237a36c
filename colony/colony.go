// Package colony holds the colony aggregate: the per-tick advance, the command API
// and the read-only snapshot consumed by presentation.
package colony

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/pthm-cable/colony/components"
	"github.com/pthm-cable/colony/config"
	"github.com/pthm-cable/colony/systems"
	"github.com/pthm-cable/colony/telemetry"
)

// HeightFunc returns the ground height at x/z. Terrain lives outside the simulation.
type HeightFunc func(x, z float64) float64

// Options configures a new Colony.
type Options struct {
	Seed   int64      // RNG seed, used when Rand is nil (0 = time-based)
	Rand   *rand.Rand // injected random source for yields, decay and weather
	Logger *slog.Logger
	Height HeightFunc // nil keeps detour points at the rover's start height
	Perf   *telemetry.PerfCollector
}

// Colony is the aggregate root. All mutation goes through Advance and the command methods,
// which must be called from a single goroutine.
type Colony struct {
	cfg    *config.Config
	log    *slog.Logger
	rng    *rand.Rand
	height HeightFunc
	perf   *telemetry.PerfCollector

	ledger    *systems.ResourceLedger
	processes *systems.ProcessEngine
	power     *systems.PowerSystem
	day       *systems.DayCycle
	mission   *systems.MissionPathFollower

	// State
	tick        int64
	clock       float64 // simulated seconds since start
	powerTimer  float64 // seconds accumulated since the last battery integration
	upgrades    map[string]bool
	storm       bool
	temperature float64
	wind        float64
	victory     bool
	critical    bool // battery was below the critical fraction at the last integration
	rover       components.Pose
}

// New builds a colony from cfg.
func New(cfg *config.Config, opts Options) (*Colony, error) {
	rng := opts.Rand
	if rng == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ledger, err := systems.NewResourceLedger(components.AmountsFrom(cfg.Colony.Resources))
	if err != nil {
		return nil, fmt.Errorf("creating ledger: %w", err)
	}

	specs := make([]components.ProcessSpec, 0, len(cfg.Processes))
	for _, p := range cfg.Processes {
		specs = append(specs, components.ProcessSpec{
			Name:     p.Name,
			Duration: p.Duration,
			Power:    p.Power,
			Inputs:   components.AmountsFrom(p.Inputs),
			Outputs:  components.AmountsFrom(p.Outputs),
		})
	}
	processes, err := systems.NewProcessEngine(specs, cfg.Power.StartThreshold)
	if err != nil {
		return nil, fmt.Errorf("creating process engine: %w", err)
	}

	power, err := systems.NewPowerSystem(systems.PowerParams{
		PerPanelOutput: cfg.Power.PerPanelOutput,
		SolarOffset:    cfg.Power.SolarOffset,
		StormPenalty:   cfg.Power.StormPenalty,
		EnergyScale:    cfg.Power.EnergyScale,
	}, cfg.Colony.BatteryCharge, cfg.Colony.BatteryCapacity, cfg.Colony.PanelCount)
	if err != nil {
		return nil, fmt.Errorf("creating power system: %w", err)
	}

	day, err := systems.NewDayCycle(cfg.Colony.Sol, cfg.Colony.TimeOfDay, cfg.Sol.PhaseShift)
	if err != nil {
		return nil, fmt.Errorf("creating day cycle: %w", err)
	}

	mission := systems.NewMissionPathFollower(rng, cfg.Mission.FacingEpsilon,
		systems.YieldRange{Min: cfg.Mission.OreYield.Min, Max: cfg.Mission.OreYield.Max},
		systems.YieldRange{Min: cfg.Mission.RegolithYield.Min, Max: cfg.Mission.RegolithYield.Max},
	)

	c := &Colony{
		cfg:         cfg,
		log:         logger,
		rng:         rng,
		height:      opts.Height,
		perf:        opts.Perf,
		ledger:      ledger,
		processes:   processes,
		power:       power,
		day:         day,
		mission:     mission,
		upgrades:    make(map[string]bool, len(cfg.Upgrades)),
		temperature: cfg.Colony.Temperature,
		wind:        cfg.Colony.Wind,
	}
	for _, name := range cfg.Derived.UpgradeNames {
		c.upgrades[name] = false
	}
	c.rover = components.Pose{Position: c.roverHome()}
	c.victory = c.power.Panels() >= cfg.Panels.MissionTarget
	c.critical = c.power.Fraction() < cfg.Power.CriticalFraction

	return c, nil
}

// Config returns the configuration the colony was built with.
func (c *Colony) Config() *config.Config { return c.cfg }

// Tick returns the number of Advance calls so far.
func (c *Colony) Tick() int64 { return c.tick }

// Clock returns the elapsed simulated seconds.
func (c *Colony) Clock() float64 { return c.clock }

// MissionCompletion is reported on the tick a mission finishes.
type MissionCompletion struct {
	Yield systems.MissionYield
}

// TickReport summarises what changed during one Advance.
type TickReport struct {
	Tick               int64
	Clock              float64
	CompletedProcesses []string
	Mission            *MissionCompletion
	PowerIntegrated    bool
	PowerCritical      bool // battery dropped below the critical fraction since the previous integration
}

// Advance moves the simulation forward by dt seconds: day cycle, processes, mission,
// then battery integration once enough time has accumulated.
func (c *Colony) Advance(dt float64) (TickReport, error) {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return TickReport{}, fmt.Errorf("%w: invalid delta time %v", systems.ErrPrecondition, dt)
	}

	c.tick++
	c.clock += dt
	report := TickReport{Tick: c.tick, Clock: c.clock}

	c.perf.StartPhase(telemetry.PhaseDayCycle)
	c.day.Tick(dt, c.cfg.Sol.DurationSeconds)

	c.perf.StartPhase(telemetry.PhaseProcesses)
	report.CompletedProcesses = c.processes.Tick(dt, c.ledger)
	for _, name := range report.CompletedProcesses {
		c.log.Info("process complete", "process", name, "sol", c.day.Day())
	}

	c.perf.StartPhase(telemetry.PhaseMission)
	if c.mission.Active() {
		sample, err := c.mission.Sample(c.clock)
		if err != nil {
			return report, fmt.Errorf("sampling mission: %w", err)
		}
		c.rover.Position = sample.Position
		if sample.Facing {
			c.rover.LookAt = sample.LookAt
		}
		c.rover.Facing = sample.Facing
		if sample.Complete {
			if err := c.ledger.CreditAll(sample.Yield.Amounts()); err != nil {
				return report, fmt.Errorf("crediting mission yield: %w", err)
			}
			report.Mission = &MissionCompletion{Yield: sample.Yield}
			c.log.Info("rover returned",
				"iron_ore", sample.Yield.IronOre,
				"regolith", sample.Yield.Regolith,
				"sol", c.day.Day(),
			)
		}
	}

	c.perf.StartPhase(telemetry.PhasePower)
	c.powerTimer += dt
	if c.powerTimer >= c.cfg.Power.IntegrateEvery {
		c.power.Integrate(c.powerTimer, c.Generation(), c.Consumption())
		c.powerTimer = 0
		report.PowerIntegrated = true

		// Compared against the previous integration, so drops caused by commands
		// between ticks (deploy draw, capacity expansion) are still reported.
		below := c.power.Fraction() < c.cfg.Power.CriticalFraction
		if below && !c.critical {
			report.PowerCritical = true
			c.log.Warn("battery critical",
				"charge", c.power.Charge(),
				"capacity", c.power.Capacity(),
				"sol", c.day.Day(),
			)
		}
		c.critical = below
	}

	return report, nil
}

// Generation returns the current solar output in watts.
func (c *Colony) Generation() float64 {
	return c.power.Generation(c.day.SunFactor(), c.storm)
}

// Consumption returns the current draw in watts.
func (c *Colony) Consumption() float64 {
	return systems.ComputeConsumption(c.cfg.Power.BaseLoad, c.processes.ActivePower(), c.upgradePowerDelta())
}

func (c *Colony) upgradePowerDelta() float64 {
	var delta float64
	for _, name := range c.cfg.Derived.UpgradeNames {
		if c.upgrades[name] {
			delta += c.cfg.Upgrades[name].PowerDelta
		}
	}
	return delta
}

func (c *Colony) decayFactor() float64 {
	factor := 1.0
	for _, name := range c.cfg.Derived.UpgradeNames {
		if f := c.cfg.Upgrades[name].DecayFactor; c.upgrades[name] && f > 0 {
			factor *= f
		}
	}
	return factor
}

func (c *Colony) roverHome() components.Vec3 {
	s := c.cfg.Mission.RoverStart
	home := components.Vec3{X: s[0], Y: s[1], Z: s[2]}
	if c.height != nil {
		home.Y = c.height(home.X, home.Z)
	}
	return home
}

// missionDetours lays out the rover route from start using the configured offsets.
func (c *Colony) missionDetours(start components.Vec3) []components.Vec3 {
	points := make([]components.Vec3, 0, len(c.cfg.Mission.Detours)+len(c.cfg.Mission.ReturnVia))
	prev := start
	for _, off := range c.cfg.Mission.Detours {
		x, z := prev.X+off[0], prev.Z+off[1]
		y := start.Y
		if c.height != nil {
			y = c.height(x, z)
		}
		prev = components.Vec3{X: x, Y: y, Z: z}
		points = append(points, prev)
	}
	for _, idx := range c.cfg.Mission.ReturnVia {
		points = append(points, points[idx])
	}
	return points
}
