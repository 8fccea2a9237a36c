package colony

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/colony/components"
	"github.com/pthm-cable/colony/systems"
)

// Commands are synchronous and all-or-nothing: on error no state has changed.
// Rule violations (see systems.IsRuleViolation) are expected outcomes; anything
// else wraps systems.ErrPrecondition and indicates a caller bug.

// StartProcess begins a run of the named process.
func (c *Colony) StartProcess(name string) error {
	if err := c.processes.Start(name, c.ledger, c.power.Charge()); err != nil {
		return c.rejected("start process", err, "process", name)
	}
	c.log.Info("process started", "process", name, "sol", c.day.Day())
	return nil
}

// DeployMission sends the rover on its survey route. Requires the deploy charge,
// which is debited from the battery on success.
func (c *Colony) DeployMission() error {
	if c.mission.Active() {
		return c.rejected("deploy mission", systems.ErrAlreadyDeployed)
	}
	cost := c.cfg.Power.RoverDeployCost
	if charge := c.power.Charge(); charge < cost {
		return c.rejected("deploy mission", &systems.InsufficientPowerError{Required: cost, Available: charge})
	}

	start := c.roverHome()
	if err := c.mission.Deploy(start, c.missionDetours(start), c.cfg.Mission.Duration, c.clock); err != nil {
		return c.rejected("deploy mission", err)
	}
	if err := c.power.Draw(cost); err != nil {
		// Charge was checked above; keep the mission and battery consistent regardless.
		c.mission.Abort()
		return c.rejected("deploy mission", err)
	}

	c.rover = components.Pose{Position: start}
	c.log.Info("rover deployed", "sol", c.day.Day(), "charge", c.power.Charge())
	return nil
}

// AbortMission forcibly returns the rover to idle without yields.
// Used when the presentation side loses track of the unit.
func (c *Colony) AbortMission() bool {
	if !c.mission.Active() {
		return false
	}
	c.mission.Abort()
	c.rover = components.Pose{Position: c.roverHome()}
	c.log.Warn("rover mission aborted", "sol", c.day.Day())
	return true
}

// ApplyUpgrade buys the named one-time upgrade.
func (c *Colony) ApplyUpgrade(name string) error {
	upgrade, ok := c.cfg.Upgrades[name]
	if !ok {
		return c.rejected("apply upgrade", fmt.Errorf("%w: unknown upgrade %q", systems.ErrPrecondition, name))
	}
	if c.upgrades[name] {
		return c.rejected("apply upgrade", fmt.Errorf("%s: %w", name, systems.ErrAlreadyUpgraded), "upgrade", name)
	}
	if err := c.ledger.TryDebitAll(components.AmountsFrom(upgrade.Cost)); err != nil {
		return c.rejected("apply upgrade", err, "upgrade", name)
	}

	c.upgrades[name] = true
	if upgrade.CapacityDelta != 0 {
		c.power.ExpandCapacity(upgrade.CapacityDelta)
	}
	c.log.Info("upgrade installed", "upgrade", name, "sol", c.day.Day())
	return nil
}

// BuildResult reports the outcome of a panel build.
type BuildResult struct {
	PanelCount    int
	TargetReached bool // panel count has reached the mission target
}

// BuildPanel constructs one solar panel.
func (c *Colony) BuildPanel() (BuildResult, error) {
	if err := c.ledger.TryDebitAll(components.AmountsFrom(c.cfg.Panels.Cost)); err != nil {
		return BuildResult{PanelCount: c.power.Panels()}, c.rejected("build panel", err)
	}

	count := c.power.AddPanel()
	res := BuildResult{PanelCount: count, TargetReached: count >= c.cfg.Panels.MissionTarget}
	c.log.Info("solar panel constructed", "panels", count, "sol", c.day.Day())
	if res.TargetReached && !c.victory {
		c.victory = true
		c.log.Info("mission complete", "panels", count, "target", c.cfg.Panels.MissionTarget, "sol", c.day.Day())
	}
	return res, nil
}

// ToggleStorm flips the dust storm flag and returns the new state.
func (c *Colony) ToggleStorm() bool {
	c.storm = !c.storm
	if c.storm {
		c.log.Warn("dust storm incoming", "sol", c.day.Day())
	} else {
		c.log.Info("weather clearing", "sol", c.day.Day())
	}
	return c.storm
}

// DayReport summarises an explicit day advance.
type DayReport struct {
	Sol         int
	OxygenLost  float64
	WaterLost   float64
	Temperature float64
	Wind        float64
}

// AdvanceDay moves to the next sol: applies one day of life-support decay,
// re-rolls the weather and resets the clock to morning.
func (c *Colony) AdvanceDay() DayReport {
	factor := c.decayFactor()
	oxygen := rollRange(c.rng, c.cfg.Decay.Oxygen.Min, c.cfg.Decay.Oxygen.Max) * factor
	water := rollRange(c.rng, c.cfg.Decay.Water.Min, c.cfg.Decay.Water.Max) * factor

	// Decay amounts are non-negative by construction; DebitUpTo stops at zero.
	oxygenLost, _ := c.ledger.DebitUpTo(components.Oxygen, oxygen)
	waterLost, _ := c.ledger.DebitUpTo(components.Water, water)

	w := c.cfg.Weather
	c.temperature = w.TemperatureBase + (c.rng.Float64()-0.5)*w.TemperatureSpread
	c.wind = w.WindBase + (c.rng.Float64()-0.5)*w.WindSpread

	c.day.AdvanceDay(c.cfg.Sol.MorningTime)

	rep := DayReport{
		Sol:         c.day.Day(),
		OxygenLost:  oxygenLost,
		WaterLost:   waterLost,
		Temperature: c.temperature,
		Wind:        c.wind,
	}
	c.log.Info("advancing sol",
		"sol", rep.Sol,
		"oxygen_lost", rep.OxygenLost,
		"water_lost", rep.WaterLost,
		"temperature", rep.Temperature,
		"wind", rep.Wind,
	)
	return rep
}

// CanAfford reports whether costs could be debited right now.
func (c *Colony) CanAfford(costs components.Amounts) bool {
	return c.ledger.CanDebitAll(costs) == nil
}

// rejected logs a failed command and passes the error through.
func (c *Colony) rejected(command string, err error, attrs ...any) error {
	attrs = append([]any{"command", command, "error", err, "sol", c.day.Day()}, attrs...)
	if systems.IsRuleViolation(err) {
		c.log.Warn("command rejected", attrs...)
	} else {
		c.log.Error("command misuse", attrs...)
	}
	return err
}

func rollRange(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}
