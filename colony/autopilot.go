package colony

import (
	"github.com/pthm-cable/colony/components"
	"github.com/pthm-cable/colony/config"
	"github.com/pthm-cable/colony/systems"
)

// AutopilotParams are the thresholds of the built-in command policy.
type AutopilotParams struct {
	BatteryReserve  float64 // minimum battery fraction before starting work
	AdvanceDayAfter float64 // time of day at which the sol is advanced
	OxygenFloor     float64 // oxygen-producing processes run only below this level
	PanelReserve    float64 // iron plates held back when building panels
}

// AutopilotParamsFrom converts the config section.
func AutopilotParamsFrom(cfg config.AutopilotConfig) AutopilotParams {
	return AutopilotParams{
		BatteryReserve:  cfg.BatteryReserve,
		AdvanceDayAfter: cfg.AdvanceDayAfter,
		OxygenFloor:     cfg.OxygenFloor,
		PanelReserve:    cfg.PanelReserve,
	}
}

// Action records one command issued by the autopilot.
type Action struct {
	Command string
	Target  string
}

// Autopilot issues commands through the public command API, the same way a player would.
type Autopilot struct {
	params AutopilotParams
}

// NewAutopilot creates an autopilot with the given thresholds.
func NewAutopilot(params AutopilotParams) *Autopilot {
	return &Autopilot{params: params}
}

// Params returns the thresholds in use.
func (a *Autopilot) Params() AutopilotParams { return a.params }

// Step inspects the colony and issues whatever commands the policy allows.
// Only precondition errors are returned; rule violations are skipped.
func (a *Autopilot) Step(c *Colony) ([]Action, error) {
	var actions []Action
	cfg := c.Config()

	// Panels first: they are the win condition.
	panelCost := components.AmountsFrom(cfg.Panels.Cost)
	withReserve := panelCost.Clone()
	withReserve[components.IronPlates] += a.params.PanelReserve
	for !c.Victory() && c.CanAfford(withReserve) {
		if _, err := c.BuildPanel(); err != nil {
			if !systems.IsRuleViolation(err) {
				return actions, err
			}
			break
		}
		actions = append(actions, Action{Command: "build_panel"})
	}

	// Upgrades once the colony is past the halfway mark.
	if c.PanelCount()*2 >= cfg.Panels.MissionTarget {
		for _, name := range cfg.Derived.UpgradeNames {
			if c.Upgraded(name) || !c.CanAfford(components.AmountsFrom(cfg.Upgrades[name].Cost)) {
				continue
			}
			if err := c.ApplyUpgrade(name); err != nil {
				if !systems.IsRuleViolation(err) {
					return actions, err
				}
				continue
			}
			actions = append(actions, Action{Command: "apply_upgrade", Target: name})
		}
	}

	if c.BatteryFraction() >= a.params.BatteryReserve {
		for _, p := range cfg.Processes {
			if c.ProcessActive(p.Name) {
				continue
			}
			if producesOxygen(p) && c.Resource(components.Oxygen) >= a.params.OxygenFloor {
				continue
			}
			if !c.CanAfford(components.AmountsFrom(p.Inputs)) || c.BatteryCharge() < p.Power*cfg.Power.StartThreshold {
				continue
			}
			if err := c.StartProcess(p.Name); err != nil {
				if !systems.IsRuleViolation(err) {
					return actions, err
				}
				continue
			}
			actions = append(actions, Action{Command: "start_process", Target: p.Name})
		}

		if !c.MissionActive() && c.BatteryCharge() >= cfg.Power.RoverDeployCost {
			if err := c.DeployMission(); err != nil {
				if !systems.IsRuleViolation(err) {
					return actions, err
				}
			} else {
				actions = append(actions, Action{Command: "deploy_mission"})
			}
		}
	}

	if c.TimeOfDay() >= a.params.AdvanceDayAfter {
		c.AdvanceDay()
		actions = append(actions, Action{Command: "advance_day"})
	}

	return actions, nil
}

// producesOxygen reports whether a process yields oxygen. Those runs are held back
// until the stock drops below the floor.
func producesOxygen(p config.ProcessConfig) bool {
	return p.Outputs[string(components.Oxygen)] > 0
}
