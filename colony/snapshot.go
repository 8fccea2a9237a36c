package colony

import (
	"github.com/pthm-cable/colony/components"
)

// MissionView is the read-only rover state.
type MissionView struct {
	Active    bool
	Progress  float64
	StartTime float64
	Duration  float64
	Rover     components.Pose
	Path      []components.Vec3
}

// Snapshot is a copy of the colony state for presentation. Mutating it has no effect.
type Snapshot struct {
	Tick      int64
	Clock     float64
	Sol       int
	TimeOfDay float64
	SunFactor float64

	Resources components.Amounts

	BatteryCharge   float64
	BatteryCapacity int
	BatteryPercent  float64
	PanelCount      int
	MissionTarget   int
	Victory         bool

	Generation  float64
	Consumption float64
	NetPower    float64

	Storm       bool
	Temperature float64
	Wind        float64 // effective wind, amplified during storms

	Processes []components.ProcessStatus
	Upgrades  map[string]bool
	Mission   MissionView
}

// Snapshot copies the current state.
func (c *Colony) Snapshot() Snapshot {
	gen := c.Generation()
	cons := c.Consumption()

	wind := c.wind
	if c.storm {
		wind *= c.cfg.Weather.StormWindFactor
	}

	upgrades := make(map[string]bool, len(c.upgrades))
	for k, v := range c.upgrades {
		upgrades[k] = v
	}

	return Snapshot{
		Tick:      c.tick,
		Clock:     c.clock,
		Sol:       c.day.Day(),
		TimeOfDay: c.day.TimeOfDay(),
		SunFactor: c.day.SunFactor(),

		Resources: c.ledger.Snapshot(),

		BatteryCharge:   c.power.Charge(),
		BatteryCapacity: c.power.Capacity(),
		BatteryPercent:  c.power.Fraction() * 100,
		PanelCount:      c.power.Panels(),
		MissionTarget:   c.cfg.Panels.MissionTarget,
		Victory:         c.victory,

		Generation:  gen,
		Consumption: cons,
		NetPower:    gen - cons,

		Storm:       c.storm,
		Temperature: c.temperature,
		Wind:        wind,

		Processes: c.processes.Statuses(),
		Upgrades:  upgrades,
		Mission: MissionView{
			Active:    c.mission.Active(),
			Progress:  c.mission.Progress(),
			StartTime: c.mission.StartTime(),
			Duration:  c.mission.Duration(),
			Rover:     c.rover,
			Path:      c.mission.Path(),
		},
	}
}

// Resource returns a single ledger quantity.
func (c *Colony) Resource(r components.Resource) float64 {
	return c.ledger.Get(r)
}

// ProcessSpec returns the named process definition.
func (c *Colony) ProcessSpec(name string) (components.ProcessSpec, bool) {
	return c.processes.Spec(name)
}

// ProcessActive reports whether the named process is running.
func (c *Colony) ProcessActive(name string) bool {
	return c.processes.IsActive(name)
}

// MissionActive reports whether the rover is out.
func (c *Colony) MissionActive() bool {
	return c.mission.Active()
}

// Upgraded reports whether the named upgrade is installed.
func (c *Colony) Upgraded(name string) bool {
	return c.upgrades[name]
}

// BatteryFraction returns charge over capacity.
func (c *Colony) BatteryFraction() float64 {
	return c.power.Fraction()
}

// BatteryCharge returns the stored charge.
func (c *Colony) BatteryCharge() float64 {
	return c.power.Charge()
}

// TimeOfDay returns the current day fraction.
func (c *Colony) TimeOfDay() float64 {
	return c.day.TimeOfDay()
}

// Sol returns the current day index.
func (c *Colony) Sol() int {
	return c.day.Day()
}

// Victory reports whether the panel target has been reached.
func (c *Colony) Victory() bool {
	return c.victory
}

// PanelCount returns the number of constructed panels.
func (c *Colony) PanelCount() int {
	return c.power.Panels()
}
