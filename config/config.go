// Package config provides configuration loading and access for the colony simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Sol       SolConfig                `yaml:"sol"`
	Colony    ColonyConfig             `yaml:"colony"`
	Power     PowerConfig              `yaml:"power"`
	Processes []ProcessConfig          `yaml:"processes"`
	Mission   MissionConfig            `yaml:"mission"`
	Upgrades  map[string]UpgradeConfig `yaml:"upgrades"`
	Panels    PanelConfig              `yaml:"panels"`
	Decay     DecayConfig              `yaml:"decay"`
	Weather   WeatherConfig            `yaml:"weather"`
	Terrain   TerrainConfig            `yaml:"terrain"`
	Telemetry TelemetryConfig          `yaml:"telemetry"`
	Autopilot AutopilotConfig          `yaml:"autopilot"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SolConfig holds day/night cycle parameters.
type SolConfig struct {
	DurationSeconds float64 `yaml:"duration_seconds"` // Simulated seconds per full day cycle
	MorningTime     float64 `yaml:"morning_time"`     // timeOfDay after an explicit day advance
	PhaseShift      float64 `yaml:"phase_shift"`      // Radians subtracted from the sun angle
}

// ColonyConfig holds the initial colony state.
type ColonyConfig struct {
	Sol             int                `yaml:"sol"`
	TimeOfDay       float64            `yaml:"time_of_day"`
	BatteryCharge   float64            `yaml:"battery_charge"`
	BatteryCapacity int                `yaml:"battery_capacity"`
	PanelCount      int                `yaml:"panel_count"`
	Resources       map[string]float64 `yaml:"resources"`
	Temperature     float64            `yaml:"temperature"`
	Wind            float64            `yaml:"wind"`
}

// PowerConfig holds generation, consumption and battery integration parameters.
type PowerConfig struct {
	PerPanelOutput   float64 `yaml:"per_panel_output"`   // Watts per panel at full sun
	SolarOffset      float64 `yaml:"solar_offset"`       // Added to sun factor before clamping at zero
	StormPenalty     float64 `yaml:"storm_penalty"`      // Generation multiplier during storms
	BaseLoad         float64 `yaml:"base_load"`          // Habitat draw in watts
	IntegrateEvery   float64 `yaml:"integrate_every"`    // Simulated seconds between battery updates
	EnergyScale      float64 `yaml:"energy_scale"`       // Battery units per watt-second
	StartThreshold   float64 `yaml:"start_threshold"`    // Fraction of process draw needed in battery to start
	CriticalFraction float64 `yaml:"critical_fraction"`  // Battery fraction below which power is critical
	RoverDeployCost  float64 `yaml:"rover_deploy_cost"`  // Battery charge debited on deploy
}

// ProcessConfig defines a timed resource conversion.
type ProcessConfig struct {
	Name     string             `yaml:"name"`
	Duration float64            `yaml:"duration"` // Simulated seconds
	Power    float64            `yaml:"power"`    // Watts while active
	Inputs   map[string]float64 `yaml:"inputs"`
	Outputs  map[string]float64 `yaml:"outputs"`
}

// MissionConfig holds rover mission parameters.
type MissionConfig struct {
	Duration      float64      `yaml:"duration"`       // Simulated seconds for the full route
	RoverStart    [3]float64   `yaml:"rover_start"`    // x, y, z
	Detours       [][2]float64 `yaml:"detours"`        // Successive x/z offsets from the previous point
	ReturnVia     []int        `yaml:"return_via"`     // Detour indices revisited on the way back
	FacingEpsilon float64      `yaml:"facing_epsilon"` // Below this distance the heading is left unchanged
	OreYield      YieldRange   `yaml:"ore_yield"`
	RegolithYield YieldRange   `yaml:"regolith_yield"`
}

// YieldRange is an inclusive integer range.
type YieldRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// UpgradeConfig defines a one-time upgrade purchase.
type UpgradeConfig struct {
	Cost          map[string]float64 `yaml:"cost"`
	PowerDelta    float64            `yaml:"power_delta"`    // Added to base load once installed
	CapacityDelta int                `yaml:"capacity_delta"` // Added to battery capacity once installed
	DecayFactor   float64            `yaml:"decay_factor"`   // Daily decay multiplier once installed (0 = unaffected)
}

// PanelConfig holds solar panel construction parameters.
type PanelConfig struct {
	Cost          map[string]float64 `yaml:"cost"`
	MissionTarget int                `yaml:"mission_target"`
}

// DecayConfig holds daily life-support decay ranges.
type DecayConfig struct {
	Oxygen Range `yaml:"oxygen"`
	Water  Range `yaml:"water"`
}

// Range is a half-open real range [Min, Max).
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// WeatherConfig holds ambient weather baselines.
type WeatherConfig struct {
	TemperatureBase   float64 `yaml:"temperature_base"`
	TemperatureSpread float64 `yaml:"temperature_spread"` // Full width of the roll around the base
	WindBase          float64 `yaml:"wind_base"`
	WindSpread        float64 `yaml:"wind_spread"`
	StormWindFactor   float64 `yaml:"storm_wind_factor"`
}

// TerrainConfig describes the canyon the colony sits in.
type TerrainConfig struct {
	Size          float64       `yaml:"size"`         // Edge length of the square map, centred on the origin
	CanyonDepth   float64       `yaml:"canyon_depth"` // Floor height, also used off-map
	FloorWidth    float64       `yaml:"floor_width"`
	TopWidth      float64       `yaml:"top_width"`
	WallExponent  float64       `yaml:"wall_exponent"` // Shape of the wall rise from floor to rim
	Ridges        []RidgeConfig `yaml:"ridges"`
	GritScale     float64       `yaml:"grit_scale"` // Perlin noise wavelength
	GritMagnitude float64       `yaml:"grit_magnitude"`
}

// RidgeConfig is one sinusoidal ripple layer.
type RidgeConfig struct {
	Scale     float64 `yaml:"scale"`
	Magnitude float64 `yaml:"magnitude"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Simulated seconds per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	EventHistorySize    int     `yaml:"event_history_size"`
}

// AutopilotConfig holds the default command policy thresholds.
type AutopilotConfig struct {
	BatteryReserve  float64 `yaml:"battery_reserve"`   // Battery fraction kept before starting processes
	AdvanceDayAfter float64 `yaml:"advance_day_after"` // timeOfDay at which the sol is advanced
	OxygenFloor     float64 `yaml:"oxygen_floor"`      // Oxygen producers run only below this level
	PanelReserve    float64 `yaml:"panel_reserve"`     // Plates kept back from panel builds for the fabricator
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ProcessIndex  map[string]int // name -> index into Processes
	UpgradeNames  []string       // sorted upgrade names
	MissionPoints int            // total waypoints on the rover route
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects configurations the simulation cannot run with.
func (c *Config) validate() error {
	if c.Sol.DurationSeconds <= 0 {
		return fmt.Errorf("sol.duration_seconds must be positive, got %v", c.Sol.DurationSeconds)
	}
	if c.Power.IntegrateEvery <= 0 {
		return fmt.Errorf("power.integrate_every must be positive, got %v", c.Power.IntegrateEvery)
	}
	if c.Mission.Duration <= 0 {
		return fmt.Errorf("mission.duration must be positive, got %v", c.Mission.Duration)
	}
	if c.Colony.BatteryCapacity < 0 {
		return fmt.Errorf("colony.battery_capacity must not be negative, got %d", c.Colony.BatteryCapacity)
	}
	if c.Mission.OreYield.Max < c.Mission.OreYield.Min || c.Mission.RegolithYield.Max < c.Mission.RegolithYield.Min {
		return fmt.Errorf("mission yield ranges must have max >= min")
	}
	seen := make(map[string]bool, len(c.Processes))
	for _, p := range c.Processes {
		if p.Name == "" {
			return fmt.Errorf("process with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate process %q", p.Name)
		}
		seen[p.Name] = true
		if p.Duration <= 0 {
			return fmt.Errorf("process %q: duration must be positive", p.Name)
		}
	}
	if c.Terrain.TopWidth <= c.Terrain.FloorWidth {
		return fmt.Errorf("terrain.top_width must exceed terrain.floor_width")
	}
	for _, idx := range c.Mission.ReturnVia {
		if idx < 0 || idx >= len(c.Mission.Detours) {
			return fmt.Errorf("mission.return_via index %d out of range", idx)
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ProcessIndex = make(map[string]int, len(c.Processes))
	for i, p := range c.Processes {
		c.Derived.ProcessIndex[p.Name] = i
	}

	c.Derived.UpgradeNames = make([]string, 0, len(c.Upgrades))
	for name := range c.Upgrades {
		c.Derived.UpgradeNames = append(c.Derived.UpgradeNames, name)
	}
	sort.Strings(c.Derived.UpgradeNames)

	// start + detours + revisits + return to start
	c.Derived.MissionPoints = 2 + len(c.Mission.Detours) + len(c.Mission.ReturnVia)
}

// Process returns the named process definition.
func (c *Config) Process(name string) (ProcessConfig, bool) {
	i, ok := c.Derived.ProcessIndex[name]
	if !ok {
		return ProcessConfig{}, false
	}
	return c.Processes[i], true
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
