package systems

import "math"

// PowerParams are the constants of the power model.
type PowerParams struct {
	PerPanelOutput float64
	SolarOffset    float64
	StormPenalty   float64
	EnergyScale    float64 // battery units per watt-second
}

// PowerSystem owns the battery and panel count.
// Charge stays within [0, capacity] after every update.
type PowerSystem struct {
	params   PowerParams
	charge   float64
	capacity int
	panels   int
}

// NewPowerSystem creates a battery with the given charge, clamped to capacity.
func NewPowerSystem(params PowerParams, charge float64, capacity, panels int) (*PowerSystem, error) {
	if capacity < 0 {
		return nil, preconditionf("battery capacity must not be negative, got %d", capacity)
	}
	if panels < 0 {
		return nil, preconditionf("panel count must not be negative, got %d", panels)
	}
	if params.EnergyScale <= 0 {
		return nil, preconditionf("energy scale must be positive, got %v", params.EnergyScale)
	}
	ps := &PowerSystem{params: params, capacity: capacity, panels: panels}
	ps.charge = ps.clamp(charge)
	return ps, nil
}

func (ps *PowerSystem) Charge() float64 { return ps.charge }
func (ps *PowerSystem) Capacity() int   { return ps.capacity }
func (ps *PowerSystem) Panels() int     { return ps.panels }

// Fraction returns charge / capacity (0 for an empty-capacity battery).
func (ps *PowerSystem) Fraction() float64 {
	if ps.capacity <= 0 {
		return 0
	}
	return ps.charge / float64(ps.capacity)
}

// Generation returns the instantaneous solar output in watts. Never negative.
func (ps *PowerSystem) Generation(sunFactor float64, stormActive bool) float64 {
	return ComputeGeneration(ps.params, ps.panels, sunFactor, stormActive)
}

// ComputeGeneration is perPanel * panels * max(0, sun + offset), scaled down during storms.
func ComputeGeneration(p PowerParams, panels int, sunFactor float64, stormActive bool) float64 {
	efficiency := math.Max(0, sunFactor+p.SolarOffset)
	if stormActive {
		efficiency *= p.StormPenalty
	}
	return math.Max(0, p.PerPanelOutput*float64(panels)*efficiency)
}

// ComputeConsumption sums base load, upgrade adjustments and active process draw.
func ComputeConsumption(baseLoad, activeProcessesPower, upgradeDelta float64) float64 {
	return math.Max(0, baseLoad+upgradeDelta) + activeProcessesPower
}

// Integrate applies (generation - consumption) over dt seconds and clamps the result.
// Running dry is a gameplay state, not an error.
func (ps *PowerSystem) Integrate(dt, generation, consumption float64) {
	ps.charge = ps.clamp(ps.charge + (generation-consumption)*dt*ps.params.EnergyScale)
}

// Draw removes amount from the battery if the full amount is available.
func (ps *PowerSystem) Draw(amount float64) error {
	if amount < 0 || math.IsNaN(amount) {
		return preconditionf("invalid power draw %v", amount)
	}
	if ps.charge < amount {
		return &InsufficientPowerError{Required: amount, Available: ps.charge}
	}
	ps.charge -= amount
	return nil
}

// ExpandCapacity permanently raises capacity. Charge is not rescaled.
func (ps *PowerSystem) ExpandCapacity(delta int) {
	ps.capacity += delta
	if ps.capacity < 0 {
		ps.capacity = 0
	}
	ps.charge = ps.clamp(ps.charge)
}

// AddPanel records one more constructed panel.
func (ps *PowerSystem) AddPanel() int {
	ps.panels++
	return ps.panels
}

func (ps *PowerSystem) clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, float64(ps.capacity))
}
