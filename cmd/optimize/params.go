// Package main provides CMA-ES optimization for colony autopilot thresholds.
package main

import (
	"github.com/pthm-cable/colony/colony"
	"github.com/pthm-cable/colony/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
// Defaults are taken from the base config so a run starts from the shipped policy.
func NewParamVector(base config.AutopilotConfig) *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "battery_reserve", Path: "autopilot.battery_reserve", Min: 0.0, Max: 0.9, Default: base.BatteryReserve},
			{Name: "advance_day_after", Path: "autopilot.advance_day_after", Min: 0.35, Max: 0.99, Default: base.AdvanceDayAfter},
			{Name: "oxygen_floor", Path: "autopilot.oxygen_floor", Min: 0, Max: 100, Default: base.OxygenFloor},
			{Name: "panel_reserve", Path: "autopilot.panel_reserve", Min: 0, Max: 20, Default: base.PanelReserve},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// Autopilot converts a parameter vector to autopilot thresholds.
// Order must match Specs order.
func (pv *ParamVector) Autopilot(values []float64) colony.AutopilotParams {
	clamped := pv.Clamp(values)
	return colony.AutopilotParams{
		BatteryReserve:  clamped[0],
		AdvanceDayAfter: clamped[1],
		OxygenFloor:     clamped[2],
		PanelReserve:    clamped[3],
	}
}

// ApplyToConfig writes parameter values into the autopilot section of cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	p := pv.Autopilot(values)
	cfg.Autopilot.BatteryReserve = p.BatteryReserve
	cfg.Autopilot.AdvanceDayAfter = p.AdvanceDayAfter
	cfg.Autopilot.OxygenFloor = p.OxygenFloor
	cfg.Autopilot.PanelReserve = p.PanelReserve
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Autopilot.BatteryReserve,
		cfg.Autopilot.AdvanceDayAfter,
		cfg.Autopilot.OxygenFloor,
		cfg.Autopilot.PanelReserve,
	}
}
