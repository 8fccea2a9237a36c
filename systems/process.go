package systems

import (
	"fmt"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/colony/components"
)

// ProcessEngine runs timed resource conversions. Each configured process is one
// ECS entity; at most one run per process can be active at a time.
type ProcessEngine struct {
	world   *ecs.World
	creator *ecs.Map2[components.ProcessSpec, components.ProcessTimer]
	specMap *ecs.Map[components.ProcessSpec]
	timers  *ecs.Map[components.ProcessTimer]
	filter  *ecs.Filter2[components.ProcessSpec, components.ProcessTimer]

	byName         map[string]ecs.Entity
	names          []string
	startThreshold float64 // fraction of a process's draw required in the battery to start it
}

// NewProcessEngine registers one entity per spec.
func NewProcessEngine(specs []components.ProcessSpec, startThreshold float64) (*ProcessEngine, error) {
	world := ecs.NewWorld()
	pe := &ProcessEngine{
		world:          world,
		creator:        ecs.NewMap2[components.ProcessSpec, components.ProcessTimer](world),
		specMap:        ecs.NewMap[components.ProcessSpec](world),
		timers:         ecs.NewMap[components.ProcessTimer](world),
		filter:         ecs.NewFilter2[components.ProcessSpec, components.ProcessTimer](world),
		byName:         make(map[string]ecs.Entity, len(specs)),
		names:          make([]string, 0, len(specs)),
		startThreshold: startThreshold,
	}

	for i, spec := range specs {
		if err := validateSpec(spec); err != nil {
			return nil, err
		}
		if _, dup := pe.byName[spec.Name]; dup {
			return nil, preconditionf("duplicate process %q", spec.Name)
		}
		spec.Index = i
		spec.Inputs = spec.Inputs.Clone()
		spec.Outputs = spec.Outputs.Clone()
		timer := components.ProcessTimer{}
		pe.byName[spec.Name] = pe.creator.NewEntity(&spec, &timer)
		pe.names = append(pe.names, spec.Name)
	}

	return pe, nil
}

func validateSpec(spec components.ProcessSpec) error {
	if spec.Name == "" {
		return preconditionf("process with empty name")
	}
	if spec.Duration <= 0 {
		return preconditionf("process %q: non-positive duration %v", spec.Name, spec.Duration)
	}
	if spec.Power < 0 {
		return preconditionf("process %q: negative power %v", spec.Name, spec.Power)
	}
	for _, amounts := range []components.Amounts{spec.Inputs, spec.Outputs} {
		for r, v := range amounts {
			if err := checkAmount(r, v); err != nil {
				return fmt.Errorf("process %q: %w", spec.Name, err)
			}
		}
	}
	return nil
}

// Names returns the process names in configuration order.
func (pe *ProcessEngine) Names() []string {
	out := make([]string, len(pe.names))
	copy(out, pe.names)
	return out
}

// Start begins a run of the named process.
// The input cost and the power headroom are both checked before anything is debited.
func (pe *ProcessEngine) Start(name string, ledger *ResourceLedger, batteryCharge float64) error {
	entity, ok := pe.byName[name]
	if !ok {
		return preconditionf("unknown process %q", name)
	}
	spec := pe.specMap.Get(entity)
	timer := pe.timers.Get(entity)

	if timer.Active {
		return fmt.Errorf("%s: %w", name, ErrAlreadyActive)
	}
	if err := ledger.CanDebitAll(spec.Inputs); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if need := spec.Power * pe.startThreshold; batteryCharge < need {
		return fmt.Errorf("%s: %w", name, &InsufficientPowerError{Required: need, Available: batteryCharge})
	}
	if err := ledger.TryDebitAll(spec.Inputs); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	timer.Active = true
	timer.TimeRemaining = spec.Duration
	return nil
}

// Tick counts down every active process and credits the outputs of those that expire.
// Overshoot past zero is not compensated. Returns the names completed this tick.
func (pe *ProcessEngine) Tick(dt float64, ledger *ResourceLedger) []string {
	var completed []string

	query := pe.filter.Query()
	for query.Next() {
		spec, timer := query.Get()
		if !timer.Active {
			continue
		}

		timer.TimeRemaining -= dt
		if timer.TimeRemaining > 0 {
			continue
		}

		// Outputs were validated at construction
		_ = ledger.CreditAll(spec.Outputs)
		timer.Active = false
		timer.TimeRemaining = 0
		timer.Runs++
		completed = append(completed, spec.Name)
	}

	return completed
}

// ActivePower returns the summed draw of every active process.
func (pe *ProcessEngine) ActivePower() float64 {
	var total float64
	query := pe.filter.Query()
	for query.Next() {
		spec, timer := query.Get()
		if timer.Active {
			total += spec.Power
		}
	}
	return total
}

// IsActive reports whether the named process is running.
func (pe *ProcessEngine) IsActive(name string) bool {
	entity, ok := pe.byName[name]
	if !ok {
		return false
	}
	return pe.timers.Get(entity).Active
}

// Spec returns a copy of the named process definition.
func (pe *ProcessEngine) Spec(name string) (components.ProcessSpec, bool) {
	entity, ok := pe.byName[name]
	if !ok {
		return components.ProcessSpec{}, false
	}
	spec := *pe.specMap.Get(entity)
	spec.Inputs = spec.Inputs.Clone()
	spec.Outputs = spec.Outputs.Clone()
	return spec, true
}

// Statuses returns every process status in configuration order.
func (pe *ProcessEngine) Statuses() []components.ProcessStatus {
	out := make([]components.ProcessStatus, 0, len(pe.names))
	query := pe.filter.Query()
	for query.Next() {
		spec, timer := query.Get()
		out = append(out, components.ProcessStatus{
			Name:          spec.Name,
			Active:        timer.Active,
			TimeRemaining: timer.TimeRemaining,
			Duration:      spec.Duration,
			Power:         spec.Power,
			Runs:          timer.Runs,
		})
	}
	index := make(map[string]int, len(pe.names))
	for i, n := range pe.names {
		index[n] = i
	}
	sort.Slice(out, func(i, j int) bool { return index[out[i].Name] < index[out[j].Name] })
	return out
}
