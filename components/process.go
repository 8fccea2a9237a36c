package components

// ProcessSpec is the immutable definition attached to a process entity.
type ProcessSpec struct {
	Index    int // position in the configured process list
	Name     string
	Duration float64
	Power    float64
	Inputs   Amounts
	Outputs  Amounts
}

// ProcessTimer holds the mutable run state of a process entity.
type ProcessTimer struct {
	Active        bool
	TimeRemaining float64
	Runs          int // completed runs since start of simulation
}

// ProcessStatus is a read-only view of one process for snapshots.
type ProcessStatus struct {
	Name          string
	Active        bool
	TimeRemaining float64
	Duration      float64
	Power         float64
	Runs          int
}

// Progress returns the completed fraction of the current run (0 when idle).
func (s ProcessStatus) Progress() float64 {
	if !s.Active || s.Duration <= 0 {
		return 0
	}
	p := 1 - s.TimeRemaining/s.Duration
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
