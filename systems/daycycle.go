package systems

import "math"

// DayCycle tracks the sol counter and the wrapping time-of-day fraction.
type DayCycle struct {
	day        int
	timeOfDay  float64
	phaseShift float64
}

// NewDayCycle starts at the given sol and time of day.
// phaseShift is subtracted from the sun angle so that sunFactor crosses zero after dawn.
func NewDayCycle(day int, timeOfDay, phaseShift float64) (*DayCycle, error) {
	if day < 1 {
		return nil, preconditionf("day index must be >= 1, got %d", day)
	}
	if timeOfDay < 0 || timeOfDay >= 1 {
		return nil, preconditionf("time of day must be in [0,1), got %v", timeOfDay)
	}
	return &DayCycle{day: day, timeOfDay: timeOfDay, phaseShift: phaseShift}, nil
}

// Day returns the current sol index.
func (d *DayCycle) Day() int { return d.day }

// TimeOfDay returns the day fraction in [0,1).
func (d *DayCycle) TimeOfDay() float64 { return d.timeOfDay }

// Tick advances the time of day by dt seconds of a sol lasting solDuration seconds.
// The sol index never changes here.
func (d *DayCycle) Tick(dt, solDuration float64) {
	t := math.Mod(d.timeOfDay+dt/solDuration, 1)
	if t < 0 {
		t += 1
	}
	d.timeOfDay = t
}

// AdvanceDay increments the sol and resets the clock to morning.
func (d *DayCycle) AdvanceDay(morning float64) {
	d.day++
	d.timeOfDay = morning
}

// SunFactor returns the solar elevation term in [-1,1] for the current time of day.
func (d *DayCycle) SunFactor() float64 {
	return SunFactor(d.timeOfDay, d.phaseShift)
}

// SunFactor is a pure function of the time of day so generation and lighting agree.
func SunFactor(timeOfDay, phaseShift float64) float64 {
	return math.Sin(timeOfDay*2*math.Pi - phaseShift)
}
