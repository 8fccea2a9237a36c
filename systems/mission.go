package systems

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/colony/components"
)

// YieldRange is an inclusive integer range rolled on mission completion.
type YieldRange struct {
	Min, Max int
}

func (y YieldRange) roll(rng *rand.Rand) float64 {
	if y.Max <= y.Min {
		return float64(y.Min)
	}
	return float64(y.Min + rng.Intn(y.Max-y.Min+1))
}

// MissionYield is what a completed mission brings back.
type MissionYield struct {
	IronOre  float64
	Regolith float64
}

// Amounts converts the yield to ledger credits.
func (y MissionYield) Amounts() components.Amounts {
	return components.Amounts{components.IronOre: y.IronOre, components.Regolith: y.Regolith}
}

// MissionSample is the follower state at one clock reading.
type MissionSample struct {
	components.Pose
	Progress     float64
	SegmentIndex int
	Complete     bool
	Yield        MissionYield // set only when Complete
}

// MissionPathFollower drives a single unit along a waypoint route over a fixed duration.
type MissionPathFollower struct {
	rng           *rand.Rand
	facingEpsilon float64
	oreYield      YieldRange
	regolithYield YieldRange

	active    bool
	path      []components.Vec3
	startTime float64
	duration  float64
	lookAt    components.Vec3
	progress  float64
}

// NewMissionPathFollower creates an idle follower. rng is the only source of randomness
// for mission yields and must be supplied by the caller.
func NewMissionPathFollower(rng *rand.Rand, facingEpsilon float64, ore, regolith YieldRange) *MissionPathFollower {
	return &MissionPathFollower{
		rng:           rng,
		facingEpsilon: facingEpsilon,
		oreYield:      ore,
		regolithYield: regolith,
	}
}

// Active reports whether a mission is underway.
func (m *MissionPathFollower) Active() bool { return m.active }

// Progress returns the last sampled progress in [0,1].
func (m *MissionPathFollower) Progress() float64 { return m.progress }

// StartTime returns the clock reading at deploy.
func (m *MissionPathFollower) StartTime() float64 { return m.startTime }

// Duration returns the configured route duration.
func (m *MissionPathFollower) Duration() float64 { return m.duration }

// Path returns a copy of the active route.
func (m *MissionPathFollower) Path() []components.Vec3 {
	out := make([]components.Vec3, len(m.path))
	copy(out, m.path)
	return out
}

// Deploy sends the unit from start through the detour points and back to start.
func (m *MissionPathFollower) Deploy(start components.Vec3, detours []components.Vec3, duration, now float64) error {
	path := make([]components.Vec3, 0, len(detours)+2)
	path = append(path, start)
	path = append(path, detours...)
	path = append(path, start)
	return m.DeployPath(path, duration, now)
}

// DeployPath starts a mission along an explicit route of at least two waypoints.
func (m *MissionPathFollower) DeployPath(path []components.Vec3, duration, now float64) error {
	if m.active {
		return ErrAlreadyDeployed
	}
	if len(path) < 2 {
		return preconditionf("mission path needs at least 2 waypoints, got %d", len(path))
	}
	if duration <= 0 || math.IsNaN(duration) {
		return preconditionf("mission duration must be positive, got %v", duration)
	}

	m.path = make([]components.Vec3, len(path))
	copy(m.path, path)
	m.active = true
	m.startTime = now
	m.duration = duration
	m.lookAt = path[1]
	m.progress = 0
	return nil
}

// Abort forcibly resets the follower to inactive without yields.
func (m *MissionPathFollower) Abort() {
	m.reset()
}

// Sample interpolates the unit pose at clock reading now. When progress reaches 1
// the mission completes, yields are rolled and the follower goes idle.
func (m *MissionPathFollower) Sample(now float64) (MissionSample, error) {
	if !m.active {
		return MissionSample{}, preconditionf("no active mission")
	}
	if len(m.path) < 2 {
		return MissionSample{}, preconditionf("mission path has %d waypoints", len(m.path))
	}

	progress := clamp01((now - m.startTime) / m.duration)
	pos, seg := PathPosition(m.path, progress)

	sample := MissionSample{Progress: progress, SegmentIndex: seg}
	sample.Position = pos

	end := m.path[seg+1]
	if r3.Norm(r3.Sub(end, pos)) > m.facingEpsilon {
		m.lookAt = end
		sample.Facing = true
	}
	sample.LookAt = m.lookAt
	m.progress = progress

	if progress >= 1 {
		sample.Complete = true
		sample.Yield = MissionYield{
			IronOre:  m.oreYield.roll(m.rng),
			Regolith: m.regolithYield.roll(m.rng),
		}
		m.reset()
		m.progress = 1
	}

	return sample, nil
}

func (m *MissionPathFollower) reset() {
	m.active = false
	m.path = nil
	m.startTime = 0
	m.duration = 0
	m.progress = 0
}

// PathPosition maps progress in [0,1] onto uniform segments of path.
// Returns the interpolated point and the segment index used.
func PathPosition(path []components.Vec3, progress float64) (components.Vec3, int) {
	segments := len(path) - 1
	if segments < 1 {
		panic(fmt.Sprintf("systems: PathPosition needs at least 2 waypoints, got %d", len(path)))
	}

	segProgress := clamp01(progress) * float64(segments)
	seg := int(math.Floor(segProgress))
	if seg > segments-1 {
		seg = segments - 1
	}
	if seg < 0 {
		seg = 0
	}
	return lerp(path[seg], path[seg+1], segProgress-float64(seg)), seg
}

// lerp returns the endpoints exactly at t=0 and t=1.
func lerp(a, b components.Vec3, t float64) components.Vec3 {
	switch {
	case t <= 0:
		return a
	case t >= 1:
		return b
	}
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
