package components

import "gonum.org/v1/gonum/spatial/r3"

// Vec3 is a world-space position. Y is up.
type Vec3 = r3.Vec

// Pose is an interpolated unit position with the point it is facing.
type Pose struct {
	Position Vec3
	LookAt   Vec3
	Facing   bool // false when LookAt was left unchanged (too close to the target)
}
