// Package physics is the rigid-body collaborator of the match core. The core
// only sees Body and Space; World is a small rolling-ball simulation that
// implements them for the playable binaries and integration tests.
package physics

import "github.com/tomz197/bocce/internal/object"

// Body is the core's handle on one ball's rigid body.
type Body interface {
	Position() object.Vec3
	LinearSpeed() float64
	AngularSpeed() float64
	// SetKinematic freezes (true) or releases (false) the body. Kinematic
	// bodies are not integrated and do not collide.
	SetKinematic(kinematic bool)
	ApplyImpulse(impulse object.Vec3)
	// Teleport moves the body and clears its motion.
	Teleport(pos object.Vec3)
	// Stop zeroes residual linear and angular velocity.
	Stop()
}

// Space resolves ball ids to bodies. ok is false when no body exists.
type Space interface {
	Body(id int) (Body, bool)
}

// SpheresOverlap checks if two spheres intersect.
func SpheresOverlap(a object.Vec3, ra float64, b object.Vec3, rb float64) bool {
	d := b.Sub(a)
	minDist := ra + rb
	return d.Dot(d) < minDist*minDist
}

// PlanarDistanceSquared is the squared ground-plane distance. Use it when
// comparing distances to avoid the sqrt cost.
func PlanarDistanceSquared(a, b object.Vec3) float64 {
	dx := b.X - a.X
	dz := b.Z - a.Z
	return dx*dx + dz*dz
}
