package object

import "math"

// Vec3 is a world-space vector. Y is vertical, Z runs down the court
// (the throwing direction) and X is lateral.
type Vec3 struct {
	X, Y, Z float64
}

// Forward is the unit vector a throw with angle 0 travels along.
var Forward = Vec3{Z: 1}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// PlanarDistance is the distance between a and b on the ground plane,
// ignoring height. All proximity scoring uses this.
func PlanarDistance(a, b Vec3) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// Heading returns the unit ground-plane direction for an angle in degrees,
// measured from Forward with positive angles turning toward +X.
func Heading(degrees float64) Vec3 {
	rad := degrees * math.Pi / 180
	return Vec3{X: math.Sin(rad), Z: math.Cos(rad)}
}

// Bearing is the inverse of Heading: the signed angle in degrees from
// Forward to the ground-plane direction from origin to target.
func Bearing(origin, target Vec3) float64 {
	d := target.Sub(origin)
	return math.Atan2(d.X, d.Z) * 180 / math.Pi
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp interpolates between a and b by t without clamping t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// InverseLerp returns where v sits between a and b, clamped to [0, 1].
// A degenerate range yields 0.
func InverseLerp(a, b, v float64) float64 {
	if a == b {
		return 0
	}
	return Clamp((v-a)/(b-a), 0, 1)
}

// PingPong bounces t back and forth between 0 and length, starting at 0.
func PingPong(t, length float64) float64 {
	if length <= 0 {
		return 0
	}
	r := math.Mod(t, 2*length)
	if r < 0 {
		r += 2 * length
	}
	return length - math.Abs(r-length)
}
