package physics

import (
	"math"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/tomz197/bocce/internal/object"
)

// Ball dimensions in metres and kilograms.
const (
	BallRadius   = 0.11
	BallMass     = 0.9
	TargetRadius = 0.06
	TargetMass   = 0.06
)

// Simulation tuning.
const (
	Gravity          = 9.81
	RollingDecel     = 5.4 // m/s^2 while in ground contact
	GroundBounce     = 0.3 // vertical restitution on landing
	WallRestitution  = 0.5
	BallRestitution  = 0.8
	restingVertical  = 0.5 // landing speeds below this do not bounce
	gridCellSize     = 0.5
	contactTolerance = 1e-4
)

// Court is the playing area. The court is centred on the origin with its
// length along Z. Low walls enclose it; a wider surround lets balls that hop
// a wall come to rest off court, and past the surround there is no ground.
type Court struct {
	Length     float64
	Width      float64
	WallHeight float64
	// Surround extent as multiples of the court size.
	SurroundWidthScale  float64
	SurroundLengthScale float64
}

// DefaultCourt returns a regulation-sized court.
func DefaultCourt() Court {
	return Court{
		Length:              27.5,
		Width:               4,
		WallHeight:          0.3,
		SurroundWidthScale:  4,
		SurroundLengthScale: 1.5,
	}
}

func (c Court) HalfLength() float64 { return c.Length / 2 }
func (c Court) HalfWidth() float64 { return c.Width / 2 }

// ThrowOrigin is where a ball of the given radius waits before a throw: on
// the centre line, two metres in from the near end.
func (c Court) ThrowOrigin(radius float64) object.Vec3 {
	return object.Vec3{Y: radius + 0.05, Z: -c.HalfLength() + 2}
}

// Contains reports whether p is inside the walls on the ground plane.
func (c Court) Contains(p object.Vec3) bool {
	return math.Abs(p.X) <= c.HalfWidth() && math.Abs(p.Z) <= c.HalfLength()
}

func (c Court) hasGround(p object.Vec3) bool {
	return math.Abs(p.X) <= c.HalfWidth()*c.SurroundWidthScale &&
		math.Abs(p.Z) <= c.HalfLength()*c.SurroundLengthScale
}

// Sphere is a simulated ball. It implements Body.
type Sphere struct {
	id        int
	radius    float64
	mass      float64
	pos       object.Vec3
	vel       object.Vec3
	angular   float64
	kinematic bool
}

var _ Body = (*Sphere)(nil)

func (s *Sphere) ID() int { return s.id }
func (s *Sphere) Radius() float64 { return s.radius }
func (s *Sphere) Position() object.Vec3 { return s.pos }
func (s *Sphere) Velocity() object.Vec3 { return s.vel }
func (s *Sphere) LinearSpeed() float64 { return s.vel.Len() }
func (s *Sphere) AngularSpeed() float64 { return s.angular }
func (s *Sphere) SetKinematic(kinematic bool) { s.kinematic = kinematic }
func (s *Sphere) Teleport(pos object.Vec3) { s.pos = pos; s.Stop() }
func (s *Sphere) ApplyImpulse(impulse object.Vec3) {
	if s.mass <= 0 {
		return
	}
	s.vel = s.vel.Add(impulse.Scale(1 / s.mass))
}

func (s *Sphere) Stop() {
	s.vel = object.Vec3{}
	s.angular = 0
}

// World steps every dynamic sphere on a court. Not safe for concurrent use;
// the engine loop owns it.
type World struct {
	court   Court
	spheres []*Sphere
	byID    map[int]*Sphere
	grid    *SpatialGrid
	logger  *log.Logger
}

var _ Space = (*World)(nil)

// NewWorld creates an empty world on the given court.
func NewWorld(court Court, logger *log.Logger) *World {
	if logger == nil {
		logger = log.Default()
	}
	hw := court.HalfWidth() * court.SurroundWidthScale
	hl := court.HalfLength() * court.SurroundLengthScale
	return &World{
		court:  court,
		byID:   make(map[int]*Sphere),
		grid:   NewSpatialGrid(-hw, -hl, hw, hl, gridCellSize),
		logger: logger.With("component", "physics"),
	}
}

func (w *World) Court() Court { return w.court }

// Add creates a kinematic sphere for ball id. Re-adding an id replaces it.
func (w *World) Add(id int, radius, mass float64) *Sphere {
	s := &Sphere{id: id, radius: radius, mass: mass, kinematic: true}
	if old, ok := w.byID[id]; ok {
		w.logger.Debug("replacing body", "ball", id)
		for i, o := range w.spheres {
			if o == old {
				w.spheres[i] = s
			}
		}
	} else {
		w.spheres = append(w.spheres, s)
		sort.Slice(w.spheres, func(i, j int) bool { return w.spheres[i].id < w.spheres[j].id })
	}
	w.byID[id] = s
	return s
}

// AddBall creates the body for b, sized as a target or regular ball.
func (w *World) AddBall(b *object.Ball) *Sphere {
	if b.Target {
		return w.Add(b.ID, TargetRadius, TargetMass)
	}
	return w.Add(b.ID, BallRadius, BallMass)
}

// Body implements Space.
func (w *World) Body(id int) (Body, bool) {
	s, ok := w.byID[id]
	if !ok {
		return nil, false
	}
	return s, true
}

// Step advances the simulation by dt seconds.
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}
	for _, s := range w.spheres {
		if !s.kinematic {
			w.integrate(s, dt)
		}
	}
	w.collide()
}

func (w *World) integrate(s *Sphere, dt float64) {
	prev := s.pos
	ground := w.court.hasGround(s.pos)
	onGround := ground && s.pos.Y <= s.radius+contactTolerance && s.vel.Y <= 0

	if !onGround {
		s.vel.Y -= Gravity * dt
	}
	s.pos = s.pos.Add(s.vel.Scale(dt))

	if w.court.hasGround(s.pos) && s.pos.Y < s.radius && prev.Y >= s.radius-contactTolerance {
		s.pos.Y = s.radius
		if s.vel.Y < 0 {
			s.vel.Y = -s.vel.Y * GroundBounce
			if s.vel.Y < restingVertical {
				s.vel.Y = 0
			}
		}
		onGround = s.vel.Y == 0
	}

	if onGround {
		planar := math.Hypot(s.vel.X, s.vel.Z)
		if planar > 0 {
			next := math.Max(0, planar-RollingDecel*dt)
			k := next / planar
			s.vel.X *= k
			s.vel.Z *= k
			planar = next
		}
		s.angular = planar / s.radius
	}

	w.walls(s, prev)
}

// walls reflects balls leaving the court below wall height.
func (w *World) walls(s *Sphere, prev object.Vec3) {
	if !w.court.Contains(prev) || s.pos.Y-s.radius >= w.court.WallHeight {
		return
	}
	hw := w.court.HalfWidth() - s.radius
	hl := w.court.HalfLength() - s.radius
	if s.pos.X > hw || s.pos.X < -hw {
		s.pos.X = object.Clamp(s.pos.X, -hw, hw)
		s.vel.X = -s.vel.X * WallRestitution
	}
	if s.pos.Z > hl || s.pos.Z < -hl {
		s.pos.Z = object.Clamp(s.pos.Z, -hl, hl)
		s.vel.Z = -s.vel.Z * WallRestitution
	}
}

func (w *World) collide() {
	w.grid.Clear()
	for i, s := range w.spheres {
		if !s.kinematic {
			w.grid.Insert(s.pos.X, s.pos.Z, i)
		}
	}
	for i, a := range w.spheres {
		if a.kinematic {
			continue
		}
		w.grid.QueryAround(a.pos.X, a.pos.Z, func(j int) bool {
			if j <= i {
				return false
			}
			resolve(a, w.spheres[j])
			return false
		})
	}
}

// resolve applies an impulse-based elastic response to touching spheres.
func resolve(a, b *Sphere) {
	if !SpheresOverlap(a.pos, a.radius, b.pos, b.radius) {
		return
	}
	d := b.pos.Sub(a.pos)
	dist := d.Len()
	if dist == 0 {
		d = object.Forward
		dist = 1
	}
	n := d.Scale(1 / dist)

	invA, invB := 1/a.mass, 1/b.mass
	overlap := a.radius + b.radius - dist
	shift := overlap / (invA + invB)
	a.pos = a.pos.Sub(n.Scale(shift * invA))
	b.pos = b.pos.Add(n.Scale(shift * invB))

	approach := a.vel.Sub(b.vel).Dot(n)
	if approach <= 0 {
		return
	}
	j := (1 + BallRestitution) * approach / (invA + invB)
	a.vel = a.vel.Sub(n.Scale(j * invA))
	b.vel = b.vel.Add(n.Scale(j * invB))
}
