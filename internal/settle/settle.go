// Package settle decides when a thrown ball has stopped moving.
package settle

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/tomz197/bocce/internal/object"
	"github.com/tomz197/bocce/internal/physics"
)

// Config holds the settle thresholds and the out-of-world recovery box.
type Config struct {
	VelocityThreshold float64 // m/s, strict
	AngularThreshold  float64 // rad/s, strict
	RequiredDuration  float64 // seconds below both thresholds

	FloorOutY float64 // below this height a ball is recovered
	RecoverX  float64 // recovered |x| limit
	RecoverZ  float64 // recovered |z| limit
	RecoverY  float64 // height a recovered ball is placed at
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		VelocityThreshold: 0.05,
		AngularThreshold:  0.1,
		RequiredDuration:  0.5,
		FloorOutY:         -5,
		RecoverX:          1.5,
		RecoverZ:          12,
		RecoverY:          0.5,
	}
}

// Validate rejects thresholds that could never settle.
func (c Config) Validate() error {
	if c.VelocityThreshold <= 0 || c.AngularThreshold <= 0 {
		return errors.New("settle: thresholds must be positive")
	}
	if c.RequiredDuration <= 0 {
		return errors.New("settle: required duration must be positive")
	}
	if c.RecoverX < 0 || c.RecoverZ < 0 {
		return errors.New("settle: recovery bounds must be non-negative")
	}
	return nil
}

// Detector samples one ball's motion on the fixed tick. Settled fires at
// most once per Track.
type Detector struct {
	cfg    Config
	logger *log.Logger

	ballID    int
	body      physics.Body
	onSettled func(recovered bool)

	timer     float64
	tracking  bool
	settled   bool
	recovered bool
}

// New creates an idle detector.
func New(cfg Config, logger *log.Logger) *Detector {
	if logger == nil {
		logger = log.Default()
	}
	return &Detector{cfg: cfg, logger: logger.With("component", "settle")}
}

// Track starts watching body for ball ballID. Any previous tracking is
// discarded. onSettled receives whether the ball had to be recovered.
func (d *Detector) Track(ballID int, body physics.Body, onSettled func(recovered bool)) {
	d.ballID = ballID
	d.body = body
	d.onSettled = onSettled
	d.timer = 0
	d.tracking = true
	d.settled = false
	d.recovered = false
}

// Tracking reports whether the detector is still waiting for a settle.
func (d *Detector) Tracking() bool { return d.tracking }

// Settled reports whether the last tracked throw has settled.
func (d *Detector) Settled() bool { return d.settled }

// Timer returns the accumulated still time.
func (d *Detector) Timer() float64 { return d.timer }

// Sample advances the detector by one fixed tick of dt seconds.
func (d *Detector) Sample(dt float64) {
	if !d.tracking || d.settled {
		return
	}
	if d.body == nil {
		d.logger.Warn("tracking ball without a body", "ball", d.ballID)
		d.tracking = false
		return
	}

	pos := d.body.Position()
	if pos.Y < d.cfg.FloorOutY {
		d.body.Teleport(object.Vec3{
			X: object.Clamp(pos.X, -d.cfg.RecoverX, d.cfg.RecoverX),
			Y: d.cfg.RecoverY,
			Z: object.Clamp(pos.Z, -d.cfg.RecoverZ, d.cfg.RecoverZ),
		})
		d.logger.Debug("ball recovered", "ball", d.ballID, "y", pos.Y)
		d.recovered = true
		d.fire()
		return
	}

	if d.body.LinearSpeed() < d.cfg.VelocityThreshold && d.body.AngularSpeed() < d.cfg.AngularThreshold {
		d.timer += dt
		if d.timer >= d.cfg.RequiredDuration {
			d.fire()
		}
		return
	}
	d.timer = 0
}

func (d *Detector) fire() {
	if d.settled {
		return
	}
	d.settled = true
	d.tracking = false
	d.body.Stop()
	d.logger.Debug("ball settled", "ball", d.ballID, "recovered", d.recovered)
	if d.onSettled != nil {
		d.onSettled(d.recovered)
	}
}
