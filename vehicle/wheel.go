package vehicle

import (
	"github.com/ByteArena/box2d"
	"github.com/treadsim/treads/config"
)

// Wheel is the static geometry and per-tick runtime state of one wheel. It
// is a data holder owned by its vehicle; the dynamics model reads and
// writes it.
type Wheel struct {
	// Geometry, relative to the chassis reference frame.
	X, Y      float64 // offset (m)
	Yaw       float64 // steer angle (rad); only steerable wheels turn
	Radius    float64
	Width     float64
	Mass      float64
	Iyy       float64 // spin-axis moment of inertia
	Steerable bool

	// Runtime state.
	W      float64 // spin velocity (rad/s)
	Phi    float64 // accumulated spin angle (rad)
	Torque float64 // last torque applied by the motor controller (N·m)

	// Opaque handle into the physics engine; set at assembly.
	fixture *box2d.B2Fixture
}

// newWheel returns a wheel slot with the default tire geometry, placed at
// the given chassis offset.
func newWheel(x, y float64, steerable bool) Wheel {
	const (
		defaultRadius = 0.2
		defaultWidth  = 0.2
		defaultMass   = 2.0
	)
	w := Wheel{
		X:         x,
		Y:         y,
		Radius:    defaultRadius,
		Width:     defaultWidth,
		Mass:      defaultMass,
		Steerable: steerable,
	}
	w.Iyy = 0.5 * w.Mass * w.Radius * w.Radius // solid cylinder about its axle
	return w
}

// applyOverrides merges the per-slot description values onto the defaults.
func (w *Wheel) applyOverrides(cfg config.WheelConfig) {
	if cfg.X != nil {
		w.X = *cfg.X
	}
	if cfg.Y != nil {
		w.Y = *cfg.Y
	}
	if cfg.Radius != nil {
		w.Radius = *cfg.Radius
	}
	if cfg.Width != nil {
		w.Width = *cfg.Width
	}
	if cfg.Mass != nil {
		w.Mass = *cfg.Mass
	}
	w.Iyy = 0.5 * w.Mass * w.Radius * w.Radius
}

func (w *Wheel) validate(vehicleName, slot string) error {
	switch {
	case w.Radius <= 0:
		return configErrorf(vehicleName, "wheel "+slot, "radius must be positive, got %g", w.Radius)
	case w.Width <= 0:
		return configErrorf(vehicleName, "wheel "+slot, "width must be positive, got %g", w.Width)
	case w.Mass <= 0:
		return configErrorf(vehicleName, "wheel "+slot, "mass must be positive, got %g", w.Mass)
	}
	return nil
}
