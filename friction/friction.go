// Package friction provides the pluggable wheel-ground contact models.
//
// A model is a deterministic function from the wheel's instantaneous state
// and the chassis velocity at the contact point to a contact force in the
// wheel-local frame. Models keep no hidden cross-tick state: the wheel's
// next spin velocity is returned explicitly and stored by its owner.
package friction

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Input gathers everything a model may read for one wheel on one tick.
type Input struct {
	Dt      float64
	Gravity float64 // positive, m/s²

	Weight      float64 // normal load on this wheel (N)
	MotorTorque float64 // commanded torque at the axle (N·m)

	WheelRadius float64
	WheelMass   float64
	WheelIyy    float64 // spin-axis moment of inertia
	WheelSpin   float64 // current spin velocity ω (rad/s)

	// SpeedAtContact is the chassis velocity at the wheel's contact point,
	// expressed in the wheel-local frame (x forward, y left).
	SpeedAtContact mgl64.Vec2
}

// Output is the contact response for one wheel.
type Output struct {
	// Force on the chassis at the contact point, wheel-local frame (N).
	Force mgl64.Vec2
	// Spin is the wheel's spin velocity after this step; the owning Wheel
	// stores it.
	Spin float64
}

// Model evaluates the contact force. Implementations must be deterministic
// for fixed inputs and free of global mutable state.
type Model interface {
	Evaluate(in Input) Output
}

// Params carries the model parameters parsed from a vehicle description.
type Params map[string]float64

// Get returns the named parameter or a default.
func (p Params) Get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Constructor builds a model instance from its parameters.
type Constructor func(Params) (Model, error)

var registry = map[string]Constructor{}

// Register installs a model constructor under a type name. Registration is
// explicit, at package init; dispatch is by lookup.
func Register(name string, ctor Constructor) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("friction: duplicate model registration %q", name))
	}
	registry[name] = ctor
}

// New instantiates a registered model by type name.
func New(name string, p Params) (Model, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("friction: unknown model %q (have %v)", name, Names())
	}
	return ctor(p)
}

// Names lists the registered model type names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
