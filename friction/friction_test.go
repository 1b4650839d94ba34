package friction

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func floatEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func baseInput() Input {
	return Input{
		Dt:          0.01,
		Gravity:     9.81,
		Weight:      50.0,
		WheelRadius: 0.25,
		WheelMass:   2.0,
		WheelIyy:    0.1,
	}
}

func TestRegistry(t *testing.T) {
	tests := []struct {
		name    string
		model   string
		wantErr bool
	}{
		{"default model", "default", false},
		{"ward-iagnemma model", "ward-iagnemma", false},
		{"unknown model", "magic-tires", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.model, Params{"mu": 0.9})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.model)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m == nil {
				t.Fatal("constructor returned nil model")
			}
		})
	}
}

func TestLinearZeroSlipZeroForce(t *testing.T) {
	m := &Linear{Mu: 0.8, CDamping: 1.0}
	in := baseInput()

	out := m.Evaluate(in)
	if !floatEqual(out.Force.X(), 0, 1e-12) || !floatEqual(out.Force.Y(), 0, 1e-12) {
		t.Errorf("expected zero force at rest with zero torque, got %v", out.Force)
	}
	if !floatEqual(out.Spin, 0, 1e-12) {
		t.Errorf("expected wheel to stay still, got spin %v", out.Spin)
	}
}

func TestLinearLateralOpposesSideSlip(t *testing.T) {
	m := &Linear{Mu: 0.8, CDamping: 1.0}
	in := baseInput()
	in.SpeedAtContact = mgl64.Vec2{0, 0.5}

	out := m.Evaluate(in)
	if out.Force.Y() >= 0 {
		t.Errorf("lateral friction must oppose side slip, got %v", out.Force.Y())
	}

	in.SpeedAtContact = mgl64.Vec2{0, -0.5}
	out = m.Evaluate(in)
	if out.Force.Y() <= 0 {
		t.Errorf("lateral friction must oppose side slip, got %v", out.Force.Y())
	}
}

func TestLinearFrictionCircleClamp(t *testing.T) {
	m := &Linear{Mu: 0.5, CDamping: 1.0}
	in := baseInput()
	in.SpeedAtContact = mgl64.Vec2{0, 10.0} // violent side slip

	partialMass := in.Weight/in.Gravity + in.WheelMass
	maxFriction := m.Mu * partialMass * in.Gravity

	out := m.Evaluate(in)
	if !floatEqual(out.Force.Y(), -maxFriction, 1e-9) {
		t.Errorf("lateral force not clamped: got %v, limit %v", out.Force.Y(), maxFriction)
	}
}

func TestLinearTorqueDrivesForward(t *testing.T) {
	m := &Linear{Mu: 0.8, CDamping: 1.0}
	in := baseInput()
	in.MotorTorque = 2.0

	out := m.Evaluate(in)
	if out.Force.X() <= 0 {
		t.Errorf("positive torque must push forward, got %v", out.Force.X())
	}

	// Once the chassis moves, the no-slip constraint pulls the spin onto
	// the ground speed.
	in.SpeedAtContact = mgl64.Vec2{0.05, 0}
	out = m.Evaluate(in)
	if !floatEqual(out.Spin, in.SpeedAtContact.X()/in.WheelRadius, 1e-9) {
		t.Errorf("spin should track ground speed, got %v", out.Spin)
	}
}

func TestLinearDeterministic(t *testing.T) {
	m := &Linear{Mu: 0.8, CDamping: 1.0}
	in := baseInput()
	in.MotorTorque = 1.5
	in.WheelSpin = 3.0
	in.SpeedAtContact = mgl64.Vec2{0.7, -0.1}

	a := m.Evaluate(in)
	b := m.Evaluate(in)
	if a != b {
		t.Errorf("model is not deterministic: %v != %v", a, b)
	}
}

func TestWardIagnemmaSlipSaturation(t *testing.T) {
	m := &WardIagnemma{Mu: 0.8, CDamping: 1.0, ARoll: 50, R1: 0.08, R2: 0.05, KLon: 12, KLat: 8}
	in := baseInput()
	in.WheelSpin = 100.0 // rim speed far beyond ground speed
	in.SpeedAtContact = mgl64.Vec2{1.0, 0}

	out := m.Evaluate(in)
	limit := m.Mu * in.Weight
	if out.Force.X() > limit+1e-9 {
		t.Errorf("longitudinal force exceeds friction limit: %v > %v", out.Force.X(), limit)
	}
	if out.Force.X() <= 0 {
		t.Errorf("spinning wheel must drag the chassis forward, got %v", out.Force.X())
	}
}

func TestWardIagnemmaRollingResistanceOpposesMotion(t *testing.T) {
	m := &WardIagnemma{Mu: 0.8, CDamping: 1.0, ARoll: 50, R1: 0.08, R2: 0.05, KLon: 12, KLat: 8}
	in := baseInput()
	// Rolling without slip: rim speed equals ground speed.
	in.SpeedAtContact = mgl64.Vec2{2.0, 0}
	in.WheelSpin = in.SpeedAtContact.X() / in.WheelRadius

	out := m.Evaluate(in)
	if out.Force.X() >= 0 {
		t.Errorf("rolling resistance must brake the chassis, got %v", out.Force.X())
	}
}
