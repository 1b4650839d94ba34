package friction

import "github.com/go-gl/mathgl/mgl64"

func init() {
	Register("default", func(p Params) (Model, error) {
		return &Linear{
			Mu:       p.Get("mu", 0.8),
			CDamping: p.Get("c_damping", 1.0),
		}, nil
	})
}

// Linear is the default wheel-ground coupling: the lateral and longitudinal
// sub-problems are solved independently, each as the impulse that would
// cancel slip over one step, clamped by the Coulomb friction circle treated
// per axis.
type Linear struct {
	Mu       float64 // friction coefficient
	CDamping float64 // viscous damping on wheel spin (N·m·s/rad)
}

func (m *Linear) Evaluate(in Input) Output {
	// Mass fraction carried by this wheel, including the wheel itself.
	partialMass := in.Weight/in.Gravity + in.WheelMass
	maxFriction := m.Mu * partialMass * in.Gravity

	// 1) Lateral: impulse cancelling the side slip over this step.
	latFriction := clamp(-in.SpeedAtContact.Y()*partialMass/in.Dt, -maxFriction, maxFriction)

	// 2) Longitudinal: spin velocity the no-slip constraint demands, the
	// angular acceleration to reach it, and the ground force that torque
	// balance requires for that acceleration.
	R := in.WheelRadius
	desiredSpin := in.SpeedAtContact.X() / R
	desiredAlpha := (desiredSpin - in.WheelSpin) / in.Dt

	lonFriction := (in.MotorTorque - in.WheelIyy*desiredAlpha - m.CDamping*in.WheelSpin) / R
	lonFriction = clamp(lonFriction, -maxFriction, maxFriction)

	// Re-integrate the spin with the force actually achievable, so a
	// saturated contact spins up the wheel instead of silently holding it.
	alpha := (in.MotorTorque - R*lonFriction - m.CDamping*in.WheelSpin) / in.WheelIyy
	spin := in.WheelSpin + alpha*in.Dt

	return Output{Force: mgl64.Vec2{lonFriction, latFriction}, Spin: spin}
}
