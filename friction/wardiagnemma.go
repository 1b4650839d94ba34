package friction

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

func init() {
	Register("ward-iagnemma", func(p Params) (Model, error) {
		return &WardIagnemma{
			Mu:       p.Get("mu", 0.8),
			CDamping: p.Get("c_damping", 1.0),
			ARoll:    p.Get("a_roll", 50.0),
			R1:       p.Get("r1", 0.08),
			R2:       p.Get("r2", 0.05),
			KLon:     p.Get("k_lon", 12.0),
			KLat:     p.Get("k_lat", 8.0),
		}, nil
	})
}

// WardIagnemma approximates the Ward-Iagnemma tire model: a saturating
// slip-ratio curve longitudinally plus velocity-dependent rolling
// resistance, and a saturating slip-angle response laterally. Unlike the
// no-slip Linear model it lets the wheel spin diverge from the ground
// speed under high torque.
type WardIagnemma struct {
	Mu       float64
	CDamping float64

	// Rolling resistance shape: F_rr = -sign(vx)·(R1·(1-e^{-A·|vx|}) + R2·|vx|)·W
	ARoll float64
	R1    float64
	R2    float64

	KLon float64 // slip-ratio curve stiffness
	KLat float64 // slip-angle curve stiffness
}

func (m *WardIagnemma) Evaluate(in Input) Output {
	const vEps = 1e-3

	vx := in.SpeedAtContact.X()
	vy := in.SpeedAtContact.Y()
	R := in.WheelRadius
	maxFriction := m.Mu * in.Weight

	// Longitudinal slip ratio, guarded near standstill.
	rimSpeed := in.WheelSpin * R
	denom := math.Max(math.Abs(vx), math.Max(math.Abs(rimSpeed), vEps))
	slip := (rimSpeed - vx) / denom
	lonFriction := maxFriction * math.Tanh(m.KLon*slip)

	// Rolling resistance opposing forward motion.
	rr := (m.R1*(1.0-math.Exp(-m.ARoll*math.Abs(vx))) + m.R2*math.Abs(vx)) * in.Weight
	if vx > 0 {
		lonFriction -= rr
	} else if vx < 0 {
		lonFriction += rr
	}

	// Lateral slip angle response.
	slipAngle := math.Atan2(vy, math.Max(math.Abs(vx), vEps))
	latFriction := clamp(-maxFriction*math.Tanh(m.KLat*slipAngle), -maxFriction, maxFriction)

	// The reaction of the ground force spins the wheel down; motor torque
	// and viscous damping complete the balance.
	alpha := (in.MotorTorque - R*lonFriction - m.CDamping*in.WheelSpin) / in.WheelIyy
	spin := in.WheelSpin + alpha*in.Dt

	return Output{Force: mgl64.Vec2{lonFriction, latFriction}, Spin: spin}
}
