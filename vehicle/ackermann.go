package vehicle

import (
	"math"

	"github.com/treadsim/treads/config"
	"github.com/treadsim/treads/friction"
)

func init() {
	RegisterDynamics("ackermann", func(cfg config.VehicleConfig) (Vehicle, error) {
		return newAckermann(cfg)
	})
}

// Ackermann is a car-like drive: two fixed rear wheels take the motor
// torque, two steerable front wheels follow the Ackermann geometry of a
// single virtual central steering angle.
type Ackermann struct {
	Base
	maxSteer float64 // rad
	ctrl     ackController
}

type ackController interface {
	// control yields the rear-axle torque per side and the virtual central
	// steering angle.
	control(ctx TickContext, veh *Ackermann) (left, right, steer float64)
	teleop(in TeleopInput, out *TeleopOutput)
}

// Wheel order: {rear-left, rear-right, front-left, front-right}; only the
// front pair steers.
func ackSlots() []wheelSlot {
	return []wheelSlot{
		{name: "rear_left", x: 0, y: 0.9},
		{name: "rear_right", x: 0, y: -0.9},
		{name: "front_left", x: 1.3, y: 0.9, steerable: true},
		{name: "front_right", x: 1.3, y: -0.9, steerable: true},
	}
}

func newAckermann(cfg config.VehicleConfig) (*Ackermann, error) {
	base, err := newBase(cfg, ackSlots())
	if err != nil {
		return nil, err
	}
	a := &Ackermann{Base: base, maxSteer: deg2rad(30)}
	a.dyn = a

	if a.wheels[2].X == a.wheels[0].X {
		return nil, configErrorf(cfg.Name, "wheels", "zero wheelbase, front and rear axles coincide")
	}

	p := friction.Params(cfg.Controller.Params)
	if m := p.Get("max_steer_deg", 0); m > 0 {
		a.maxSteer = deg2rad(m)
	}
	switch cfg.Controller.Type {
	case "", "raw":
		a.ctrl = &ackRawController{
			torque: p.Get("torque", 0),
			steer:  deg2rad(p.Get("steer_deg", 0)),
		}
	case "twist_pid":
		a.ctrl = &ackTwistPID{
			pidL: pid{KP: p.Get("kp", 10), KI: p.Get("ki", 0), KD: p.Get("kd", 0), Max: p.Get("max_torque", 50)},
			pidR: pid{KP: p.Get("kp", 10), KI: p.Get("ki", 0), KD: p.Get("kd", 0), Max: p.Get("max_torque", 50)},
			setV: p.Get("v", 0),
			setW: deg2rad(p.Get("w_deg", 0)),
		}
	default:
		return nil, configErrorf(cfg.Name, "controller.type",
			"unknown controller %q for ackermann dynamics", cfg.Controller.Type)
	}
	return a, nil
}

// wheelbase is the longitudinal distance between the axles; track the
// lateral distance between the wheels of one axle.
func (a *Ackermann) wheelbase() float64 { return a.wheels[2].X - a.wheels[0].X }
func (a *Ackermann) track() float64     { return a.wheels[2].Y - a.wheels[3].Y }

// frontWheelAngles maps the virtual central steering angle onto the inner
// and outer front wheels so all four wheels share one turning center.
func (a *Ackermann) frontWheelAngles(steer float64) (left, right float64) {
	steer = clampAbs(steer, a.maxSteer)
	if math.Abs(steer) < 1e-9 {
		return 0, 0
	}
	l := a.wheelbase()
	r := l / math.Tan(steer) // signed turning radius
	half := 0.5 * a.track()
	left = math.Atan2(l, r-half)
	right = math.Atan2(l, r+half)
	if steer < 0 {
		left = left - math.Pi
		right = right - math.Pi
	}
	return normAngle(left), normAngle(right)
}

// MotorTorques applies the controller output: steering angles onto the
// front wheels, drive torque onto the rear axle.
func (a *Ackermann) MotorTorques(ctx TickContext) []float64 {
	left, right, steer := a.ctrl.control(ctx, a)
	fl, fr := a.frontWheelAngles(steer)
	a.wheels[2].Yaw = fl
	a.wheels[3].Yaw = fr
	return []float64{left, right, 0, 0}
}

// VelocityLocalOdoEstimate reconstructs the body twist from the rear-axle
// wheel spins only, as rear encoders would report it.
func (a *Ackermann) VelocityLocalOdoEstimate() Twist {
	vL := a.wheels[0].W * a.wheels[0].Radius
	vR := a.wheels[1].W * a.wheels[1].Radius
	return Twist{
		VX:    0.5 * (vL + vR),
		Omega: (vR - vL) / (a.wheels[0].Y - a.wheels[1].Y),
	}
}

func (a *Ackermann) Teleop(in TeleopInput, out *TeleopOutput) {
	a.ctrl.teleop(in, out)
}

func clampAbs(v, bound float64) float64 {
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}

func normAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// ackRawController drives with a fixed rear torque and a fixed steering
// angle.
type ackRawController struct {
	torque float64
	steer  float64
}

func (c *ackRawController) control(TickContext, *Ackermann) (float64, float64, float64) {
	return 0.5 * c.torque, 0.5 * c.torque, c.steer
}

func (c *ackRawController) teleop(in TeleopInput, out *TeleopOutput) {
	switch in.KeyCode {
	case 'w':
		c.torque += 1.0
	case 's':
		c.torque -= 1.0
	case 'a':
		c.steer += deg2rad(2)
	case 'd':
		c.steer -= deg2rad(2)
	case ' ':
		c.torque, c.steer = 0, 0
	}
	out.addf("torque=%.2f Nm steer=%.1f deg", c.torque, c.steer*180/math.Pi)
}

// ackTwistPID holds a (v, ω) twist setpoint; the steering angle follows the
// kinematic bicycle relation and a per-side PID closes the rear wheel
// speed loop.
type ackTwistPID struct {
	pidL, pidR pid
	setV       float64
	setW       float64
}

func (c *ackTwistPID) control(ctx TickContext, veh *Ackermann) (float64, float64, float64) {
	steer := 0.0
	if math.Abs(c.setV) > 1e-3 {
		steer = math.Atan(c.setW * veh.wheelbase() / c.setV)
	}

	rl, rr := &veh.wheels[0], &veh.wheels[1]
	wantL := (c.setV - c.setW*rl.Y) / rl.Radius
	wantR := (c.setV - c.setW*rr.Y) / rr.Radius
	left := c.pidL.compute(wantL-rl.W, ctx.Dt)
	right := c.pidR.compute(wantR-rr.W, ctx.Dt)
	return left, right, steer
}

func (c *ackTwistPID) teleop(in TeleopInput, out *TeleopOutput) {
	switch in.KeyCode {
	case 'w':
		c.setV += 0.1
	case 's':
		c.setV -= 0.1
	case 'a':
		c.setW += deg2rad(2)
	case 'd':
		c.setW -= deg2rad(2)
	case ' ':
		c.setV, c.setW = 0, 0
		c.pidL.reset()
		c.pidR.reset()
	}
	out.addf("twist setpoint: v=%.2f m/s w=%.1f deg/s", c.setV, c.setW*180/math.Pi)
}
