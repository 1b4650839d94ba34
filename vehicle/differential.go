package vehicle

import (
	"math"

	"github.com/treadsim/treads/config"
	"github.com/treadsim/treads/friction"
)

func init() {
	RegisterDynamics("differential", func(cfg config.VehicleConfig) (Vehicle, error) {
		return newDifferential(cfg, false)
	})
	RegisterDynamics("differential_4wd", func(cfg config.VehicleConfig) (Vehicle, error) {
		return newDifferential(cfg, true)
	})
}

// Differential is a skid-steer drive: a torque per side, no steered wheels.
// In the 4WD flavor each side carries a locked front/rear pair sharing the
// side torque equally.
type Differential struct {
	Base
	fourWD bool
	ctrl   diffController
}

// diffController maps commanded input to one torque per side.
type diffController interface {
	sideTorques(ctx TickContext, veh *Differential) (left, right float64)
	teleop(in TeleopInput, out *TeleopOutput)
}

// Wheel order: even indices are the left side, odd the right. The two-wheel
// layout is {left, right}; the 4WD layout {rear-left, rear-right,
// front-left, front-right}.
func diffSlots(fourWD bool) []wheelSlot {
	if fourWD {
		return []wheelSlot{
			{name: "rear_left", x: -0.5, y: 0.5},
			{name: "rear_right", x: -0.5, y: -0.5},
			{name: "front_left", x: 0.5, y: 0.5},
			{name: "front_right", x: 0.5, y: -0.5},
		}
	}
	return []wheelSlot{
		{name: "left", x: 0, y: 0.5},
		{name: "right", x: 0, y: -0.5},
	}
}

func newDifferential(cfg config.VehicleConfig, fourWD bool) (*Differential, error) {
	base, err := newBase(cfg, diffSlots(fourWD))
	if err != nil {
		return nil, err
	}
	d := &Differential{Base: base, fourWD: fourWD}
	d.dyn = d

	switch cfg.Controller.Type {
	case "", "raw":
		p := friction.Params(cfg.Controller.Params)
		d.ctrl = &diffRawController{
			left:  p.Get("torque_left", 0),
			right: p.Get("torque_right", 0),
		}
	case "twist_pid":
		p := friction.Params(cfg.Controller.Params)
		d.ctrl = &diffTwistPID{
			pidL: pid{KP: p.Get("kp", 10), KI: p.Get("ki", 0), KD: p.Get("kd", 0), Max: p.Get("max_torque", 20)},
			pidR: pid{KP: p.Get("kp", 10), KI: p.Get("ki", 0), KD: p.Get("kd", 0), Max: p.Get("max_torque", 20)},
			setV: p.Get("v", 0),
			setW: deg2rad(p.Get("w_deg", 0)),
		}
	default:
		return nil, configErrorf(cfg.Name, "controller.type",
			"unknown controller %q for differential dynamics", cfg.Controller.Type)
	}
	return d, nil
}

// MotorTorques splits the controller's side torques over the wheels of each
// side.
func (d *Differential) MotorTorques(ctx TickContext) []float64 {
	left, right := d.ctrl.sideTorques(ctx, d)
	out := make([]float64, len(d.wheels))
	if d.fourWD {
		out[0], out[2] = 0.5*left, 0.5*left
		out[1], out[3] = 0.5*right, 0.5*right
	} else {
		out[0], out[1] = left, right
	}
	return out
}

// sideSpinRadius averages spin over the wheels of one side and returns it
// with that side's wheel radius and lateral offset.
func (d *Differential) sideSpinRadius(leftSide bool) (spin, radius, y float64) {
	n := 0.0
	for i := range d.wheels {
		if (i%2 == 0) != leftSide {
			continue
		}
		w := &d.wheels[i]
		spin += w.W
		radius = w.Radius
		y = w.Y
		n++
	}
	return spin / n, radius, y
}

// VelocityLocalOdoEstimate reconstructs the body twist purely from wheel
// spin, the way wheel encoders would see it. It never reads the physics
// body, so external disturbance shows up as odometry drift.
func (d *Differential) VelocityLocalOdoEstimate() Twist {
	spinL, radL, yL := d.sideSpinRadius(true)
	spinR, radR, yR := d.sideSpinRadius(false)

	vL := spinL * radL
	vR := spinR * radR
	return Twist{
		VX:    0.5 * (vL + vR),
		Omega: (vR - vL) / (yL - yR),
	}
}

func (d *Differential) Teleop(in TeleopInput, out *TeleopOutput) {
	d.ctrl.teleop(in, out)
}

// diffRawController feeds fixed torques straight through; teleop nudges
// them.
type diffRawController struct {
	left, right float64
}

func (c *diffRawController) sideTorques(TickContext, *Differential) (float64, float64) {
	return c.left, c.right
}

func (c *diffRawController) teleop(in TeleopInput, out *TeleopOutput) {
	const step = 0.5
	switch in.KeyCode {
	case 'w':
		c.left += step
		c.right += step
	case 's':
		c.left -= step
		c.right -= step
	case 'a':
		c.left -= step
		c.right += step
	case 'd':
		c.left += step
		c.right -= step
	case ' ':
		c.left, c.right = 0, 0
	}
	out.addf("torques: left=%.2f Nm right=%.2f Nm", c.left, c.right)
}

// diffTwistPID holds a (v, ω) setpoint and closes a per-side PID loop on
// wheel spin.
type diffTwistPID struct {
	pidL, pidR pid
	setV       float64 // m/s
	setW       float64 // rad/s
}

func (c *diffTwistPID) sideTorques(ctx TickContext, veh *Differential) (float64, float64) {
	spinL, radL, yL := veh.sideSpinRadius(true)
	spinR, radR, yR := veh.sideSpinRadius(false)

	// Desired contact speed per side from the twist setpoint.
	wantL := (c.setV - c.setW*yL) / radL
	wantR := (c.setV - c.setW*yR) / radR

	left := c.pidL.compute(wantL-spinL, ctx.Dt)
	right := c.pidR.compute(wantR-spinR, ctx.Dt)
	return left, right
}

func (c *diffTwistPID) teleop(in TeleopInput, out *TeleopOutput) {
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
