// Package vehicle turns a vehicle's geometric and mechanical description
// into a physics multibody and drives its per-tick actuation and read-back.
// Concrete dynamics variants (differential drive, Ackermann steering) share
// the lifecycle and bookkeeping of Base and differ in wheel layout and in
// how commanded inputs map to wheel torques and steering angles.
package vehicle

import (
	"math"

	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/treadsim/treads/config"
	"github.com/treadsim/treads/friction"
	"github.com/treadsim/treads/shape2p5"
	"github.com/treadsim/treads/telemetry"
)

// TickContext is handed to every pre/post-step hook of one fixed tick.
type TickContext struct {
	SimTime float64
	Dt      float64
	Gravity float64 // positive, m/s²
}

// Pose is the planar ground-truth pose. Z, pitch and roll stay zero unless
// some world element lifts the vehicle off the reference plane.
type Pose struct {
	X, Y, Z          float64
	Yaw, Pitch, Roll float64
}

// Twist is a planar velocity (vx, vy, ω).
type Twist struct {
	VX, VY, Omega float64
}

// Sensor observes the vehicle after each integration step. Sensor internals
// live outside this package.
type Sensor interface {
	Observe(ctx TickContext, pose Pose, twist Twist)
}

// Dynamics is the variant-specific part of a vehicle: the mapping from
// commanded inputs to per-wheel torques (and steering), invoked once per
// tick from PreStep.
type Dynamics interface {
	// MotorTorques returns one torque per wheel, in wheel order.
	MotorTorques(ctx TickContext) []float64
}

// Vehicle is what the world tick driver and the loader see of any dynamics
// variant.
type Vehicle interface {
	Name() string
	Index() int
	SetIndex(int)

	Pose() Pose
	Twist() Twist
	VelocityLocal() Twist
	VelocityLocalOdoEstimate() Twist

	NumWheels() int
	WheelInfo(i int) Wheel
	ChassisMass() float64
	MaxRadius() float64

	SetRecorder(telemetry.Recorder)
	SetLogger(zerolog.Logger)
	SetVisual(v shape2p5.Visual, cfg config.VisualConfig)
	AddSensor(Sensor)

	Body() *box2d.B2Body
	AssembleMultibody(world *box2d.B2World, cache *shape2p5.Cache) error
	PreStep(ctx TickContext)
	PostStep(ctx TickContext)
	Teleop(in TeleopInput, out *TeleopOutput)
	Destroy(world *box2d.B2World)
}

// Base carries everything the dynamics variants share. Variants embed it
// and install themselves as its Dynamics.
type Base struct {
	name  string
	index int

	chassisPoly []mgl64.Vec2
	chassisMass float64
	chassisZMin float64
	chassisZMax float64
	chassisCOM  mgl64.Vec2
	maxRadius   float64

	visual    shape2p5.Visual
	visualCfg config.VisualConfig

	wheels        []Wheel
	frictionModel friction.Model

	initPose Pose
	initVel  Twist
	pose     Pose
	twist    Twist

	body           *box2d.B2Body
	fixtureChassis *box2d.B2Fixture

	dyn      Dynamics
	sensors  []Sensor
	recorder telemetry.Recorder
	log      zerolog.Logger
	workers  int

	// Wheel rows staged in PreStep, stamped and flushed in PostStep.
	pendingWheelRows []telemetry.WheelRow
}

// defaultChassisPoly is the footprint used when a description supplies
// neither a polygon nor a visual asset.
func defaultChassisPoly() []mgl64.Vec2 {
	return []mgl64.Vec2{
		{-0.4, -0.5}, {0.4, -0.5}, {0.6, -0.3},
		{0.6, 0.3}, {0.4, 0.5}, {-0.4, 0.5},
	}
}

// newBase validates the shared chassis description and prepares the wheel
// slots. Wheel order is fixed by the variant's slot list.
func newBase(cfg config.VehicleConfig, slots []wheelSlot) (Base, error) {
	b := Base{
		name:        cfg.Name,
		chassisMass: cfg.Chassis.Mass,
		chassisZMin: cfg.Chassis.ZMin,
		chassisZMax: cfg.Chassis.ZMax,
		recorder:    telemetry.Nop{},
		log:         zerolog.Nop(),
		workers:     1,
	}
	if b.name == "" {
		return Base{}, configErrorf("", "name", "vehicle name is required")
	}
	if b.chassisMass <= 0 {
		return Base{}, configErrorf(b.name, "chassis.mass", "must be positive, got %g", b.chassisMass)
	}
	if b.chassisZMax <= b.chassisZMin {
		b.chassisZMin, b.chassisZMax = 0.05, 0.6
	}

	if len(cfg.Chassis.Polygon) > 0 {
		if len(cfg.Chassis.Polygon) < 3 {
			return Base{}, configErrorf(b.name, "chassis.polygon", "needs at least 3 vertices, got %d", len(cfg.Chassis.Polygon))
		}
		for _, p := range cfg.Chassis.Polygon {
			b.chassisPoly = append(b.chassisPoly, mgl64.Vec2{p[0], p[1]})
		}
	} else {
		b.chassisPoly = defaultChassisPoly()
	}
	b.updateMaxRadiusFromPoly()
	if b.maxRadius <= 0 {
		return Base{}, configErrorf(b.name, "chassis.polygon", "degenerate footprint, max radius is zero")
	}

	// Wheel slots in variant order, with per-slot overrides.
	seen := make(map[string]bool, len(slots))
	for _, slot := range slots {
		w := newWheel(slot.x, slot.y, slot.steerable)
		if over, ok := cfg.Wheels[slot.name]; ok {
			w.applyOverrides(over)
		}
		if err := w.validate(b.name, slot.name); err != nil {
			return Base{}, err
		}
		b.wheels = append(b.wheels, w)
		seen[slot.name] = true
	}
	for name := range cfg.Wheels {
		if !seen[name] {
			return Base{}, configErrorf(b.name, "wheels",
				"slot %q does not exist in dynamics class %q", name, cfg.Class)
		}
	}
	b.pendingWheelRows = make([]telemetry.WheelRow, len(b.wheels))

	fcfg := cfg.Friction
	if fcfg.Type == "" {
		fcfg.Type = "default"
	}
	model, err := friction.New(fcfg.Type, fcfg.Params)
	if err != nil {
		return Base{}, configErrorf(b.name, "friction.type", "%v", err)
	}
	b.frictionModel = model

	b.initPose = Pose{X: cfg.InitPose.X, Y: cfg.InitPose.Y, Yaw: deg2rad(cfg.InitPose.YawDeg)}
	b.initVel = Twist{VX: cfg.InitVel.VX, VY: cfg.InitVel.VY, Omega: deg2rad(cfg.InitVel.OmegaDeg)}
	b.pose = b.initPose
	b.twist = rotateTwist(b.initVel, b.initPose.Yaw) // description gives local vel
	return b, nil
}

// wheelSlot is one named wheel position a variant defines.
type wheelSlot struct {
	name      string
	x, y      float64
	steerable bool
}

func (b *Base) Name() string   { return b.name }
func (b *Base) Index() int     { return b.index }
func (b *Base) SetIndex(i int) { b.index = i }

func (b *Base) Pose() Pose   { return b.pose }
func (b *Base) Twist() Twist { return b.twist }

func (b *Base) NumWheels() int        { return len(b.wheels) }
func (b *Base) WheelInfo(i int) Wheel { return b.wheels[i] }
func (b *Base) ChassisMass() float64  { return b.chassisMass }
func (b *Base) MaxRadius() float64    { return b.maxRadius }

// Body is the chassis rigid body; nil until AssembleMultibody.
func (b *Base) Body() *box2d.B2Body { return b.body }

// ChassisCenterOfMass is in local coordinates and excludes the wheels.
func (b *Base) ChassisCenterOfMass() mgl64.Vec2 { return b.chassisCOM }

func (b *Base) SetRecorder(r telemetry.Recorder) { b.recorder = r }
func (b *Base) SetLogger(l zerolog.Logger)       { b.log = l }
func (b *Base) SetWorkers(n int) {
	if n > 0 {
		b.workers = n
	}
}

// SetVisual attaches the 3D visual asset whose sliced footprint becomes the
// chassis collision shape at assembly time.
func (b *Base) SetVisual(v shape2p5.Visual, cfg config.VisualConfig) {
	b.visual = v
	b.visualCfg = cfg
}

func (b *Base) AddSensor(s Sensor) { b.sensors = append(b.sensors, s) }

func (b *Base) updateMaxRadiusFromPoly() {
	b.maxRadius = 0.001
	for _, p := range b.chassisPoly {
		if n := p.Len(); n > b.maxRadius {
			b.maxRadius = n
		}
	}
}

// AssembleMultibody creates the chassis rigid body and one fixture per
// wheel in the physics engine. A degenerate chassis or wheel shape aborts
// assembly with a *shape2p5.GeometryError; there is no retry.
func (b *Base) AssembleMultibody(world *box2d.B2World, cache *shape2p5.Cache) error {
	if b.visual != nil {
		scale := b.visualCfg.Scale
		if scale == 0 {
			scale = 1.0
		}
		shape, err := cache.Get(b.visual, b.visualCfg.ZMin, b.visualCfg.ZMax,
			shape2p5.Identity(), scale, b.visualCfg.Asset)
		if err != nil {
			return err
		}
		b.chassisPoly = shape.Contour
		b.chassisZMin, b.chassisZMax = shape.ZMin, shape.ZMax
		b.updateMaxRadiusFromPoly()
		b.log.Debug().
			Str("vehicle", b.name).
			Str("asset", b.visualCfg.Asset).
			Float64("volume", shape.Volume()).
			Int("vertices", len(shape.Contour)).
			Msg("chassis collision shape from visual asset")
	}

	bd := box2d.MakeB2BodyDef()
	bd.Type = box2d.B2BodyType.B2_dynamicBody
	b.body = world.CreateBody(&bd)

	// Chassis fixture. Density is derived so the polygon carries exactly
	// the configured chassis mass. The engine caps polygons at
	// B2_maxPolygonVertices, so dense hulls are decimated first.
	poly := shape2p5.SimplifyContour(b.chassisPoly, box2d.B2_maxPolygonVertices)
	if len(poly) < len(b.chassisPoly) {
		b.log.Debug().
			Str("vehicle", b.name).
			Int("from", len(b.chassisPoly)).
			Int("to", len(poly)).
			Msg("chassis contour decimated for the physics engine")
	}
	chassisShape := box2d.MakeB2PolygonShape()
	verts := make([]box2d.B2Vec2, len(poly))
	for i, p := range poly {
		verts[i] = box2d.MakeB2Vec2(p.X(), p.Y())
	}
	chassisShape.Set(verts, len(verts))

	var md box2d.B2MassData
	chassisShape.ComputeMass(&md, 1.0) // density 1 => mass equals area
	if md.Mass*(b.chassisZMax-b.chassisZMin) < shape2p5.MinVolume {
		return &shape2p5.GeometryError{
			Asset: b.name + "/chassis", ZMin: b.chassisZMin, ZMax: b.chassisZMax,
			Volume: md.Mass * (b.chassisZMax - b.chassisZMin), Points: len(b.chassisPoly),
		}
	}

	fd := box2d.MakeB2FixtureDef()
	fd.Shape = &chassisShape
	fd.Density = b.chassisMass / md.Mass
	fd.Friction = 0.3
	fd.Restitution = 0.01
	b.fixtureChassis = b.body.CreateFixtureFromDef(&fd)

	com := b.body.GetLocalCenter()
	b.chassisCOM = mgl64.Vec2{com.X, com.Y}

	// One box fixture per wheel.
	for i := range b.wheels {
		w := &b.wheels[i]
		area := 2.0 * w.Radius * w.Width
		if area*(2.0*w.Radius) < shape2p5.MinVolume {
			return &shape2p5.GeometryError{
				Asset: b.name + "/wheel", ZMin: -w.Radius, ZMax: w.Radius,
				Volume: area * 2.0 * w.Radius,
			}
		}
		wheelShape := box2d.MakeB2PolygonShape()
		wheelShape.SetAsBoxFromCenterAndAngle(
			w.Radius, 0.5*w.Width, box2d.MakeB2Vec2(w.X, w.Y), w.Yaw)

		wfd := box2d.MakeB2FixtureDef()
		wfd.Shape = &wheelShape
		wfd.Density = w.Mass / area
		wfd.Friction = 0.5
		wfd.Restitution = 0.05
		w.fixture = b.body.CreateFixtureFromDef(&wfd)
	}

	b.body.SetTransform(box2d.MakeB2Vec2(b.initPose.X, b.initPose.Y), b.initPose.Yaw)
	b.body.SetLinearVelocity(box2d.MakeB2Vec2(b.twist.VX, b.twist.VY))
	b.body.SetAngularVelocity(b.twist.Omega)

	b.log.Info().
		Str("vehicle", b.name).
		Int("wheels", len(b.wheels)).
		Float64("mass", b.chassisMass).
		Float64("max_radius", b.maxRadius).
		Msg("multibody assembled")
	return nil
}

// PreStep runs once per tick before the physics engine integrates: it
// refreshes steered wheel fixtures, obtains per-wheel torques from the
// motor controller, evaluates the friction model per wheel and applies the
// resulting contact forces to the chassis body.
func (b *Base) PreStep(ctx TickContext) {
	// Steered wheels drag their collision boxes along.
	for i := range b.wheels {
		w := &b.wheels[i]
		if !w.Steerable || w.fixture == nil {
			continue
		}
		if poly, ok := w.fixture.GetShape().(*box2d.B2PolygonShape); ok {
			poly.SetAsBoxFromCenterAndAngle(
				w.Radius, 0.5*w.Width, box2d.MakeB2Vec2(w.X, w.Y), w.Yaw)
		}
	}

	torques := b.dyn.MotorTorques(ctx)

	weightPerWheel := b.chassisMass * ctx.Gravity / float64(len(b.wheels))
	local := b.VelocityLocal()
	wheelVels := b.WheelsVelocityLocal(local)

	// Friction is pure per wheel, so the evaluations can run side by side;
	// forces are applied afterwards in wheel order.
	outs := make([]friction.Output, len(b.wheels))
	idx := make([]int, len(b.wheels))
	for i := range idx {
		idx[i] = i
	}
	task(b.workers, idx, func(i int) {
		w := &b.wheels[i]
		// Contact-point velocity in the wheel frame.
		speed := rotateVec2(wheelVels[i], -w.Yaw)
		outs[i] = b.frictionModel.Evaluate(friction.Input{
			Dt:             ctx.Dt,
			Gravity:        ctx.Gravity,
			Weight:         weightPerWheel,
			MotorTorque:    torques[i],
			WheelRadius:    w.Radius,
			WheelMass:      w.Mass,
			WheelIyy:       w.Iyy,
			WheelSpin:      w.W,
			SpeedAtContact: speed,
		})
	})

	for i := range b.wheels {
		w := &b.wheels[i]
		w.Torque = torques[i]
		w.W = outs[i].Spin

		force := rotateVec2(outs[i].Force, w.Yaw) // back to the chassis frame
		wForce := b.body.GetWorldVector(box2d.MakeB2Vec2(force.X(), force.Y()))
		wPoint := b.body.GetWorldPoint(box2d.MakeB2Vec2(w.X, w.Y))
		b.body.ApplyForce(wForce, wPoint, true)

		b.pendingWheelRows[i] = telemetry.WheelRow{
			Vehicle:   b.name,
			Wheel:     i,
			Torque:    torques[i],
			Weight:    weightPerWheel,
			VelX:      wheelVels[i].X(),
			VelY:      wheelVels[i].Y(),
			FrictionX: force.X(),
			FrictionY: force.Y(),
		}
	}
}

// PostStep runs once per tick after integration: it reads the body pose and
// velocity back into ground truth, integrates wheel spin angles, feeds the
// sensors and appends a row to each log channel.
func (b *Base) PostStep(ctx TickContext) {
	pos := b.body.GetPosition()
	b.pose.X, b.pose.Y, b.pose.Yaw = pos.X, pos.Y, b.body.GetAngle()

	vel := b.body.GetLinearVelocity()
	b.twist = Twist{VX: vel.X, VY: vel.Y, Omega: b.body.GetAngularVelocity()}

	for i := range b.wheels {
		w := &b.wheels[i]
		w.Phi += w.W * ctx.Dt
		// Keep the unbounded spin angle within double precision.
		if abs := math.Abs(w.Phi); abs > 1e4 {
			w.Phi = math.Mod(abs, 2*math.Pi) * sign(w.Phi)
		}
	}

	for _, s := range b.sensors {
		s.Observe(ctx, b.pose, b.twist)
	}

	b.recorder.Pose(telemetry.PoseRow{
		Vehicle:   b.name,
		Timestamp: ctx.SimTime,
		X:         b.pose.X, Y: b.pose.Y, Z: b.pose.Z,
		Yaw: b.pose.Yaw, Pitch: b.pose.Pitch, Roll: b.pose.Roll,
		DX: b.twist.VX, DY: b.twist.VY, DYaw: b.twist.Omega,
	})
	for i := range b.pendingWheelRows {
		row := b.pendingWheelRows[i]
		row.Timestamp = ctx.SimTime
		b.recorder.Wheel(row)
	}
}

// VelocityLocal is the ground-truth chassis twist in the body frame.
func (b *Base) VelocityLocal() Twist {
	return rotateTwist(b.twist, -b.pose.Yaw)
}

// WheelsVelocityLocal gives each wheel center's velocity in the body frame
// for the given local chassis twist: v_w = v + ω × r.
func (b *Base) WheelsVelocityLocal(local Twist) []mgl64.Vec2 {
	vels := make([]mgl64.Vec2, len(b.wheels))
	for i := range b.wheels {
		w := &b.wheels[i]
		vels[i] = mgl64.Vec2{
			local.VX - local.Omega*w.Y,
			local.VY + local.Omega*w.X,
		}
	}
	return vels
}

// Destroy removes the multibody from the physics engine.
func (b *Base) Destroy(world *box2d.B2World) {
	if b.body != nil {
		world.DestroyBody(b.body)
		b.body = nil
		b.fixtureChassis = nil
		for i := range b.wheels {
			b.wheels[i].fixture = nil
		}
	}
}

func deg2rad(d float64) float64 { return d * math.Pi / 180.0 }

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func rotateVec2(v mgl64.Vec2, angle float64) mgl64.Vec2 {
	c, s := math.Cos(angle), math.Sin(angle)
	return mgl64.Vec2{c*v.X() - s*v.Y(), s*v.X() + c*v.Y()}
}

func rotateTwist(t Twist, angle float64) Twist {
	c, s := math.Cos(angle), math.Sin(angle)
	return Twist{
		VX:    c*t.VX - s*t.VY,
		VY:    s*t.VX + c*t.VY,
		Omega: t.Omega,
	}
}
