package treads

import (
	"math"

	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/treadsim/treads/config"
	"github.com/treadsim/treads/shape2p5"
	"github.com/treadsim/treads/vehicle"
)

// Block is a passive world element: a static obstacle such as a wall, or a
// free-moving body such as a crate that vehicles can push around. Its
// footprint comes from an explicit polygon or from a sliced visual asset.
type Block struct {
	name   string
	static bool
	mass   float64

	poly       []mgl64.Vec2
	zMin, zMax float64
	visual     shape2p5.Visual
	visualCfg  config.VisualConfig

	initPose vehicle.Pose
	pose     vehicle.Pose

	body *box2d.B2Body
	log  zerolog.Logger
}

// NewBlock validates a block description. Free-moving blocks need a
// positive mass; static blocks ignore it.
func NewBlock(cfg config.BlockConfig) (*Block, error) {
	b := &Block{
		name:   cfg.Name,
		static: cfg.Static,
		mass:   cfg.Mass,
		zMin:   cfg.ZMin,
		zMax:   cfg.ZMax,
		log:    zerolog.Nop(),
		initPose: vehicle.Pose{
			X: cfg.Pose.X, Y: cfg.Pose.Y, Yaw: cfg.Pose.YawDeg * deg2radFactor,
		},
	}
	if b.name == "" {
		b.name = "block"
	}
	if !b.static && b.mass <= 0 {
		return nil, &BlockError{Block: b.name, Reason: "free-moving block needs a positive mass"}
	}
	if b.zMax <= b.zMin {
		b.zMin, b.zMax = 0, 1
	}
	for _, p := range cfg.Polygon {
		b.poly = append(b.poly, mgl64.Vec2{p[0], p[1]})
	}
	if cfg.Visual != nil {
		b.visualCfg = *cfg.Visual
	}
	if len(b.poly) == 0 && cfg.Visual == nil {
		// Unit crate footprint.
		b.poly = []mgl64.Vec2{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}}
	}
	if len(b.poly) > 0 && len(b.poly) < 3 {
		return nil, &BlockError{Block: b.name, Reason: "polygon needs at least 3 vertices"}
	}
	b.pose = b.initPose
	return b, nil
}

// SetVisual attaches the asset whose sliced footprint becomes the block's
// collision shape.
func (b *Block) SetVisual(v shape2p5.Visual, cfg config.VisualConfig) {
	b.visual = v
	b.visualCfg = cfg
}

func (b *Block) SetLogger(l zerolog.Logger) { b.log = l }

func (b *Block) Name() string       { return b.name }
func (b *Block) Pose() vehicle.Pose { return b.pose }
func (b *Block) Static() bool       { return b.static }

func (b *Block) assemble(world *box2d.B2World, cache *shape2p5.Cache) error {
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
		b.poly = shape.Contour
		b.zMin, b.zMax = shape.ZMin, shape.ZMax
	}

	bd := box2d.MakeB2BodyDef()
	if b.static {
		bd.Type = box2d.B2BodyType.B2_staticBody
	} else {
		bd.Type = box2d.B2BodyType.B2_dynamicBody
	}
	b.body = world.CreateBody(&bd)

	// Dense hulls from round assets exceed the engine's polygon cap.
	poly := shape2p5.SimplifyContour(b.poly, box2d.B2_maxPolygonVertices)
	shape := box2d.MakeB2PolygonShape()
	verts := make([]box2d.B2Vec2, len(poly))
	for i, p := range poly {
		verts[i] = box2d.MakeB2Vec2(p.X(), p.Y())
	}
	shape.Set(verts, len(verts))

	fd := box2d.MakeB2FixtureDef()
	fd.Shape = &shape
	fd.Friction = 0.5
	fd.Restitution = 0.01
	if !b.static {
		var md box2d.B2MassData
		shape.ComputeMass(&md, 1.0)
		if md.Mass*(b.zMax-b.zMin) < shape2p5.MinVolume {
			return &shape2p5.GeometryError{
				Asset: b.name, ZMin: b.zMin, ZMax: b.zMax,
				Volume: md.Mass * (b.zMax - b.zMin), Points: len(b.poly),
			}
		}
		fd.Density = b.mass / md.Mass
	}
	b.body.CreateFixtureFromDef(&fd)
	b.body.SetTransform(box2d.MakeB2Vec2(b.initPose.X, b.initPose.Y), b.initPose.Yaw)

	// Ground drag keeps pushed crates from coasting forever.
	if !b.static {
		b.body.SetLinearDamping(4.0)
		b.body.SetAngularDamping(4.0)
	}
	return nil
}

// PreStep is part of the per-tick interface; blocks apply no actuation.
func (b *Block) PreStep(vehicle.TickContext) {}

// PostStep reads the body pose back into ground truth.
func (b *Block) PostStep(vehicle.TickContext) {
	if b.body == nil || b.static {
		return
	}
	pos := b.body.GetPosition()
	b.pose.X, b.pose.Y, b.pose.Yaw = pos.X, pos.Y, b.body.GetAngle()
}

// BlockError reports an invalid block description.
type BlockError struct {
	Block  string
	Reason string
}

func (e *BlockError) Error() string {
	return "block " + e.Block + ": " + e.Reason
}

const deg2radFactor = math.Pi / 180.0
