// Package treads is a lightweight 2.5D multi-vehicle ground simulator:
// vehicles with pluggable wheel dynamics and tire friction drive over a
// planar world, colliding with each other and with static or free-moving
// blocks. The rigid-body substrate is a 2D physics engine; the half-height
// dimension enters through the sliced collision footprints of 3D visual
// assets.
package treads

import (
	"fmt"

	"github.com/ByteArena/box2d"
	"github.com/rs/zerolog"

	"github.com/treadsim/treads/config"
	"github.com/treadsim/treads/shape2p5"
	"github.com/treadsim/treads/telemetry"
	"github.com/treadsim/treads/vehicle"
)

const DEFAULT_WORKERS = 1

// Simulable is anything the world drives around one fixed timestep: a hook
// before the physics integration and one after it.
type Simulable interface {
	Name() string
	PreStep(ctx vehicle.TickContext)
	PostStep(ctx vehicle.TickContext)
}

// World owns the physics engine instance and every simulated element. It
// is not safe for concurrent use; one goroutine drives RunOneStep.
type World struct {
	// Simulation elements in deterministic creation order.
	Vehicles []vehicle.Vehicle
	Blocks   []*Block

	Gravity  float64 // positive, m/s²
	Timestep float64
	Workers  int

	VelocityIterations int
	PositionIterations int

	Events Events

	simTime   float64
	b2        *box2d.B2World
	cache     *shape2p5.Cache
	bodyNames map[*box2d.B2Body]string
	rec       telemetry.Recorder
	log       zerolog.Logger
}

// NewWorld creates an empty world with the given fixed timestep.
func NewWorld(timestep, gravity float64) *World {
	b2 := box2d.MakeB2World(box2d.MakeB2Vec2(0, 0)) // no in-plane gravity
	return &World{
		Gravity:            gravity,
		Timestep:           timestep,
		Workers:            DEFAULT_WORKERS,
		VelocityIterations: 8,
		PositionIterations: 3,
		Events:             NewEvents(),
		b2:                 &b2,
		cache:              shape2p5.NewCache(),
		bodyNames:          make(map[*box2d.B2Body]string),
		rec:                telemetry.Nop{},
		log:                zerolog.Nop(),
	}
}

func (w *World) SetLogger(l zerolog.Logger) { w.log = l }

// SetRecorder swaps the telemetry sink for the world and every vehicle
// already in it.
func (w *World) SetRecorder(r telemetry.Recorder) {
	w.rec = r
	for _, v := range w.Vehicles {
		v.SetRecorder(r)
	}
}

func (w *World) ShapeCache() *shape2p5.Cache { return w.cache }
func (w *World) SimTime() float64            { return w.simTime }

// AddVehicle assembles the vehicle's multibody and registers it. The
// vehicle index reflects creation order.
func (w *World) AddVehicle(v vehicle.Vehicle) error {
	for _, other := range w.Vehicles {
		if other.Name() == v.Name() {
			return fmt.Errorf("world: duplicate vehicle name %q", v.Name())
		}
	}
	v.SetIndex(len(w.Vehicles))
	v.SetRecorder(w.rec)
	v.SetLogger(w.log)
	if err := v.AssembleMultibody(w.b2, w.cache); err != nil {
		return fmt.Errorf("world: assembling vehicle %q: %w", v.Name(), err)
	}
	w.Vehicles = append(w.Vehicles, v)
	w.bodyNames[v.Body()] = v.Name()
	w.log.Info().Str("vehicle", v.Name()).Int("index", v.Index()).Msg("vehicle added")
	return nil
}

// RemoveVehicle destroys the vehicle's multibody and unregisters it.
// Remaining vehicles keep their indices.
func (w *World) RemoveVehicle(v vehicle.Vehicle) {
	k := -1
	for i, other := range w.Vehicles {
		if other == v {
			k = i
			break
		}
	}
	if k == -1 {
		return
	}
	delete(w.bodyNames, v.Body())
	v.Destroy(w.b2)
	w.Vehicles = append(w.Vehicles[:k], w.Vehicles[k+1:]...)
	w.Events.forget(v.Name())
	w.log.Info().Str("vehicle", v.Name()).Msg("vehicle removed")
}

// AddBlock assembles the block's body and registers it.
func (w *World) AddBlock(b *Block) error {
	if err := b.assemble(w.b2, w.cache); err != nil {
		return fmt.Errorf("world: assembling block %q: %w", b.Name(), err)
	}
	w.Blocks = append(w.Blocks, b)
	w.bodyNames[b.body] = b.Name()
	return nil
}

// RunOneStep advances the simulation by exactly one fixed timestep: every
// element's PreStep in creation order, one physics integration, every
// element's PostStep in creation order.
func (w *World) RunOneStep() {
	w.Workers = max(DEFAULT_WORKERS, w.Workers)
	ctx := vehicle.TickContext{
		SimTime: w.simTime,
		Dt:      w.Timestep,
		Gravity: w.Gravity,
	}

	for _, v := range w.Vehicles {
		v.PreStep(ctx)
	}
	for _, b := range w.Blocks {
		b.PreStep(ctx)
	}

	w.b2.Step(w.Timestep, w.VelocityIterations, w.PositionIterations)

	w.Events.recordContacts(w.b2, w.bodyNames)

	for _, v := range w.Vehicles {
		v.PostStep(ctx)
	}
	for _, b := range w.Blocks {
		b.PostStep(ctx)
	}

	w.Events.flush()

	w.simTime += w.Timestep
}

// Run advances the simulation by n fixed timesteps.
func (w *World) Run(n int) {
	for i := 0; i < n; i++ {
		w.RunOneStep()
	}
}

// Close flushes and closes the telemetry sink.
func (w *World) Close() error {
	return w.rec.Close()
}

// LoadConfig builds a world and its contents from a parsed description.
func LoadConfig(cfg config.SimConfig, log zerolog.Logger) (*World, error) {
	w := NewWorld(cfg.World.Timestep, cfg.World.Gravity)
	w.Workers = cfg.World.Workers
	w.VelocityIterations = cfg.World.VelocityIterations
	w.PositionIterations = cfg.World.PositionIterations
	w.SetLogger(log)

	if cfg.World.Recording && cfg.World.LogsPath != "" {
		rec, err := telemetry.OpenSQLite(cfg.World.LogsPath)
		if err != nil {
			return nil, fmt.Errorf("world: opening telemetry sink: %w", err)
		}
		w.SetRecorder(rec)
	}

	for _, vc := range cfg.Vehicles {
		veh, err := vehicle.New(vc)
		if err != nil {
			return nil, err
		}
		if base, ok := veh.(interface{ SetWorkers(int) }); ok {
			base.SetWorkers(w.Workers)
		}
		if err := w.AddVehicle(veh); err != nil {
			return nil, err
		}
	}
	for _, bc := range cfg.Blocks {
		b, err := NewBlock(bc)
		if err != nil {
			return nil, err
		}
		b.SetLogger(log)
		if err := w.AddBlock(b); err != nil {
			return nil, err
		}
	}
	return w, nil
}
