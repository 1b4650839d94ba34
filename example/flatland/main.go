package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/treadsim/treads"
	"github.com/treadsim/treads/config"
	"github.com/treadsim/treads/telemetry"
	"github.com/treadsim/treads/vehicle"
)

// demoConfig builds a small scene in code: a skid-steer rover, a car-like
// vehicle, a pushable crate and a wall.
func demoConfig() config.SimConfig {
	return config.SimConfig{
		World: config.WorldConfig{
			Timestep:           0.01,
			Gravity:            9.81,
			VelocityIterations: 8,
			PositionIterations: 3,
			Workers:            2,
		},
		Vehicles: []config.VehicleConfig{
			{
				Name:    "rover",
				Class:   "differential",
				Chassis: config.ChassisConfig{Mass: 25},
				Controller: config.ControllerConfig{
					Type:   "twist_pid",
					Params: map[string]float64{"kp": 12, "ki": 2, "max_torque": 15, "v": 1.0, "w_deg": 10},
				},
			},
			{
				Name:     "car",
				Class:    "ackermann",
				InitPose: config.PoseConfig{Y: 6},
				Chassis:  config.ChassisConfig{Mass: 120, Polygon: [][2]float64{{-0.6, -0.8}, {1.9, -0.8}, {1.9, 0.8}, {-0.6, 0.8}}},
				Friction: config.FrictionConfig{
					Type:   "ward-iagnemma",
					Params: map[string]float64{"mu": 0.9},
				},
				Controller: config.ControllerConfig{
					Type:   "raw",
					Params: map[string]float64{"torque": 30, "steer_deg": 8},
				},
			},
		},
		Blocks: []config.BlockConfig{
			{Name: "crate", Mass: 8, Pose: config.PoseConfig{X: 4, Y: 0.3}},
			{
				Name: "wall", Static: true, Pose: config.PoseConfig{X: 12},
				Polygon: [][2]float64{{-0.2, -8}, {0.2, -8}, {0.2, 8}, {-0.2, 8}},
			},
		},
	}
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg := demoConfig()
	if len(os.Args) > 1 {
		loaded, err := config.Load(os.Args[1])
		if err != nil {
			log.Fatal().Err(err).Str("path", os.Args[1]).Msg("cannot load scene file")
		}
		cfg = *loaded
	}

	world, err := treads.LoadConfig(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot build world")
	}
	rec := telemetry.NewMemoryRecorder()
	if !cfg.World.Recording {
		world.SetRecorder(rec)
	}
	defer world.Close()

	const seconds = 20
	stepsPerSecond := int(1.0/world.Timestep + 0.5)

	for s := 0; s < seconds; s++ {
		world.Run(stepsPerSecond)
		fmt.Printf("--- t = %4.1f s ---\n", world.SimTime())
		for _, v := range world.Vehicles {
			p := v.Pose()
			odo := v.VelocityLocalOdoEstimate()
			fmt.Printf("  %-6s pose=(%6.2f, %6.2f, %5.1f°)  odo v=%5.2f m/s w=%5.2f rad/s\n",
				v.Name(), p.X, p.Y, p.Yaw*180/3.14159265, odo.VX, odo.Omega)
		}
		for _, b := range world.Blocks {
			if b.Static() {
				continue
			}
			p := b.Pose()
			fmt.Printf("  %-6s pose=(%6.2f, %6.2f, %5.1f°)\n", b.Name(), p.X, p.Y, p.Yaw*180/3.14159265)
		}
	}

	// A keystroke burst, as an interactive frontend would send it.
	var out vehicle.TeleopOutput
	world.Vehicles[0].Teleop(vehicle.TeleopInput{KeyCode: ' '}, &out)
	for _, line := range out.Feedback {
		fmt.Println("teleop:", line)
	}

	fmt.Printf("recorded %d pose rows, %d wheel rows\n", len(rec.Poses()), len(rec.Wheels()))
}
