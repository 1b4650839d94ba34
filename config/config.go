// Package config loads the simulation description: world settings plus the
// vehicle and obstacle declarations consumed by the factories. Files are
// YAML; semantic validation (wheel counts, masses, geometry) belongs to the
// factories, not the loader.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// SimConfig is the root of a simulation description file.
type SimConfig struct {
	World    WorldConfig     `mapstructure:"world"`
	Vehicles []VehicleConfig `mapstructure:"vehicles"`
	Blocks   []BlockConfig   `mapstructure:"blocks"`
}

// WorldConfig holds the fixed-step integrator and logging settings.
type WorldConfig struct {
	Timestep           float64 `mapstructure:"timestep"`
	Gravity            float64 `mapstructure:"gravity"`
	VelocityIterations int     `mapstructure:"velocity_iterations"`
	PositionIterations int     `mapstructure:"position_iterations"`
	Workers            int     `mapstructure:"workers"`
	LogsPath           string  `mapstructure:"logs_path"`
	Recording          bool    `mapstructure:"recording"`
}

// PoseConfig is a planar pose; yaw is given in degrees in the file.
type PoseConfig struct {
	X      float64 `mapstructure:"x"`
	Y      float64 `mapstructure:"y"`
	YawDeg float64 `mapstructure:"yaw_deg"`
}

// TwistConfig is a planar velocity; omega is given in degrees/s in the file.
type TwistConfig struct {
	VX       float64 `mapstructure:"vx"`
	VY       float64 `mapstructure:"vy"`
	OmegaDeg float64 `mapstructure:"omega_deg"`
}

// VisualConfig references a 3D visual asset whose collision footprint is
// derived by slicing it over [zmin, zmax].
type VisualConfig struct {
	Asset string  `mapstructure:"asset"`
	Scale float64 `mapstructure:"scale"`
	ZMin  float64 `mapstructure:"zmin"`
	ZMax  float64 `mapstructure:"zmax"`
}

// ChassisConfig describes the vehicle body. Either an explicit polygon or a
// visual asset reference supplies the collision footprint.
type ChassisConfig struct {
	Polygon [][2]float64  `mapstructure:"polygon"`
	Mass    float64       `mapstructure:"mass"`
	ZMin    float64       `mapstructure:"zmin"`
	ZMax    float64       `mapstructure:"zmax"`
	Visual  *VisualConfig `mapstructure:"visual"`
}

// WheelConfig overrides one wheel slot of a dynamics variant. Slot names
// ("left", "rear_right", ...) are variant-defined.
type WheelConfig struct {
	X      *float64 `mapstructure:"x"`
	Y      *float64 `mapstructure:"y"`
	Radius *float64 `mapstructure:"radius"`
	Width  *float64 `mapstructure:"width"`
	Mass   *float64 `mapstructure:"mass"`
}

// FrictionConfig selects a wheel-ground friction model by type name.
type FrictionConfig struct {
	Type   string             `mapstructure:"type"`
	Params map[string]float64 `mapstructure:"params"`
}

// ControllerConfig selects a motor controller by type name.
type ControllerConfig struct {
	Type   string             `mapstructure:"type"`
	Params map[string]float64 `mapstructure:"params"`
}

// VehicleConfig is one vehicle declaration.
type VehicleConfig struct {
	Name       string                 `mapstructure:"name"`
	Class      string                 `mapstructure:"class"`
	InitPose   PoseConfig             `mapstructure:"init_pose"`
	InitVel    TwistConfig            `mapstructure:"init_vel"`
	Chassis    ChassisConfig          `mapstructure:"chassis"`
	Wheels     map[string]WheelConfig `mapstructure:"wheels"`
	Friction   FrictionConfig         `mapstructure:"friction"`
	Controller ControllerConfig       `mapstructure:"controller"`
}

// BlockConfig is one static or dynamic obstacle declaration.
type BlockConfig struct {
	Name    string        `mapstructure:"name"`
	Static  bool          `mapstructure:"static"`
	Mass    float64       `mapstructure:"mass"`
	Pose    PoseConfig    `mapstructure:"pose"`
	Polygon [][2]float64  `mapstructure:"polygon"`
	ZMin    float64       `mapstructure:"zmin"`
	ZMax    float64       `mapstructure:"zmax"`
	Visual  *VisualConfig `mapstructure:"visual"`
}

// Load reads a simulation description file.
func Load(path string) (*SimConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg SimConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("world.timestep", 0.01)
	v.SetDefault("world.gravity", 9.81)
	v.SetDefault("world.velocity_iterations", 8)
	v.SetDefault("world.position_iterations", 3)
	v.SetDefault("world.workers", 1)
	v.SetDefault("world.logs_path", "")
	v.SetDefault("world.recording", false)
}
