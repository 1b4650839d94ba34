package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
world:
  timestep: 0.005
  recording: true
  logs_path: /tmp/run.db

vehicles:
  - name: rover1
    class: differential
    init_pose: {x: 1.0, y: 2.0, yaw_deg: 90.0}
    chassis:
      mass: 25.0
      zmin: 0.05
      zmax: 0.6
      polygon: [[-0.4, -0.5], [0.6, -0.3], [0.6, 0.3], [-0.4, 0.5]]
    wheels:
      left: {y: 0.6}
      right: {y: -0.6}
    friction:
      type: ward-iagnemma
      params: {mu: 0.9}
    controller:
      type: raw
      params: {torque_left: 1.5, torque_right: 1.5}

blocks:
  - name: crate
    static: true
    pose: {x: 5.0, y: 0.0}
    zmin: 0.0
    zmax: 1.0
    visual: {asset: models/crate.obj, scale: 2.0, zmin: 0.0, zmax: 1.0}
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	require.InDelta(t, 0.005, cfg.World.Timestep, 1e-12)
	require.True(t, cfg.World.Recording)
	// Defaults fill whatever the file omits.
	require.InDelta(t, 9.81, cfg.World.Gravity, 1e-12)
	require.Equal(t, 8, cfg.World.VelocityIterations)

	require.Len(t, cfg.Vehicles, 1)
	veh := cfg.Vehicles[0]
	require.Equal(t, "rover1", veh.Name)
	require.Equal(t, "differential", veh.Class)
	require.InDelta(t, 90.0, veh.InitPose.YawDeg, 1e-12)
	require.Len(t, veh.Chassis.Polygon, 4)
	require.Equal(t, "ward-iagnemma", veh.Friction.Type)
	require.InDelta(t, 0.9, veh.Friction.Params["mu"], 1e-12)
	require.NotNil(t, veh.Wheels["left"].Y)
	require.InDelta(t, 0.6, *veh.Wheels["left"].Y, 1e-12)
	require.Nil(t, veh.Wheels["left"].Radius)

	require.Len(t, cfg.Blocks, 1)
	require.NotNil(t, cfg.Blocks[0].Visual)
	require.Equal(t, "models/crate.obj", cfg.Blocks[0].Visual.Asset)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeConfig(t, "world: [not, a, map]"))
	require.Error(t, err)
}
