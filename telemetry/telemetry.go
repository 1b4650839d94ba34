// Package telemetry persists the fixed-schema simulation log channels:
// one pose row per vehicle per tick and one row per wheel per tick.
package telemetry

// PoseRow is one sample of a vehicle's ground-truth pose and its
// derivatives.
type PoseRow struct {
	ID        uint   `gorm:"primarykey"`
	Session   string `gorm:"index"`
	Vehicle   string `gorm:"index"`
	Timestamp float64

	X, Y, Z          float64
	Yaw, Pitch, Roll float64
	DX, DY, DYaw     float64
}

// WheelRow is one sample of a single wheel's actuation and contact state.
type WheelRow struct {
	ID        uint   `gorm:"primarykey"`
	Session   string `gorm:"index"`
	Vehicle   string `gorm:"index"`
	Wheel     int
	Timestamp float64

	Torque               float64
	Weight               float64
	VelX, VelY           float64
	FrictionX, FrictionY float64
}

// Recorder receives log rows. Implementations must tolerate being called
// every tick; SetRecording(false) turns appends into no-ops.
type Recorder interface {
	Pose(PoseRow)
	Wheel(WheelRow)
	SetRecording(bool)
	Flush() error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Pose(PoseRow)      {}
func (Nop) Wheel(WheelRow)    {}
func (Nop) SetRecording(bool) {}
func (Nop) Flush() error      { return nil }
func (Nop) Close() error      { return nil }
