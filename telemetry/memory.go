package telemetry

import "sync"

// MemoryRecorder keeps rows in memory, for tests and headless runs.
type MemoryRecorder struct {
	mu        sync.Mutex
	recording bool
	poses     []PoseRow
	wheels    []WheelRow
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{recording: true}
}

func (r *MemoryRecorder) Pose(row PoseRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		r.poses = append(r.poses, row)
	}
}

func (r *MemoryRecorder) Wheel(row WheelRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		r.wheels = append(r.wheels, row)
	}
}

func (r *MemoryRecorder) SetRecording(on bool) {
	r.mu.Lock()
	r.recording = on
	r.mu.Unlock()
}

func (r *MemoryRecorder) Flush() error { return nil }
func (r *MemoryRecorder) Close() error { return nil }

// Poses returns a copy of the recorded pose rows.
func (r *MemoryRecorder) Poses() []PoseRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PoseRow, len(r.poses))
	copy(out, r.poses)
	return out
}

// Wheels returns a copy of the recorded wheel rows.
func (r *MemoryRecorder) Wheels() []WheelRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]WheelRow, len(r.wheels))
	copy(out, r.wheels)
	return out
}
