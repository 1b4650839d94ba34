package shape2p5

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func boxModel(half, zBottom, zTop float64) *Model {
	buf := NewVertexBuffer(BufferTriangles,
		mgl64.Vec3{-half, -half, zBottom},
		mgl64.Vec3{half, -half, zBottom},
		mgl64.Vec3{half, half, zBottom},
		mgl64.Vec3{-half, half, zBottom},
		mgl64.Vec3{-half, -half, zTop},
		mgl64.Vec3{half, -half, zTop},
		mgl64.Vec3{half, half, zTop},
		mgl64.Vec3{-half, half, zTop},
	)
	return NewModel(buf)
}

func TestExtractPointsBandFilter(t *testing.T) {
	tests := []struct {
		name       string
		zMin, zMax float64
		expected   int
	}{
		{"full band", -1.0, 2.0, 8},
		{"bottom only", -0.1, 0.1, 4},
		{"top only", 0.9, 1.1, 4},
		{"nothing", 2.0, 3.0, 0},
	}
	m := boxModel(0.5, 0.0, 1.0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts, stats := ExtractPoints(m, tt.zMin, tt.zMax, Identity(), 1.0)
			if len(pts) != tt.expected {
				t.Errorf("got %d points, expected %d", len(pts), tt.expected)
			}
			if stats.Total != 8 {
				t.Errorf("stats.Total = %d, expected 8", stats.Total)
			}
			if stats.Passed != tt.expected {
				t.Errorf("stats.Passed = %d, expected %d", stats.Passed, tt.expected)
			}
		})
	}
}

func TestExtractPointsScaleAndPlacement(t *testing.T) {
	m := boxModel(1.0, 0.0, 0.5)

	// Scale shrinks the footprint and the height; lift the model so the
	// band still matches.
	pose := Placement{
		Position: mgl64.Vec3{10, -4, 0},
		Rotation: mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}),
	}
	pts, _ := ExtractPoints(m, -0.1, 0.5, pose, 0.5)
	if len(pts) != 8 {
		t.Fatalf("got %d points, expected 8", len(pts))
	}
	for _, p := range pts {
		// A half-size footprint rotated about z stays within 0.5 of the
		// translated center.
		if math.Abs(p.X()-10) > 0.5+1e-9 || math.Abs(p.Y()+4) > 0.5+1e-9 {
			t.Errorf("point %v outside the placed footprint", p)
		}
	}
}

func TestExtractPointsNestedChildren(t *testing.T) {
	parent := boxModel(0.5, 0.0, 1.0)
	child := boxModel(2.0, 0.0, 1.0)
	grandchild := NewModel(NewVertexBuffer(BufferPoints, mgl64.Vec3{5, 5, 0.5}))
	child.AddChild(grandchild)
	parent.AddChild(child)

	pts, stats := ExtractPoints(parent, -0.5, 1.5, Identity(), 1.0)
	if stats.Total != 17 {
		t.Errorf("stats.Total = %d, expected 17", stats.Total)
	}
	if len(pts) != 17 {
		t.Errorf("got %d points, expected all 17 to pass", len(pts))
	}
}
