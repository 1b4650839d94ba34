package shape2p5

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// Helper functions
func floatEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func square(half float64) []mgl64.Vec2 {
	return []mgl64.Vec2{
		{-half, -half},
		{half, -half},
		{half, half},
		{-half, half},
	}
}

func TestFromPoints(t *testing.T) {
	tests := []struct {
		name         string
		pts          []mgl64.Vec2
		zMin, zMax   float64
		expectedArea float64
		wantErr      bool
	}{
		{
			name:         "unit square",
			pts:          square(0.5),
			zMin:         0.0,
			zMax:         1.0,
			expectedArea: 1.0,
		},
		{
			name:         "square with interior points",
			pts:          append(square(1.0), mgl64.Vec2{0, 0}, mgl64.Vec2{0.3, -0.2}),
			zMin:         0.0,
			zMax:         0.5,
			expectedArea: 4.0,
		},
		{
			name:         "triangle",
			pts:          []mgl64.Vec2{{0, 0}, {2, 0}, {0, 2}},
			zMin:         0.0,
			zMax:         1.0,
			expectedArea: 2.0,
		},
		{
			name:    "no points",
			pts:     nil,
			zMin:    0.0,
			zMax:    1.0,
			wantErr: true,
		},
		{
			name:    "two points",
			pts:     []mgl64.Vec2{{0, 0}, {1, 1}},
			zMin:    0.0,
			zMax:    1.0,
			wantErr: true,
		},
		{
			name:    "collinear points",
			pts:     []mgl64.Vec2{{0, 0}, {1, 0}, {2, 0}, {3, 0}},
			zMin:    0.0,
			zMax:    1.0,
			wantErr: true,
		},
		{
			name:    "flat band yields null volume",
			pts:     square(0.5),
			zMin:    0.2,
			zMax:    0.2,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := FromPoints(tt.pts, tt.zMin, tt.zMax, "asset.dae")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected geometry error, got shape area=%v", s.Area())
				}
				var gerr *GeometryError
				if !errors.As(err, &gerr) {
					t.Fatalf("expected *GeometryError, got %T: %v", err, err)
				}
				if gerr.Asset != "asset.dae" {
					t.Errorf("error does not name the asset: %v", gerr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !floatEqual(s.Area(), tt.expectedArea, 1e-9) {
				t.Errorf("area = %v, expected %v", s.Area(), tt.expectedArea)
			}
			wantVol := tt.expectedArea * (tt.zMax - tt.zMin)
			if !floatEqual(s.Volume(), wantVol, 1e-9) {
				t.Errorf("volume = %v, expected %v", s.Volume(), wantVol)
			}
		})
	}
}

func TestHullIsConvexAndContainsInputs(t *testing.T) {
	pts := []mgl64.Vec2{
		{0, 0}, {1.5, 0.2}, {2, 1}, {1.2, 2.3}, {0.1, 1.8},
		{1, 1}, {0.7, 0.4}, {1.6, 1.7}, {-0.5, 0.9},
	}
	s, err := FromPoints(pts, 0, 1, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Every input point must be inside or on the hull.
	for i, p := range pts {
		if !s.Contains(p) {
			t.Errorf("point %d %v not contained in hull %v", i, p, s.Contour)
		}
	}

	// Convexity: all cross products along the CCW contour are non-negative.
	n := len(s.Contour)
	if n < 3 {
		t.Fatalf("hull has %d vertices", n)
	}
	for i := 0; i < n; i++ {
		a := s.Contour[i]
		b := s.Contour[(i+1)%n]
		c := s.Contour[(i+2)%n]
		cross := (b.X()-a.X())*(c.Y()-b.Y()) - (b.Y()-a.Y())*(c.X()-b.X())
		if cross < -1e-9 {
			t.Errorf("contour is not convex at vertex %d (cross=%v)", i, cross)
		}
	}
}

func regularPolygon(n int, radius float64) []mgl64.Vec2 {
	pts := make([]mgl64.Vec2, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = mgl64.Vec2{radius * math.Cos(a), radius * math.Sin(a)}
	}
	return pts
}

func TestSimplifyContour(t *testing.T) {
	t.Run("dense circle fits the cap", func(t *testing.T) {
		circle := regularPolygon(32, 1.0)
		got := SimplifyContour(circle, 8)
		if len(got) != 8 {
			t.Fatalf("simplified contour has %d vertices, expected 8", len(got))
		}
		// Decimation trims footprint area but must keep the bulk of it.
		orig := signedArea(circle)
		if area := signedArea(got); area < 0.85*orig || area > orig+1e-9 {
			t.Errorf("area after simplify = %v, original %v", area, orig)
		}
	})

	t.Run("small contour untouched", func(t *testing.T) {
		sq := square(0.5)
		got := SimplifyContour(sq, 8)
		if len(got) != 4 {
			t.Fatalf("square grew to %d vertices", len(got))
		}
		for i := range sq {
			if got[i] != sq[i] {
				t.Errorf("vertex %d moved: %v -> %v", i, sq[i], got[i])
			}
		}
	})

	t.Run("max below three clamps to a triangle", func(t *testing.T) {
		got := SimplifyContour(regularPolygon(10, 1.0), 2)
		if len(got) != 3 {
			t.Errorf("contour has %d vertices, expected 3", len(got))
		}
	})
}

func TestContains(t *testing.T) {
	s, err := FromPoints(square(1.0), 0, 1, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		p        mgl64.Vec2
		expected bool
	}{
		{"center", mgl64.Vec2{0, 0}, true},
		{"edge", mgl64.Vec2{1, 0}, true},
		{"corner", mgl64.Vec2{1, 1}, true},
		{"outside x", mgl64.Vec2{1.01, 0}, false},
		{"outside diagonal", mgl64.Vec2{-1.5, -1.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Contains(tt.p); got != tt.expected {
				t.Errorf("Contains(%v) = %v, expected %v", tt.p, got, tt.expected)
			}
		})
	}
}
