package shape2p5

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"
)

// Placement positions a visual model in the world before slicing it.
type Placement struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// Identity returns the neutral placement.
func Identity() Placement {
	return Placement{Rotation: mgl64.QuatIdent()}
}

// Apply transforms a model-local vertex into world coordinates.
func (p Placement) Apply(v mgl64.Vec3) mgl64.Vec3 {
	return p.Rotation.Rotate(v).Add(p.Position)
}

// ExtractStats counts vertices seen and vertices surviving the height band.
type ExtractStats struct {
	Total  int
	Passed int
}

// ExtractPoints walks every buffer of the visual and of its nested children,
// applies scale then placement to each vertex, and keeps the XY projection of
// vertices whose height falls within [zMin, zMax]. Buffers are traversed
// concurrently, each under its own read lock.
func ExtractPoints(v Visual, zMin, zMax float64, pose Placement, scale float64) ([]mgl64.Vec2, ExtractStats) {
	buffers := collectBuffers(v, nil)

	var (
		mu    sync.Mutex
		pts   []mgl64.Vec2
		stats ExtractStats
	)

	var g errgroup.Group
	for _, buf := range buffers {
		buf := buf
		g.Go(func() error {
			var local []mgl64.Vec2
			total := 0
			buf.ForEach(func(orig mgl64.Vec3) {
				total++
				p := pose.Apply(orig.Mul(scale))
				if p.Z() < zMin || p.Z() > zMax {
					return
				}
				local = append(local, mgl64.Vec2{p.X(), p.Y()})
			})
			mu.Lock()
			pts = append(pts, local...)
			stats.Total += total
			stats.Passed += len(local)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // traversal itself cannot fail

	return pts, stats
}

func collectBuffers(v Visual, out []*VertexBuffer) []*VertexBuffer {
	out = append(out, v.Buffers()...)
	for _, c := range v.Children() {
		out = collectBuffers(c, out)
	}
	return out
}
