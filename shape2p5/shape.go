package shape2p5

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/peterstace/simplefeatures/geom"
)

// MinVolume is the smallest collision volume (m³) accepted for a shape.
// Anything below it means the height band sliced away the model.
const MinVolume = 1e-8

// GeometryError reports a degenerate collision shape. It carries enough
// context (asset identity, height band, computed measure) to diagnose a
// mis-sliced or empty model.
type GeometryError struct {
	Asset      string
	ZMin, ZMax float64
	Volume     float64
	Points     int
}

func (e *GeometryError) Error() string {
	asset := e.Asset
	if asset == "" {
		asset = "none"
	}
	return fmt.Sprintf(
		"collision volume for visual model '%s' is almost null (=%g m³, %d points within z band [%g, %g])",
		asset, e.Volume, e.Points, e.ZMin, e.ZMax)
}

// Shape2p5 is a 2D convex footprint extruded over a height band, the
// approximation a 2D physics substrate needs for a 3D object. Value type;
// once computed it never changes.
type Shape2p5 struct {
	// Contour is the convex hull footprint, counter-clockwise, without the
	// closing repeat of the first vertex.
	Contour []mgl64.Vec2
	ZMin    float64
	ZMax    float64

	area float64
}

// Area returns the footprint area in m².
func (s Shape2p5) Area() float64 { return s.area }

// Volume returns the extruded volume in m³.
func (s Shape2p5) Volume() float64 { return s.area * (s.ZMax - s.ZMin) }

// Contains reports whether a 2D point lies inside or on the convex contour.
func (s Shape2p5) Contains(p mgl64.Vec2) bool {
	n := len(s.Contour)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a := s.Contour[i]
		b := s.Contour[(i+1)%n]
		// cross((b-a), (p-a)) < 0 means p is on the outside of a CCW edge
		cross := (b.X()-a.X())*(p.Y()-a.Y()) - (b.Y()-a.Y())*(p.X()-a.X())
		if cross < -1e-9 {
			return false
		}
	}
	return true
}

// FromPoints builds the convex 2.5D shape covering the given projected
// points over the band [zMin, zMax]. Fewer than three effective points,
// a collinear point set, or a near-null volume yield a *GeometryError.
func FromPoints(pts []mgl64.Vec2, zMin, zMax float64, asset string) (Shape2p5, error) {
	gpts := make([]geom.Point, 0, len(pts))
	for _, p := range pts {
		gpts = append(gpts, geom.NewPoint(geom.Coordinates{
			XY:   geom.XY{X: p.X(), Y: p.Y()},
			Type: geom.DimXY,
		}))
	}

	hull := geom.NewMultiPoint(gpts).AsGeometry().ConvexHull()
	if !hull.IsPolygon() {
		// Point or line hull: not enough spread to enclose any area.
		return Shape2p5{}, &GeometryError{Asset: asset, ZMin: zMin, ZMax: zMax, Points: len(pts)}
	}

	poly := hull.MustAsPolygon()
	area := poly.Area()

	shape := Shape2p5{ZMin: zMin, ZMax: zMax, area: area}
	if shape.Volume() < MinVolume {
		return Shape2p5{}, &GeometryError{
			Asset: asset, ZMin: zMin, ZMax: zMax,
			Volume: shape.Volume(), Points: len(pts),
		}
	}

	seq := poly.ExteriorRing().Coordinates()
	// The exterior ring repeats the first vertex at the end; drop it.
	shape.Contour = make([]mgl64.Vec2, 0, seq.Length()-1)
	for i := 0; i+1 < seq.Length(); i++ {
		xy := seq.GetXY(i)
		shape.Contour = append(shape.Contour, mgl64.Vec2{xy.X, xy.Y})
	}
	if signedArea(shape.Contour) < 0 {
		reverse(shape.Contour)
	}
	return shape, nil
}

// SimplifyContour reduces a polygon contour to at most max vertices by
// repeatedly dropping the vertex whose removal changes the enclosed area
// the least. Physics engines cap polygon vertex counts, while the convex
// hull of a round asset can carry dozens. The input is returned untouched
// when it already fits.
func SimplifyContour(c []mgl64.Vec2, max int) []mgl64.Vec2 {
	if max < 3 {
		max = 3
	}
	if len(c) <= max {
		return c
	}
	out := make([]mgl64.Vec2, len(c))
	copy(out, c)
	for len(out) > max {
		drop, smallest := 0, math.MaxFloat64
		for i := range out {
			p := out[(i+len(out)-1)%len(out)]
			q := out[i]
			r := out[(i+1)%len(out)]
			// Triangle area spanned by the vertex and its neighbours: the
			// footprint lost when the vertex goes away.
			a := 0.5 * math.Abs((q.X()-p.X())*(r.Y()-p.Y())-(r.X()-p.X())*(q.Y()-p.Y()))
			if a < smallest {
				drop, smallest = i, a
			}
		}
		out = append(out[:drop], out[drop+1:]...)
	}
	return out
}

// signedArea is the shoelace sum: positive for counter-clockwise contours.
func signedArea(c []mgl64.Vec2) float64 {
	sum := 0.0
	for i := range c {
		a, b := c[i], c[(i+1)%len(c)]
		sum += a.X()*b.Y() - b.X()*a.Y()
	}
	return 0.5 * sum
}

func reverse(c []mgl64.Vec2) {
	for i, j := 0, len(c)-1; i < j; i, j = i+1, j-1 {
		c[i], c[j] = c[j], c[i]
	}
}
