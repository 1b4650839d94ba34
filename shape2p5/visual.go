package shape2p5

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// BufferKind identifies which render channel a vertex buffer belongs to.
type BufferKind int

const (
	BufferTriangles BufferKind = iota
	BufferTexturedTriangles
	BufferPoints
	BufferWireframe
)

// VertexBuffer is one geometry buffer of a visual object. Buffers may be
// refreshed by a render thread, so every read happens under the buffer's
// own lock, held only while that buffer is traversed.
type VertexBuffer struct {
	mu   sync.RWMutex
	kind BufferKind
	pts  []mgl64.Vec3
}

func NewVertexBuffer(kind BufferKind, pts ...mgl64.Vec3) *VertexBuffer {
	return &VertexBuffer{kind: kind, pts: pts}
}

func (b *VertexBuffer) Kind() BufferKind { return b.kind }

// Append adds vertices to the buffer.
func (b *VertexBuffer) Append(pts ...mgl64.Vec3) {
	b.mu.Lock()
	b.pts = append(b.pts, pts...)
	b.mu.Unlock()
}

// Replace swaps the whole vertex set, as a renderer does when it re-uploads
// a model.
func (b *VertexBuffer) Replace(pts []mgl64.Vec3) {
	b.mu.Lock()
	b.pts = pts
	b.mu.Unlock()
}

// ForEach visits every vertex under the read lock. The callback must not
// retain or mutate the vertices.
func (b *VertexBuffer) ForEach(fn func(mgl64.Vec3)) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, p := range b.pts {
		fn(p)
	}
}

func (b *VertexBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.pts)
}

// Visual is any renderable object whose geometry can be reduced to a
// collision shape. Composite objects expose nested children.
type Visual interface {
	Buffers() []*VertexBuffer
	Children() []Visual
}

// Model is a plain in-memory Visual, enough for assets loaded from
// triangle/point/wireframe soups.
type Model struct {
	buffers  []*VertexBuffer
	children []Visual
}

func NewModel(buffers ...*VertexBuffer) *Model {
	return &Model{buffers: buffers}
}

func (m *Model) AddChild(c Visual) {
	m.children = append(m.children, c)
}

func (m *Model) Buffers() []*VertexBuffer { return m.buffers }
func (m *Model) Children() []Visual       { return m.children }
