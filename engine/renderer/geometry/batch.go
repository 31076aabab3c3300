package geometry

import (
	"github.com/spaghettifunk/prism/engine/renderer/memory"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// Vertex is the set of vertex formats a Batch can hold.
type Vertex interface {
	metadata.VertexPC | metadata.VertexPNC
}

/**
 * @brief A fixed capacity vertex list, usually carved out of a per frame
 * arena. A primitive that does not fit is dropped whole and counted, the
 * storage never grows onto the heap.
 */
type Batch[V Vertex] struct {
	vertices []V
	dropped  int
}

// NewBatch carves storage for capacity vertices out of arena.
func NewBatch[V Vertex](arena *memory.Arena, capacity int) (*Batch[V], error) {
	storage, err := memory.AllocSlice[V](arena, capacity)
	if err != nil {
		return nil, err
	}
	return &Batch[V]{vertices: storage}, nil
}

// NewHeapBatch is used for static geometry built once at startup.
func NewHeapBatch[V Vertex](capacity int) *Batch[V] {
	return &Batch[V]{vertices: make([]V, 0, capacity)}
}

/**
 * @brief Appends one primitive. Returns false, and leaves the batch untouched,
 * when the vertices do not all fit.
 */
func (b *Batch[V]) Push(vertices ...V) bool {
	if len(b.vertices)+len(vertices) > cap(b.vertices) {
		b.dropped += len(vertices)
		return false
	}
	b.vertices = append(b.vertices, vertices...)
	return true
}

func (b *Batch[V]) Vertices() []V {
	return b.vertices
}

// Bytes views the vertices as raw bytes ready for an upload.
func (b *Batch[V]) Bytes() []byte {
	return metadata.VertexBytes(b.vertices)
}

func (b *Batch[V]) Len() int {
	return len(b.vertices)
}

func (b *Batch[V]) Cap() int {
	return cap(b.vertices)
}

// Dropped is the number of vertices rejected since the last Reset.
func (b *Batch[V]) Dropped() int {
	return b.dropped
}

func (b *Batch[V]) Reset() {
	b.vertices = b.vertices[:0]
	b.dropped = 0
}
