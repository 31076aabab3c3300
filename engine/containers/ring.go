package containers

import "errors"

var (
	ErrRingEmpty = errors.New("ring is empty")
)

// Ring is a fixed capacity circular buffer. Pushing into a full ring overwrites the
// oldest element.
type Ring[T any] struct {
	data       []T
	size       int
	readIndex  int
	writeIndex int
	count      int
}

// Create a new Ring
func NewRing[T any](size int) *Ring[T] {
	if size < 1 {
		size = 1
	}
	return &Ring[T]{
		data: make([]T, size),
		size: size,
	}
}

// Push appends an element, dropping the oldest one when full
func (r *Ring[T]) Push(value T) {
	r.data[r.writeIndex] = value
	r.writeIndex = (r.writeIndex + 1) % r.size
	if r.IsFull() {
		r.readIndex = (r.readIndex + 1) % r.size
		return
	}
	r.count++
}

// Pop removes and returns the oldest element
func (r *Ring[T]) Pop() (T, error) {
	var zero T
	if r.IsEmpty() {
		return zero, ErrRingEmpty
	}
	value := r.data[r.readIndex]
	r.data[r.readIndex] = zero
	r.readIndex = (r.readIndex + 1) % r.size
	r.count--
	return value, nil
}

// Peek returns the oldest element without removing it
func (r *Ring[T]) Peek() (T, error) {
	if r.IsEmpty() {
		var zero T
		return zero, ErrRingEmpty
	}
	return r.data[r.readIndex], nil
}

// Values copies the elements out, oldest first
func (r *Ring[T]) Values() []T {
	out := make([]T, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.data[(r.readIndex+i)%r.size]
	}
	return out
}

func (r *Ring[T]) Len() int {
	return r.count
}

func (r *Ring[T]) Cap() int {
	return r.size
}

func (r *Ring[T]) IsEmpty() bool {
	return r.count == 0
}

func (r *Ring[T]) IsFull() bool {
	return r.count == r.size
}
