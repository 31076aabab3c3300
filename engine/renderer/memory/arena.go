package memory

import (
	"fmt"
	"unsafe"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
)

/** @brief Alignment used when the caller passes zero. */
const ARENA_DEFAULT_ALIGNMENT uint64 = 16

/**
 * @brief A bump allocator over a fixed byte buffer. Memory is handed out
 * linearly and reclaimed all at once by Reset; nothing is freed individually.
 * Slices returned by an arena must not be used after the next Reset.
 */
type Arena struct {
	name   string
	buffer []byte
	cursor uint64
	peak   uint64
}

func NewArena(name string, capacity uint64) *Arena {
	return &Arena{
		name:   name,
		buffer: make([]byte, capacity),
	}
}

/**
 * @brief Reserves size bytes aligned to alignment (a power of two, zero means
 * 16). The alignment is applied to the real address so typed views are safe.
 * Returns ErrArenaExhausted when the buffer cannot hold the request.
 */
func (a *Arena) Alloc(size, alignment uint64) ([]byte, error) {
	if alignment == 0 {
		alignment = ARENA_DEFAULT_ALIGNMENT
	}
	if !math.IsPowerOfTwo(alignment) {
		return nil, fmt.Errorf("arena %s: alignment %d is not a power of two", a.name, alignment)
	}
	if size == 0 {
		return nil, fmt.Errorf("arena %s: zero sized allocation", a.name)
	}
	capacity := uint64(len(a.buffer))
	if capacity == 0 {
		return nil, fmt.Errorf("arena %s: %w", a.name, core.ErrArenaExhausted)
	}
	base := uint64(uintptr(unsafe.Pointer(&a.buffer[0])))
	aligned := math.AlignUp(base+a.cursor, alignment) - base
	if aligned+size > capacity {
		return nil, fmt.Errorf("arena %s: %d bytes requested, %d of %d used: %w", a.name, size, a.cursor, capacity, core.ErrArenaExhausted)
	}
	a.cursor = aligned + size
	if a.cursor > a.peak {
		a.peak = a.cursor
	}
	return a.buffer[aligned:a.cursor:a.cursor], nil
}

// Reset rewinds the cursor. Previously returned memory is reused, not cleared.
func (a *Arena) Reset() {
	a.cursor = 0
}

func (a *Arena) Used() uint64 {
	return a.cursor
}

func (a *Arena) Capacity() uint64 {
	return uint64(len(a.buffer))
}

// Peak is the highest cursor observed since creation, useful to size budgets.
func (a *Arena) Peak() uint64 {
	return a.peak
}

func (a *Arena) Name() string {
	return a.name
}

/**
 * @brief Allocates room for n values of T and returns it as a zero length slice
 * with capacity n. T must not contain pointers: the garbage collector does not
 * scan arena memory.
 */
func AllocSlice[T any](a *Arena, n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	var zero T
	size := uint64(unsafe.Sizeof(zero))
	align := uint64(unsafe.Alignof(zero))
	if size == 0 {
		return make([]T, 0, n), nil
	}
	raw, err := a.Alloc(size*uint64(n), align)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&raw[0])), n)[:0], nil
}

// Push copies value into the arena and returns a pointer to the copy.
func Push[T any](a *Arena, value T) (*T, error) {
	s, err := AllocSlice[T](a, 1)
	if err != nil {
		return nil, err
	}
	s = append(s, value)
	return &s[0], nil
}
