package spatial

import (
	"sync/atomic"

	"github.com/achilleasa/accel/types"
)

// Marks an empty bucket or the end of a chain.
const InvalidIndex = ^uint32(0)

type linkedEntry[T any] struct {
	next  uint32
	value T
}

// LinkedMap associates a variable number of values with points in space.
//
// Values live in a fixed capacity arena. Each grid cell owns a chain of arena
// entries whose head is kept in an atomic bucket table; Store pushes new
// entries to the front of the chain with a single atomic swap so any number
// of goroutines may store concurrently.
//
// Reads (ForEach*, Iterator, At) are not synchronized with Store. Callers
// must complete all stores of a pass (e.g. sync.WaitGroup.Wait) before
// querying, and ResetBuffer must not run concurrently with anything else.
type LinkedMap[T any] struct {
	gridSize uint32
	capacity uint32

	entries []linkedEntry[T]
	heads   []atomic.Uint32
	cursor  atomic.Uint64

	grid HashGrid
}

// Allocate a map with a gridSize³ bucket table and room for capacity values.
// The map starts out empty and bound to the unit cube; call
// SetSceneDimensions before the first Store. A zero gridSize allocates a
// single cell.
func NewLinkedMap[T any](gridSize, capacity uint32) *LinkedMap[T] {
	gridSize = max(gridSize, 1)
	m := &LinkedMap[T]{
		gridSize: gridSize,
		capacity: capacity,
		entries:  make([]linkedEntry[T], capacity),
		heads:    make([]atomic.Uint32, gridSize*gridSize*gridSize),
	}
	m.grid = NewHashGrid(types.NewAABB(types.Vec3{}, types.Splat(1)), 0, gridSize)
	m.ResetBuffer()
	return m
}

// Release backing storage. The map must not be used afterwards.
func (m *LinkedMap[T]) Release() {
	m.entries = nil
	m.heads = nil
	m.capacity = 0
	m.cursor.Store(0)
}

// Rebind the hash domain. Storage is not reallocated; call ResetBuffer before
// storing values for the new domain.
func (m *LinkedMap[T]) SetSceneDimensions(box types.AABB, radius float32) {
	m.grid = NewHashGrid(box, radius, m.gridSize)
}

// Logically clear all entries by rewinding the arena cursor and emptying
// every bucket.
func (m *LinkedMap[T]) ResetBuffer() {
	m.cursor.Store(0)
	for i := range m.heads {
		m.heads[i].Store(InvalidIndex)
	}
}

// True once every arena slot has been reserved.
func (m *LinkedMap[T]) IsFull() bool {
	return m.cursor.Load() >= uint64(m.capacity)
}

// Store v at point p. Returns false if the arena is exhausted; the caller
// should stop storing values for the current pass.
func (m *LinkedMap[T]) Store(p types.Vec3, v T) bool {
	slot := m.cursor.Add(1) - 1
	if slot >= uint64(m.capacity) {
		return false
	}

	entryIdx := uint32(slot)
	prev := m.heads[m.grid.HashPoint(p)].Swap(entryIdx)
	m.entries[entryIdx].value = v
	m.entries[entryIdx].next = prev
	return true
}

// Access the value stored at an arena slot.
func (m *LinkedMap[T]) At(entry uint32) *T {
	return &m.entries[entry].value
}

// Number of stored values.
func (m *LinkedMap[T]) Len() uint32 {
	count := m.cursor.Load()
	if count > uint64(m.capacity) {
		return m.capacity
	}
	return uint32(count)
}

// Arena capacity.
func (m *LinkedMap[T]) Capacity() uint32 {
	return m.capacity
}

// Bucket table dimension.
func (m *LinkedMap[T]) GridSize() uint32 {
	return m.gridSize
}

// The currently bound hash grid.
func (m *LinkedMap[T]) Grid() HashGrid {
	return m.grid
}

// Visit every value in the cell containing p.
func (m *LinkedMap[T]) ForEach(p types.Vec3, visit func(entry uint32, v *T)) {
	c := m.grid.Transform(p)
	m.ForEachInCells(c, c, visit)
}

// Visit every value whose cell intersects the [min, max] box.
func (m *LinkedMap[T]) ForEachInBox(min, max types.Vec3, visit func(entry uint32, v *T)) {
	m.ForEachInCells(m.grid.Transform(min), m.grid.Transform(max), visit)
}

// Visit every value stored in the cells of the inclusive [lo, hi] range.
func (m *LinkedMap[T]) ForEachInCells(lo, hi Cell, visit func(entry uint32, v *T)) {
	for it := m.Iterator(lo, hi); it.Valid(); it.Next() {
		visit(it.Entry(), it.Value())
	}
}

// Return the head entry of a cell's chain.
func (m *LinkedMap[T]) head(c Cell) uint32 {
	return m.heads[m.grid.Hash(c)].Load()
}

func (m *LinkedMap[T]) next(entry uint32) uint32 {
	return m.entries[entry].next
}

// Snapshot is a flat copy of the map arenas, laid out the way device kernels
// expect them: one head per cell, and parallel next/value arrays per entry.
type Snapshot[T any] struct {
	Heads  []uint32
	Next   []uint32
	Values []T
	Grid   HashGrid
}

// Copy the map state. Like other reads it must not overlap with Store.
func (m *LinkedMap[T]) Snapshot() Snapshot[T] {
	count := m.Len()
	snap := Snapshot[T]{
		Heads:  make([]uint32, len(m.heads)),
		Next:   make([]uint32, count),
		Values: make([]T, count),
		Grid:   m.grid,
	}
	for i := range m.heads {
		snap.Heads[i] = m.heads[i].Load()
	}
	for i := uint32(0); i < count; i++ {
		snap.Next[i] = m.entries[i].next
		snap.Values[i] = m.entries[i].value
	}
	return snap
}
