package spatial

import (
	"sync/atomic"

	"github.com/achilleasa/accel/types"
)

// Set associates at most one value with each grid cell. Concurrent stores
// to the same cell are resolved by the last writer; each store publishes its
// value with a single atomic pointer write.
type Set[T any] struct {
	gridSize uint32
	cells    []atomic.Pointer[T]
	grid     HashGrid
}

// Allocate a set with gridSize³ cells bound to the unit cube. A zero
// gridSize allocates a single cell.
func NewSet[T any](gridSize uint32) *Set[T] {
	gridSize = max(gridSize, 1)
	return &Set[T]{
		gridSize: gridSize,
		cells:    make([]atomic.Pointer[T], gridSize*gridSize*gridSize),
		grid:     NewHashGrid(types.NewAABB(types.Vec3{}, types.Splat(1)), 0, gridSize),
	}
}

// Release backing storage.
func (s *Set[T]) Release() {
	s.cells = nil
}

// Rebind the hash domain without reallocating.
func (s *Set[T]) SetSceneDimensions(box types.AABB, radius float32) {
	s.grid = NewHashGrid(box, radius, s.gridSize)
}

// Clear every cell.
func (s *Set[T]) ResetBuffer() {
	for i := range s.cells {
		s.cells[i].Store(nil)
	}
}

// Store v in the cell containing p, replacing any previous value.
func (s *Set[T]) Store(p types.Vec3, v T) {
	s.cells[s.grid.HashPoint(p)].Store(&v)
}

// Load the value of the cell containing p.
func (s *Set[T]) Load(p types.Vec3) (T, bool) {
	return s.At(s.grid.HashPoint(p))
}

// Load the value of a cell by its linear index.
func (s *Set[T]) At(idx uint32) (T, bool) {
	if v := s.cells[idx].Load(); v != nil {
		return *v, true
	}
	var zero T
	return zero, false
}

// Store v in a cell by its linear index, replacing any previous value.
func (s *Set[T]) StoreAt(idx uint32, v T) {
	s.cells[idx].Store(&v)
}

// Visit every non-empty cell.
func (s *Set[T]) ForEach(visit func(idx uint32, v T)) {
	for i := range s.cells {
		if v := s.cells[i].Load(); v != nil {
			visit(uint32(i), *v)
		}
	}
}

// Number of cells in the table.
func (s *Set[T]) NumEntries() uint32 {
	return uint32(len(s.cells))
}

// The currently bound hash grid.
func (s *Set[T]) Grid() HashGrid {
	return s.grid
}
