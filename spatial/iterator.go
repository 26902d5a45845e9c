package spatial

// VolumeIterator walks the values of a block of cells.
//
// The block is flattened with x varying fastest. The iterator first exhausts
// the chain of the current cell and then scans forward to the next non-empty
// cell. It is exhausted once the flattened index reaches the cell count of
// the block.
type VolumeIterator[T any] struct {
	m *LinkedMap[T]

	low  Cell
	diff Cell

	entry   uint32
	flatIdx uint32
}

// Create an iterator over the inclusive [lo, hi] cell range. Corners are
// reordered per axis so that lo <= hi.
func (m *LinkedMap[T]) Iterator(lo, hi Cell) *VolumeIterator[T] {
	it := m.newIterator(lo, hi)
	it.entry = m.head(lo)
	it.flatIdx = 0
	if it.entry == InvalidIndex {
		it.Next()
	}
	return it
}

// Return an iterator positioned at the end of the [lo, hi] range.
func (m *LinkedMap[T]) End(lo, hi Cell) *VolumeIterator[T] {
	it := m.newIterator(lo, hi)
	it.entry = InvalidIndex
	it.flatIdx = it.numCells()
	return it
}

func (m *LinkedMap[T]) newIterator(lo, hi Cell) *VolumeIterator[T] {
	for axis := 0; axis < 3; axis++ {
		if hi[axis] < lo[axis] {
			lo[axis], hi[axis] = hi[axis], lo[axis]
		}
	}
	return &VolumeIterator[T]{
		m:    m,
		low:  lo,
		diff: Cell{hi[0] - lo[0] + 1, hi[1] - lo[1] + 1, hi[2] - lo[2] + 1},
	}
}

func (it *VolumeIterator[T]) numCells() uint32 {
	return it.diff[0] * it.diff[1] * it.diff[2]
}

// Advance to the next value.
func (it *VolumeIterator[T]) Next() {
	if it.entry != InvalidIndex {
		it.entry = it.m.next(it.entry)
	}

	total := it.numCells()
	for it.entry == InvalidIndex && it.flatIdx != total {
		it.flatIdx++
		if it.flatIdx == total {
			break
		}

		slice := it.diff[0] * it.diff[1]
		inSlice := it.flatIdx % slice
		c := Cell{
			it.low[0] + inSlice%it.diff[0],
			it.low[1] + inSlice/it.diff[0],
			it.low[2] + it.flatIdx/slice,
		}
		it.entry = it.m.head(c)
	}
}

// True while the iterator points at a value.
func (it *VolumeIterator[T]) Valid() bool {
	return it.flatIdx != it.numCells()
}

// Arena slot of the current value.
func (it *VolumeIterator[T]) Entry() uint32 {
	return it.entry
}

// The current value.
func (it *VolumeIterator[T]) Value() *T {
	return it.m.At(it.entry)
}

// Two iterators are equal when they point at the same entry of the same
// flattened cell. All exhausted iterators of a range compare equal.
func (it *VolumeIterator[T]) Equal(o *VolumeIterator[T]) bool {
	return it.entry == o.entry && it.flatIdx == o.flatIdx
}
