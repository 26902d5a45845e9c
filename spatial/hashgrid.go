package spatial

import (
	"github.com/achilleasa/accel/types"
	"github.com/chewxy/math32"
)

// A Cell addresses one grid cell by its integer x, y and z coordinates.
type Cell [3]uint32

// HashGrid maps points inside a bounded domain to a linear cell index.
//
// The per-axis resolution is derived from the query radius: each cell is at
// least radius wide and there are never more than gridSize cells along an
// axis. Points outside the domain are clamped to the closest border cell.
type HashGrid struct {
	box      types.AABB
	res      Cell
	invCell  types.Vec3
	gridSize uint32
}

// Create a hash grid over box for a table of gridSize³ cells. A radius <= 0
// selects the finest resolution allowed by gridSize.
func NewHashGrid(box types.AABB, radius float32, gridSize uint32) HashGrid {
	if gridSize == 0 {
		gridSize = 1
	}

	g := HashGrid{box: box, gridSize: gridSize}
	side := box.Size()
	for axis := 0; axis < 3; axis++ {
		res := gridSize
		if radius > 0 {
			fit := math32.Floor(side[axis] / radius)
			switch {
			case !(fit >= 1):
				res = 1
			case fit < float32(gridSize):
				res = uint32(fit)
			}
		}
		g.res[axis] = res

		if side[axis] > 0 {
			g.invCell[axis] = float32(res) / side[axis]
		}
	}

	return g
}

// Grid dimension used for hashing; the bucket table holds GridSize³ cells.
func (g HashGrid) GridSize() uint32 {
	return g.gridSize
}

// Number of cells along each axis.
func (g HashGrid) Resolution() Cell {
	return g.res
}

// Number of addressable cells in the bucket table.
func (g HashGrid) NumCells() uint32 {
	return g.gridSize * g.gridSize * g.gridSize
}

// Reciprocal cell size along each axis; 0 for flat axes.
func (g HashGrid) InvCellSize() types.Vec3 {
	return g.invCell
}

// The domain this grid is bound to.
func (g HashGrid) Box() types.AABB {
	return g.box
}

// Map a point to the cell containing it.
func (g HashGrid) Transform(p types.Vec3) Cell {
	var c Cell
	for axis := 0; axis < 3; axis++ {
		f := math32.Floor((p[axis] - g.box.Min[axis]) * g.invCell[axis])
		switch {
		case !(f > 0):
			c[axis] = 0
		case f >= float32(g.res[axis]):
			c[axis] = g.res[axis] - 1
		default:
			c[axis] = uint32(f)
		}
	}
	return c
}

// Linear index of a cell, fastest along x.
func (g HashGrid) Hash(c Cell) uint32 {
	return (c[2]*g.gridSize+c[1])*g.gridSize + c[0]
}

// Linear index of the cell containing p.
func (g HashGrid) HashPoint(p types.Vec3) uint32 {
	return g.Hash(g.Transform(p))
}

// World-space bounds of a cell.
func (g HashGrid) CellBox(c Cell) types.AABB {
	side := g.box.Size()
	var box types.AABB
	for axis := 0; axis < 3; axis++ {
		step := side[axis] / float32(g.res[axis])
		box.Min[axis] = g.box.Min[axis] + float32(c[axis])*step
		box.Max[axis] = box.Min[axis] + step
	}
	return box
}
