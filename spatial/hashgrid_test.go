package spatial

import (
	"testing"

	"github.com/achilleasa/accel/types"
)

func TestHashGridTransform(t *testing.T) {
	box := types.NewAABB(types.XYZ(0, 0, 0), types.XYZ(4, 4, 4))
	g := NewHashGrid(box, 0, 4)

	specs := []struct {
		p   types.Vec3
		exp Cell
	}{
		{types.XYZ(0, 0, 0), Cell{0, 0, 0}},
		{types.XYZ(0.99, 1.01, 3.5), Cell{0, 1, 3}},
		{types.XYZ(4, 4, 4), Cell{3, 3, 3}},
		// Out-of-domain points are clamped to the border cells.
		{types.XYZ(-10, 2.5, 100), Cell{0, 2, 3}},
	}

	for _, s := range specs {
		if got := g.Transform(s.p); got != s.exp {
			t.Fatalf("expected %v to map to cell %v; got %v", s.p, s.exp, got)
		}
	}
}

func TestHashGridHashIsFastestAlongX(t *testing.T) {
	g := NewHashGrid(types.NewAABB(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1)), 0, 3)

	if got := g.Hash(Cell{1, 0, 0}); got != 1 {
		t.Fatalf("expected hash 1; got %d", got)
	}
	if got := g.Hash(Cell{0, 1, 0}); got != 3 {
		t.Fatalf("expected hash 3; got %d", got)
	}
	if got := g.Hash(Cell{2, 2, 2}); got != 26 {
		t.Fatalf("expected hash 26; got %d", got)
	}
	if g.NumCells() != 27 {
		t.Fatalf("expected 27 cells; got %d", g.NumCells())
	}
}

func TestHashGridRadiusCoarsensCells(t *testing.T) {
	box := types.NewAABB(types.XYZ(0, 0, 0), types.XYZ(8, 8, 8))

	fine := NewHashGrid(box, 1, 16)
	if res := fine.Resolution(); res != (Cell{8, 8, 8}) {
		t.Fatalf("expected resolution 8 for radius 1; got %v", res)
	}

	coarse := NewHashGrid(box, 4, 16)
	if res := coarse.Resolution(); res != (Cell{2, 2, 2}) {
		t.Fatalf("expected resolution 2 for radius 4; got %v", res)
	}

	capped := NewHashGrid(box, 0.01, 16)
	if res := capped.Resolution(); res != (Cell{16, 16, 16}) {
		t.Fatalf("expected resolution to be capped at the grid size; got %v", res)
	}

	huge := NewHashGrid(box, 100, 16)
	if res := huge.Resolution(); res != (Cell{1, 1, 1}) {
		t.Fatalf("expected a single cell per axis; got %v", res)
	}
}

func TestHashGridFlatDomain(t *testing.T) {
	g := NewHashGrid(types.NewAABB(types.XYZ(0, 0, 0), types.XYZ(2, 2, 0)), 0, 2)
	if got := g.Transform(types.XYZ(1.5, 0.5, 0)); got != (Cell{1, 0, 0}) {
		t.Fatalf("expected cell {1 0 0}; got %v", got)
	}
}

func TestHashGridCellBox(t *testing.T) {
	g := NewHashGrid(types.NewAABB(types.XYZ(0, 0, 0), types.XYZ(4, 4, 4)), 0, 4)
	box := g.CellBox(Cell{1, 2, 3})
	exp := types.NewAABB(types.XYZ(1, 2, 3), types.XYZ(2, 3, 4))
	if box != exp {
		t.Fatalf("expected cell box %v; got %v", exp, box)
	}
	if g.Transform(box.Center()) != (Cell{1, 2, 3}) {
		t.Fatal("expected cell box center to map back to its cell")
	}
}
