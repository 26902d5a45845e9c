package bvh

import (
	"testing"

	"github.com/achilleasa/accel/types"
)

// A BuilderCallback over a list of boxes that records the calls it receives.
type boxCallback struct {
	boxes []types.AABB

	nInner, nLeaf uint32
	starts        int
	finishes      int

	nodes   []InnerNode
	leafs   [][]uint32
	parents []uint32
	splits  int

	root     ChildRef
	sceneBox types.AABB
}

func (cb *boxCallback) StartConstruction(nInner, nLeaf uint32) {
	cb.starts++
	cb.nInner, cb.nLeaf = nInner, nLeaf
	cb.nodes = make([]InnerNode, 0, nInner+arenaSlack)
}

func (cb *boxCallback) IterateObjects(visit func(index uint32, box types.AABB)) {
	for i, box := range cb.boxes {
		visit(uint32(i), box)
	}
}

func (cb *boxCallback) CreateLeafNode(parent uint32, objIndices []uint32) uint32 {
	offset := uint32(0)
	for _, leaf := range cb.leafs {
		offset += uint32(len(leaf))
	}
	cb.leafs = append(cb.leafs, append([]uint32(nil), objIndices...))
	cb.parents = append(cb.parents, parent)
	return offset
}

func (cb *boxCallback) CreateInnerNode() (uint32, *InnerNode) {
	if len(cb.nodes) == cap(cb.nodes) {
		panic(ErrArenaExhausted)
	}
	cb.nodes = append(cb.nodes, InnerNode{})
	index := uint32(len(cb.nodes) - 1)
	return index, &cb.nodes[index]
}

func (cb *boxCallback) SplitNode(index uint32, axis Axis, pos float32, refBox types.AABB) (left, right types.AABB, ok bool) {
	left, right = refBox, refBox
	left.Max[axis] = pos
	right.Min[axis] = pos
	return left.Intersect(cb.boxes[index]), right.Intersect(cb.boxes[index]), true
}

func (cb *boxCallback) FinishConstruction(root ChildRef, sceneBox types.AABB) {
	cb.finishes++
	cb.root, cb.sceneBox = root, sceneBox
}

func separatedBoxes() []types.AABB {
	return []types.AABB{
		types.NewAABB(types.Vec3{-2, 0, -2}, types.Vec3{-1, 1, -1}),
		types.NewAABB(types.Vec3{1, 0, -2}, types.Vec3{2, 1, -1}),
		types.NewAABB(types.Vec3{-2, 0, 1}, types.Vec3{-1, 1, 2}),
		types.NewAABB(types.Vec3{1, 0, 1}, types.Vec3{2, 1, 2}),
	}
}

func TestBuildOneItemPerLeaf(t *testing.T) {
	cb := &boxCallback{boxes: separatedBoxes()}
	opts := DefaultOptions()
	opts.MaxLeafSize = 1
	opts.SpatialSplits = false

	root := Build(cb, uint32(len(cb.boxes)), opts)

	if cb.starts != 1 || cb.finishes != 1 {
		t.Fatalf("expected start/finish to be called once; got %d/%d", cb.starts, cb.finishes)
	}
	if cb.nInner != 3 || cb.nLeaf != 4 {
		t.Fatalf("expected arena reservation (3, 4); got (%d, %d)", cb.nInner, cb.nLeaf)
	}

	expCount := 4
	if len(cb.leafs) != expCount {
		t.Fatalf("expected leaf callback to be called %d times; called %d", expCount, len(cb.leafs))
	}
	for i, leaf := range cb.leafs {
		if len(leaf) != 1 {
			t.Fatalf("[leaf %d] expected 1 item; got %d", i, len(leaf))
		}
	}
	expCount = 3
	if len(cb.nodes) != expCount {
		t.Fatalf("expected bvh tree to have %d inner nodes; got %d", expCount, len(cb.nodes))
	}

	if root != InnerRef(0) || cb.root != root {
		t.Fatalf("expected root to be inner node 0; got %d (callback saw %d)", root, cb.root)
	}
	expBox := types.NewAABB(types.Vec3{-2, 0, -2}, types.Vec3{2, 1, 2})
	if cb.sceneBox != expBox {
		t.Fatalf("expected scene box %v; got %v", expBox, cb.sceneBox)
	}

	// Root children must cover two boxes each.
	rootNode := cb.nodes[0]
	if rootNode.Left.IsLeaf() || rootNode.Right.IsLeaf() {
		t.Fatalf("expected both root children to be inner nodes; got %d, %d", rootNode.Left, rootNode.Right)
	}
	if rootNode.LeftBox().Intersect(rootNode.RightBox()).IsValid() {
		t.Fatalf("expected root child boxes to be disjoint; got %v and %v", rootNode.LeftBox(), rootNode.RightBox())
	}
}

func TestBuildTwoItemsPerLeaf(t *testing.T) {
	cb := &boxCallback{boxes: separatedBoxes()}
	opts := DefaultOptions()
	opts.MinLeafSize = 2
	opts.MaxLeafSize = 2
	opts.SpatialSplits = false

	Build(cb, uint32(len(cb.boxes)), opts)

	expCount := 2
	if len(cb.leafs) != expCount {
		t.Fatalf("expected leaf callback to be called %d times; called %d", expCount, len(cb.leafs))
	}
	for i, leaf := range cb.leafs {
		if len(leaf) != 2 {
			t.Fatalf("[leaf %d] expected 2 items; got %d", i, len(leaf))
		}
		if cb.parents[i] != 0 {
			t.Fatalf("[leaf %d] expected parent 0; got %d", i, cb.parents[i])
		}
	}
	expCount = 1
	if len(cb.nodes) != expCount {
		t.Fatalf("expected bvh tree to have %d inner nodes; got %d", expCount, len(cb.nodes))
	}
}

func TestBuildSingleLeafRoot(t *testing.T) {
	cb := &boxCallback{boxes: separatedBoxes()}
	opts := DefaultOptions()
	opts.MinLeafSize = 4
	opts.MaxLeafSize = 4

	root := Build(cb, uint32(len(cb.boxes)), opts)

	if !root.IsLeaf() || root.LeafOffset() != 0 {
		t.Fatalf("expected root to be a leaf at offset 0; got %d", root)
	}
	if len(cb.nodes) != 0 {
		t.Fatalf("expected no inner nodes; got %d", len(cb.nodes))
	}
	if len(cb.parents) != 1 || cb.parents[0] != NoParent {
		t.Fatalf("expected a single leaf with no parent; got parents %v", cb.parents)
	}
}

func TestBuildCoincidentItems(t *testing.T) {
	// Identical boxes cannot be separated by binning; the builder must still
	// honor the leaf size limit.
	boxes := make([]types.AABB, 20)
	for i := range boxes {
		boxes[i] = types.NewAABB(types.Vec3{0, 0, 0}, types.Vec3{1, 1, 1})
	}
	cb := &boxCallback{boxes: boxes}
	opts := DefaultOptions()
	opts.MaxLeafSize = 4
	opts.SpatialSplits = false

	Build(cb, uint32(len(boxes)), opts)

	seen := make(map[uint32]int)
	for i, leaf := range cb.leafs {
		if len(leaf) > opts.MaxLeafSize {
			t.Fatalf("[leaf %d] expected at most %d items; got %d", i, opts.MaxLeafSize, len(leaf))
		}
		for _, idx := range leaf {
			seen[idx]++
		}
	}
	for i := range boxes {
		if seen[uint32(i)] != 1 {
			t.Fatalf("expected item %d to be referenced once; got %d", i, seen[uint32(i)])
		}
	}
}

func TestBuildSpatialSplits(t *testing.T) {
	// Long overlapping slivers along X stacked along Y favor spatial splits.
	var boxes []types.AABB
	for i := 0; i < 32; i++ {
		y := float32(i) * 0.01
		boxes = append(boxes, types.NewAABB(types.Vec3{-10, y, 0}, types.Vec3{10, y + 0.01, 0.01}))
	}
	cb := &boxCallback{boxes: boxes}
	opts := DefaultOptions()
	opts.MaxLeafSize = 2
	opts.SpatialSplitBudget = 1

	Build(cb, uint32(len(boxes)), opts)

	total := 0
	seen := make(map[uint32]bool)
	for i, leaf := range cb.leafs {
		if len(leaf) > opts.MaxLeafSize {
			t.Fatalf("[leaf %d] expected at most %d items; got %d", i, opts.MaxLeafSize, len(leaf))
		}
		total += len(leaf)
		for _, idx := range leaf {
			seen[idx] = true
		}
	}
	if len(seen) != len(boxes) {
		t.Fatalf("expected all %d items to be referenced; got %d", len(boxes), len(seen))
	}
	if total > int(cb.nLeaf) {
		t.Fatalf("expected at most %d leaf records; got %d", cb.nLeaf, total)
	}
	if len(cb.nodes) > int(cb.nInner)+arenaSlack {
		t.Fatalf("expected at most %d inner nodes; got %d", cb.nInner+arenaSlack, len(cb.nodes))
	}
}

func TestSurfaceAreaHeuristic(t *testing.T) {
	unit := types.NewAABB(types.Vec3{0, 0, 0}, types.Vec3{1, 1, 1})
	node := types.NewAABB(types.Vec3{0, 0, 0}, types.Vec3{2, 1, 1})

	if got := SurfaceAreaHeuristic.ScorePartition(2, unit); got != 12 {
		t.Fatalf("expected leaf score 12; got %f", got)
	}
	// 1 * 10 + 1 * (1*6 + 1*6)
	if got := SurfaceAreaHeuristic.ScoreSplit(node, 1, unit, 1, unit); got != 22 {
		t.Fatalf("expected split score 22; got %f", got)
	}
	if got := SurfaceAreaHeuristic.ScoreSplit(node, 0, unit, 2, unit); got < 1e30 {
		t.Fatalf("expected empty partitions to get the worst score; got %f", got)
	}
}
