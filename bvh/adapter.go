package bvh

import (
	"fmt"

	"github.com/achilleasa/accel/types"
)

// Extra inner nodes and leaf records reserved on top of the builder's
// estimate.
const arenaSlack = 2

// Result holds a built BVH.
type Result struct {
	// Inner nodes; Nodes[Root] is the root unless Root is a leaf.
	Nodes []InnerNode

	// Leaf records. Triangles[i] and Indices[i] describe the same leaf
	// primitive; each leaf is a contiguous run ending in a flagged index.
	Triangles []LeafTriangle
	Indices   []LeafIndex

	// Scene bounds and the root reference.
	Box  types.AABB
	Root ChildRef
}

// constructionAdapter exposes a triangle soup to a BVH builder and collects
// the emitted tree in pre-sized arenas.
type constructionAdapter struct {
	vertices []types.Vec3

	// Optional; when empty triangle i uses vertices 3i, 3i+1 and 3i+2.
	indices []uint32

	vertexCount   uint32
	triangleCount uint32

	nodes     []InnerNode
	triangles []LeafTriangle
	leafIdx   []LeafIndex

	// Number of used inner nodes and leaf records.
	nextNode uint32
	nextLeaf uint32

	box  types.AABB
	root ChildRef
}

func newConstructionAdapter(vertices []types.Vec3, indices []uint32, vertexCount, triangleCount uint32) *constructionAdapter {
	return &constructionAdapter{
		vertices:      vertices,
		indices:       indices,
		vertexCount:   vertexCount,
		triangleCount: triangleCount,
		box:           types.EmptyAABB(),
	}
}

func (a *constructionAdapter) vertexIndex(tri, corner uint32) uint32 {
	if len(a.indices) != 0 {
		return a.indices[tri*3+corner]
	}
	return tri*3 + corner
}

func (a *constructionAdapter) triangle(tri uint32) [3]types.Vec3 {
	return [3]types.Vec3{
		a.vertices[a.vertexIndex(tri, 0)],
		a.vertices[a.vertexIndex(tri, 1)],
		a.vertices[a.vertexIndex(tri, 2)],
	}
}

func (a *constructionAdapter) StartConstruction(nInner, nLeaf uint32) {
	a.nodes = make([]InnerNode, nInner+arenaSlack)
	a.triangles = make([]LeafTriangle, nLeaf+arenaSlack)
	a.leafIdx = make([]LeafIndex, nLeaf+arenaSlack)
}

func (a *constructionAdapter) IterateObjects(visit func(index uint32, box types.AABB)) {
	for tri := uint32(0); tri < a.triangleCount; tri++ {
		v := a.triangle(tri)
		visit(tri, types.AABBFromPoints(v[0], v[1], v[2]))
	}
}

func (a *constructionAdapter) CreateLeafNode(parent uint32, objIndices []uint32) uint32 {
	if len(objIndices) == 0 {
		panic(ErrEmptyLeaf)
	}
	if uint64(a.nextLeaf)+uint64(len(objIndices)) > uint64(len(a.leafIdx)) {
		panic(ErrArenaExhausted)
	}
	first := a.nextLeaf
	a.nextLeaf += uint32(len(objIndices))
	for i, objIndex := range objIndices {
		v := a.triangle(objIndex)
		a.triangles[first+uint32(i)] = LeafTriangle{V0: v[0], V1: v[1], V2: v[2]}
		a.leafIdx[first+uint32(i)] = NewLeafIndex(objIndex, i == len(objIndices)-1)
	}
	return first
}

func (a *constructionAdapter) CreateInnerNode() (uint32, *InnerNode) {
	if a.nextNode >= uint32(len(a.nodes)) {
		panic(ErrArenaExhausted)
	}
	index := a.nextNode
	a.nextNode++
	return index, &a.nodes[index]
}

func (a *constructionAdapter) SplitNode(index uint32, axis Axis, pos float32, refBox types.AABB) (left, right types.AABB, ok bool) {
	left, right = splitTriangle(a.triangle(index), axis, pos, refBox)
	return left, right, true
}

func (a *constructionAdapter) FinishConstruction(root ChildRef, sceneBox types.AABB) {
	a.root = root
	a.box = sceneBox
}

func (a *constructionAdapter) result() *Result {
	return &Result{
		Nodes:     a.nodes[:a.nextNode],
		Triangles: a.triangles[:a.nextLeaf],
		Indices:   a.leafIdx[:a.nextLeaf],
		Box:       a.box,
		Root:      a.root,
	}
}

// Build a BVH over a triangle soup. If indices is empty, vertices are read as
// a flat triangle list. Arena exhaustion aborts the build and is reported as
// ErrArenaExhausted; no partial tree is returned.
func Construct(vertices []types.Vec3, indices []uint32, opts Options) (res *Result, err error) {
	vertexCount := uint32(len(vertices))
	var triangleCount uint32
	if len(indices) != 0 {
		if len(indices)%3 != 0 {
			return nil, ErrBadIndexBuffer
		}
		for _, idx := range indices {
			if idx >= vertexCount {
				return nil, fmt.Errorf("%w: index %d, vertex count %d", ErrIndexRange, idx, vertexCount)
			}
		}
		triangleCount = uint32(len(indices) / 3)
	} else {
		triangleCount = vertexCount / 3
	}

	if triangleCount == 0 {
		return nil, ErrNoTriangles
	}

	adapter := newConstructionAdapter(vertices, indices, vertexCount, triangleCount)

	defer func() {
		if r := recover(); r != nil {
			if r == ErrArenaExhausted || r == ErrEmptyLeaf {
				res, err = nil, r.(error)
				return
			}
			panic(r)
		}
	}()

	Build(adapter, triangleCount, opts)
	return adapter.result(), nil
}
