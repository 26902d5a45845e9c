package bvh

import "github.com/achilleasa/accel/types"

// Passed as the parent of a leaf that is also the tree root.
const NoParent = ^uint32(0)

// BuilderCallback is the contract between a BVH builder and the storage the
// tree is written to. A builder invokes it from a single goroutine in this
// order: StartConstruction once; any mix of IterateObjects, CreateInnerNode,
// CreateLeafNode and SplitNode while partitioning; FinishConstruction once.
type BuilderCallback interface {
	// Reserve room for nInner inner nodes and nLeaf leaf records.
	StartConstruction(nInner, nLeaf uint32)

	// Visit every object once, in input order, with its bounding box.
	IterateObjects(visit func(index uint32, box types.AABB))

	// Append a leaf holding objIndices and return the offset of its first
	// record. objIndices must not be empty; implementations panic with
	// ErrArenaExhausted when the leaf arena cannot hold the records.
	CreateLeafNode(parent uint32, objIndices []uint32) uint32

	// Allocate the next inner node. Implementations panic with
	// ErrArenaExhausted when the reserved capacity is exceeded.
	CreateInnerNode() (uint32, *InnerNode)

	// Clip object index against the plane pos on axis and return the bounds
	// of the parts on either side, restricted to refBox.
	SplitNode(index uint32, axis Axis, pos float32, refBox types.AABB) (left, right types.AABB, ok bool)

	// Record the tree root and the overall scene bounds.
	FinishConstruction(root ChildRef, sceneBox types.AABB)
}
