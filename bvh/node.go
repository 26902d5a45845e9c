package bvh

import "github.com/achilleasa/accel/types"

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

func (a Axis) String() string {
	switch a {
	case XAxis:
		return "x"
	case YAxis:
		return "y"
	case ZAxis:
		return "z"
	}
	return "?"
}

// A ChildRef points either to an inner node or to the first record of a
// leaf. Inner nodes are referenced by their (non-negative) index; leaves by
// the bitwise complement of their record offset, which is always negative.
type ChildRef int32

// Reference an inner node.
func InnerRef(index uint32) ChildRef {
	return ChildRef(index)
}

// Reference a leaf starting at the given record offset.
func LeafRef(offset uint32) ChildRef {
	return ChildRef(^int32(offset))
}

// True if the reference points to a leaf.
func (r ChildRef) IsLeaf() bool {
	return r < 0
}

// Index of the referenced inner node.
func (r ChildRef) NodeIndex() uint32 {
	return uint32(r)
}

// Offset of the first record of the referenced leaf.
func (r ChildRef) LeafOffset() uint32 {
	return uint32(^int32(r))
}

// InnerNode stores the boxes and references of both children. Each node
// takes 64 bytes; the padding keeps every box corner 16-byte aligned on the
// device.
type InnerNode struct {
	LeftMin types.Vec3
	Left    ChildRef

	LeftMax types.Vec3
	Right   ChildRef

	RightMin types.Vec3
	_        uint32

	RightMax types.Vec3
	_        uint32
}

// Set left child box and reference.
func (n *InnerNode) SetLeft(box types.AABB, ref ChildRef) {
	n.LeftMin, n.LeftMax, n.Left = box.Min, box.Max, ref
}

// Set right child box and reference.
func (n *InnerNode) SetRight(box types.AABB, ref ChildRef) {
	n.RightMin, n.RightMax, n.Right = box.Min, box.Max, ref
}

// Get left child box.
func (n *InnerNode) LeftBox() types.AABB {
	return types.NewAABB(n.LeftMin, n.LeftMax)
}

// Get right child box.
func (n *InnerNode) RightBox() types.AABB {
	return types.NewAABB(n.RightMin, n.RightMax)
}

// LeafTriangle holds a copy of a leaf triangle's vertices so that the built
// tree does not depend on the lifetime of the input buffers.
type LeafTriangle struct {
	V0, V1, V2 types.Vec3
}

// Get triangle bounds.
func (t LeafTriangle) Box() types.AABB {
	return types.AABBFromPoints(t.V0, t.V1, t.V2)
}

const leafLastFlag uint32 = 1 << 31

// LeafIndex maps a leaf record back to the input triangle. The top bit marks
// the final record of a leaf so leaves need no explicit length.
type LeafIndex uint32

// Create a leaf index record.
func NewLeafIndex(objIndex uint32, last bool) LeafIndex {
	rec := LeafIndex(objIndex &^ leafLastFlag)
	if last {
		rec |= LeafIndex(leafLastFlag)
	}
	return rec
}

// Index of the input triangle.
func (l LeafIndex) Index() uint32 {
	return uint32(l) &^ leafLastFlag
}

// True if this is the last record of its leaf.
func (l LeafIndex) IsLast() bool {
	return uint32(l)&leafLastFlag != 0
}
