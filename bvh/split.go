package bvh

import "github.com/achilleasa/accel/types"

// Split a triangle with the plane pos on axis and return the bounds of the
// parts on either side of the plane.
//
// Vertices on the plane belong to both sides. Edges crossing the plane
// contribute their intersection point to both boxes. The boxes are then
// clamped to the plane and intersected with refBox, which absorbs any
// floating point overshoot of the interpolated points.
func splitTriangle(tri [3]types.Vec3, axis Axis, pos float32, refBox types.AABB) (left, right types.AABB) {
	left, right = types.EmptyAABB(), types.EmptyAABB()

	v1 := tri[2]
	for i := 0; i < 3; i++ {
		v0 := v1
		v1 = tri[i]
		v0p, v1p := v0[axis], v1[axis]

		if v0p <= pos {
			left = left.Extend(v0)
		}
		if v0p >= pos {
			right = right.Extend(v0)
		}

		if (v0p < pos && v1p > pos) || (v0p > pos && v1p < pos) {
			t := types.Lerp(v0, v1, types.Clamp01((pos-v0p)/(v1p-v0p)))
			left = left.Extend(t)
			right = right.Extend(t)
		}
	}

	left.Max[axis] = pos
	right.Min[axis] = pos
	return left.Intersect(refBox), right.Intersect(refBox)
}
