package types

import "github.com/chewxy/math32"

// An axis-aligned bounding box. The zero value is a degenerate box at the
// origin; use EmptyAABB to obtain the identity element for Extend/Enlarge.
type AABB struct {
	Min Vec3
	Max Vec3
}

// Return the inverted-infinite box. Merging any point or box into it yields
// that point or box.
func EmptyAABB() AABB {
	return AABB{
		Min: Splat(math32.MaxFloat32),
		Max: Splat(-math32.MaxFloat32),
	}
}

// Build a box from a min and a max corner.
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// Build the tightest box enclosing a set of points.
func AABBFromPoints(points ...Vec3) AABB {
	box := EmptyAABB()
	for _, p := range points {
		box = box.Extend(p)
	}
	return box
}

// Return a copy of the box grown to include p.
func (b AABB) Extend(p Vec3) AABB {
	return AABB{Min: MinVec3(b.Min, p), Max: MaxVec3(b.Max, p)}
}

// Return the union of two boxes.
func (b AABB) Enlarge(o AABB) AABB {
	return AABB{Min: MinVec3(b.Min, o.Min), Max: MaxVec3(b.Max, o.Max)}
}

// Return the intersection of two boxes. If the boxes do not overlap the
// result is empty (min > max on at least one axis).
func (b AABB) Intersect(o AABB) AABB {
	return AABB{Min: MaxVec3(b.Min, o.Min), Max: MinVec3(b.Max, o.Max)}
}

// True if min <= max on every axis.
func (b AABB) IsValid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// Box extents. Empty boxes report negative sizes.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Box center.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Surface area of the box; 0 for empty boxes.
func (b AABB) Area() float32 {
	if !b.IsValid() {
		return 0
	}
	side := b.Size()
	return 2 * (side[0]*side[1] + side[1]*side[2] + side[0]*side[2])
}

// True if p lies inside the box (boundary inclusive).
func (b AABB) Contains(p Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// True if o lies entirely inside the box.
func (b AABB) ContainsBox(o AABB) bool {
	return b.Contains(o.Min) && b.Contains(o.Max)
}
