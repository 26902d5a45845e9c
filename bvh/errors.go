package bvh

import "errors"

var (
	ErrArenaExhausted = errors.New("bvh: node arena exhausted")
	ErrEmptyLeaf      = errors.New("bvh: leaf without objects")
	ErrNoTriangles    = errors.New("bvh: no triangles to build")
	ErrBadIndexBuffer = errors.New("bvh: index buffer length is not a multiple of 3")
	ErrIndexRange     = errors.New("bvh: index buffer references a missing vertex")
)
