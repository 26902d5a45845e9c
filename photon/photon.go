package photon

import (
	"github.com/achilleasa/accel/types"
	"github.com/chewxy/math32"
)

// A Photon is a light sample deposited on a surface.
type Photon struct {
	Position  types.Vec3
	Power     types.Vec3
	Direction types.Vec3
}

// A Source emits photons by index. Emit may be called concurrently and must
// be deterministic for a given index.
type Source interface {
	Emit(index int) Photon
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(index int) Photon

// Emit calls f(index).
func (f SourceFunc) Emit(index int) Photon {
	return f(index)
}

// Emit photons at uniformly distributed positions inside box. Each photon
// carries power and a random direction.
func UniformSource(box types.AABB, power types.Vec3, seed uint64) Source {
	size := box.Size()
	return SourceFunc(func(index int) Photon {
		rng := newSampler(seed, uint64(index))
		return Photon{
			Position:  box.Min.Add(types.Vec3{rng.float() * size[0], rng.float() * size[1], rng.float() * size[2]}),
			Power:     power,
			Direction: rng.direction(),
		}
	})
}

// Emit photons at uniformly distributed points on the surface of a triangle
// list. Triangles are selected uniformly. An empty index buffer selects the
// flat layout where triangle i uses vertices 3i, 3i+1 and 3i+2. A soup
// without triangles emits zero-power photons at the origin.
func SurfaceSource(vertices []types.Vec3, indices []uint32, power types.Vec3, seed uint64) Source {
	vertexIndex := func(tri, corner uint64) uint32 {
		return indices[3*tri+corner]
	}
	triCount := uint64(len(indices) / 3)
	if len(indices) == 0 {
		vertexIndex = func(tri, corner uint64) uint32 {
			return uint32(3*tri + corner)
		}
		triCount = uint64(len(vertices) / 3)
	}

	if triCount == 0 {
		return SourceFunc(func(index int) Photon {
			return Photon{Direction: newSampler(seed, uint64(index)).direction()}
		})
	}

	return SourceFunc(func(index int) Photon {
		rng := newSampler(seed, uint64(index))
		tri := rng.next() % triCount
		v0 := vertices[vertexIndex(tri, 0)]
		v1 := vertices[vertexIndex(tri, 1)]
		v2 := vertices[vertexIndex(tri, 2)]

		// Uniform barycentric sampling
		su, r := math32.Sqrt(rng.float()), rng.float()
		pos := v0.Add(v1.Sub(v0).Mul(su * (1 - r))).Add(v2.Sub(v0).Mul(su * r))
		return Photon{
			Position:  pos,
			Power:     power,
			Direction: rng.direction(),
		}
	})
}

// A stateless splitmix64 generator seeded by (seed, index) so sources can
// emit photons from any goroutine in any order.
type sampler struct {
	state uint64
}

func newSampler(seed, index uint64) *sampler {
	return &sampler{state: seed ^ (index * 0x9E3779B97F4A7C15)}
}

func (s *sampler) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Uniform float in [0, 1).
func (s *sampler) float() float32 {
	return float32(s.next()>>40) / (1 << 24)
}

// Uniform direction on the unit sphere.
func (s *sampler) direction() types.Vec3 {
	z := 1 - 2*s.float()
	r := math32.Sqrt(math32.Max(0, 1-z*z))
	phi := 2 * math32.Pi * s.float()
	return types.Vec3{r * math32.Cos(phi), r * math32.Sin(phi), z}
}
