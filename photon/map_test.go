package photon

import (
	"errors"
	"sync"
	"testing"

	"github.com/achilleasa/accel/config"
	"github.com/achilleasa/accel/types"
	"github.com/chewxy/math32"
)

func testOptions(capacity uint32) config.PhotonMap {
	return config.PhotonMap{
		GridSize: 16,
		Capacity: capacity,
		Radius:   0.25,
		Workers:  4,
	}
}

func TestScatterStoresEveryPhoton(t *testing.T) {
	m := NewMap(testOptions(50000))
	defer m.Release()

	box := types.NewAABB(types.Vec3{-1, -1, -1}, types.Vec3{1, 1, 1})
	m.BeginPass(box, 0)

	src := UniformSource(box, types.Splat(1), 7)
	stored := m.Scatter(src, 20000)
	if stored != 20000 || m.Len() != 20000 {
		t.Fatalf("expected 20000 stored photons; got %d (len %d)", stored, m.Len())
	}

	// Every photon must be reachable through a full-domain query.
	seen := 0
	m.photons.ForEachInBox(box.Min, box.Max, func(_ uint32, ph *Photon) {
		if !box.Contains(ph.Position) {
			t.Fatalf("photon %v escapes the scene box", ph.Position)
		}
		seen++
	})
	if seen != stored {
		t.Fatalf("expected to visit %d photons; visited %d", stored, seen)
	}
}

func TestScatterStopsWhenFull(t *testing.T) {
	m := NewMap(testOptions(10000))
	defer m.Release()

	box := types.NewAABB(types.Vec3{0, 0, 0}, types.Vec3{1, 1, 1})
	m.BeginPass(box, 0)

	stored := m.Scatter(UniformSource(box, types.Splat(1), 1), 25000)
	if stored != 10000 {
		t.Fatalf("expected 10000 stored photons; got %d", stored)
	}
	if !m.IsFull() {
		t.Fatal("expected map to be full")
	}
	if m.Store(Photon{}) {
		t.Fatal("expected store on a full map to fail")
	}

	// A new pass starts empty.
	m.BeginPass(box, 0)
	if m.Len() != 0 || m.IsFull() {
		t.Fatalf("expected an empty map after BeginPass; got %d photons", m.Len())
	}
}

func TestGatherUniformField(t *testing.T) {
	m := NewMap(testOptions(1000))
	defer m.Release()

	box := types.NewAABB(types.Vec3{0, 0, 0}, types.Vec3{4, 4, 4})
	m.BeginPass(box, 0.5)

	// A photon at every integer lattice point of [0, 4]^3.
	var lattice []types.Vec3
	for x := 0; x <= 4; x++ {
		for y := 0; y <= 4; y++ {
			for z := 0; z <= 4; z++ {
				lattice = append(lattice, types.Vec3{float32(x), float32(y), float32(z)})
			}
		}
	}
	src := SourceFunc(func(i int) Photon {
		return Photon{Position: lattice[i], Power: types.Vec3{1, 2, 3}}
	})
	if stored := m.Scatter(src, len(lattice)); stored != len(lattice) {
		t.Fatalf("expected %d stored photons; got %d", len(lattice), stored)
	}

	specs := []struct {
		p        types.Vec3
		radius   float32
		expCount int
	}{
		// Only the lattice point itself.
		{types.Vec3{2, 2, 2}, 0.5, 1},
		// The point and its 6 axis neighbors.
		{types.Vec3{2, 2, 2}, 1.1, 7},
		// Corner: the point and 3 neighbors.
		{types.Vec3{0, 0, 0}, 1.1, 4},
		// Between lattice points.
		{types.Vec3{2.5, 2.5, 2.5}, 0.5, 0},
	}

	for i, spec := range specs {
		est := m.Gather(spec.p, spec.radius)
		if est.Count != spec.expCount {
			t.Fatalf("[spec %d] expected %d photons; got %d", i, spec.expCount, est.Count)
		}

		expPower := types.Vec3{1, 2, 3}.Mul(float32(spec.expCount))
		if est.Power != expPower {
			t.Fatalf("[spec %d] expected power %v; got %v", i, expPower, est.Power)
		}
		expRadiance := expPower[1] / (math32.Pi * spec.radius * spec.radius)
		if math32.Abs(est.Radiance[1]-expRadiance) > 1e-4 {
			t.Fatalf("[spec %d] expected radiance %f; got %f", i, expRadiance, est.Radiance[1])
		}
	}
}

func TestGatherCached(t *testing.T) {
	m := NewMap(testOptions(100))
	defer m.Release()

	box := types.NewAABB(types.Vec3{0, 0, 0}, types.Vec3{1, 1, 1})
	m.BeginPass(box, 0.5)
	m.Store(Photon{Position: types.Vec3{0.5, 0.5, 0.5}, Power: types.Splat(1)})

	first := m.GatherCached(types.Vec3{0.5, 0.5, 0.5})
	m.Store(Photon{Position: types.Vec3{0.5, 0.5, 0.5}, Power: types.Splat(1)})
	second := m.GatherCached(types.Vec3{0.5, 0.5, 0.5})
	if first != second {
		t.Fatalf("expected cached estimate %+v; got %+v", first, second)
	}

	m.BeginPass(box, 0)
	m.Store(Photon{Position: types.Vec3{0.5, 0.5, 0.5}, Power: types.Splat(1)})
	if est := m.GatherCached(types.Vec3{0.5, 0.5, 0.5}); est.Count != 1 {
		t.Fatalf("expected the cache to be cleared by BeginPass; got %+v", est)
	}
}

func TestSurfaceSource(t *testing.T) {
	vertices := []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {5, 5, 5}, {6, 5, 5}, {5, 5, 6}}
	indices := []uint32{0, 1, 2, 3, 4, 5}
	src := SurfaceSource(vertices, indices, types.Splat(1), 3)

	boxes := []types.AABB{
		types.AABBFromPoints(vertices[0:3]...),
		types.AABBFromPoints(vertices[3:6]...),
	}
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w * 250; i < (w+1)*250; i++ {
				p := src.Emit(i)
				if !boxes[0].Contains(p.Position) && !boxes[1].Contains(p.Position) {
					t.Errorf("photon %d at %v is not on any triangle", i, p.Position)
					return
				}
				if l := p.Direction.Len(); math32.Abs(l-1) > 1e-3 {
					t.Errorf("photon %d direction is not normalized (len %f)", i, l)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if src.Emit(42) != src.Emit(42) {
		t.Fatal("expected sources to be deterministic")
	}
}

func TestSurfaceSourceFlatLayout(t *testing.T) {
	vertices := []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {5, 5, 5}, {6, 5, 5}, {5, 5, 6}}
	src := SurfaceSource(vertices, nil, types.Splat(1), 7)

	boxes := []types.AABB{
		types.AABBFromPoints(vertices[0:3]...),
		types.AABBFromPoints(vertices[3:6]...),
	}
	hits := [2]int{}
	for i := 0; i < 200; i++ {
		p := src.Emit(i)
		switch {
		case boxes[0].Contains(p.Position):
			hits[0]++
		case boxes[1].Contains(p.Position):
			hits[1]++
		default:
			t.Fatalf("photon %d at %v is not on any triangle", i, p.Position)
		}
	}
	if hits[0] == 0 || hits[1] == 0 {
		t.Fatalf("expected photons on both flat triangles; got %v", hits)
	}

	// A soup without triangles must not panic.
	empty := SurfaceSource(vertices[:2], nil, types.Splat(1), 7)
	if p := empty.Emit(0); p.Power != (types.Vec3{}) {
		t.Fatalf("expected zero-power photon from empty soup; got %v", p.Power)
	}
}

func TestFootprint(t *testing.T) {
	small := Footprint(8, 100)
	large := Footprint(8, 200)
	if large <= small {
		t.Fatalf("expected footprint to grow with capacity; got %d and %d", small, large)
	}

	err := CheckHostMemory(1024, ^uint32(0))
	if err != nil && !errors.Is(err, ErrInsufficientMemory) {
		t.Logf("host memory query unavailable: %v", err)
	}
}

func BenchmarkGather(b *testing.B) {
	m := NewMap(testOptions(100000))
	defer m.Release()

	box := types.NewAABB(types.Vec3{0, 0, 0}, types.Vec3{1, 1, 1})
	m.BeginPass(box, 0.05)
	m.Scatter(UniformSource(box, types.Splat(1), 9), 100000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Gather(types.Vec3{0.5, 0.5, 0.5}, 0.05)
	}
}
