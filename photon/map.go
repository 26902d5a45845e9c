package photon

import (
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/achilleasa/accel/config"
	"github.com/achilleasa/accel/log"
	"github.com/achilleasa/accel/spatial"
	"github.com/achilleasa/accel/types"
	"github.com/chewxy/math32"
)

// Number of photons stored by each scatter task.
const scatterBatchSize = 4096

// An Estimate is the result of a radius gather.
type Estimate struct {
	// Number of photons inside the gather radius.
	Count int

	// Sum of photon power.
	Power types.Vec3

	// Power density, i.e. Power / (pi * r^2).
	Radiance types.Vec3
}

// Map stores photons in a spatial linked map. A pass consists of BeginPass,
// one or more Scatter calls and then any number of Gather calls.
type Map struct {
	logger log.Logger

	photons *spatial.LinkedMap[Photon]

	// Per-cell gather results for the current pass.
	cache *spatial.Set[Estimate]

	pool    worker.DynamicWorkerPool
	workers int
	radius  float32
	nextID  atomic.Int64
}

// Allocate a photon map.
func NewMap(opts config.PhotonMap) *Map {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	return &Map{
		logger:  log.New("photon map"),
		photons: spatial.NewLinkedMap[Photon](opts.GridSize, opts.Capacity),
		cache:   spatial.NewSet[Estimate](opts.GridSize),
		pool:    worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
		workers: workers,
		radius:  opts.Radius,
	}
}

// Bind the map to a scene and clear it. A non-positive radius keeps the
// radius the map was created with.
func (m *Map) BeginPass(box types.AABB, radius float32) {
	if radius > 0 {
		m.radius = radius
	}
	m.photons.SetSceneDimensions(box, m.radius)
	m.photons.ResetBuffer()
	m.cache.SetSceneDimensions(box, m.radius)
	m.cache.ResetBuffer()
}

// Store a single photon. Returns false if the map is full.
func (m *Map) Store(p Photon) bool {
	return m.photons.Store(p.Position, p)
}

// Emit count photons from source and store them using the worker pool.
// Scatter returns once every task has finished and reports the number of
// stored photons. Each task stops at the first photon that does not fit.
func (m *Map) Scatter(source Source, count int) int {
	start := time.Now()

	var (
		wg     sync.WaitGroup
		stored atomic.Int64
	)
	for first := 0; first < count; first += scatterBatchSize {
		last := min(first+scatterBatchSize, count)

		wg.Add(1)
		m.pool.SubmitTask(worker.Task{
			ID: int(m.nextID.Add(1)),
			Do: func() (any, error) {
				defer wg.Done()

				n := 0
				for i := first; i < last; i++ {
					p := source.Emit(i)
					if !m.photons.Store(p.Position, p) {
						break
					}
					n++
				}
				stored.Add(int64(n))
				return n, nil
			},
		})
	}
	wg.Wait()

	total := int(stored.Load())
	if total < count {
		m.logger.Warningf("photon map full; stored %d of %d photons", total, count)
	}
	m.logger.Debugf("scattered %d photons in %d ms", total, time.Since(start).Nanoseconds()/1e6)
	return total
}

// Collect the photons within radius of p. A non-positive radius uses the
// pass radius.
func (m *Map) Gather(p types.Vec3, radius float32) Estimate {
	if radius <= 0 {
		radius = m.radius
	}
	r := types.Splat(radius)
	radiusSq := radius * radius

	var est Estimate
	m.photons.ForEachInBox(p.Sub(r), p.Add(r), func(_ uint32, ph *Photon) {
		if ph.Position.Sub(p).LenSq() > radiusSq {
			return
		}
		est.Count++
		est.Power = est.Power.Add(ph.Power)
	})

	if radiusSq > 0 {
		est.Radiance = est.Power.Mul(1 / (math32.Pi * radiusSq))
	}
	return est
}

// Gather at the center of the cell containing p using the pass radius. The
// estimate is computed once per cell and pass.
func (m *Map) GatherCached(p types.Vec3) Estimate {
	if est, ok := m.cache.Load(p); ok {
		return est
	}

	grid := m.photons.Grid()
	est := m.Gather(grid.CellBox(grid.Transform(p)).Center(), m.radius)
	m.cache.Store(p, est)
	return est
}

// Number of stored photons.
func (m *Map) Len() int {
	return int(m.photons.Len())
}

// Photon capacity.
func (m *Map) Capacity() int {
	return int(m.photons.Capacity())
}

// True if no more photons can be stored in this pass.
func (m *Map) IsFull() bool {
	return m.photons.IsFull()
}

// Current gather radius.
func (m *Map) Radius() float32 {
	return m.radius
}

// Copy the map arenas for device upload.
func (m *Map) Snapshot() spatial.Snapshot[Photon] {
	return m.photons.Snapshot()
}

// Host memory used by the map arenas in bytes.
func (m *Map) Footprint() uint64 {
	return Footprint(m.photons.GridSize(), m.photons.Capacity())
}

// Release map storage.
func (m *Map) Release() {
	m.photons.Release()
	m.cache.Release()
}

// Host memory needed by a map with the given dimensions in bytes.
func Footprint(gridSize, capacity uint32) uint64 {
	cells := uint64(gridSize) * uint64(gridSize) * uint64(gridSize)
	entry := uint64(unsafe.Sizeof(Photon{})) + 4
	cacheCell := uint64(unsafe.Sizeof(uintptr(0)))
	return cells*(4+cacheCell) + uint64(capacity)*entry
}
