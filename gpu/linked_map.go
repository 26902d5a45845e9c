package gpu

import (
	"github.com/achilleasa/accel/device"
	"github.com/achilleasa/accel/log"
	"github.com/achilleasa/accel/spatial"
	"github.com/achilleasa/accel/types"
)

// GridParams describe a hash grid binding to gather kernels. The layout
// matches a kernel-side struct of float4/uint4 members.
type GridParams struct {
	Min      types.Vec3
	GridSize uint32

	InvCellSize types.Vec3
	Count       uint32

	Resolution spatial.Cell
	_          uint32
}

// LinkedMapBuffers mirror a spatial.LinkedMap snapshot on a device: one head
// per cell plus parallel next/value arrays terminated by spatial.InvalidIndex.
type LinkedMapBuffers[T any] struct {
	logger log.Logger

	Heads  *device.Buffer
	Next   *device.Buffer
	Values *device.Buffer

	Params GridParams
}

// Create linked map buffers for a device.
func NewLinkedMapBuffers[T any](dev *device.Device) *LinkedMapBuffers[T] {
	return &LinkedMapBuffers[T]{
		logger: log.New("gpu"),
		Heads:  dev.Buffer("mapHeads"),
		Next:   dev.Buffer("mapNext"),
		Values: dev.Buffer("mapValues"),
	}
}

// Copy a map snapshot to the device, replacing any previous upload.
func (b *LinkedMapBuffers[T]) Upload(snap spatial.Snapshot[T]) error {
	b.Release()

	if err := upload(b.Heads, snap.Heads, len(snap.Heads)); err != nil {
		return err
	}
	if err := upload(b.Next, snap.Next, len(snap.Next)); err != nil {
		b.Release()
		return err
	}
	if err := upload(b.Values, snap.Values, len(snap.Values)); err != nil {
		b.Release()
		return err
	}

	b.Params = NewGridParams(snap.Grid, uint32(len(snap.Values)))
	b.logger.Infof("uploaded linked map: %d cells, %d entries", len(snap.Heads), len(snap.Values))
	return nil
}

// Total device memory used by the buffers.
func (b *LinkedMapBuffers[T]) Size() int {
	return b.Heads.Size() + b.Next.Size() + b.Values.Size()
}

// Release device memory.
func (b *LinkedMapBuffers[T]) Release() {
	b.Heads.Release()
	b.Next.Release()
	b.Values.Release()
}

// Build kernel parameters for a grid binding holding count entries.
func NewGridParams(grid spatial.HashGrid, count uint32) GridParams {
	return GridParams{
		Min:         grid.Box().Min,
		GridSize:    grid.GridSize(),
		InvCellSize: grid.InvCellSize(),
		Count:       count,
		Resolution:  grid.Resolution(),
	}
}
