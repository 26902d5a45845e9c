package gpu

import (
	"fmt"

	"github.com/achilleasa/accel/bvh"
	"github.com/achilleasa/accel/device"
	"github.com/achilleasa/accel/log"
	"github.com/achilleasa/gopencl/v1.2/cl"
)

// BVHBuffers mirror a built BVH on a device. Empty sections (e.g. the inner
// nodes of a single-leaf tree) are not allocated.
type BVHBuffers struct {
	logger log.Logger

	Nodes     *device.Buffer
	Triangles *device.Buffer
	Indices   *device.Buffer

	// Root reference passed to traversal kernels.
	Root bvh.ChildRef
}

// Create BVH buffers for a device.
func NewBVHBuffers(dev *device.Device) *BVHBuffers {
	return &BVHBuffers{
		logger:    log.New("gpu"),
		Nodes:     dev.Buffer("bvhNodes"),
		Triangles: dev.Buffer("bvhLeafTriangles"),
		Indices:   dev.Buffer("bvhLeafIndices"),
	}
}

// Copy res to the device, replacing any previous upload.
func (b *BVHBuffers) Upload(res *bvh.Result) error {
	b.Release()

	if err := upload(b.Nodes, res.Nodes, len(res.Nodes)); err != nil {
		return err
	}
	if err := upload(b.Triangles, res.Triangles, len(res.Triangles)); err != nil {
		b.Release()
		return err
	}
	if err := upload(b.Indices, res.Indices, len(res.Indices)); err != nil {
		b.Release()
		return err
	}

	b.Root = res.Root
	b.logger.Infof("uploaded bvh: %d bytes of nodes, %d bytes of leaf triangles, %d bytes of leaf indices", b.Nodes.Size(), b.Triangles.Size(), b.Indices.Size())
	return nil
}

// Total device memory used by the buffers.
func (b *BVHBuffers) Size() int {
	return b.Nodes.Size() + b.Triangles.Size() + b.Indices.Size()
}

// Release device memory.
func (b *BVHBuffers) Release() {
	b.Nodes.Release()
	b.Triangles.Release()
	b.Indices.Release()
}

func upload(buf *device.Buffer, data interface{}, count int) error {
	if count == 0 {
		return nil
	}
	if err := buf.AllocateAndWriteData(data, cl.MEM_READ_ONLY); err != nil {
		return fmt.Errorf("gpu: uploading %s: %w", buf.Name(), err)
	}
	return nil
}
