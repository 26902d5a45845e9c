package gpu

import (
	"encoding/binary"
	"testing"

	"github.com/achilleasa/accel/bvh"
	"github.com/achilleasa/accel/device"
	"github.com/achilleasa/accel/spatial"
	"github.com/achilleasa/accel/types"
)

func testDevice(t *testing.T) *device.Device {
	t.Helper()

	devList, err := device.SelectDevices(device.AllDevices, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(devList) == 0 {
		t.Skip("no opencl devices available")
	}

	dev := devList[0]
	if err = dev.Init(); err != nil {
		t.Fatalf("error initializing device '%s': %v", dev.Name, err)
	}
	return dev
}

func TestGridParams(t *testing.T) {
	box := types.NewAABB(types.Vec3{-1, 0, 0}, types.Vec3{1, 4, 1})
	grid := spatial.NewHashGrid(box, 0.5, 8)

	params := NewGridParams(grid, 42)
	if params.Min != box.Min || params.GridSize != 8 || params.Count != 42 {
		t.Fatalf("unexpected params %+v", params)
	}
	expRes := spatial.Cell{4, 8, 2}
	if params.Resolution != expRes {
		t.Fatalf("expected resolution %v; got %v", expRes, params.Resolution)
	}
	expInv := types.Vec3{2, 2, 2}
	if params.InvCellSize != expInv {
		t.Fatalf("expected inverse cell size %v; got %v", expInv, params.InvCellSize)
	}

	if size := binary.Size(params); size != 48 {
		t.Fatalf("expected 48 byte params; got %d", size)
	}
}

func TestBVHUpload(t *testing.T) {
	dev := testDevice(t)
	defer dev.Close()

	vertices := []types.Vec3{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
		{5, 0, 0}, {6, 0, 0}, {5, 1, 0},
		{0, 5, 0}, {1, 5, 0}, {0, 6, 0},
	}
	opts := bvh.DefaultOptions()
	opts.MaxLeafSize = 1
	res, err := bvh.Construct(vertices, nil, opts)
	if err != nil {
		t.Fatal(err)
	}

	buffers := NewBVHBuffers(dev)
	defer buffers.Release()
	if err = buffers.Upload(res); err != nil {
		t.Fatal(err)
	}

	expSize := 64*len(res.Nodes) + 36*len(res.Triangles) + 4*len(res.Indices)
	if buffers.Size() != expSize {
		t.Fatalf("expected %d bytes on device; got %d", expSize, buffers.Size())
	}

	nodes := make([]bvh.InnerNode, len(res.Nodes))
	if err = buffers.Nodes.ReadData(0, 0, 0, nodes); err != nil {
		t.Fatal(err)
	}
	for i := range nodes {
		if nodes[i] != res.Nodes[i] {
			t.Fatalf("[node %d] expected %+v; got %+v", i, res.Nodes[i], nodes[i])
		}
	}
}

func TestLinkedMapUpload(t *testing.T) {
	dev := testDevice(t)
	defer dev.Close()

	m := spatial.NewLinkedMap[types.Vec3](4, 16)
	m.SetSceneDimensions(types.NewAABB(types.Vec3{0, 0, 0}, types.Vec3{1, 1, 1}), 0)
	for i := 0; i < 10; i++ {
		p := types.Splat(float32(i) / 10)
		m.Store(p, p)
	}

	buffers := NewLinkedMapBuffers[types.Vec3](dev)
	defer buffers.Release()
	if err := buffers.Upload(m.Snapshot()); err != nil {
		t.Fatal(err)
	}

	heads := make([]uint32, 64)
	if err := buffers.Heads.ReadData(0, 0, 0, heads); err != nil {
		t.Fatal(err)
	}
	snap := m.Snapshot()
	for i := range heads {
		if heads[i] != snap.Heads[i] {
			t.Fatalf("[cell %d] expected head %d; got %d", i, snap.Heads[i], heads[i])
		}
	}
	if buffers.Params.Count != 10 {
		t.Fatalf("expected 10 entries; got %d", buffers.Params.Count)
	}

	// Uploading again replaces the previous buffers.
	if err := buffers.Upload(snap); err != nil {
		t.Fatal(err)
	}
	if buffers.Values.Size() != 10*12 {
		t.Fatalf("expected 120 bytes of values; got %d", buffers.Values.Size())
	}
}
