package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/achilleasa/accel/asset/mesh"
	"github.com/achilleasa/accel/bvh"
	"github.com/achilleasa/accel/config"
	"github.com/achilleasa/accel/device"
	"github.com/achilleasa/accel/gpu"
	"github.com/achilleasa/accel/photon"
	"github.com/achilleasa/accel/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Scatter photons over the surface of a mesh, report radiance estimates at
// a set of sample points and optionally upload the map to an opencl device.
func ScatterPhotons(ctx *cli.Context) error {
	opts, err := loadOptions(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing mesh file argument")
	}

	m, err := mesh.LoadFile(ctx.Args().First())
	if err != nil {
		return err
	}
	if m.TriangleCount() == 0 {
		return fmt.Errorf("mesh %s contains no triangles", ctx.Args().First())
	}

	if err = photon.CheckHostMemory(opts.PhotonMap.GridSize, opts.PhotonMap.Capacity); err != nil {
		return err
	}

	pm := photon.NewMap(opts.PhotonMap)
	defer pm.Release()
	pm.BeginPass(m.Box(), 0)

	count := ctx.Int("photons")
	if count <= 0 {
		count = int(opts.PhotonMap.Capacity)
	}
	power := types.Splat(float32(ctx.Float64("power")) / float32(count))
	source := photon.SurfaceSource(m.Vertices, m.Indices, power, uint64(ctx.Int("seed")))

	start := time.Now()
	stored := pm.Scatter(source, count)
	logger.Noticef("stored %d/%d photons in %d ms (%d bytes)", stored, count, time.Since(start).Nanoseconds()/1e6, pm.Footprint())
	if pm.IsFull() {
		logger.Warning("photon map is full; increase capacity to store all photons")
	}

	displayEstimates(pm, sampleTriangles(m, ctx.Int("samples")))

	if !ctx.Bool("upload") {
		return nil
	}
	return uploadToDevice(opts, m, pm)
}

// Pick up to n evenly spaced triangle centroids.
func sampleTriangles(m *mesh.Mesh, n int) []types.Vec3 {
	triCount := m.TriangleCount()
	if n > triCount {
		n = triCount
	}

	samples := make([]types.Vec3, 0, n)
	for i := 0; i < n; i++ {
		tri := i * triCount / n
		var centroid types.Vec3
		for corner := 0; corner < 3; corner++ {
			centroid = centroid.Add(m.Vertices[m.VertexIndex(tri, corner)])
		}
		samples = append(samples, centroid.Mul(1.0/3.0))
	}
	return samples
}

func displayEstimates(pm *photon.Map, samples []types.Vec3) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Sample", "Position", "Photons", "Radiance", "Cell estimate"})

	var total int
	for idx, p := range samples {
		est := pm.Gather(p, 0)
		cellEst := pm.GatherCached(p)
		total += est.Count
		table.Append([]string{
			fmt.Sprintf("%d", idx),
			fmt.Sprintf("(%.3f, %.3f, %.3f)", p[0], p[1], p[2]),
			fmt.Sprintf("%d", est.Count),
			fmt.Sprintf("%.4f", est.Radiance[0]),
			fmt.Sprintf("%.4f", cellEst.Radiance[0]),
		})
	}
	table.SetFooter([]string{"", "", fmt.Sprintf("%d", total), fmt.Sprintf("radius %.3f", pm.Radius()), ""})

	table.Render()
	logger.Noticef("radiance estimates\n%s", buf.String())
}

func uploadToDevice(opts *config.Options, m *mesh.Mesh, pm *photon.Map) error {
	devList, err := device.SelectDevices(device.AllDevices, "")
	if err != nil {
		return err
	}
	devList = devList.Filter(opts.Devices.Blacklist, opts.Devices.Prefer)
	if len(devList) == 0 {
		return device.ErrNoDevices
	}

	dev := devList[0]
	if err = dev.Init(); err != nil {
		return err
	}
	defer dev.Close()
	logger.Noticef(`using device "%s"`, dev.Name)

	res, err := bvh.Construct(m.Vertices, m.Indices, opts.BuilderOptions())
	if err != nil {
		return err
	}

	bvhBuffers := gpu.NewBVHBuffers(dev)
	defer bvhBuffers.Release()
	if err = bvhBuffers.Upload(res); err != nil {
		return err
	}

	mapBuffers := gpu.NewLinkedMapBuffers[photon.Photon](dev)
	defer mapBuffers.Release()
	if err = mapBuffers.Upload(pm.Snapshot()); err != nil {
		return err
	}

	total := uint64(bvhBuffers.Size() + mapBuffers.Size())
	if total > dev.GlobalMemory() {
		return fmt.Errorf("%w: need %d bytes; device has %d", device.ErrBufferTooSmall, total, dev.GlobalMemory())
	}
	logger.Noticef("uploaded %d bytes to %s", total, dev.Name)
	return nil
}
