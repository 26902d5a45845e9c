package main

import (
	"os"

	"github.com/achilleasa/accel/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	builderFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "max-leaf-size",
			Usage: "max number of triangles per bvh leaf",
		},
		cli.BoolFlag{
			Name:  "no-spatial-splits",
			Usage: "disable spatial splits when building the bvh",
		},
	}

	mapFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "grid-size",
			Usage: "number of hash grid cells per axis",
		},
		cli.IntFlag{
			Name:  "capacity",
			Usage: "max number of photons stored per pass",
		},
		cli.Float64Flag{
			Name:  "radius",
			Usage: "photon gather radius",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "number of scatter workers",
		},
		cli.IntFlag{
			Name:  "photons",
			Usage: "number of photons to scatter; defaults to the map capacity",
		},
		cli.Float64Flag{
			Name:  "power",
			Value: 1.0,
			Usage: "total power emitted by the mesh surface",
		},
		cli.IntFlag{
			Name:  "seed",
			Value: 1,
			Usage: "photon sampler seed",
		},
		cli.IntFlag{
			Name:  "samples",
			Value: 16,
			Usage: "number of triangle centroids to gather at",
		},
		cli.BoolFlag{
			Name:  "upload",
			Usage: "upload the bvh and photon map to an opencl device",
		},
		cli.StringSliceFlag{
			Name:  "blacklist, b",
			Value: &cli.StringSlice{},
			Usage: "blacklist opencl device whose names contain this value",
		},
	}

	app := cli.NewApp()
	app.Name = "accel"
	app.Usage = "build and inspect spatial acceleration structures"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load options from a JSON file or URL",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "build a BVH for a triangle mesh",
			Description: `
Load a triangle mesh from a wavefront obj or binary triangle soup file, build
a BVH with SAH object and spatial splits and write the flattened tree next
to the mesh using a .bvh extension.`,
			ArgsUsage: "mesh1.obj mesh2.tris ...",
			Flags: append(builderFlags, cli.StringFlag{
				Name:  "out, o",
				Usage: "output file when compiling a single mesh",
			}),
			Action: cmd.CompileBVH,
		},
		{
			Name:      "info",
			Usage:     "display statistics for compiled BVH files",
			ArgsUsage: "mesh1.bvh mesh2.bvh ...",
			Action:    cmd.BVHInfo,
		},
		{
			Name:  "scatter",
			Usage: "scatter photons over a mesh and gather radiance estimates",
			Description: `
Emit photons from the surface of a triangle mesh, store them in a hash grid
photon map and print radius gather estimates at sampled triangle centroids.`,
			ArgsUsage: "mesh.obj",
			Flags:     append(mapFlags, builderFlags...),
			Action:    cmd.ScatterPhotons,
		},
		{
			Name:   "list-devices",
			Usage:  "list available opencl devices",
			Action: cmd.ListDevices,
		},
	}

	app.Run(os.Args)
}
