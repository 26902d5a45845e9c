package cmd

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/achilleasa/accel/asset/mesh"
	"github.com/achilleasa/accel/bvh"
	"github.com/urfave/cli"
)

// Build a BVH for each mesh argument and write it next to the mesh with
// a .bvh extension.
func CompileBVH(ctx *cli.Context) error {
	opts, err := loadOptions(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() == 0 {
		return errors.New("missing mesh file argument")
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		meshFile := ctx.Args().Get(idx)
		m, err := mesh.LoadFile(meshFile)
		if err != nil {
			return err
		}

		start := time.Now()
		res, err := bvh.Construct(m.Vertices, m.Indices, opts.BuilderOptions())
		if err != nil {
			return err
		}
		logger.Noticef("built bvh for %s (%d triangles) in %d ms", meshFile, m.TriangleCount(), time.Since(start).Nanoseconds()/1e6)

		outFile := ctx.String("out")
		if outFile == "" || ctx.NArg() > 1 {
			outFile = strings.TrimSuffix(meshFile, filepath.Ext(meshFile)) + ".bvh"
		}
		if err = bvh.WriteFile(outFile, res); err != nil {
			return err
		}

		logger.Noticef("wrote %s\n%s", outFile, res.Stats())
	}

	return nil
}

// Display statistics for compiled BVH files.
func BVHInfo(ctx *cli.Context) error {
	setupLogging(ctx, nil)

	if ctx.NArg() == 0 {
		return errors.New("missing bvh file argument")
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		res, err := bvh.ReadFile(ctx.Args().Get(idx))
		if err != nil {
			return err
		}
		logger.Noticef("%s\n%s", ctx.Args().Get(idx), res.Stats())
	}
	return nil
}
