package cmd

import (
	"github.com/achilleasa/accel/config"
	"github.com/urfave/cli"
)

// Load options from the --config file (or the defaults) and apply any
// command flag overrides.
func loadOptions(ctx *cli.Context) (*config.Options, error) {
	opts := config.Default()
	if cfgFile := ctx.GlobalString("config"); cfgFile != "" {
		var err error
		if opts, err = config.LoadFile(cfgFile); err != nil {
			return nil, err
		}
	}

	err := opts.Apply(config.Overrides{
		MaxLeafSize:     ctx.Int("max-leaf-size"),
		NoSpatialSplits: ctx.Bool("no-spatial-splits"),
		GridSize:        uint32(ctx.Int("grid-size")),
		Capacity:        uint32(ctx.Int("capacity")),
		Radius:          float32(ctx.Float64("radius")),
		Workers:         ctx.Int("workers"),
		Blacklist:       ctx.StringSlice("blacklist"),
	})
	if err != nil {
		return nil, err
	}

	setupLogging(ctx, opts)
	return opts, nil
}
