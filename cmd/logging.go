package cmd

import (
	"github.com/achilleasa/accel/config"
	"github.com/achilleasa/accel/log"
	"github.com/urfave/cli"
)

var logger = log.New("accel")

// Apply the configured log level; the -v and -vv flags take precedence.
func setupLogging(ctx *cli.Context, opts *config.Options) {
	if opts != nil {
		log.SetLevel(opts.Level())
	}

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
