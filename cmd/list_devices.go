package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/accel/device"
	"github.com/urfave/cli"
)

// List available opencl devices.
func ListDevices(ctx *cli.Context) error {
	setupLogging(ctx, nil)

	var storage []byte
	buf := bytes.NewBuffer(storage)

	clPlatforms, err := device.GetPlatformInfo()
	if err != nil {
		return err
	}

	buf.WriteString(fmt.Sprintf("\nSystem provides %d opencl platform(s):\n\n", len(clPlatforms)))
	for pIdx, platformInfo := range clPlatforms {
		buf.WriteString(fmt.Sprintf("[Platform %02d]\n  Name    %s\n  Version %s\n  Profile %s\n  Devices %d\n\n", pIdx, platformInfo.Name, platformInfo.Version, platformInfo.Profile, len(platformInfo.Devices)))
		for dIdx, dev := range platformInfo.Devices {
			buf.WriteString(fmt.Sprintf("  [Device %02d]\n    Name   %s\n    Type   %s\n    Speed  %d GFlops\n    Memory %d MB\n\n", dIdx, dev.Name, dev.Type, dev.Speed, dev.GlobalMemory()>>20))
		}
	}

	logger.Notice(buf.String())
	return nil
}
