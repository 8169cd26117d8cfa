package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func deviceCmd(o *options, stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "device",
		Usage: "Print simulated device properties",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dev, err := newDevice(o)
			if err != nil {
				return cli.Exit("error: "+err.Error(), exitUsage)
			}
			out, err := yaml.Marshal(dev.Properties())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: encode properties: %v", err), 1)
			}
			_, _ = stdout.Write(out)
			return nil
		},
	}
}
