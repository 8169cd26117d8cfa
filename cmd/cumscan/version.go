package main

import (
	"context"
	"fmt"
	"io"

	"github.com/samcharles93/cumscan/internal/version"

	"github.com/urfave/cli/v3"
)

func versionCmd(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := version.Resolve()
			_, _ = fmt.Fprintf(stdout, "version:    %s\n", info.Version)
			if info.Commit != "" {
				_, _ = fmt.Fprintf(stdout, "commit:     %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				_, _ = fmt.Fprintf(stdout, "build time: %s\n", info.BuildTime)
			}
			_, _ = fmt.Fprintf(stdout, "go:         %s\n", info.GoVersion)
			return nil
		},
	}
}
