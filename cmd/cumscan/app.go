package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cumscan/internal/device"
	"github.com/samcharles93/cumscan/internal/logger"
)

const (
	exitMismatch = 1
	exitUsage    = 2
)

func newApp(stdout, stderr io.Writer) *cli.Command {
	o := &options{}

	flags := append([]cli.Flag{}, scanFlags(o)...)
	flags = append(flags, deviceFlags(o)...)
	flags = append(flags, loggingFlags(o)...)

	return &cli.Command{
		Name:      "cumscan",
		Usage:     "Decoupled look-back prefix sum benchmark",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     flags,
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := loadConfig(o.configPath)
			if err != nil {
				return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			applyConfig(cmd, cfg, o)
			if o.debug {
				o.logLevel = "debug"
			}
			log, err := logger.ForFormat(o.logFormat, stderr, logger.ParseLevel(o.logLevel))
			if err != nil {
				return ctx, cli.Exit(fmt.Sprintf("error: %v", err), exitUsage)
			}
			ctx = logger.WithContext(ctx, log)
			return withConfig(ctx, cfg), nil
		},
		OnUsageError: func(ctx context.Context, cmd *cli.Command, err error, isSubcommand bool) error {
			return cli.Exit(fmt.Sprintf("unknown flags: %v", err), exitUsage)
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() > 0 {
				return cli.Exit("unknown flags: "+strings.Join(cmd.Args().Slice(), " "), exitUsage)
			}
			return scanAction(ctx, o, stdout)
		},
		Commands: []*cli.Command{
			serveCmd(o),
			deviceCmd(o, stdout),
			versionCmd(stdout),
		},
	}
}

func newDevice(o *options) (*device.Device, error) {
	mode, err := device.ParseMode(o.dispatch)
	if err != nil {
		return nil, err
	}
	order, err := device.ParseOrder(o.order)
	if err != nil {
		return nil, err
	}
	units, err := toInt("units", o.units)
	if err != nil {
		return nil, err
	}
	if units < 0 {
		return nil, fmt.Errorf("units must be >= 0, got %d", units)
	}
	return device.New(device.Options{
		Dispatch: device.Dispatch{
			Mode:  mode,
			Order: order,
			Seed:  o.seed,
			Units: units,
		},
	}), nil
}

type configKey struct{}

func withConfig(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFromContext(ctx context.Context) Config {
	cfg, _ := ctx.Value(configKey{}).(Config)
	return cfg
}
