package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/samcharles93/cumscan/internal/api"
	"github.com/samcharles93/cumscan/internal/fault"
	"github.com/samcharles93/cumscan/internal/harness"
	"github.com/samcharles93/cumscan/internal/logger"
)

func serveCmd(o *options) *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		rateLimit   float64
		burst       int64
		maxNumVal   int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the scan REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Float64Flag{
				Name:        "rate-limit",
				Usage:       "scans per second (0 = unlimited)",
				Value:       10,
				Destination: &rateLimit,
			},
			&cli.Int64Flag{
				Name:        "burst",
				Usage:       "rate limiter burst",
				Value:       5,
				Destination: &burst,
			},
			&cli.Int64Flag{
				Name:        "max-num-val",
				Usage:       "largest num_val a request may launch",
				Value:       api.DefaultMaxNumVal,
				Destination: &maxNumVal,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			cfg := configFromContext(ctx)
			if cfg.ServerAddress != "" && !cmd.IsSet("addr") {
				addr = cfg.ServerAddress
			}
			if cfg.RateLimit != nil && !cmd.IsSet("rate-limit") {
				rateLimit = *cfg.RateLimit
			}

			dev, err := newDevice(o)
			if err != nil {
				return cli.Exit("error: "+err.Error(), exitUsage)
			}
			burstN, err := toInt("burst", burst)
			if err != nil {
				return cli.Exit("error: "+err.Error(), exitUsage)
			}
			limit, err := toInt("max-num-val", maxNumVal)
			if err != nil {
				return cli.Exit("error: "+err.Error(), exitUsage)
			}
			runner := &harness.Runner{
				Device: dev,
				Faults: fault.NewDefault(log),
				Log:    log,
			}
			server := api.NewServer(runner, dev.Properties, api.Config{
				Limit:     rate.Limit(rateLimit),
				Burst:     burstN,
				MaxNumVal: limit,
			})

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "dispatch", dev.Dispatch().Mode.String())
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
