package main

import (
	"fmt"
	"math"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cumscan/internal/harness"
)

// options collects every flag destination so each app instance owns its own.
type options struct {
	numVal    int64
	maxVal    int64
	useAtomic bool
	seed      uint64
	dispatch  string
	order     string
	units     int64
	jsonOut   bool

	configPath string
	logLevel   string
	logFormat  string
	debug      bool
}

func scanFlags(o *options) []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "num_val",
			Usage:       "number of values (one partition each)",
			Value:       harness.DefaultNumVal,
			Destination: &o.numVal,
		},
		&cli.Int64Flag{
			Name:        "max_val",
			Usage:       "maximum input value",
			Value:       harness.DefaultMaxVal,
			Destination: &o.maxVal,
		},
		&cli.BoolFlag{
			Name:        "use_atomic",
			Usage:       "use atomic load/store for slot access",
			Value:       true,
			Destination: &o.useAtomic,
		},
		&cli.Uint64Flag{
			Name:        "seed",
			Usage:       "input generator seed (0 picks one at random)",
			Destination: &o.seed,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "print the full report as JSON",
			Destination: &o.jsonOut,
		},
	}
}

func deviceFlags(o *options) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "dispatch",
			Usage:       "partition scheduling (concurrent, pooled)",
			Value:       "concurrent",
			Destination: &o.dispatch,
		},
		&cli.StringFlag{
			Name:        "order",
			Usage:       "partition start order for concurrent dispatch (forward, reverse, shuffled)",
			Value:       "forward",
			Destination: &o.order,
		},
		&cli.Int64Flag{
			Name:        "units",
			Usage:       "compute units for pooled dispatch (0 = GOMAXPROCS)",
			Destination: &o.units,
		},
	}
}

func loggingFlags(o *options) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Destination: &o.configPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &o.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &o.logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &o.debug,
		},
	}
}

// toInt narrows an Int64Flag value, failing instead of wrapping where int is
// 32 bits wide.
func toInt(name string, v int64) (int, error) {
	if v < math.MinInt || v > math.MaxInt {
		return 0, fmt.Errorf("%s=%d is out of range", name, v)
	}
	return int(v), nil
}
