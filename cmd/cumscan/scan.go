package main

import (
	"context"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cumscan/internal/fault"
	"github.com/samcharles93/cumscan/internal/harness"
	"github.com/samcharles93/cumscan/internal/logger"
	"github.com/samcharles93/cumscan/internal/slots"
)

func scanAction(ctx context.Context, o *options, stdout io.Writer) error {
	log := logger.FromContext(ctx)

	dev, err := newDevice(o)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), exitUsage)
	}
	variant := slots.VariantFor(o.useAtomic)
	if !o.jsonOut {
		if o.useAtomic {
			_, _ = fmt.Fprintln(stdout, "using atomic kernel")
		} else {
			_, _ = fmt.Fprintln(stdout, "using non-atomic kernel")
		}
	}
	if variant == slots.Plain && !dev.Properties().IndivisibleWords {
		log.Warn("plain slot access on an architecture without indivisible word access; results may be wrong")
	}

	runner := &harness.Runner{
		Device: dev,
		Faults: fault.NewDefault(log),
		Log:    log,
	}
	numVal, err := toInt("num_val", o.numVal)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	maxVal, err := toInt("max_val", o.maxVal)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	rep, err := runner.Run(ctx, harness.Config{
		NumVal:  numVal,
		MaxVal:  maxVal,
		Variant: variant,
		Seed:    o.seed,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	log.Debug("scan finished", "id", rep.ID, "seed", rep.Seed, "elapsed", rep.Elapsed, "faults", rep.Faults)

	if o.jsonOut {
		out, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return cli.Exit(fmt.Sprintf("error: encode report: %v", err), 1)
		}
		_, _ = fmt.Fprintln(stdout, string(out))
	} else {
		if m := rep.Mismatch; m != nil {
			_, _ = fmt.Fprintf(stdout, "failed at index: %d\n", m.Index)
			_, _ = fmt.Fprintf(stdout, "host val: %d device val: %d\n", m.Host.Payload(), m.Device.Payload())
			if !m.Finalized() {
				_, _ = fmt.Fprintf(stdout, "device slot: %s\n", m.Device.Tag())
			}
		}
		if rep.Pass {
			_, _ = fmt.Fprintln(stdout, "pass")
		} else {
			_, _ = fmt.Fprintln(stdout, "fail")
		}
	}

	if !rep.Pass {
		return cli.Exit("", exitMismatch)
	}
	return nil
}
