package harness

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/cumscan/internal/device"
	"github.com/samcharles93/cumscan/internal/fault"
	"github.com/samcharles93/cumscan/internal/logger"
	"github.com/samcharles93/cumscan/internal/lookback"
	"github.com/samcharles93/cumscan/internal/slots"
)

// Report is the outcome of one verification run.
type Report struct {
	ID        uuid.UUID     `json:"id"`
	Variant   string        `json:"variant"`
	Dispatch  string        `json:"dispatch"`
	NumVal    int           `json:"num_val"`
	MaxVal    int           `json:"max_val"`
	Seed      uint64        `json:"seed"`
	Pass      bool          `json:"pass"`
	Mismatch  *Mismatch     `json:"mismatch,omitempty"`
	Faults    int           `json:"faults"`
	Inputs    []uint32      `json:"inputs"`
	Outputs   []uint32      `json:"outputs"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// Runner drives scans on a device. Runtime failures go to Faults and do not
// stop the run.
type Runner struct {
	Device *device.Device
	Faults *fault.Reporter
	Log    logger.Logger
}

// Run generates inputs from cfg and verifies one scan.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	inputs := PrepareInputs(rng, cfg.NumVal, cfg.MaxVal)

	rep, err := r.RunInputs(ctx, cfg.Variant, inputs)
	if err != nil {
		return nil, err
	}
	rep.MaxVal = cfg.MaxVal
	rep.Seed = seed
	return rep, nil
}

// RunInputs verifies one scan over caller-supplied local values.
//
// The launch cannot be cancelled once started: partitions spin until their
// predecessors publish. ctx is only checked before launch.
func (r *Runner) RunInputs(ctx context.Context, variant slots.Variant, inputs []uint32) (*Report, error) {
	if err := ValidateInputs(inputs); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := r.Log
	if log == nil {
		log = logger.FromContext(ctx)
	}
	faults := r.Faults
	if faults == nil {
		faults = fault.NewDefault(log)
	}
	before := faults.Failures()

	n := len(inputs)
	rep := &Report{
		ID:        uuid.New(),
		Variant:   variant.String(),
		Dispatch:  r.Device.Dispatch().Mode.String(),
		NumVal:    n,
		Inputs:    inputs,
		StartedAt: time.Now(),
	}
	log.Debug("scan starting", "id", rep.ID, "variant", rep.Variant, "num_val", n)

	dev := r.Device
	input, st := dev.Malloc(n)
	faults.Check(st, "Malloc")
	output, st := dev.Malloc(n)
	faults.Check(st, "Malloc")
	faults.Check(dev.Memset(output, 0), "Memset")
	faults.Check(dev.MemcpyHtoD(input, inputs), "MemcpyHtoD")

	stream, st := dev.StreamCreate()
	faults.Check(st, "StreamCreate")
	start := time.Now()
	faults.Check(dev.LaunchKernel(lookback.Kernel(variant), n, 1, lookback.Args(output, input, n), stream), "LaunchKernel")
	if st := dev.StreamSynchronize(stream); !faults.Check(st, "StreamSynchronize") && stream != nil {
		if err := stream.LastError(); err != nil {
			log.Warn("launch failed", "id", rep.ID, "error", err)
		}
	}
	rep.Elapsed = time.Since(start)

	got := make([]uint32, n)
	faults.Check(dev.MemcpyDtoH(got, output), "MemcpyDtoH")
	faults.Check(dev.StreamDestroy(stream), "StreamDestroy")
	faults.Check(dev.Free(input), "Free")
	faults.Check(dev.Free(output), "Free")

	rep.Outputs = make([]uint32, n)
	for i, w := range got {
		rep.Outputs[i] = slots.Word(w).Payload()
	}
	rep.Mismatch = Compare(Reference(inputs), got)
	rep.Pass = rep.Mismatch == nil
	rep.Faults = faults.Failures() - before

	if rep.Pass {
		log.Debug("scan passed", "id", rep.ID, "elapsed", rep.Elapsed)
	} else {
		log.Warn("scan failed", "id", rep.ID, "index", rep.Mismatch.Index,
			"host", rep.Mismatch.Host.Payload(), "device", rep.Mismatch.Device.Payload())
	}
	return rep, nil
}
