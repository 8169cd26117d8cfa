package device

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"strings"
)

// ErrUnknownDispatch is returned when a dispatch mode or order name is not recognised.
var ErrUnknownDispatch = errors.New("unknown dispatch")

// Mode selects how partitions of a launch are mapped onto goroutines.
type Mode int

const (
	// Concurrent starts one goroutine per partition, in the configured Order.
	Concurrent Mode = iota
	// Pooled runs partitions on a fixed set of compute units that claim
	// partition indices in increasing order. The lowest unfinished partition
	// is therefore always running, so any pool size makes progress.
	Pooled
)

func (m Mode) String() string {
	switch m {
	case Concurrent:
		return "concurrent"
	case Pooled:
		return "pooled"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Order is the start order of partition goroutines in Concurrent mode.
type Order int

const (
	Forward Order = iota
	Reverse
	Shuffled
)

func (o Order) String() string {
	switch o {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	case Shuffled:
		return "shuffled"
	default:
		return fmt.Sprintf("order(%d)", int(o))
	}
}

// Dispatch describes how a launch schedules its partitions.
type Dispatch struct {
	Mode  Mode
	Order Order
	// Seed drives the Shuffled order.
	Seed uint64
	// Units is the pool size for Pooled mode. Zero means GOMAXPROCS.
	Units int
}

func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "concurrent":
		return Concurrent, nil
	case "pooled", "pool":
		return Pooled, nil
	default:
		return 0, fmt.Errorf("%w mode %q (expected concurrent or pooled)", ErrUnknownDispatch, name)
	}
}

func ParseOrder(name string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "forward":
		return Forward, nil
	case "reverse":
		return Reverse, nil
	case "shuffled", "shuffle", "random":
		return Shuffled, nil
	default:
		return 0, fmt.Errorf("%w order %q (expected forward, reverse, or shuffled)", ErrUnknownDispatch, name)
	}
}

func (d Dispatch) units() int {
	if d.Units > 0 {
		return d.Units
	}
	return runtime.GOMAXPROCS(0)
}

// startOrder returns the sequence in which Concurrent mode starts partitions.
func (d Dispatch) startOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	switch d.Order {
	case Reverse:
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	case Shuffled:
		rng := rand.New(rand.NewPCG(d.Seed, d.Seed^0x9e3779b97f4a7c15))
		rng.Shuffle(n, func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	return order
}
