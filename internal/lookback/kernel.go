package lookback

import (
	"fmt"

	"github.com/samcharles93/cumscan/internal/device"
	"github.com/samcharles93/cumscan/internal/slots"
)

// Args builds the flat launch argument list Kernel expects.
func Args(output, input *device.Buffer, n int) []any {
	return []any{output, input, n}
}

// Kernel returns the device entry point for the given slot variant. The
// launch arguments are (output *device.Buffer, input *device.Buffer, n int);
// the output buffer must be zeroed before launch.
func Kernel(variant slots.Variant) device.Kernel {
	return func(blockIdx int, args []any) {
		agent, err := bind(variant, args)
		if err != nil {
			panic(err)
		}
		agent.Run(blockIdx)
	}
}

func bind(variant slots.Variant, args []any) (*Agent, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("lookback kernel: want 3 args, got %d", len(args))
	}
	output, ok := args[0].(*device.Buffer)
	if !ok {
		return nil, fmt.Errorf("lookback kernel: arg 0 is %T, want *device.Buffer", args[0])
	}
	input, ok := args[1].(*device.Buffer)
	if !ok {
		return nil, fmt.Errorf("lookback kernel: arg 1 is %T, want *device.Buffer", args[1])
	}
	n, ok := args[2].(int)
	if !ok {
		return nil, fmt.Errorf("lookback kernel: arg 2 is %T, want int", args[2])
	}
	if n > output.Len() || n > input.Len() {
		return nil, fmt.Errorf("lookback kernel: n=%d exceeds buffers (output %d, input %d)", n, output.Len(), input.Len())
	}
	arr, err := slots.New(variant, output.Words())
	if err != nil {
		return nil, err
	}
	return &Agent{Slots: arr, Local: input.Words(), N: n}, nil
}
