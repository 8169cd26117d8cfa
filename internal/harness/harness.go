// Package harness verifies the look-back scan: it generates inputs, runs one
// agent per partition on a device, reads the slots back and compares them
// with a sequential host reference.
package harness

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/samcharles93/cumscan/internal/slots"
)

// ErrInvalidConfig is wrapped by every Config validation failure.
var ErrInvalidConfig = errors.New("invalid scan config")

const (
	DefaultNumVal = 10
	DefaultMaxVal = 1000
)

type Config struct {
	NumVal  int
	MaxVal  int
	Variant slots.Variant
	// Seed for input generation. Zero picks a random seed, recorded in the report.
	Seed uint64
}

// Validate checks that every prefix sum fits in a slot payload.
func (c Config) Validate() error {
	if c.NumVal < 1 {
		return fmt.Errorf("%w: num_val must be >= 1, got %d", ErrInvalidConfig, c.NumVal)
	}
	if c.MaxVal < 0 {
		return fmt.Errorf("%w: max_val must be >= 0, got %d", ErrInvalidConfig, c.MaxVal)
	}
	if uint64(c.NumVal)*uint64(c.MaxVal) > slots.MaxPayload {
		return fmt.Errorf("%w: num_val*max_val = %d exceeds the %d-bit slot payload", ErrInvalidConfig,
			uint64(c.NumVal)*uint64(c.MaxVal), slots.PayloadBits)
	}
	return nil
}

// ValidateInputs checks caller-supplied local values the same way.
func ValidateInputs(inputs []uint32) error {
	if len(inputs) == 0 {
		return fmt.Errorf("%w: inputs must not be empty", ErrInvalidConfig)
	}
	var total uint64
	for i, v := range inputs {
		total += uint64(v)
		if total > slots.MaxPayload {
			return fmt.Errorf("%w: prefix sum at index %d exceeds the %d-bit slot payload", ErrInvalidConfig, i, slots.PayloadBits)
		}
	}
	return nil
}

// PrepareInputs draws n values uniformly from [0, maxVal].
func PrepareInputs(rng *rand.Rand, n, maxVal int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(rng.IntN(maxVal + 1))
	}
	return out
}

// Reference computes the inclusive prefix sum sequentially, tagging every
// entry FINAL so it compares like a finished device slot.
func Reference(inputs []uint32) []slots.Word {
	ref := make([]slots.Word, len(inputs))
	var acc uint32
	for i, v := range inputs {
		acc += v
		ref[i] = slots.Pack(slots.Final, acc)
	}
	return ref
}

// Mismatch is the first disagreement between host and device.
type Mismatch struct {
	Index  int        `json:"index"`
	Host   slots.Word `json:"host"`
	Device slots.Word `json:"device"`
}

func (m *Mismatch) String() string {
	s := fmt.Sprintf("failed at index %d: host val %d device val %d", m.Index, m.Host.Payload(), m.Device.Payload())
	if !m.Finalized() {
		s += fmt.Sprintf(" (device slot %s)", m.Device.Tag())
	}
	return s
}

// Finalized reports whether the device slot reached FINAL.
func (m *Mismatch) Finalized() bool {
	return m.Device.Tag() == slots.Final
}

// Compare returns the first index where the device slot is not FINAL or its
// payload differs from the reference, or nil if all agree. A device result
// shorter than ref mismatches at its end.
func Compare(ref []slots.Word, got []uint32) *Mismatch {
	for i, want := range ref {
		if i >= len(got) {
			return &Mismatch{Index: i, Host: want}
		}
		dev := slots.Word(got[i])
		if dev.Tag() != slots.Final || dev.Payload() != want.Payload() {
			return &Mismatch{Index: i, Host: want, Device: dev}
		}
	}
	return nil
}
