package harness

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/samcharles93/cumscan/internal/slots"
)

func TestReferenceTagsEveryEntryFinal(t *testing.T) {
	t.Parallel()
	ref := Reference([]uint32{3, 1, 4, 1, 5})
	want := []uint32{3, 4, 8, 9, 14}
	for i, w := range ref {
		if w != slots.Pack(slots.Final, want[i]) {
			t.Fatalf("ref[%d] = %v, want final:%d", i, w, want[i])
		}
	}
}

func TestCompareRequiresFinalSlots(t *testing.T) {
	t.Parallel()
	ref := Reference([]uint32{2, 2})

	same := []uint32{uint32(slots.Pack(slots.Final, 2)), uint32(slots.Pack(slots.Final, 4))}
	if m := Compare(ref, same); m != nil {
		t.Fatalf("Compare with final slots = %v, want nil", m)
	}

	bad := []uint32{uint32(slots.Pack(slots.Final, 2)), uint32(slots.Pack(slots.Final, 5))}
	m := Compare(ref, bad)
	if m == nil || m.Index != 1 || m.Host.Payload() != 4 || m.Device.Payload() != 5 {
		t.Fatalf("Compare = %+v, want mismatch at 1 (4 vs 5)", m)
	}
	if m.String() != "failed at index 1: host val 4 device val 5" {
		t.Fatalf("String() = %q", m.String())
	}

	if m := Compare(ref, bad[:1]); m == nil || m.Index != 1 {
		t.Fatalf("short device result = %+v, want mismatch at 1", m)
	}
}

func TestCompareRejectsUnfinishedSlots(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		inputs []uint32
		got    []uint32
		index  int
		tag    slots.Tag
	}{
		{
			name:   "partial with matching payload",
			inputs: []uint32{2, 2},
			got:    []uint32{uint32(slots.Pack(slots.Final, 2)), uint32(slots.Pack(slots.Partial, 4))},
			index:  1,
			tag:    slots.Partial,
		},
		{
			name:   "partition 0 left partial",
			inputs: []uint32{7},
			got:    []uint32{uint32(slots.Pack(slots.Partial, 7))},
			index:  0,
			tag:    slots.Partial,
		},
		{
			name:   "zero prefix never written",
			inputs: []uint32{0, 0, 0},
			got:    []uint32{0, 0, 0},
			index:  0,
			tag:    slots.Unset,
		},
		{
			name:   "both tag bits set",
			inputs: []uint32{1},
			got:    []uint32{uint32(slots.Invalid) | 1},
			index:  0,
			tag:    slots.Invalid,
		},
	}
	for _, tc := range tests {
		m := Compare(Reference(tc.inputs), tc.got)
		if m == nil {
			t.Fatalf("%s: Compare = nil, want mismatch", tc.name)
		}
		if m.Index != tc.index || m.Device.Tag() != tc.tag || m.Finalized() {
			t.Fatalf("%s: mismatch = %+v, want index %d tag %v", tc.name, m, tc.index, tc.tag)
		}
	}

	m := Compare(Reference([]uint32{0}), []uint32{0})
	if got, want := m.String(), "failed at index 0: host val 0 device val 0 (device slot unset)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"defaults", Config{NumVal: DefaultNumVal, MaxVal: DefaultMaxVal}, true},
		{"zero max", Config{NumVal: 1, MaxVal: 0}, true},
		{"no partitions", Config{NumVal: 0, MaxVal: 10}, false},
		{"negative max", Config{NumVal: 3, MaxVal: -1}, false},
		{"payload overflow", Config{NumVal: 1 << 20, MaxVal: 1 << 11}, false},
		{"payload edge", Config{NumVal: 1, MaxVal: slots.MaxPayload}, true},
	}
	for _, tc := range tests {
		err := tc.cfg.Validate()
		if tc.ok && err != nil {
			t.Errorf("%s: Validate() = %v, want nil", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: Validate() = %v, want ErrInvalidConfig", tc.name, err)
		}
	}
}

func TestValidateInputs(t *testing.T) {
	t.Parallel()
	if err := ValidateInputs([]uint32{1, 2}); err != nil {
		t.Fatalf("ValidateInputs: %v", err)
	}
	if err := ValidateInputs(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("empty inputs err = %v", err)
	}
	if err := ValidateInputs([]uint32{slots.MaxPayload, 1}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("overflowing inputs err = %v", err)
	}
}

func TestPrepareInputsBoundedAndReproducible(t *testing.T) {
	t.Parallel()
	a := PrepareInputs(rand.New(rand.NewPCG(5, 5)), 1000, 7)
	b := PrepareInputs(rand.New(rand.NewPCG(5, 5)), 1000, 7)
	if !slices.Equal(a, b) {
		t.Fatal("same seed produced different inputs")
	}
	for i, v := range a {
		if v > 7 {
			t.Fatalf("input %d = %d exceeds max 7", i, v)
		}
	}
	if zeros := PrepareInputs(rand.New(rand.NewPCG(1, 1)), 4, 0); !slices.Equal(zeros, []uint32{0, 0, 0, 0}) {
		t.Fatalf("max 0 inputs = %v", zeros)
	}
}
