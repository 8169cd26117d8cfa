package slots

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownVariant is returned by ParseVariant for unrecognised names.
var ErrUnknownVariant = errors.New("unknown slot variant")

// Array is the medium partitions publish into and poll from.
//
// Every slot has exactly one writer, the partition owning its index. Any
// number of higher-indexed partitions may read it concurrently.
type Array interface {
	Len() int
	// Publish stores value tagged with tag into slot pid.
	Publish(pid int, tag Tag, value uint32)
	// Poll spins until slot pid is non-zero and returns it. It never times out.
	Poll(pid int) Word
	// Load reads slot pid once.
	Load(pid int) Word
}

// Variant selects how slot words are read and written.
type Variant int

const (
	// Atomic uses sync/atomic loads and stores.
	Atomic Variant = iota
	// Plain uses ordinary loads and stores. It races by the Go memory model
	// and only works where aligned 32-bit accesses are indivisible.
	Plain
)

func (v Variant) String() string {
	switch v {
	case Atomic:
		return "atomic"
	case Plain:
		return "plain"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// ParseVariant accepts "atomic" or "plain" (also "non-atomic").
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "atomic":
		return Atomic, nil
	case "plain", "non-atomic", "nonatomic":
		return Plain, nil
	default:
		return 0, fmt.Errorf("%w %q (expected atomic or plain)", ErrUnknownVariant, name)
	}
}

// VariantFor maps the use_atomic switch onto a Variant.
func VariantFor(useAtomic bool) Variant {
	if useAtomic {
		return Atomic
	}
	return Plain
}

// New wraps words with the requested access variant. The array aliases words;
// callers zero it before handing it to partitions.
func New(v Variant, words []uint32) (Array, error) {
	switch v {
	case Atomic:
		return NewAtomic(words), nil
	case Plain:
		return NewPlain(words), nil
	default:
		return nil, fmt.Errorf("%w %v", ErrUnknownVariant, v)
	}
}
