// Package slots implements the shared cumulative-slot array that partitions of
// a look-back scan use to talk to each other.
//
// Each slot is one 32-bit word. The two high bits carry the slot state and the
// low 30 bits carry the payload:
//
//	bit 31     bit 30      bits 0..29
//	[FINAL] [PARTIAL] [      payload      ]
//
// A zero word means the owning partition has not written yet. The PARTIAL tag
// keeps a written word non-zero even when the payload is zero, so pollers can
// spin on "word != 0".
package slots

import "strconv"

// Tag is the state encoded in the high bits of a slot word.
type Tag uint32

const (
	// Unset marks a slot no partition has written.
	Unset Tag = 0
	// Partial marks a slot holding only the owner's local value.
	Partial Tag = 1 << 30
	// Final marks a slot holding the inclusive prefix sum up to the owner.
	Final Tag = 1 << 31
	// Invalid is reported for words with both tag bits set.
	Invalid Tag = Partial | Final
)

const (
	// PayloadBits is the number of low bits available to the payload.
	PayloadBits = 30
	// PayloadMask extracts the payload from a word.
	PayloadMask = 1<<PayloadBits - 1
	// MaxPayload is the largest value a slot can carry.
	MaxPayload = PayloadMask

	tagMask = uint32(Invalid)
)

func (t Tag) String() string {
	switch t {
	case Unset:
		return "unset"
	case Partial:
		return "partial"
	case Final:
		return "final"
	case Invalid:
		return "invalid"
	default:
		return "tag(" + strconv.FormatUint(uint64(t), 16) + ")"
	}
}

// Word is a raw slot value: tag bits plus payload.
type Word uint32

// Pack combines a tag and a payload. Payload bits above PayloadMask are dropped.
func Pack(tag Tag, payload uint32) Word {
	return Word(uint32(tag)&tagMask | payload&PayloadMask)
}

// Tag returns the state bits of the word.
func (w Word) Tag() Tag {
	return Tag(uint32(w) & tagMask)
}

// Payload returns the value bits with the tag masked off.
func (w Word) Payload() uint32 {
	return uint32(w) & PayloadMask
}

// IsSet reports whether the owning partition has written the slot at least once.
func (w Word) IsSet() bool {
	return w != 0
}

func (w Word) String() string {
	return w.Tag().String() + ":" + strconv.FormatUint(uint64(w.Payload()), 10)
}
