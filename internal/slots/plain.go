package slots

import "runtime"

// PlainArray accesses slot words with ordinary loads and stores.
//
// This is a data race under the Go memory model and is not portable. It gives
// correct results only where aligned 32-bit loads and stores cannot tear
// (amd64 and arm64 both guarantee this) and where every poll performs a fresh
// load, which loadWord enforces by staying out of line. It exists to compare
// the protocol with and without explicit atomics; use AtomicArray otherwise.
type PlainArray struct {
	words []uint32
}

func NewPlain(words []uint32) *PlainArray {
	return &PlainArray{words: words}
}

func (a *PlainArray) Len() int { return len(a.words) }

func (a *PlainArray) Publish(pid int, tag Tag, value uint32) {
	storeWord(&a.words[pid], uint32(Pack(tag, value)))
}

func (a *PlainArray) Load(pid int) Word {
	return Word(loadWord(&a.words[pid]))
}

func (a *PlainArray) Poll(pid int) Word {
	p := &a.words[pid]
	for {
		if w := loadWord(p); w != 0 {
			return Word(w)
		}
		runtime.Gosched()
	}
}

//go:noinline
func loadWord(p *uint32) uint32 {
	return *p
}

//go:noinline
func storeWord(p *uint32, v uint32) {
	*p = v
}
