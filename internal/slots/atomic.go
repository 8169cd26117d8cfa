package slots

import (
	"runtime"
	"sync/atomic"
)

// AtomicArray accesses slot words through sync/atomic.
//
// The protocol only needs relaxed ordering with device-wide visibility. Go
// exposes sequentially consistent atomics only, which is the strongest scope
// available and therefore sufficient.
type AtomicArray struct {
	words []uint32
}

func NewAtomic(words []uint32) *AtomicArray {
	return &AtomicArray{words: words}
}

func (a *AtomicArray) Len() int { return len(a.words) }

func (a *AtomicArray) Publish(pid int, tag Tag, value uint32) {
	atomic.StoreUint32(&a.words[pid], uint32(Pack(tag, value)))
}

func (a *AtomicArray) Load(pid int) Word {
	return Word(atomic.LoadUint32(&a.words[pid]))
}

func (a *AtomicArray) Poll(pid int) Word {
	p := &a.words[pid]
	for {
		if w := atomic.LoadUint32(p); w != 0 {
			return Word(w)
		}
		runtime.Gosched()
	}
}
