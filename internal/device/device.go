// Package device simulates the accelerator runtime the look-back scan is
// launched on: device memory, streams and kernel launches that run one
// independently scheduled partition per block.
//
// Every runtime call returns a Status rather than an error, mirroring the
// vendor runtime the scan was written against. Callers route statuses through
// a fault reporter; see internal/fault.
package device

import (
	"sync"
	"sync/atomic"
)

// Kernel is the entry point run once per partition. blockIdx is the partition
// index and args is the flat argument list given to LaunchKernel.
type Kernel func(blockIdx int, args []any)

// FaultInjector lets tests force a runtime call to fail. It receives the API
// name ("Malloc", "LaunchKernel", ...) and returns the status to report, or
// Success to let the call proceed.
type FaultInjector func(api string) Status

type Options struct {
	// MemoryWords caps the number of live allocated words. Zero means unlimited.
	MemoryWords int
	Dispatch    Dispatch
	Inject      FaultInjector
}

// Device owns buffers and streams. It is safe for concurrent use.
type Device struct {
	opts Options

	mu      sync.Mutex
	used    int
	buffers map[*Buffer]struct{}
	streams map[*Stream]struct{}
}

// Buffer is a region of device memory holding 32-bit words.
type Buffer struct {
	words []uint32
	freed atomic.Bool
}

// Words exposes the backing memory to kernels.
func (b *Buffer) Words() []uint32 { return b.words }

func (b *Buffer) Len() int { return len(b.words) }

func New(opts Options) *Device {
	return &Device{
		opts:    opts,
		buffers: make(map[*Buffer]struct{}),
		streams: make(map[*Stream]struct{}),
	}
}

// Dispatch returns the launch policy the device was created with.
func (d *Device) Dispatch() Dispatch { return d.opts.Dispatch }

func (d *Device) inject(api string) Status {
	if d.opts.Inject == nil {
		return Success
	}
	return d.opts.Inject(api)
}

func (d *Device) Malloc(words int) (*Buffer, Status) {
	if st := d.inject("Malloc"); st != Success {
		return nil, st
	}
	if words <= 0 {
		return nil, ErrorInvalidValue
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.MemoryWords > 0 && d.used+words > d.opts.MemoryWords {
		return nil, ErrorMemoryAllocation
	}
	b := &Buffer{words: make([]uint32, words)}
	d.buffers[b] = struct{}{}
	d.used += words
	return b, Success
}

func (d *Device) Free(b *Buffer) Status {
	if st := d.inject("Free"); st != Success {
		return st
	}
	if b == nil {
		return Success
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.buffers[b]; !ok || !b.freed.CompareAndSwap(false, true) {
		return ErrorInvalidDevicePointer
	}
	delete(d.buffers, b)
	d.used -= len(b.words)
	return Success
}

// Allocated returns the number of live words.
func (d *Device) Allocated() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.used
}

func (d *Device) valid(b *Buffer) bool {
	if b == nil || b.freed.Load() {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.buffers[b]
	return ok
}

// Memset fills every word of b with value. It does not wait for streams.
func (d *Device) Memset(b *Buffer, value uint32) Status {
	if st := d.inject("Memset"); st != Success {
		return st
	}
	if !d.valid(b) {
		return ErrorInvalidDevicePointer
	}
	for i := range b.words {
		b.words[i] = value
	}
	return Success
}

// MemcpyHtoD copies src into the front of dst.
func (d *Device) MemcpyHtoD(dst *Buffer, src []uint32) Status {
	if st := d.inject("MemcpyHtoD"); st != Success {
		return st
	}
	if !d.valid(dst) {
		return ErrorInvalidDevicePointer
	}
	if len(src) > len(dst.words) {
		return ErrorInvalidValue
	}
	copy(dst.words, src)
	return Success
}

// MemcpyDtoH copies the front of src into dst. Synchronize the stream that
// wrote src first.
func (d *Device) MemcpyDtoH(dst []uint32, src *Buffer) Status {
	if st := d.inject("MemcpyDtoH"); st != Success {
		return st
	}
	if !d.valid(src) {
		return ErrorInvalidDevicePointer
	}
	if len(dst) > len(src.words) {
		return ErrorInvalidValue
	}
	copy(dst, src.words)
	return Success
}
