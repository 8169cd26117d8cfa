package device

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Stream orders launches: a launch starts only after the previous launch on
// the same stream has finished.
type Stream struct {
	mu        sync.Mutex
	tail      chan struct{}
	failed    Status
	lastErr   error
	destroyed bool
}

func (d *Device) StreamCreate() (*Stream, Status) {
	if st := d.inject("StreamCreate"); st != Success {
		return nil, st
	}
	s := &Stream{}
	d.mu.Lock()
	d.streams[s] = struct{}{}
	d.mu.Unlock()
	return s, Success
}

func (d *Device) validStream(s *Stream) bool {
	if s == nil {
		return false
	}
	d.mu.Lock()
	_, ok := d.streams[s]
	d.mu.Unlock()
	return ok
}

// StreamSynchronize blocks until every launch queued on s has finished. A
// launch failure is reported once, by the first synchronize after it.
func (d *Device) StreamSynchronize(s *Stream) Status {
	if st := d.inject("StreamSynchronize"); st != Success {
		return st
	}
	if !d.validStream(s) {
		return ErrorInvalidResourceHandle
	}
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.failed
	s.failed = Success
	return st
}

// StreamDestroy waits for queued work and releases s.
func (d *Device) StreamDestroy(s *Stream) Status {
	if st := d.inject("StreamDestroy"); st != Success {
		return st
	}
	if !d.validStream(s) {
		return ErrorInvalidResourceHandle
	}
	s.wait()
	d.mu.Lock()
	delete(d.streams, s)
	d.mu.Unlock()
	s.mu.Lock()
	s.destroyed = true
	s.mu.Unlock()
	return Success
}

// LastError returns the error behind the most recent launch failure on s.
func (s *Stream) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Stream) wait() {
	s.mu.Lock()
	tail := s.tail
	s.mu.Unlock()
	if tail != nil {
		<-tail
	}
}

func (s *Stream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = ErrorLaunchFailure
	s.lastErr = err
}

// LaunchKernel queues grid partitions of k on s and returns without waiting.
// Each partition runs with a single thread, so block must be 1. Partitions
// are not ordered relative to each other; see Dispatch.
func (d *Device) LaunchKernel(k Kernel, grid, block int, args []any, s *Stream) Status {
	if st := d.inject("LaunchKernel"); st != Success {
		return st
	}
	if k == nil || grid < 1 || block != 1 {
		return ErrorInvalidValue
	}
	if !d.validStream(s) {
		return ErrorInvalidResourceHandle
	}

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrorInvalidResourceHandle
	}
	prev := s.tail
	done := make(chan struct{})
	s.tail = done
	s.mu.Unlock()

	dispatch := d.opts.Dispatch
	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		if err := run(k, grid, args, dispatch); err != nil {
			s.fail(err)
		}
	}()
	return Success
}

func run(k Kernel, grid int, args []any, dispatch Dispatch) error {
	var g errgroup.Group
	block := func(pid int) (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = launchError(pid, rec)
			}
		}()
		k(pid, args)
		return nil
	}

	switch dispatch.Mode {
	case Pooled:
		var next atomic.Int64
		for range min(dispatch.units(), grid) {
			g.Go(func() error {
				var first error
				for {
					pid := int(next.Add(1)) - 1
					if pid >= grid {
						return first
					}
					if err := block(pid); err != nil && first == nil {
						first = err
					}
				}
			})
		}
	default:
		for _, pid := range dispatch.startOrder(grid) {
			g.Go(func() error {
				return block(pid)
			})
		}
	}
	return g.Wait()
}
