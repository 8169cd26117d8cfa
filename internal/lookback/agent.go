// Package lookback implements the per-partition agent of a decoupled
// look-back inclusive prefix sum.
//
// Partitions never wait on a barrier. Each one publishes its local value as
// PARTIAL, walks backwards over lower partitions adding what it finds until
// it meets a FINAL slot (or runs off the front), then publishes its own
// inclusive sum as FINAL. Partition 0 finalizes in one step, so by induction
// every partition finishes as long as every lower partition is eventually
// scheduled.
package lookback

import (
	"fmt"

	"github.com/samcharles93/cumscan/internal/slots"
)

// State is a step of the agent's state machine.
type State int

const (
	Start State = iota
	PublishPartial
	LookBack
	PublishFinal
	Done
)

func (s State) String() string {
	switch s {
	case Start:
		return "start"
	case PublishPartial:
		return "publish_partial"
	case LookBack:
		return "look_back"
	case PublishFinal:
		return "publish_final"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Observer is notified as a partition enters each state. It runs on the
// partition's goroutine and may block to force an interleaving.
type Observer interface {
	OnState(pid int, state State)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(pid int, state State)

func (f ObserverFunc) OnState(pid int, state State) { f(pid, state) }

// Agent runs the protocol for one partition at a time over a shared slot array.
type Agent struct {
	Slots slots.Array
	// Local holds every partition's input value, indexed by pid.
	Local []uint32
	// N is the number of valid partitions. Launches may over-provision.
	N        int
	Observer Observer
}

// Result describes what a single partition did.
type Result struct {
	Pid   int
	Value uint32
	// Steps counts look-back iterations.
	Steps int
	// StoppedAt is the partition whose FINAL slot ended the look-back, or -1
	// when the look-back ran off the front.
	StoppedAt int
	// Skipped is set when pid was outside [0, N).
	Skipped bool
}

// Run executes the protocol for partition pid and returns once its slot is FINAL.
func (a *Agent) Run(pid int) Result {
	a.enter(pid, Start)
	if pid < 0 || pid >= a.N {
		return Result{Pid: pid, StoppedAt: -1, Skipped: true}
	}
	acc := a.Local[pid]

	a.enter(pid, PublishPartial)
	a.Slots.Publish(pid, slots.Partial, acc)

	a.enter(pid, LookBack)
	res := Result{Pid: pid, StoppedAt: -1}
	for target := pid - 1; target >= 0; target-- {
		res.Steps++
		w := a.Slots.Poll(target)
		acc += w.Payload()
		if w.Tag() == slots.Final {
			res.StoppedAt = target
			break
		}
	}

	a.enter(pid, PublishFinal)
	a.Slots.Publish(pid, slots.Final, acc)
	res.Value = acc

	a.enter(pid, Done)
	return res
}

func (a *Agent) enter(pid int, s State) {
	if a.Observer != nil {
		a.Observer.OnState(pid, s)
	}
}
