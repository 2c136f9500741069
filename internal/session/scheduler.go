package session

import "time"

// Yielder schedules a continuation to run after yielding control, so
// long-running batch work (expand-all over a large diff) can
// interleave with rendering instead of freezing it.
type Yielder interface {
	AfterYield(fn func())
}

// TimerYielder yields through the runtime timer wheel. The zero value
// uses a one-millisecond delay, enough to let a render pass through.
type TimerYielder struct {
	Delay time.Duration
}

func (y TimerYielder) AfterYield(fn func()) {
	delay := y.Delay
	if delay <= 0 {
		delay = time.Millisecond
	}
	time.AfterFunc(delay, fn)
}

// ImmediateYielder runs continuations synchronously. Tests use it to
// make batched operations deterministic.
type ImmediateYielder struct{}

func (ImmediateYielder) AfterYield(fn func()) {
	fn()
}

// CountingYielder records continuations without running them, so tests
// can step batches one at a time and observe intermediate state.
type CountingYielder struct {
	Pending []func()
}

func (y *CountingYielder) AfterYield(fn func()) {
	y.Pending = append(y.Pending, fn)
}

// Step runs the oldest pending continuation. Returns false when none
// are queued.
func (y *CountingYielder) Step() bool {
	if len(y.Pending) == 0 {
		return false
	}
	fn := y.Pending[0]
	y.Pending = y.Pending[1:]
	fn()
	return true
}

// Drain runs continuations until the queue is empty, returning how
// many ran.
func (y *CountingYielder) Drain() int {
	n := 0
	for y.Step() {
		n++
	}
	return n
}
