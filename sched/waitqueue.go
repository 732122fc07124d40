package sched

import (
	"errors"
	"sync"
	"time"
)

// ErrTimedOut is returned by Wait when the timeout expires before a wake.
var ErrTimedOut = errors.New("sched: wait timed out")

// Forever can be passed to Wait to block without a timeout.
const Forever time.Duration = 0

type waiter struct {
	woken chan struct{}
}

// A WaitQueue is a FIFO of threads suspended on a condition.
//
// A WaitQueue has no lock of its own. Every method must be called with the
// lock that guards the condition held, and the same lock must be passed to
// Wait. The zero value is an empty queue.
type WaitQueue struct {
	waiters []*waiter
}

// Wait enqueues the caller, releases l and suspends until the caller is woken
// or the timeout expires. l is held again when Wait returns.
//
// The caller is registered before l is released, so a wake issued at any
// point after Wait was entered is never lost.
func (q *WaitQueue) Wait(l sync.Locker, timeout time.Duration) error {
	w := &waiter{woken: make(chan struct{})}
	q.waiters = append(q.waiters, w)

	l.Unlock()

	if timeout <= Forever {
		<-w.woken
		l.Lock()

		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.woken:
		l.Lock()
		return nil
	case <-timer.C:
	}

	l.Lock()

	if q.remove(w) {
		return ErrTimedOut
	}

	// Woken between the timer firing and re-acquiring l.
	return nil
}

// WakeOne wakes the longest waiting thread. It returns false if the queue is
// empty.
func (q *WaitQueue) WakeOne() bool {
	if len(q.waiters) == 0 {
		return false
	}

	w := q.waiters[0]
	q.waiters[0] = nil
	q.waiters = q.waiters[1:]

	close(w.woken)

	return true
}

// WakeAll wakes every waiting thread and returns how many were woken.
func (q *WaitQueue) WakeAll() int {
	n := len(q.waiters)

	for _, w := range q.waiters {
		close(w.woken)
	}

	q.waiters = nil

	return n
}

// Len returns the number of suspended threads.
func (q *WaitQueue) Len() int {
	return len(q.waiters)
}

func (q *WaitQueue) remove(w *waiter) bool {
	for i, x := range q.waiters {
		if x == w {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return true
		}
	}

	return false
}
