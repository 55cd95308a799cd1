package utils

import (
	"runtime"
	"sync/atomic"
)

// attemptsBeforeYielding is the number of failed acquisition attempts a Spinlock makes
// before handing the processor back to the scheduler
const attemptsBeforeYielding = 64

// yieldFn is called between batches of failed acquisition attempts
var yieldFn = runtime.Gosched

// Spinlock implements a lock where each caller trying to acquire it busy-waits
// till the lock becomes available. It has no notion of an owner: any attempt to
// re-acquire a lock already held by the current execution context will deadlock.
//
// The zero value is an unlocked Spinlock.
type Spinlock struct {
	state atomic.Uint32
}

// Lock blocks until the lock can be acquired
func (l *Spinlock) Lock() {
	for {
		for i := 0; i < attemptsBeforeYielding; i++ {
			if l.TryLock() {
				return
			}
		}

		yieldFn()
	}
}

// TryLock attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise.
func (l *Spinlock) TryLock() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Unlock relinquishes a held lock allowing other callers to acquire it. Calling
// Unlock while the lock is free has no effect.
func (l *Spinlock) Unlock() {
	l.state.Store(0)
}

// Locked reports whether the lock is currently held by anyone
func (l *Spinlock) Locked() bool {
	return l.state.Load() != 0
}
