package allocator

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/kheap/internal/utils"
	"github.com/vkngwrapper/kheap/memory"
	"github.com/vkngwrapper/kheap/memutils"
)

// Locked wraps an Allocator in a spinlock so that it can be shared as a GlobalAlloc. Each
// GlobalAlloc method holds the lock for its whole duration.
//
// The lock is not reentrant. Code running while the lock is held, including code that holds the
// allocator returned by Lock, must never allocate through the same Locked value: doing so spins
// forever.
type Locked[A Allocator] struct {
	lock      utils.Spinlock
	allocator A
}

var _ GlobalAlloc = &Locked[*LinkedListAllocator]{}

// NewLocked wraps allocator
func NewLocked[A Allocator](allocator A) *Locked[A] {
	return &Locked[A]{allocator: allocator}
}

// Lock acquires the lock and returns the wrapped allocator. The allocator may only be used
// until the matching call to Unlock.
func (l *Locked[A]) Lock() A {
	l.lock.Lock()
	return l.allocator
}

// Unlock releases the lock acquired by Lock
func (l *Locked[A]) Unlock() {
	l.lock.Unlock()
}

// Memory returns the address space of the wrapped allocator
func (l *Locked[A]) Memory() memory.Memory {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.allocator.Memory()
}

// Init initializes the wrapped allocator with the heap region [heapStart, heapStart+heapSize)
func (l *Locked[A]) Init(heapStart, heapSize uintptr) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.allocator.Init(heapStart, heapSize)
}

func (l *Locked[A]) Alloc(layout memutils.Layout) uintptr {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.allocator.Alloc(layout)
}

func (l *Locked[A]) AllocZeroed(layout memutils.Layout) uintptr {
	l.lock.Lock()
	defer l.lock.Unlock()

	ptr := l.allocator.Alloc(layout)
	if ptr != 0 {
		memory.Fill(l.allocator.Memory(), ptr, layout.Size, 0)
	}
	return ptr
}

func (l *Locked[A]) Dealloc(ptr uintptr, layout memutils.Layout) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.allocator.Dealloc(ptr, layout)
}

func (l *Locked[A]) Realloc(ptr uintptr, layout memutils.Layout, newSize uintptr) uintptr {
	newLayout, err := memutils.NewLayout(newSize, layout.Align)
	if err != nil {
		return 0
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	newPtr := l.allocator.Alloc(newLayout)
	if newPtr == 0 {
		return 0
	}

	copySize := layout.Size
	if newSize < copySize {
		copySize = newSize
	}
	memory.Copy(l.allocator.Memory(), newPtr, ptr, copySize)

	l.allocator.Dealloc(ptr, layout)
	return newPtr
}

// Validate runs the wrapped allocator's consistency checks while holding the lock
func (l *Locked[A]) Validate() error {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.allocator.Validate()
}

// PrintDetailedMap writes the wrapped allocator's detailed map while holding the lock
func (l *Locked[A]) PrintDetailedMap(json *jwriter.ObjectState) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.allocator.PrintDetailedMap(json)
}
