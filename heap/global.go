package heap

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kheap/allocator"
	"github.com/vkngwrapper/kheap/memory"
	"github.com/vkngwrapper/kheap/memutils"
	"github.com/vkngwrapper/kheap/paging"
	"golang.org/x/exp/slog"
)

var global atomic.Pointer[Heap]

// dummyHeap serves the package-level functions until InitGlobal succeeds. It fails every
// allocation.
var dummyHeap = mustDummyHeap()

func mustDummyHeap() *Heap {
	h, err := New(nil, nil, CreateOptions{Strategy: allocator.StrategyDummy})
	if err != nil {
		panic(err)
	}
	return h
}

// InitGlobal creates and bootstraps a heap and installs it as the process-wide heap used by
// Global, Alloc, AllocZeroed, Realloc and Dealloc. It can succeed only once.
func InitGlobal(logger *slog.Logger, mem memory.Memory, mapper paging.Mapper, frames paging.FrameAllocator, options CreateOptions) (*Heap, error) {
	if global.Load() != nil {
		return nil, ErrAlreadyInitialized
	}

	h, err := New(logger, mem, options)
	if err != nil {
		return nil, err
	}

	err = h.Init(mapper, frames)
	if err != nil {
		return nil, err
	}

	if !global.CompareAndSwap(nil, h) {
		return nil, errors.Wrap(ErrAlreadyInitialized, "another heap was installed concurrently")
	}

	return h, nil
}

// Global returns the process-wide heap. Before InitGlobal succeeds, it returns a heap that
// fails every allocation.
func Global() *Heap {
	h := global.Load()
	if h == nil {
		return dummyHeap
	}
	return h
}

// Alloc allocates from the process-wide heap
func Alloc(layout memutils.Layout) uintptr {
	return Global().Alloc(layout)
}

// AllocZeroed allocates zeroed memory from the process-wide heap
func AllocZeroed(layout memutils.Layout) uintptr {
	return Global().AllocZeroed(layout)
}

// Realloc resizes a block allocated from the process-wide heap
func Realloc(ptr uintptr, layout memutils.Layout, newSize uintptr) uintptr {
	return Global().Realloc(ptr, layout, newSize)
}

// Dealloc frees a block allocated from the process-wide heap
func Dealloc(ptr uintptr, layout memutils.Layout) {
	Global().Dealloc(ptr, layout)
}
