// Package heap sets up the kernel heap. It maps the heap's virtual address range onto physical
// frames, initializes the configured allocation strategy over it and exposes the result as an
// allocator.GlobalAlloc, both as an explicit *Heap value and as a process-wide instance.
package heap

import (
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/kheap/allocator"
	"github.com/vkngwrapper/kheap/memory"
	"github.com/vkngwrapper/kheap/memutils"
	"golang.org/x/exp/slog"
)

const (
	// HeapStart is the default virtual address of the first byte of the heap
	HeapStart uintptr = 0x4000_0000_0000
	// HeapSize is the default size of the heap in bytes
	HeapSize uintptr = 100 * 1024
)

// DefaultSizeClasses are the block sizes used by the fixed-size block strategy when
// CreateOptions.SizeClasses is empty
var DefaultSizeClasses = append([]uintptr(nil), allocator.DefaultBlockSizes...)

const (
	stateUninitialized uint32 = iota
	stateInitializing
	stateReady
)

// CreateOptions contains optional settings when creating a heap
type CreateOptions struct {
	// Strategy selects the allocation strategy. The zero value is allocator.StrategyFixedSizeBlock.
	Strategy allocator.Strategy
	// HeapStart is the virtual address of the heap. It must be aligned to memory.WordSize. When
	// left at 0, the package HeapStart is used.
	HeapStart uintptr
	// HeapSize is the size of the heap in bytes. When left at 0, the package HeapSize is used.
	HeapSize uintptr
	// SizeClasses can be left empty. If it is provided, it replaces DefaultSizeClasses for the
	// fixed-size block strategy and must be a strictly increasing list of powers of two no smaller
	// than memory.WordSize.
	SizeClasses []uintptr
}

// Heap is a kernel heap: a single allocation strategy over a contiguous virtual address range,
// guarded by a spinlock. A Heap hands out no memory until Init has mapped its address range.
type Heap struct {
	logger *slog.Logger
	mem    memory.Memory

	strategy  allocator.Strategy
	heapStart uintptr
	heapSize  uintptr

	allocator *allocator.Locked[allocator.Allocator]
	state     atomic.Uint32
}

var _ allocator.GlobalAlloc = &Heap{}

// New creates an uninitialized heap
//
// logger - The logger that bootstrap progress and failures are written to
//
// mem - The address space that the heap lives in. The heap's range must be readable and writable
// through mem once Init has mapped it.
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, mem memory.Memory, options CreateOptions) (*Heap, error) {
	if logger == nil {
		logger = slog.Default()
	}

	heapStart := options.HeapStart
	if heapStart == 0 {
		heapStart = HeapStart
	}

	heapSize := options.HeapSize
	if heapSize == 0 {
		heapSize = HeapSize
	}

	if memutils.AlignDown(heapStart, memory.WordSize) != heapStart {
		return nil, errors.Newf("heap start 0x%x is not aligned to %d bytes", heapStart, memory.WordSize)
	}

	if heapStart+heapSize < heapStart {
		return nil, errors.Newf("heap at 0x%x with size %d wraps the address space", heapStart, heapSize)
	}

	if options.Strategy == allocator.StrategyLinkedList || options.Strategy == allocator.StrategyFixedSizeBlock {
		if heapSize < allocator.ListNodeSize {
			return nil, errors.Newf("heap size %d cannot hold a %d-byte free list node", heapSize, allocator.ListNodeSize)
		}
	}

	sizeClasses := options.SizeClasses
	if len(sizeClasses) == 0 {
		sizeClasses = DefaultSizeClasses
	}

	strategyAllocator, err := allocator.New(options.Strategy, mem, sizeClasses)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s allocator", options.Strategy)
	}

	return &Heap{
		logger:    logger,
		mem:       mem,
		strategy:  options.Strategy,
		heapStart: heapStart,
		heapSize:  heapSize,
		allocator: allocator.NewLocked(strategyAllocator),
	}, nil
}

// Memory returns the address space the heap lives in
func (h *Heap) Memory() memory.Memory { return h.mem }

// Strategy returns the allocation strategy the heap was created with
func (h *Heap) Strategy() allocator.Strategy { return h.strategy }

// HeapStart returns the virtual address of the first byte of the heap
func (h *Heap) HeapStart() uintptr { return h.heapStart }

// HeapSize returns the size of the heap in bytes
func (h *Heap) HeapSize() uintptr { return h.heapSize }

// Initialized returns true once Init has completed successfully
func (h *Heap) Initialized() bool {
	return h.state.Load() == stateReady
}

func (h *Heap) Alloc(layout memutils.Layout) uintptr {
	return h.allocator.Alloc(layout)
}

func (h *Heap) AllocZeroed(layout memutils.Layout) uintptr {
	return h.allocator.AllocZeroed(layout)
}

func (h *Heap) Dealloc(ptr uintptr, layout memutils.Layout) {
	h.allocator.Dealloc(ptr, layout)
}

func (h *Heap) Realloc(ptr uintptr, layout memutils.Layout, newSize uintptr) uintptr {
	newPtr := h.allocator.Realloc(ptr, layout, newSize)
	if newPtr == 0 {
		h.logger.Debug("Heap::Realloc failed",
			slog.String("Ptr", fmt.Sprintf("0x%x", ptr)),
			slog.Int("OldSize", int(layout.Size)),
			slog.Int("NewSize", int(newSize)),
			slog.Int("Align", int(layout.Align)))
	}
	return newPtr
}

// Validate runs the allocation strategy's consistency checks
func (h *Heap) Validate() error {
	return h.allocator.Validate()
}

// DumpJSON returns a JSON document describing the heap's free memory
func (h *Heap) DumpJSON() []byte {
	writer := jwriter.NewWriter()
	obj := writer.Object()
	obj.Name("Initialized").Bool(h.Initialized())

	heapObj := obj.Name("Heap").Object()
	h.allocator.PrintDetailedMap(&heapObj)
	heapObj.End()

	obj.End()
	return writer.Bytes()
}
