// Package allocator contains the heap allocation strategies used by kheap: a bump allocator, a
// first-fit linked list allocator and a fixed-size block allocator backed by a linked list
// fallback. Each strategy manages a single contiguous heap region and keeps all of its
// bookkeeping inside that region, reached through a memory.Memory.
package allocator

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/kheap/memory"
	"github.com/vkngwrapper/kheap/memutils"
)

// Allocator is a single heap allocation strategy. Allocators are not synchronized: wrap one in
// Locked before sharing it.
//
// Addresses returned by Alloc are addresses in the allocator's memory.Memory. An address of 0 is
// never a valid allocation and is used to signal failure.
type Allocator interface {
	// Init hands the region [heapStart, heapStart+heapSize) to the allocator. The region must be
	// backed by memory and otherwise unused. Init must be called exactly once, before any other
	// method; calling it again is not supported.
	Init(heapStart, heapSize uintptr)
	// Memory returns the address space the allocator manages, or nil if it manages none
	Memory() memory.Memory

	// Alloc returns the address of a block of at least layout.Size bytes whose address is a multiple
	// of layout.Align and which does not overlap any other live allocation. It returns 0 if no
	// such block is available. Allocation failure is never a panic.
	Alloc(layout memutils.Layout) uintptr
	// Dealloc returns a block to the allocator. ptr must have been returned by Alloc on this allocator
	// with the same layout and must not have been freed since. Violating this is not detected.
	Dealloc(ptr uintptr, layout memutils.Layout)

	// Validate performs internal consistency checks on the allocator's bookkeeping. These checks may be
	// expensive. When the implementation is functioning correctly and its callers respect the Dealloc
	// contract, it should not be possible for this method to return an error.
	Validate() error
	// PrintDetailedMap populates a json object with the allocator's free memory layout
	PrintDetailedMap(json *jwriter.ObjectState)
}

// GlobalAlloc is the allocation contract exposed to every dynamic allocation call site. It adds the
// derived operations AllocZeroed and Realloc to the basic Alloc/Dealloc pair.
type GlobalAlloc interface {
	// Alloc behaves like Allocator.Alloc
	Alloc(layout memutils.Layout) uintptr
	// AllocZeroed behaves like Alloc, but the returned block's contents are zeroed
	AllocZeroed(layout memutils.Layout) uintptr
	// Dealloc behaves like Allocator.Dealloc
	Dealloc(ptr uintptr, layout memutils.Layout)
	// Realloc grows or shrinks the block at ptr, allocated with layout, to newSize bytes with
	// the same alignment. The contents up to the smaller of the two sizes are preserved. On success
	// the old block is freed and the new address is returned; on failure 0 is returned and the old
	// block is left untouched.
	Realloc(ptr uintptr, layout memutils.Layout, newSize uintptr) uintptr
}

// heapRegion is shared by the allocator implementations in this package. It records the heap
// bounds handed to Init and the memory they live in.
type heapRegion struct {
	mem         memory.Memory
	heapStart   uintptr
	heapSize    uintptr
	initialized bool
}

func newHeapRegion(mem memory.Memory) heapRegion {
	return heapRegion{mem: mem}
}

func (r *heapRegion) init(heapStart, heapSize uintptr) {
	if heapStart+heapSize < heapStart {
		panic(fmt.Sprintf("heap at 0x%x with size %d wraps the address space", heapStart, heapSize))
	}

	r.heapStart = heapStart
	r.heapSize = heapSize
	r.initialized = true
}

// Memory returns the address space that the heap lives in
func (r *heapRegion) Memory() memory.Memory { return r.mem }

// HeapStart returns the first address of the heap region, or 0 if Init has not been called
func (r *heapRegion) HeapStart() uintptr { return r.heapStart }

// HeapSize returns the size in bytes of the heap region, or 0 if Init has not been called
func (r *heapRegion) HeapSize() uintptr { return r.heapSize }

func (r *heapRegion) heapEnd() uintptr { return r.heapStart + r.heapSize }

// contains returns true if [addr, addr+size) lies entirely within the heap
func (r *heapRegion) contains(addr, size uintptr) bool {
	if addr < r.heapStart || addr > r.heapEnd() {
		return false
	}
	return size <= r.heapEnd()-addr
}

func (r *heapRegion) printHeader(json *jwriter.ObjectState, strategy Strategy) {
	json.Name("Strategy").String(strategy.String())
	json.Name("HeapStart").String(fmt.Sprintf("0x%x", r.heapStart))
	json.Name("HeapSize").Int(int(r.heapSize))
}
