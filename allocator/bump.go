package allocator

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/kheap/memory"
	"github.com/vkngwrapper/kheap/memutils"
)

// BumpAllocator hands out memory by advancing a cursor through the heap. Individual blocks are never
// reclaimed: the cursor only returns to the start of the heap once every live allocation has been
// freed, at which point all of the heap is reused at once.
//
// This makes allocation O(1) with no fragmentation bookkeeping, but it is only a good fit when
// allocation lifetimes are broadly nested or are all released together.
type BumpAllocator struct {
	heapRegion

	next        uintptr
	allocations int
}

var _ Allocator = &BumpAllocator{}

// NewBumpAllocator creates an uninitialized BumpAllocator over mem
func NewBumpAllocator(mem memory.Memory) *BumpAllocator {
	return &BumpAllocator{
		heapRegion: newHeapRegion(mem),
	}
}

func (b *BumpAllocator) Init(heapStart, heapSize uintptr) {
	b.heapRegion.init(heapStart, heapSize)
	b.next = heapStart
	b.allocations = 0
}

// Next returns the address the next allocation will be aligned up from
func (b *BumpAllocator) Next() uintptr { return b.next }

// AllocationCount returns the number of live allocations
func (b *BumpAllocator) AllocationCount() int { return b.allocations }

func (b *BumpAllocator) Alloc(layout memutils.Layout) uintptr {
	memutils.DebugValidate(b)
	memutils.DebugCheckPow2(layout.Align, "layout.Align")

	if !b.initialized {
		return 0
	}

	allocStart, ok := memutils.CheckedAlignUp(b.next, layout.Align)
	if !ok {
		return 0
	}

	allocEnd := allocStart + layout.Size
	if allocEnd < allocStart || allocEnd > b.heapEnd() {
		// Out of memory
		return 0
	}

	b.next = allocEnd
	b.allocations++

	return allocStart
}

// Dealloc releases one allocation. When the last live allocation is released the cursor returns to
// the start of the heap, so every address handed out before that point becomes invalid.
func (b *BumpAllocator) Dealloc(ptr uintptr, layout memutils.Layout) {
	if b.allocations == 0 {
		panic("bump allocator received a dealloc with no live allocations")
	}

	b.allocations--
	if b.allocations == 0 {
		b.next = b.heapStart
	}
}

func (b *BumpAllocator) Validate() error {
	if !b.initialized {
		if b.allocations != 0 {
			return errors.New("uninitialized bump allocator has live allocations")
		}
		return nil
	}

	if b.next < b.heapStart || b.next > b.heapEnd() {
		return errors.Errorf("bump cursor 0x%x is outside of the heap [0x%x, 0x%x)", b.next, b.heapStart, b.heapEnd())
	}

	if b.allocations < 0 {
		return errors.Errorf("bump allocator has a negative allocation count: %d", b.allocations)
	}

	if b.allocations == 0 && b.next != b.heapStart {
		return errors.Errorf("bump allocator has no live allocations but its cursor is at 0x%x instead of the heap start", b.next)
	}

	return nil
}

func (b *BumpAllocator) PrintDetailedMap(json *jwriter.ObjectState) {
	b.printHeader(json, StrategyBump)
	json.Name("Next").Int(int(b.next - b.heapStart))
	json.Name("Allocations").Int(b.allocations)
	json.Name("UnusedBytes").Int(int(b.heapEnd() - b.next))
}
