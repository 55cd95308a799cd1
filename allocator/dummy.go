package allocator

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/kheap/memory"
	"github.com/vkngwrapper/kheap/memutils"
)

// DummyAllocator is an Allocator with no memory at all. Every allocation fails, and since nothing
// can ever be allocated, any call to Dealloc is a caller bug and panics. It stands in for the real
// allocator until the heap has been bootstrapped.
type DummyAllocator struct{}

var _ Allocator = DummyAllocator{}

func (DummyAllocator) Init(heapStart, heapSize uintptr) {}

func (DummyAllocator) Memory() memory.Memory { return nil }

func (DummyAllocator) Alloc(layout memutils.Layout) uintptr { return 0 }

func (DummyAllocator) Dealloc(ptr uintptr, layout memutils.Layout) {
	panic("dealloc should be never called")
}

func (DummyAllocator) Validate() error { return nil }

func (DummyAllocator) PrintDetailedMap(json *jwriter.ObjectState) {
	json.Name("Strategy").String(StrategyDummy.String())
}
