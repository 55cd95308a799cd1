package allocator

import (
	"fmt"
	"sort"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/kheap/memory"
	"github.com/vkngwrapper/kheap/memutils"
)

const (
	// ListNodeSize is the number of bytes a free region must have in order to hold the
	// linked list node that describes it: a size word followed by a next word
	ListNodeSize uintptr = 2 * memory.WordSize
	// ListNodeAlign is the alignment that a free region's start address must have
	ListNodeAlign uintptr = memory.WordSize

	listNodeSizeOffset uintptr = 0
	listNodeNextOffset uintptr = memory.WordSize
)

// listNode is the in-heap node describing one free region. Only the sentinel head of the list
// lives outside the heap, as a listNode value with size 0.
type listNode struct {
	size uintptr
	next uintptr
}

// LinkedListAllocator is a general purpose first-fit allocator. Free regions are kept in a singly
// linked list whose nodes are stored inside the free regions themselves: the first word of a
// free region is its size and the second is the address of the next free region, or 0.
//
// Regions are pushed at the head of the list and the list is not ordered. Adjacent free regions
// are never merged.
type LinkedListAllocator struct {
	heapRegion

	head listNode
}

var _ Allocator = &LinkedListAllocator{}

// NewLinkedListAllocator creates an empty LinkedListAllocator over mem
func NewLinkedListAllocator(mem memory.Memory) *LinkedListAllocator {
	return &LinkedListAllocator{
		heapRegion: newHeapRegion(mem),
	}
}

func (a *LinkedListAllocator) Init(heapStart, heapSize uintptr) {
	a.heapRegion.init(heapStart, heapSize)
	a.addFreeRegion(heapStart, heapSize)
}

func (a *LinkedListAllocator) nodeSize(node uintptr) uintptr {
	return uintptr(a.mem.LoadWord(node + listNodeSizeOffset))
}

func (a *LinkedListAllocator) nodeNext(node uintptr) uintptr {
	if node == 0 {
		return a.head.next
	}
	return uintptr(a.mem.LoadWord(node + listNodeNextOffset))
}

func (a *LinkedListAllocator) setNodeNext(node uintptr, next uintptr) {
	if node == 0 {
		a.head.next = next
		return
	}
	a.mem.StoreWord(node+listNodeNextOffset, uint64(next))
}

// addFreeRegion writes a list node describing [addr, addr+size) at addr and pushes it at the
// front of the list. The region must be unused, aligned to ListNodeAlign and at least ListNodeSize
// bytes long; anything else is a broken invariant and panics.
func (a *LinkedListAllocator) addFreeRegion(addr, size uintptr) {
	if memutils.AlignUp(addr, ListNodeAlign) != addr {
		panic(fmt.Sprintf("free region at 0x%x is not aligned to %d bytes", addr, ListNodeAlign))
	}
	if size < ListNodeSize {
		panic(fmt.Sprintf("free region at 0x%x is %d bytes, too small to hold a free list node", addr, size))
	}

	a.mem.StoreWord(addr+listNodeSizeOffset, uint64(size))
	a.mem.StoreWord(addr+listNodeNextOffset, uint64(a.head.next))
	a.head.next = addr
}

// allocFromRegion determines whether an allocation of size bytes aligned to align can be placed
// in the free region [regionStart, regionStart+regionSize). The region is rejected if whatever
// is left over after the allocation is too small to be put back on the free list.
func allocFromRegion(regionStart, regionSize, size, align uintptr) (allocationRequest, error) {
	allocStart, ok := memutils.CheckedAlignUp(regionStart, align)
	if !ok {
		return allocationRequest{}, errAddressOverflow
	}

	allocEnd := allocStart + size
	if allocEnd < allocStart {
		return allocationRequest{}, errAddressOverflow
	}

	regionEnd := regionStart + regionSize
	if allocEnd > regionEnd {
		return allocationRequest{}, errRegionTooSmall
	}

	excess := regionEnd - allocEnd
	if excess > 0 && excess < ListNodeSize {
		// The rest of the region can't hold a list node, so splitting it off would leak it
		return allocationRequest{}, errRemainderTooSmall
	}

	return allocationRequest{
		RegionStart: regionStart,
		RegionSize:  regionSize,
		AllocStart:  allocStart,
		AllocEnd:    allocEnd,
	}, nil
}

// maxNodes is the largest number of list nodes that can fit in the heap. Walking more than this
// many nodes means the list has a cycle.
func (a *LinkedListAllocator) maxNodes() int {
	return int(a.heapSize/ListNodeSize) + 1
}

func (a *LinkedListAllocator) checkNode(node uintptr) {
	if node%ListNodeAlign != 0 || !a.contains(node, ListNodeSize) {
		panic(fmt.Sprintf("free list is corrupt: node at 0x%x is not a valid node address in heap [0x%x, 0x%x)", node, a.heapStart, a.heapEnd()))
	}
}

// findRegion walks the free list from its head and returns the first region that can hold an
// allocation of size bytes aligned to align. The region is unlinked from the list before it is
// returned.
func (a *LinkedListAllocator) findRegion(size, align uintptr) (allocationRequest, bool) {
	prev := uintptr(0)
	steps := 0

	for region := a.head.next; region != 0; region = a.nodeNext(region) {
		a.checkNode(region)
		steps++
		if steps > a.maxNodes() {
			panic("free list is corrupt: cycle detected")
		}

		request, err := allocFromRegion(region, a.nodeSize(region), size, align)
		if err == nil {
			a.setNodeNext(prev, a.nodeNext(region))
			return request, true
		}

		prev = region
	}

	return allocationRequest{}, false
}

// sizeAlign adjusts layout so that the resulting block is always able to hold a list node once
// it is freed.
func sizeAlign(layout memutils.Layout) (size uintptr, align uintptr, err error) {
	adjusted, err := layout.AlignTo(ListNodeAlign)
	if err != nil {
		return 0, 0, err
	}
	adjusted = adjusted.PadToAlign()

	size = adjusted.Size
	if size < ListNodeSize {
		size = ListNodeSize
	}

	return size, adjusted.Align, nil
}

func (a *LinkedListAllocator) Alloc(layout memutils.Layout) uintptr {
	memutils.DebugValidate(a)
	memutils.DebugCheckPow2(layout.Align, "layout.Align")

	size, align, err := sizeAlign(layout)
	if err != nil {
		return 0
	}

	request, found := a.findRegion(size, align)
	if !found {
		return 0
	}

	if excess := request.excess(); excess > 0 {
		a.addFreeRegion(request.AllocEnd, excess)
	}

	return request.AllocStart
}

func (a *LinkedListAllocator) Dealloc(ptr uintptr, layout memutils.Layout) {
	size, _, err := sizeAlign(layout)
	if err != nil {
		panic(fmt.Sprintf("dealloc received a layout that could not have been allocated: %+v", err))
	}

	a.addFreeRegion(ptr, size)
}

// VisitFreeRegions calls the provided callback once for each region in the free list, in list
// order. Iteration stops at the first error returned from the callback.
func (a *LinkedListAllocator) VisitFreeRegions(handleRegion func(addr, size uintptr) error) error {
	steps := 0
	for region := a.head.next; region != 0; region = a.nodeNext(region) {
		steps++
		if steps > a.maxNodes() {
			return errors.New("free list has a cycle")
		}

		err := handleRegion(region, a.nodeSize(region))
		if err != nil {
			return err
		}
	}

	return nil
}

type freeRange struct {
	start uintptr
	size  uintptr
}

func checkOverlaps(ranges []freeRange) error {
	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].start < ranges[j].start
	})

	for i := 1; i < len(ranges); i++ {
		prev := ranges[i-1]
		if prev.start+prev.size > ranges[i].start {
			return errors.Errorf("free memory at 0x%x (%d bytes) overlaps free memory at 0x%x", prev.start, prev.size, ranges[i].start)
		}
	}

	return nil
}

func (a *LinkedListAllocator) freeRanges() ([]freeRange, error) {
	var ranges []freeRange

	err := a.VisitFreeRegions(func(addr, size uintptr) error {
		if addr%ListNodeAlign != 0 {
			return errors.Errorf("free region at 0x%x is not aligned to %d bytes", addr, ListNodeAlign)
		}
		if size < ListNodeSize {
			return errors.Errorf("free region at 0x%x is %d bytes, smaller than a list node", addr, size)
		}
		if !a.contains(addr, size) {
			return errors.Errorf("free region at 0x%x (%d bytes) is not inside the heap [0x%x, 0x%x)", addr, size, a.heapStart, a.heapEnd())
		}

		ranges = append(ranges, freeRange{start: addr, size: size})
		return nil
	})

	return ranges, err
}

func (a *LinkedListAllocator) Validate() error {
	if !a.initialized {
		if a.head.next != 0 {
			return errors.New("uninitialized linked list allocator has free regions")
		}
		return nil
	}

	ranges, err := a.freeRanges()
	if err != nil {
		return err
	}

	return checkOverlaps(ranges)
}

func (a *LinkedListAllocator) printFreeRegions(json *jwriter.ObjectState) {
	arrayState := json.Name("FreeRegions").Array()
	defer arrayState.End()

	_ = a.VisitFreeRegions(func(addr, size uintptr) error {
		obj := arrayState.Object()
		defer obj.End()

		obj.Name("Offset").Int(int(addr - a.heapStart))
		obj.Name("Size").Int(int(size))
		return nil
	})
}

func (a *LinkedListAllocator) PrintDetailedMap(json *jwriter.ObjectState) {
	a.printHeader(json, StrategyLinkedList)
	a.printFreeRegions(json)
}
