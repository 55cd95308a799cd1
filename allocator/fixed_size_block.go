package allocator

import (
	"fmt"

	cerrors "github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/kheap/memory"
	"github.com/vkngwrapper/kheap/memutils"
)

// DefaultBlockSizes are the size classes used by NewFixedSizeBlockAllocator. Each block size is
// also the alignment of blocks of that size, so the classes must be powers of two.
var DefaultBlockSizes = []uintptr{8, 16, 32, 64, 128, 256, 512, 1024, 2048}

const (
	// blockNodeSize and blockNodeAlign describe the node written into a free block: a single
	// word holding the address of the next free block of the same size
	blockNodeSize  uintptr = memory.WordSize
	blockNodeAlign uintptr = memory.WordSize
)

// FixedSizeBlockAllocator keeps one free list per size class. Requests are rounded up to the
// smallest class that satisfies both their size and alignment and are served by popping the
// head of that class's list, so allocation and deallocation of small blocks are O(1).
//
// When a class's list is empty, a new block is carved from a LinkedListAllocator covering the
// whole heap. Blocks never move between classes and are never returned to the fallback. Requests
// larger than the largest class go to the fallback directly.
type FixedSizeBlockAllocator struct {
	heapRegion

	blockSizes []uintptr
	listHeads  []uintptr
	fallback   *LinkedListAllocator
}

var _ Allocator = &FixedSizeBlockAllocator{}

// NewFixedSizeBlockAllocator creates an uninitialized FixedSizeBlockAllocator over mem using
// DefaultBlockSizes
func NewFixedSizeBlockAllocator(mem memory.Memory) *FixedSizeBlockAllocator {
	allocator, err := NewFixedSizeBlockAllocatorWithSizes(mem, DefaultBlockSizes)
	if err != nil {
		panic(err)
	}
	return allocator
}

// NewFixedSizeBlockAllocatorWithSizes creates an uninitialized FixedSizeBlockAllocator over mem
// with custom size classes. blockSizes must be strictly increasing powers of two, and every
// class must be able to hold a free block node of one word.
func NewFixedSizeBlockAllocatorWithSizes(mem memory.Memory, blockSizes []uintptr) (*FixedSizeBlockAllocator, error) {
	if len(blockSizes) == 0 {
		return nil, cerrors.New("at least one block size is required")
	}

	for i, size := range blockSizes {
		err := memutils.CheckPow2(size, fmt.Sprintf("blockSizes[%d]", i))
		if err != nil {
			return nil, err
		}

		if size < blockNodeSize {
			return nil, cerrors.Newf("blockSizes[%d] is %d, which cannot hold a free block node of %d bytes", i, size, blockNodeSize)
		}

		if i > 0 && size <= blockSizes[i-1] {
			return nil, cerrors.Newf("block sizes must be strictly increasing, but blockSizes[%d] is %d and blockSizes[%d] is %d", i-1, blockSizes[i-1], i, size)
		}
	}

	sizes := make([]uintptr, len(blockSizes))
	copy(sizes, blockSizes)

	return &FixedSizeBlockAllocator{
		heapRegion: newHeapRegion(mem),
		blockSizes: sizes,
		listHeads:  make([]uintptr, len(sizes)),
		fallback:   NewLinkedListAllocator(mem),
	}, nil
}

func (a *FixedSizeBlockAllocator) Init(heapStart, heapSize uintptr) {
	a.heapRegion.init(heapStart, heapSize)
	a.fallback.Init(heapStart, heapSize)
}

// BlockSizes returns a copy of the size classes of this allocator, smallest first
func (a *FixedSizeBlockAllocator) BlockSizes() []uintptr {
	return append([]uintptr(nil), a.blockSizes...)
}

// Fallback returns the LinkedListAllocator that new blocks and oversize requests are served from
func (a *FixedSizeBlockAllocator) Fallback() *LinkedListAllocator {
	return a.fallback
}

// listIndex returns the index of the smallest size class that can hold layout, or false if
// layout is larger than every class
func (a *FixedSizeBlockAllocator) listIndex(layout memutils.Layout) (int, bool) {
	required := layout.Size
	if layout.Align > required {
		required = layout.Align
	}

	for index, size := range a.blockSizes {
		if size >= required {
			return index, true
		}
	}

	return -1, false
}

func (a *FixedSizeBlockAllocator) pushBlock(index int, ptr uintptr) {
	blockSize := a.blockSizes[index]
	if blockNodeSize > blockSize {
		panic(fmt.Sprintf("block size %d is too small to hold a free block node of %d bytes", blockSize, blockNodeSize))
	}
	if blockNodeAlign > blockSize {
		panic(fmt.Sprintf("block size %d is too small to align a free block node to %d bytes", blockSize, blockNodeAlign))
	}

	a.mem.StoreWord(ptr, uint64(a.listHeads[index]))
	a.listHeads[index] = ptr
}

func (a *FixedSizeBlockAllocator) popBlock(index int) uintptr {
	block := a.listHeads[index]
	if block == 0 {
		return 0
	}

	a.listHeads[index] = uintptr(a.mem.LoadWord(block))
	return block
}

func (a *FixedSizeBlockAllocator) Alloc(layout memutils.Layout) uintptr {
	memutils.DebugValidate(a)

	index, ok := a.listIndex(layout)
	if !ok {
		return a.fallback.Alloc(layout)
	}

	block := a.popBlock(index)
	if block != 0 {
		return block
	}

	// No free block of this size, carve a new one. Blocks are aligned to their size so that
	// any request mapped to this class is satisfied regardless of its alignment.
	blockSize := a.blockSizes[index]
	return a.fallback.Alloc(memutils.Layout{Size: blockSize, Align: blockSize})
}

func (a *FixedSizeBlockAllocator) Dealloc(ptr uintptr, layout memutils.Layout) {
	index, ok := a.listIndex(layout)
	if ok {
		a.pushBlock(index, ptr)
		return
	}

	if ptr == 0 {
		panic("fixed size block allocator received a dealloc of a null pointer")
	}
	a.fallback.Dealloc(ptr, layout)
}

// VisitFreeBlocks calls the provided callback once for each free block held in a size class
// list, class by class from the smallest. Iteration stops at the first error returned from the
// callback.
func (a *FixedSizeBlockAllocator) VisitFreeBlocks(handleBlock func(blockSize uintptr, addr uintptr) error) error {
	for index, blockSize := range a.blockSizes {
		maxBlocks := int(a.heapSize/blockSize) + 1
		steps := 0

		for block := a.listHeads[index]; block != 0; block = uintptr(a.mem.LoadWord(block)) {
			steps++
			if steps > maxBlocks {
				return errors.Errorf("free list for block size %d has a cycle", blockSize)
			}

			err := handleBlock(blockSize, block)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (a *FixedSizeBlockAllocator) Validate() error {
	if !a.initialized {
		for index, head := range a.listHeads {
			if head != 0 {
				return errors.Errorf("uninitialized fixed size block allocator has free blocks of size %d", a.blockSizes[index])
			}
		}
		return a.fallback.Validate()
	}

	ranges, err := a.fallback.freeRanges()
	if err != nil {
		return errors.Wrap(err, "fallback allocator")
	}

	err = a.VisitFreeBlocks(func(blockSize uintptr, addr uintptr) error {
		if addr%blockSize != 0 {
			return errors.Errorf("free block at 0x%x is not aligned to its block size %d", addr, blockSize)
		}
		if !a.contains(addr, blockSize) {
			return errors.Errorf("free block at 0x%x (%d bytes) is not inside the heap [0x%x, 0x%x)", addr, blockSize, a.heapStart, a.heapEnd())
		}

		ranges = append(ranges, freeRange{start: addr, size: blockSize})
		return nil
	})
	if err != nil {
		return err
	}

	return checkOverlaps(ranges)
}

func (a *FixedSizeBlockAllocator) PrintDetailedMap(json *jwriter.ObjectState) {
	a.printHeader(json, StrategyFixedSizeBlock)

	classes := json.Name("SizeClasses").Array()
	for index, blockSize := range a.blockSizes {
		obj := classes.Object()
		obj.Name("BlockSize").Int(int(blockSize))

		blocks := obj.Name("FreeBlocks").Array()
		maxBlocks := int(a.heapSize/blockSize) + 1
		steps := 0
		for block := a.listHeads[index]; block != 0 && steps < maxBlocks; block = uintptr(a.mem.LoadWord(block)) {
			blocks.Int(int(block - a.heapStart))
			steps++
		}
		blocks.End()

		obj.End()
	}
	classes.End()

	fallback := json.Name("Fallback").Object()
	a.fallback.printFreeRegions(&fallback)
	fallback.End()
}
