package allocator

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kheap/memory"
)

// Strategy selects one of the Allocator implementations in this package. The strategy is chosen
// once, when a heap is created, and never changes afterward.
type Strategy uint32

const (
	// StrategyFixedSizeBlock selects FixedSizeBlockAllocator: power-of-two size classes with a
	// LinkedListAllocator fallback. This is the default.
	StrategyFixedSizeBlock Strategy = iota
	// StrategyLinkedList selects LinkedListAllocator, a first-fit free list
	StrategyLinkedList
	// StrategyBump selects BumpAllocator, which only reclaims memory once every allocation is freed
	StrategyBump
	// StrategyDummy selects DummyAllocator, which fails every allocation
	StrategyDummy
)

var strategyMapping = map[Strategy]string{
	StrategyFixedSizeBlock: "FixedSizeBlock",
	StrategyLinkedList:     "LinkedList",
	StrategyBump:           "Bump",
	StrategyDummy:          "Dummy",
}

func (s Strategy) String() string {
	str, ok := strategyMapping[s]
	if !ok {
		return "Unknown"
	}
	return str
}

// New creates an uninitialized Allocator for the provided strategy over mem. blockSizes is only
// used by StrategyFixedSizeBlock; when it is empty, DefaultBlockSizes are used.
func New(strategy Strategy, mem memory.Memory, blockSizes []uintptr) (Allocator, error) {
	switch strategy {
	case StrategyFixedSizeBlock:
		if len(blockSizes) == 0 {
			return NewFixedSizeBlockAllocator(mem), nil
		}
		return NewFixedSizeBlockAllocatorWithSizes(mem, blockSizes)
	case StrategyLinkedList:
		return NewLinkedListAllocator(mem), nil
	case StrategyBump:
		return NewBumpAllocator(mem), nil
	case StrategyDummy:
		return DummyAllocator{}, nil
	default:
		return nil, errors.Newf("unknown allocator strategy: %d", uint32(strategy))
	}
}
