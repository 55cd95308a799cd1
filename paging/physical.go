package paging

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kheap/memory"
)

// PhysicalMemory is simulated physical RAM: a memory.Arena starting at physical address 0 that
// covers every region of a memory map
type PhysicalMemory struct {
	*memory.Arena

	memoryMap []MemoryRegion
}

// NewPhysicalMemory reserves enough host memory to back every region of memoryMap
func NewPhysicalMemory(memoryMap []MemoryRegion) (*PhysicalMemory, error) {
	var top uintptr
	for _, region := range memoryMap {
		if region.End < region.Start {
			return nil, errors.Newf("memory region [0x%x, 0x%x) ends before it starts", region.Start, region.End)
		}
		if region.End > top {
			top = region.End
		}
	}

	if top == 0 {
		return nil, errors.New("memory map does not contain any memory")
	}

	top = (top + PageSize - 1) &^ (PageSize - 1)
	arena, err := memory.NewArena(0, int(top))
	if err != nil {
		return nil, errors.Wrap(err, "failed to reserve physical memory")
	}

	return &PhysicalMemory{
		Arena:     arena,
		memoryMap: memoryMap,
	}, nil
}

// MemoryMap returns the memory map this physical memory was created for
func (m *PhysicalMemory) MemoryMap() []MemoryRegion {
	return m.memoryMap
}

// FrameAllocator returns a new BootInfoFrameAllocator over this memory's memory map
func (m *PhysicalMemory) FrameAllocator() *BootInfoFrameAllocator {
	return NewBootInfoFrameAllocator(m.memoryMap)
}
