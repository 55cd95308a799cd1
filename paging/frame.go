// Package paging describes the virtual memory collaborators the kernel heap depends on: physical
// frames and the allocator that provides them, virtual pages, and the mapper that installs
// page table entries. It also contains a simulated page table and physical memory so that heaps
// can be bootstrapped in a hosted process.
package paging

const (
	// PageShift is log2 of PageSize
	PageShift = 12
	// PageSize is the size in bytes of both a virtual page and a physical frame
	PageSize uintptr = 1 << PageShift
)

// Frame describes a physical memory frame index
type Frame uintptr

// FrameContaining returns the frame that contains the provided physical address. The address
// does not need to be aligned to a frame boundary.
func FrameContaining(physAddr uintptr) Frame {
	return Frame(physAddr >> PageShift)
}

// StartAddress returns the physical address of the first byte of the frame
func (f Frame) StartAddress() uintptr {
	return uintptr(f) << PageShift
}

// EmptyFrameAllocator is a FrameAllocator that has no frames at all
type EmptyFrameAllocator struct{}

var _ FrameAllocator = EmptyFrameAllocator{}

func (EmptyFrameAllocator) AllocateFrame() (Frame, bool) {
	return 0, false
}

// MemoryRegionType classifies a region of the physical memory map
type MemoryRegionType int

const (
	// RegionUsable is free memory that frames can be allocated from
	RegionUsable MemoryRegionType = iota
	// RegionReserved is memory that must not be touched
	RegionReserved
	// RegionKernel is memory holding the kernel image or bootloader data
	RegionKernel
)

var regionTypeMapping = map[MemoryRegionType]string{
	RegionUsable:   "Usable",
	RegionReserved: "Reserved",
	RegionKernel:   "Kernel",
}

func (t MemoryRegionType) String() string {
	str, ok := regionTypeMapping[t]
	if !ok {
		return "Unknown"
	}
	return str
}

// MemoryRegion is one entry of the physical memory map: the physical range [Start, End)
type MemoryRegion struct {
	Start uintptr
	End   uintptr
	Type  MemoryRegionType
}

// BootInfoFrameAllocator returns the usable frames of a physical memory map in order. Frames are
// never freed: once the map is exhausted, every further allocation fails.
//
// The memory map must be accurate. In particular, every frame in a usable region must really be
// unused.
type BootInfoFrameAllocator struct {
	memoryMap []MemoryRegion

	// regionIndex is the memory map entry the next frame comes from
	regionIndex int
	// nextFrame is the next frame to hand out from the current region, or 0 if the
	// region has not been entered yet
	nextFrame Frame
	allocated int
}

var _ FrameAllocator = &BootInfoFrameAllocator{}

// NewBootInfoFrameAllocator creates a frame allocator over memoryMap
func NewBootInfoFrameAllocator(memoryMap []MemoryRegion) *BootInfoFrameAllocator {
	return &BootInfoFrameAllocator{
		memoryMap: memoryMap,
	}
}

// regionFrames returns the first frame and one past the last frame that lie entirely inside the
// region. Region bounds are not required to be page aligned.
func regionFrames(region MemoryRegion) (Frame, Frame) {
	start := FrameContaining(region.Start + PageSize - 1)
	end := FrameContaining(region.End)
	return start, end
}

func (a *BootInfoFrameAllocator) AllocateFrame() (Frame, bool) {
	for ; a.regionIndex < len(a.memoryMap); a.regionIndex++ {
		region := a.memoryMap[a.regionIndex]
		if region.Type == RegionUsable && region.End > region.Start {
			startFrame, endFrame := regionFrames(region)
			if a.nextFrame < startFrame {
				a.nextFrame = startFrame
			}

			if a.nextFrame < endFrame {
				frame := a.nextFrame
				a.nextFrame++
				a.allocated++
				return frame, true
			}
		}

		a.nextFrame = 0
	}

	return 0, false
}

// AllocatedFrames returns the number of frames handed out so far
func (a *BootInfoFrameAllocator) AllocatedFrames() int {
	return a.allocated
}
