package allocator

import "github.com/pkg/errors"

var (
	errAddressOverflow   = errors.New("allocation failed due to address overflow")
	errRegionTooSmall    = errors.New("memory region too small")
	errRemainderTooSmall = errors.New("remainder of memory region too small to hold a free list node")
)

// allocationRequest is produced when a free region has been found that can hold an allocation.
// It records both the region, which has already been unlinked from its free list, and where in
// that region the allocation will be placed.
type allocationRequest struct {
	// RegionStart is the address of the free region's list node
	RegionStart uintptr
	// RegionSize is the size of the free region in bytes, including its list node
	RegionSize uintptr
	// AllocStart is the aligned address of the allocation within the region
	AllocStart uintptr
	// AllocEnd is the first address past the allocation
	AllocEnd uintptr
}

func (r allocationRequest) regionEnd() uintptr {
	return r.RegionStart + r.RegionSize
}

// excess is the number of bytes left in the region after the allocation
func (r allocationRequest) excess() uintptr {
	return r.regionEnd() - r.AllocEnd
}
