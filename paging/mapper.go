package paging

//go:generate mockgen -source mapper.go -destination ./mocks/mocks.go -package mocks

// FrameAllocator hands out unused physical frames
type FrameAllocator interface {
	// AllocateFrame reserves a frame. It returns false when no frames are left.
	AllocateFrame() (Frame, bool)
}

// Mapper installs virtual-to-physical mappings in a page table
type Mapper interface {
	// MapTo maps page to frame with the provided flags. Intermediate page tables that need to be
	// created are allocated from frames. The mapping is not guaranteed to be visible until the
	// returned MapperFlush has been flushed.
	MapTo(page Page, frame Frame, flags PageTableFlags, frames FrameAllocator) (MapperFlush, error)
}

// MapperFlush is returned from a successful MapTo. Flushing it invalidates any stale translation
// of the page so that the new mapping takes effect.
type MapperFlush interface {
	Flush()
}
