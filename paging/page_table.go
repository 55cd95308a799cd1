package paging

import (
	"fmt"

	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/kheap/memory"
)

// EntriesPerTable is the number of entries in a single page table
const EntriesPerTable = 512

type pageTableEntry struct {
	frame   Frame
	flags   PageTableFlags
	flushed bool
}

// PageTable is a simulated single address space. It maps virtual pages to frames of a physical
// memory and, once mappings have been flushed, acts as a memory.Memory over the mapped virtual
// addresses.
//
// Leaf entries are kept in a hash table rather than in a tree of physical tables, but a frame
// is still allocated, zeroed and accounted for each table of EntriesPerTable leaves so that
// the frame allocator sees the same demand a hardware page table would place on it.
//
// Entries that have been mapped but not yet flushed are not visible: accessing them faults,
// the same way a stale TLB entry would.
type PageTable struct {
	physical memory.Memory

	entries *swiss.Map[Page, pageTableEntry]
	tables  *swiss.Map[uintptr, Frame]
}

var _ Mapper = &PageTable{}
var _ memory.Memory = &PageTable{}

// NewPageTable creates an empty page table whose frames live in physical
func NewPageTable(physical memory.Memory) *PageTable {
	return &PageTable{
		physical: physical,
		entries:  swiss.NewMap[Page, pageTableEntry](64),
		tables:   swiss.NewMap[uintptr, Frame](8),
	}
}

type pageTableFlush struct {
	table *PageTable
	page  Page
}

func (f pageTableFlush) Flush() {
	entry, ok := f.table.entries.Get(f.page)
	if !ok {
		return
	}

	entry.flushed = true
	f.table.entries.Put(f.page, entry)
}

func (t *PageTable) MapTo(page Page, frame Frame, flags PageTableFlags, frames FrameAllocator) (MapperFlush, error) {
	if t.entries.Has(page) {
		return nil, &MapToError{Kind: PageAlreadyMapped, Page: page}
	}

	tableIndex := uintptr(page) / EntriesPerTable
	if !t.tables.Has(tableIndex) {
		tableFrame, ok := frames.AllocateFrame()
		if !ok {
			return nil, &MapToError{Kind: FrameAllocationFailed, Page: page}
		}

		memory.Fill(t.physical, tableFrame.StartAddress(), PageSize, 0)
		t.tables.Put(tableIndex, tableFrame)
	}

	t.entries.Put(page, pageTableEntry{
		frame: frame,
		flags: flags | FlagPresent,
	})

	return pageTableFlush{table: t, page: page}, nil
}

// MappedPages returns the number of pages with a mapping, flushed or not
func (t *PageTable) MappedPages() int {
	return t.entries.Count()
}

// TableFrames returns the number of frames allocated for page tables
func (t *PageTable) TableFrames() int {
	return t.tables.Count()
}

// Entry returns the frame and flags that page is mapped to, including mappings that have
// not been flushed
func (t *PageTable) Entry(page Page) (Frame, PageTableFlags, bool) {
	entry, ok := t.entries.Get(page)
	if !ok {
		return 0, 0, false
	}
	return entry.frame, entry.flags, true
}

func (t *PageTable) lookup(virtAddr uintptr) (pageTableEntry, bool) {
	entry, ok := t.entries.Get(PageContaining(virtAddr))
	if !ok || !entry.flushed {
		return pageTableEntry{}, false
	}
	return entry, true
}

// Translate returns the physical address that virtAddr maps to, or false if its page has no
// flushed mapping
func (t *PageTable) Translate(virtAddr uintptr) (uintptr, bool) {
	entry, ok := t.lookup(virtAddr)
	if !ok {
		return 0, false
	}

	return entry.frame.StartAddress() + virtAddr&(PageSize-1), true
}

func (t *PageTable) translateAccess(virtAddr uintptr, size int, write bool) uintptr {
	entry, ok := t.lookup(virtAddr)
	if !ok {
		panic(&memory.FaultError{Addr: virtAddr, Size: size, Reason: "page not mapped"})
	}
	if write && !entry.flags.Has(FlagWritable) {
		panic(&memory.FaultError{Addr: virtAddr, Size: size, Reason: "page not writable"})
	}

	return entry.frame.StartAddress() + virtAddr&(PageSize-1)
}

func checkWordAligned(virtAddr uintptr) {
	if virtAddr%memory.WordSize != 0 {
		panic(&memory.FaultError{
			Addr:   virtAddr,
			Size:   memory.WordSize,
			Reason: fmt.Sprintf("address not aligned to %d bytes", memory.WordSize),
		})
	}
}

func (t *PageTable) LoadWord(virtAddr uintptr) uint64 {
	checkWordAligned(virtAddr)
	return t.physical.LoadWord(t.translateAccess(virtAddr, memory.WordSize, false))
}

func (t *PageTable) StoreWord(virtAddr uintptr, value uint64) {
	checkWordAligned(virtAddr)
	t.physical.StoreWord(t.translateAccess(virtAddr, memory.WordSize, true), value)
}

// visitChunks splits [virtAddr, virtAddr+size) at page boundaries
func visitChunks(virtAddr uintptr, size int, handleChunk func(virtAddr uintptr, offset int, size int)) {
	offset := 0
	for offset < size {
		chunk := int(PageSize - (virtAddr+uintptr(offset))&(PageSize-1))
		if chunk > size-offset {
			chunk = size - offset
		}

		handleChunk(virtAddr+uintptr(offset), offset, chunk)
		offset += chunk
	}
}

func (t *PageTable) ReadAt(p []byte, virtAddr uintptr) {
	visitChunks(virtAddr, len(p), func(chunkAddr uintptr, offset int, size int) {
		t.physical.ReadAt(p[offset:offset+size], t.translateAccess(chunkAddr, size, false))
	})
}

func (t *PageTable) WriteAt(p []byte, virtAddr uintptr) {
	visitChunks(virtAddr, len(p), func(chunkAddr uintptr, offset int, size int) {
		t.physical.WriteAt(p[offset:offset+size], t.translateAccess(chunkAddr, size, true))
	})
}
