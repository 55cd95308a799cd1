package paging_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/kheap/memory"
	"github.com/vkngwrapper/kheap/paging"
	"github.com/vkngwrapper/kheap/paging/mocks"
	"go.uber.org/mock/gomock"
)

const virtBase uintptr = 0x4000_0000_0000

func newPhysicalMemory(t *testing.T, memoryMap []paging.MemoryRegion) *paging.PhysicalMemory {
	t.Helper()

	physical, err := paging.NewPhysicalMemory(memoryMap)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, physical.Close())
	})
	return physical
}

func mapPage(t *testing.T, table *paging.PageTable, virtAddr uintptr, frame paging.Frame, flags paging.PageTableFlags, frames paging.FrameAllocator) {
	t.Helper()

	flush, err := table.MapTo(paging.PageContaining(virtAddr), frame, flags, frames)
	require.NoError(t, err)
	flush.Flush()
}

func TestPhysicalMemory(t *testing.T) {
	physical := newPhysicalMemory(t, []paging.MemoryRegion{
		{Start: 0, End: 0x1000, Type: paging.RegionReserved},
		{Start: 0x1000, End: 0x4800, Type: paging.RegionUsable},
	})

	require.Equal(t, uintptr(0), physical.Base())
	require.Equal(t, 0x5000, physical.Size())

	frames := physical.FrameAllocator()
	frame, ok := frames.AllocateFrame()
	require.True(t, ok)
	require.Equal(t, paging.Frame(1), frame)

	_, err := paging.NewPhysicalMemory(nil)
	require.Error(t, err)

	_, err = paging.NewPhysicalMemory([]paging.MemoryRegion{{Start: 0x2000, End: 0x1000}})
	require.Error(t, err)
}

func TestPageTableTranslate(t *testing.T) {
	physical := newPhysicalMemory(t, []paging.MemoryRegion{
		{Start: 0, End: 0x10000, Type: paging.RegionUsable},
	})
	frames := physical.FrameAllocator()
	table := paging.NewPageTable(physical)

	dataFrame, ok := frames.AllocateFrame()
	require.True(t, ok)

	_, ok = table.Translate(virtBase + 0x10)
	require.False(t, ok)

	flush, err := table.MapTo(paging.PageContaining(virtBase), dataFrame, paging.FlagWritable, frames)
	require.NoError(t, err)
	require.Equal(t, 1, table.MappedPages())
	require.Equal(t, 1, table.TableFrames())

	// Not visible until flushed
	_, ok = table.Translate(virtBase + 0x10)
	require.False(t, ok)

	frame, flags, ok := table.Entry(paging.PageContaining(virtBase))
	require.True(t, ok)
	require.Equal(t, dataFrame, frame)
	require.Equal(t, paging.FlagPresent|paging.FlagWritable, flags)

	flush.Flush()
	phys, ok := table.Translate(virtBase + 0x10)
	require.True(t, ok)
	require.Equal(t, dataFrame.StartAddress()+0x10, phys)
}

func TestPageTableDoubleMap(t *testing.T) {
	physical := newPhysicalMemory(t, []paging.MemoryRegion{
		{Start: 0, End: 0x10000, Type: paging.RegionUsable},
	})
	frames := physical.FrameAllocator()
	table := paging.NewPageTable(physical)

	mapPage(t, table, virtBase, 5, paging.FlagWritable, frames)

	_, err := table.MapTo(paging.PageContaining(virtBase), 6, paging.FlagWritable, frames)
	require.ErrorIs(t, err, paging.ErrPageAlreadyMapped)

	frame, _, ok := table.Entry(paging.PageContaining(virtBase))
	require.True(t, ok)
	require.Equal(t, paging.Frame(5), frame)
}

func TestPageTableAllocatesTableFrames(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	physical := newPhysicalMemory(t, []paging.MemoryRegion{
		{Start: 0, End: 0x10000, Type: paging.RegionUsable},
	})
	table := paging.NewPageTable(physical)

	frames := mocks.NewMockFrameAllocator(ctrl)
	frames.EXPECT().AllocateFrame().Return(paging.Frame(1), true)

	for i := uintptr(0); i < paging.EntriesPerTable; i++ {
		mapPage(t, table, virtBase+i*paging.PageSize, 2, paging.FlagWritable, frames)
	}
	require.Equal(t, 1, table.TableFrames())

	frames.EXPECT().AllocateFrame().Return(paging.Frame(0), false)
	_, err := table.MapTo(paging.PageContaining(virtBase+paging.EntriesPerTable*paging.PageSize), 2, paging.FlagWritable, frames)
	require.ErrorIs(t, err, paging.ErrFrameAllocationFailed)
	require.Equal(t, paging.EntriesPerTable, table.MappedPages())

	_, err = table.MapTo(paging.PageContaining(virtBase), 2, paging.FlagWritable, paging.EmptyFrameAllocator{})
	require.ErrorIs(t, err, paging.ErrPageAlreadyMapped)
}

func TestPageTableMemory(t *testing.T) {
	physical := newPhysicalMemory(t, []paging.MemoryRegion{
		{Start: 0, End: 0x10000, Type: paging.RegionUsable},
	})
	frames := physical.FrameAllocator()
	table := paging.NewPageTable(physical)

	// Two consecutive virtual pages backed by frames in the opposite order
	mapPage(t, table, virtBase, 9, paging.FlagWritable, frames)
	mapPage(t, table, virtBase+paging.PageSize, 8, paging.FlagWritable, frames)

	table.StoreWord(virtBase+0x18, 0x1122334455667788)
	require.Equal(t, uint64(0x1122334455667788), table.LoadWord(virtBase+0x18))
	require.Equal(t, uint64(0x1122334455667788), physical.LoadWord(paging.Frame(9).StartAddress()+0x18))

	data := []byte("crosses a page boundary")
	addr := virtBase + paging.PageSize - 8
	table.WriteAt(data, addr)

	out := make([]byte, len(data))
	table.ReadAt(out, addr)
	require.Equal(t, data, out)

	physOut := make([]byte, len(data)-8)
	physical.ReadAt(physOut, paging.Frame(8).StartAddress())
	require.Equal(t, data[8:], physOut)

	memory.Fill(table, virtBase, 2*paging.PageSize, 0xab)
	require.Equal(t, uint64(0xabababababababab), table.LoadWord(virtBase+paging.PageSize+0x100))
}

func TestPageTableFaults(t *testing.T) {
	physical := newPhysicalMemory(t, []paging.MemoryRegion{
		{Start: 0, End: 0x10000, Type: paging.RegionUsable},
	})
	frames := physical.FrameAllocator()
	table := paging.NewPageTable(physical)

	require.PanicsWithError(t, "memory fault at 0x400000000000 (8 bytes): page not mapped", func() {
		table.LoadWord(virtBase)
	})

	flush, err := table.MapTo(paging.PageContaining(virtBase), 4, paging.FlagWritable, frames)
	require.NoError(t, err)
	require.PanicsWithError(t, "memory fault at 0x400000000000 (8 bytes): page not mapped", func() {
		table.StoreWord(virtBase, 1)
	})
	flush.Flush()
	require.NotPanics(t, func() {
		table.StoreWord(virtBase, 1)
	})

	require.PanicsWithError(t, "memory fault at 0x400000000004 (8 bytes): address not aligned to 8 bytes", func() {
		table.LoadWord(virtBase + 4)
	})

	mapPage(t, table, virtBase+paging.PageSize, 5, 0, frames)
	require.Equal(t, uint64(0), table.LoadWord(virtBase+paging.PageSize))
	require.PanicsWithError(t, "memory fault at 0x400000001000 (8 bytes): page not writable", func() {
		table.StoreWord(virtBase+paging.PageSize, 1)
	})

	require.PanicsWithError(t, "memory fault at 0x400000002000 (8 bytes): page not mapped", func() {
		table.ReadAt(make([]byte, 16), virtBase+paging.PageSize*2-8)
	})
}
