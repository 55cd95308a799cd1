package heap_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/kheap/heap"
	"github.com/vkngwrapper/kheap/memory"
	"github.com/vkngwrapper/kheap/paging"
	"golang.org/x/exp/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard))
}

func newArena(t *testing.T, base uintptr, size int) *memory.Arena {
	t.Helper()

	arena, err := memory.NewArena(base, size)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, arena.Close())
	})
	return arena
}

type machine struct {
	physical *paging.PhysicalMemory
	table    *paging.PageTable
	frames   *paging.BootInfoFrameAllocator
}

// newMachine builds a page table over 1 MiB of simulated physical memory, with the first frame
// reserved
func newMachine(t *testing.T) *machine {
	t.Helper()

	physical, err := paging.NewPhysicalMemory([]paging.MemoryRegion{
		{Start: 0, End: 0x1000, Type: paging.RegionReserved},
		{Start: 0x1000, End: 0x100000, Type: paging.RegionUsable},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, physical.Close())
	})

	return &machine{
		physical: physical,
		table:    paging.NewPageTable(physical),
		frames:   physical.FrameAllocator(),
	}
}

func newBootstrappedHeap(t *testing.T, options heap.CreateOptions) (*heap.Heap, *machine) {
	t.Helper()

	m := newMachine(t)
	h, err := heap.New(discardLogger(), m.table, options)
	require.NoError(t, err)
	require.NoError(t, h.Init(m.table, m.frames))
	return h, m
}
