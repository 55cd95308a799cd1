package allocator_test

import (
	"testing"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/kheap/allocator"
	"github.com/vkngwrapper/kheap/memory"
	"github.com/vkngwrapper/kheap/memutils"
)

const testHeapStart uintptr = 0x10000

func newArena(t *testing.T, size int) *memory.Arena {
	t.Helper()

	arena, err := memory.NewArena(testHeapStart, size)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, arena.Close())
	})
	return arena
}

func layout(size, align uintptr) memutils.Layout {
	return memutils.MustLayout(size, align)
}

func detailedMap(a allocator.Allocator) string {
	writer := jwriter.NewWriter()
	obj := writer.Object()
	a.PrintDetailedMap(&obj)
	obj.End()
	return string(writer.Bytes())
}

func freeRegions(t *testing.T, a *allocator.LinkedListAllocator) [][2]uintptr {
	t.Helper()

	var regions [][2]uintptr
	require.NoError(t, a.VisitFreeRegions(func(addr, size uintptr) error {
		regions = append(regions, [2]uintptr{addr, size})
		return nil
	}))
	return regions
}
