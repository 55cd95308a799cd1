package allocator_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/kheap/allocator"
	"github.com/vkngwrapper/kheap/memory"
)

func TestLockedLockExposesAllocator(t *testing.T) {
	list := allocator.NewLinkedListAllocator(newArena(t, 4096))
	locked := allocator.NewLocked(list)
	locked.Init(testHeapStart, 4096)

	inner := locked.Lock()
	require.Same(t, list, inner)
	ptr := inner.Alloc(layout(16, 8))
	locked.Unlock()

	require.Equal(t, testHeapStart, ptr)
	require.Equal(t, testHeapStart+16, locked.Alloc(layout(16, 8)))
	require.NoError(t, locked.Validate())
}

func TestLockedAllocZeroed(t *testing.T) {
	arena := newArena(t, 4096)
	locked := allocator.NewLocked(allocator.NewLinkedListAllocator(arena))
	locked.Init(testHeapStart, 4096)

	ptr := locked.Alloc(layout(64, 8))
	memory.Fill(arena, ptr, 64, 0xff)
	locked.Dealloc(ptr, layout(64, 8))

	zeroed := locked.AllocZeroed(layout(64, 8))
	require.Equal(t, ptr, zeroed)

	contents := make([]byte, 64)
	arena.ReadAt(contents, zeroed)
	require.Equal(t, make([]byte, 64), contents)
}

func TestLockedRealloc(t *testing.T) {
	arena := newArena(t, 4096)
	locked := allocator.NewLocked(allocator.NewLinkedListAllocator(arena))
	locked.Init(testHeapStart, 4096)

	ptr := locked.Alloc(layout(16, 8))
	arena.WriteAt([]byte("0123456789abcdef"), ptr)

	grown := locked.Realloc(ptr, layout(16, 8), 64)
	require.NotZero(t, grown)
	require.NotEqual(t, ptr, grown)

	contents := make([]byte, 16)
	arena.ReadAt(contents, grown)
	require.Equal(t, []byte("0123456789abcdef"), contents)

	shrunk := locked.Realloc(grown, layout(64, 8), 8)
	require.NotZero(t, shrunk)
	contents = make([]byte, 8)
	arena.ReadAt(contents, shrunk)
	require.Equal(t, []byte("01234567"), contents)
	require.NoError(t, locked.Validate())
}

func TestLockedReallocFailureKeepsBlock(t *testing.T) {
	arena := newArena(t, 4096)
	locked := allocator.NewLocked(allocator.NewLinkedListAllocator(arena))
	locked.Init(testHeapStart, 4096)

	ptr := locked.Alloc(layout(16, 8))
	arena.WriteAt([]byte("0123456789abcdef"), ptr)

	require.Zero(t, locked.Realloc(ptr, layout(16, 8), 8192))
	require.Zero(t, locked.Realloc(ptr, layout(16, 8), ^uintptr(0)))

	contents := make([]byte, 16)
	arena.ReadAt(contents, ptr)
	require.Equal(t, []byte("0123456789abcdef"), contents)

	// The block is still live, so it is not handed out again
	require.NotEqual(t, ptr, locked.Alloc(layout(16, 8)))
}

func TestLockedDummy(t *testing.T) {
	locked := allocator.NewLocked[allocator.Allocator](allocator.DummyAllocator{})

	require.Nil(t, locked.Memory())
	require.Zero(t, locked.Alloc(layout(8, 8)))
	require.Zero(t, locked.AllocZeroed(layout(8, 8)))
	require.Zero(t, locked.Realloc(0x1000, layout(8, 8), 16))
	require.PanicsWithValue(t, "dealloc should be never called", func() {
		locked.Dealloc(0x1000, layout(8, 8))
	})
}

func TestLockedConcurrentAllocation(t *testing.T) {
	const workers = 8
	const iterations = 500

	arena := newArena(t, 64*1024)
	locked := allocator.NewLocked(allocator.NewFixedSizeBlockAllocator(arena))
	locked.Init(testHeapStart, 64*1024)

	var failures atomic.Int32
	var wg sync.WaitGroup
	wg.Add(workers)

	for worker := 0; worker < workers; worker++ {
		go func(id uint64) {
			defer wg.Done()

			for i := 0; i < iterations; i++ {
				ptr := locked.Alloc(layout(32, 8))
				if ptr == 0 {
					failures.Add(1)
					return
				}

				for offset := uintptr(0); offset < 32; offset += memory.WordSize {
					arena.StoreWord(ptr+offset, id)
				}
				for offset := uintptr(0); offset < 32; offset += memory.WordSize {
					if arena.LoadWord(ptr+offset) != id {
						failures.Add(1)
					}
				}

				locked.Dealloc(ptr, layout(32, 8))
			}
		}(uint64(worker + 1))
	}

	wg.Wait()
	require.Zero(t, failures.Load())
	require.NoError(t, locked.Validate())
}
