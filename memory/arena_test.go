package memory_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/kheap/memory"
)

func newArena(t *testing.T, base uintptr, size int) *memory.Arena {
	t.Helper()

	arena, err := memory.NewArena(base, size)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, arena.Close())
	})
	return arena
}

func TestArenaWords(t *testing.T) {
	arena := newArena(t, 0x1000, 4096)

	require.Equal(t, uintptr(0x1000), arena.Base())
	require.Equal(t, 4096, arena.Size())
	require.Zero(t, arena.LoadWord(0x1000))

	arena.StoreWord(0x1008, 0xdeadbeefcafef00d)
	require.Equal(t, uint64(0xdeadbeefcafef00d), arena.LoadWord(0x1008))

	var raw [8]byte
	arena.ReadAt(raw[:], 0x1008)
	require.Equal(t, [8]byte{0x0d, 0xf0, 0xfe, 0xca, 0xef, 0xbe, 0xad, 0xde}, raw)
}

func TestArenaBytes(t *testing.T) {
	arena := newArena(t, 0x1000, 64)

	arena.WriteAt([]byte("hello, heap"), 0x1030)
	out := make([]byte, 11)
	arena.ReadAt(out, 0x1030)
	require.Equal(t, "hello, heap", string(out))

	memory.Fill(arena, 0x1000, 64, 0xAA)
	arena.ReadAt(out, 0x1030)
	for _, b := range out {
		require.Equal(t, byte(0xAA), b)
	}
}

func TestArenaCopy(t *testing.T) {
	arena := newArena(t, 0x10000, 2048)

	src := make([]byte, 700)
	for i := range src {
		src[i] = byte(i * 7)
	}
	arena.WriteAt(src, 0x10000)
	memory.Copy(arena, 0x10400, 0x10000, 700)

	dst := make([]byte, 700)
	arena.ReadAt(dst, 0x10400)
	require.Equal(t, src, dst)
}

func TestArenaFaults(t *testing.T) {
	arena := newArena(t, 0x1000, 64)

	require.PanicsWithError(t, "memory fault at 0x1040 (8 bytes): address outside of arena", func() {
		arena.LoadWord(0x1040)
	})
	require.PanicsWithError(t, "memory fault at 0x1004 (8 bytes): unaligned word access", func() {
		arena.StoreWord(0x1004, 1)
	})
	require.Panics(t, func() {
		arena.WriteAt(make([]byte, 2), 0x103F)
	})
	require.Panics(t, func() {
		arena.ReadAt(make([]byte, 1), 0xFFF)
	})

	require.True(t, arena.Contains(0x1000, 64))
	require.False(t, arena.Contains(0x1000, 65))
	require.True(t, arena.Contains(0x1040, 0))
}

func TestNewArenaRejectsBadSizes(t *testing.T) {
	_, err := memory.NewArena(0x1000, 0)
	require.Error(t, err)

	_, err = memory.NewArena(^uintptr(0)-16, 64)
	require.Error(t, err)
}
