package memory

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// Arena is a Memory backed by a single contiguous region of host memory that appears
// at [Base(), Base()+Size()) in its address space.
type Arena struct {
	base    uintptr
	data    []byte
	release func([]byte) error
}

var _ Memory = &Arena{}

// NewArena reserves size bytes of zeroed host memory and exposes them at address base.
// The backing storage is an anonymous mapping where the platform supports it.
func NewArena(base uintptr, size int) (*Arena, error) {
	if size <= 0 {
		return nil, errors.Newf("arena size must be positive, got %d", size)
	}
	if base+uintptr(size) < base {
		return nil, errors.Newf("arena at 0x%x with size %d wraps the address space", base, size)
	}

	data, release, err := mapAnonymous(size)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to reserve %d bytes for arena", size)
	}

	return &Arena{
		base:    base,
		data:    data,
		release: release,
	}, nil
}

// Close releases the host memory backing the arena. The arena must not be used afterward.
func (a *Arena) Close() error {
	if a.data == nil {
		return nil
	}

	data := a.data
	a.data = nil
	return a.release(data)
}

// Base returns the first address of the arena
func (a *Arena) Base() uintptr { return a.base }

// Size returns the size of the arena in bytes
func (a *Arena) Size() int { return len(a.data) }

// Contains returns true if [addr, addr+size) lies entirely within the arena
func (a *Arena) Contains(addr uintptr, size int) bool {
	if addr < a.base || size < 0 {
		return false
	}
	offset := addr - a.base
	return offset <= uintptr(len(a.data)) && uintptr(size) <= uintptr(len(a.data))-offset
}

func (a *Arena) slice(addr uintptr, size int) []byte {
	if a.data == nil {
		fault(addr, size, "arena is closed")
	}
	if !a.Contains(addr, size) {
		fault(addr, size, "address outside of arena")
	}

	offset := addr - a.base
	return a.data[offset : offset+uintptr(size)]
}

func (a *Arena) LoadWord(addr uintptr) uint64 {
	if addr%WordSize != 0 {
		fault(addr, WordSize, "unaligned word access")
	}
	return binary.LittleEndian.Uint64(a.slice(addr, WordSize))
}

func (a *Arena) StoreWord(addr uintptr, value uint64) {
	if addr%WordSize != 0 {
		fault(addr, WordSize, "unaligned word access")
	}
	binary.LittleEndian.PutUint64(a.slice(addr, WordSize), value)
}

func (a *Arena) ReadAt(p []byte, addr uintptr) {
	copy(p, a.slice(addr, len(p)))
}

func (a *Arena) WriteAt(p []byte, addr uintptr) {
	copy(a.slice(addr, len(p)), p)
}
