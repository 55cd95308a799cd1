// Package memory models the raw, byte-addressable memory that kheap allocators manage. Addresses
// are plain uintptr values in some address space; a Memory translates them to backing storage.
package memory

import (
	"fmt"
)

// WordSize is the size in bytes of the words read and written by LoadWord and StoreWord
const WordSize = 8

// Memory is a byte-addressable address space. Allocators keep their bookkeeping inside the
// memory they manage, so every access they make goes through this interface.
//
// Accesses to addresses that are not backed by storage are faults: implementations panic with
// a *FaultError, the same way a kernel would take a page fault. Memory has no synchronization of
// its own.
type Memory interface {
	// LoadWord reads the little-endian 64-bit word at addr. addr must be aligned to WordSize.
	LoadWord(addr uintptr) uint64
	// StoreWord writes value as a little-endian 64-bit word at addr. addr must be aligned to WordSize.
	StoreWord(addr uintptr, value uint64)
	// ReadAt copies len(p) bytes starting at addr into p
	ReadAt(p []byte, addr uintptr)
	// WriteAt copies p into memory starting at addr
	WriteAt(p []byte, addr uintptr)
}

// FaultError describes an access to memory that could not be satisfied
type FaultError struct {
	Addr   uintptr
	Size   int
	Reason string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("memory fault at 0x%x (%d bytes): %s", e.Addr, e.Size, e.Reason)
}

func fault(addr uintptr, size int, reason string) {
	panic(&FaultError{Addr: addr, Size: size, Reason: reason})
}

// Fill writes value into every byte of [addr, addr+size)
func Fill(mem Memory, addr uintptr, size uintptr, value byte) {
	var chunk [256]byte
	if value != 0 {
		for i := range chunk {
			chunk[i] = value
		}
	}

	for size > 0 {
		n := uintptr(len(chunk))
		if size < n {
			n = size
		}
		mem.WriteAt(chunk[:n], addr)
		addr += n
		size -= n
	}
}

// Copy copies size bytes from src to dst within the same Memory. The ranges must not overlap.
func Copy(mem Memory, dst, src uintptr, size uintptr) {
	var chunk [256]byte
	for size > 0 {
		n := uintptr(len(chunk))
		if size < n {
			n = size
		}
		mem.ReadAt(chunk[:n], src)
		mem.WriteAt(chunk[:n], dst)
		src += n
		dst += n
		size -= n
	}
}
