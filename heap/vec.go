package heap

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kheap/allocator"
	"github.com/vkngwrapper/kheap/memory"
	"github.com/vkngwrapper/kheap/memutils"
)

const minVecCapacity = 4

// Vec is a growable array of 64-bit words stored in heap memory. Growing the array reallocates
// its backing block, so a Vec is a convenient way to exercise a heap the way ordinary
// collections would.
//
// The zero Vec is not usable; create one with NewVec. A Vec must be freed with Free.
type Vec struct {
	alloc allocator.GlobalAlloc
	mem   memory.Memory

	ptr      uintptr
	length   int
	capacity int
}

// NewVec creates an empty Vec that allocates from h. No memory is allocated until the first Push.
func NewVec(h *Heap) *Vec {
	return &Vec{
		alloc: h,
		mem:   h.Memory(),
	}
}

func vecLayout(capacity int) memutils.Layout {
	return memutils.Layout{Size: uintptr(capacity) * memory.WordSize, Align: memory.WordSize}
}

func (v *Vec) grow() error {
	newCapacity := v.capacity * 2
	if newCapacity < minVecCapacity {
		newCapacity = minVecCapacity
	}

	var ptr uintptr
	if v.ptr == 0 {
		ptr = v.alloc.Alloc(vecLayout(newCapacity))
	} else {
		ptr = v.alloc.Realloc(v.ptr, vecLayout(v.capacity), vecLayout(newCapacity).Size)
	}

	if ptr == 0 {
		return errors.Wrapf(ErrOutOfMemory, "failed to grow vec to %d elements", newCapacity)
	}

	v.ptr = ptr
	v.capacity = newCapacity
	return nil
}

// Push appends value to the end of the Vec. If the Vec is full and cannot grow, it is left
// unchanged and an error wrapping ErrOutOfMemory is returned.
func (v *Vec) Push(value uint64) error {
	if v.length == v.capacity {
		err := v.grow()
		if err != nil {
			return err
		}
	}

	v.mem.StoreWord(v.ptr+uintptr(v.length)*memory.WordSize, value)
	v.length++
	return nil
}

// Get returns the element at index. It panics if index is out of range.
func (v *Vec) Get(index int) uint64 {
	if index < 0 || index >= v.length {
		panic(fmt.Sprintf("vec index %d out of range for length %d", index, v.length))
	}

	return v.mem.LoadWord(v.ptr + uintptr(index)*memory.WordSize)
}

// Len returns the number of elements in the Vec
func (v *Vec) Len() int { return v.length }

// Cap returns the number of elements the Vec can hold before it must grow
func (v *Vec) Cap() int { return v.capacity }

// Free returns the Vec's memory to the heap and empties it
func (v *Vec) Free() {
	if v.ptr != 0 {
		v.alloc.Dealloc(v.ptr, vecLayout(v.capacity))
	}

	v.ptr = 0
	v.length = 0
	v.capacity = 0
}
