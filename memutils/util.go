package memutils

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint | ~uintptr | ~uint64
}

// IsPow2 returns true if number is a nonzero power of two
func IsPow2[T Number](number T) bool {
	return number != 0 && number&(number-1) == 0
}

func CheckPow2[T Number](number T, name string) error {
	if !IsPow2(number) {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// AlignUp returns the smallest address greater than or equal to addr that is a multiple of align.
// align must be a power of two; other values produce meaningless results.
func AlignUp(addr uintptr, align uintptr) uintptr {
	return (addr + align - 1) &^ (align - 1)
}

func AlignDown(addr uintptr, align uintptr) uintptr {
	return addr &^ (align - 1)
}

// CheckedAlignUp behaves like AlignUp but reports false instead of wrapping around the end
// of the address space
func CheckedAlignUp(addr uintptr, align uintptr) (uintptr, bool) {
	if addr+align-1 < addr {
		return 0, false
	}
	return AlignUp(addr, align), true
}
