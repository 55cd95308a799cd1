package memutils

import (
	cerrors "github.com/cockroachdb/errors"
)

// Layout describes a requested block of memory: its size in bytes and the alignment
// its start address must satisfy.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// NewLayout builds a Layout from a size and alignment. align must be a nonzero power of two and
// size, once rounded up to a multiple of align, must not overflow.
func NewLayout(size, align uintptr) (Layout, error) {
	if !IsPow2(align) {
		return Layout{}, cerrors.Wrapf(ErrInvalidLayout, "alignment %d is not a power of two", align)
	}

	if size > ^uintptr(0)-(align-1) {
		return Layout{}, cerrors.Wrapf(ErrInvalidLayout, "size %d overflows when padded to alignment %d", size, align)
	}

	return Layout{Size: size, Align: align}, nil
}

// MustLayout is NewLayout for layouts known to be valid. It panics on error.
func MustLayout(size, align uintptr) Layout {
	layout, err := NewLayout(size, align)
	if err != nil {
		panic(err)
	}
	return layout
}

// AlignTo returns a layout with the same size and an alignment of at least align.
func (l Layout) AlignTo(align uintptr) (Layout, error) {
	if align < l.Align {
		align = l.Align
	}
	return NewLayout(l.Size, align)
}

// PadToAlign rounds the layout's size up to a multiple of its alignment. The layout must
// have been built by NewLayout, which guarantees the rounding does not overflow.
func (l Layout) PadToAlign() Layout {
	return Layout{Size: AlignUp(l.Size, l.Align), Align: l.Align}
}
