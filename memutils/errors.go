package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

// ErrInvalidLayout is returned by NewLayout when the requested size and alignment cannot describe
// a block of memory
var ErrInvalidLayout error = errors.New("invalid layout")
