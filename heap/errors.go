package heap

import "github.com/cockroachdb/errors"

// ErrAlreadyInitialized is returned when a heap is bootstrapped more than once
var ErrAlreadyInitialized = errors.New("heap has already been initialized")

// ErrOutOfMemory is returned by heap-backed collections when the heap cannot satisfy an allocation
var ErrOutOfMemory = errors.New("out of heap memory")
