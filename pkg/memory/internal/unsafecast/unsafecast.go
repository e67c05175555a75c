// Package unsafecast provides utilties for sizing typed memory.
package unsafecast

import (
	"math/bits"
	"unsafe"
)

// Sizeof returns the size of T in bytes.
func Sizeof[T any]() uintptr {
	return unsafe.Sizeof(*(*T)(nil))
}

// BlockSize returns the number of bytes needed to hold n values of T. ok is
// false if the result does not fit in a uint64.
func BlockSize[T any](n int) (size uint64, ok bool) {
	if n < 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(uint64(Sizeof[T]()), uint64(n))
	return lo, hi == 0
}
