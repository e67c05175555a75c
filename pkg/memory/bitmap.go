package memory

import (
	"fmt"
	"iter"

	"github.com/apache/arrow-go/v18/arrow/bitutil"
)

// Bitmap is a growable sequence of bits stored LSB first, the same layout
// Arrow uses for validity bitmaps. The zero value is an empty bitmap.
type Bitmap struct {
	data []byte
	len  int
}

// NewBitmap returns an empty Bitmap with room for at least n bits.
func NewBitmap(n int) Bitmap {
	return Bitmap{data: make([]byte, bitutil.BytesForBits(int64(n)))}
}

// Len returns the number of bits in bmap.
func (bmap *Bitmap) Len() int { return bmap.len }

// Cap returns the number of bits bmap can hold without growing.
func (bmap *Bitmap) Cap() int { return len(bmap.data) * 8 }

// Resize changes the length of bmap to n bits. Bits added by growing are
// unset.
func (bmap *Bitmap) Resize(n int) {
	if n < 0 {
		panic(fmt.Sprintf("memory: negative bitmap length %d", n))
	}
	if n > bmap.Cap() {
		grown := make([]byte, bitutil.BytesForBits(int64(max(n, 2*bmap.Cap()))))
		copy(grown, bmap.data)
		bmap.data = grown
	}
	if n > bmap.len {
		bitutil.SetBitsTo(bmap.data, int64(bmap.len), int64(n-bmap.len), false)
	}
	bmap.len = n
}

// Get returns the bit at index i.
func (bmap *Bitmap) Get(i int) bool {
	bmap.checkIndex(i)
	return bitutil.BitIsSet(bmap.data, i)
}

// Set sets the bit at index i to value.
func (bmap *Bitmap) Set(i int, value bool) {
	bmap.checkIndex(i)
	bitutil.SetBitTo(bmap.data, i, value)
}

// SetRange sets the bits in [from, to) to value.
func (bmap *Bitmap) SetRange(from, to int, value bool) {
	if from < 0 || from > to || to > bmap.len {
		panic(fmt.Sprintf("memory: bitmap range [%d, %d) out of bounds [0, %d)", from, to, bmap.len))
	}
	bitutil.SetBitsTo(bmap.data, int64(from), int64(to-from), value)
}

// Count returns the number of set bits.
func (bmap *Bitmap) Count() int {
	if bmap.len == 0 {
		return 0
	}
	return bitutil.CountSetBits(bmap.data, 0, bmap.len)
}

// IterValues returns an iterator over the indices of bits equal to value.
func (bmap *Bitmap) IterValues(value bool) iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := range bmap.len {
			if bitutil.BitIsSet(bmap.data, i) != value {
				continue
			}
			if !yield(i) {
				return
			}
		}
	}
}

func (bmap *Bitmap) checkIndex(i int) {
	if i < 0 || i >= bmap.len {
		panic(fmt.Sprintf("memory: bitmap index %d out of bounds [0, %d)", i, bmap.len))
	}
}
