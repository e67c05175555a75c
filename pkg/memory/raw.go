package memory

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/grafana/rawvec/pkg/memory/internal/unsafecast"
)

// MaxBlockBytes is the largest block [Allocate] will hand out, whatever limit
// the caller asks for.
const MaxBlockBytes uint64 = 1 << 40

// Raw owns a block of slots for values of T. Raw never constructs or destroys
// values: a freshly allocated block holds only dead slots, and the owner of
// the Raw decides which slots hold live values.
//
// Raw must not be copied; ownership moves with [Raw.Take] and [Raw.Swap]. The
// zero value is an empty Raw with no block.
type Raw[T any] struct {
	noCopy noCopy

	slots []T
	size  uint64

	// live records occupied slots. It is only maintained when DebugChecks is
	// set.
	live Bitmap
}

// Allocate reserves a block of n dead slots. n == 0 returns an empty Raw
// without allocating. A non-zero limit caps the size of the block in bytes.
//
// Allocate fails with an error wrapping [ErrOutOfMemory] if the block would be
// larger than limit or [MaxBlockBytes]; nothing is allocated in that case.
func Allocate[T any](n int, limit uint64) (*Raw[T], error) {
	if n < 0 {
		panic(fmt.Sprintf("memory: negative slot count %d", n))
	}
	if n == 0 {
		return &Raw[T]{}, nil
	}

	size, ok := unsafecast.BlockSize[T](n)
	switch {
	case !ok:
		usage.failures.Inc()
		return nil, errors.Wrapf(ErrOutOfMemory, "allocating %d slots of %d bytes overflows", n, unsafecast.Sizeof[T]())
	case size > MaxBlockBytes:
		usage.failures.Inc()
		return nil, errors.Wrapf(ErrOutOfMemory, "allocating %d slots: %s exceeds maximum block size %s",
			n, humanize.IBytes(size), humanize.IBytes(MaxBlockBytes))
	case limit > 0 && size > limit:
		usage.failures.Inc()
		return nil, errors.Wrapf(ErrOutOfMemory, "allocating %d slots: %s exceeds limit %s",
			n, humanize.IBytes(size), humanize.IBytes(limit))
	}

	r := &Raw[T]{slots: make([]T, n), size: size}
	if DebugChecks {
		r.live = NewBitmap(n)
		r.live.Resize(n)
	}
	trackAlloc(size)
	return r, nil
}

// Cap returns the number of slots in the block.
func (r *Raw[T]) Cap() int { return len(r.slots) }

// Bytes returns the size of the block in bytes.
func (r *Raw[T]) Bytes() uint64 { return r.size }

// At returns the address of slot i, where 0 <= i < Cap(). The address is
// invalidated when the block changes hands.
func (r *Raw[T]) At(i int) *T {
	if DebugChecks && (i < 0 || i >= len(r.slots)) {
		panic(fmt.Sprintf("memory: slot %d out of range [0, %d)", i, len(r.slots)))
	}
	return &r.slots[i]
}

// Slots returns slots [from, to) as a slice aliasing the block. to may be
// Cap(), the one-past-the-end bound.
func (r *Raw[T]) Slots(from, to int) []T {
	if DebugChecks && (from < 0 || from > to || to > len(r.slots)) {
		panic(fmt.Sprintf("memory: slot range [%d, %d) out of range [0, %d]", from, to, len(r.slots)))
	}
	return r.slots[from:to:to]
}

// Take moves the block out of r into a new Raw. r is left empty.
func (r *Raw[T]) Take() *Raw[T] {
	out := new(Raw[T])
	out.Swap(r)
	return out
}

// Swap exchanges the blocks owned by r and other.
func (r *Raw[T]) Swap(other *Raw[T]) {
	r.slots, other.slots = other.slots, r.slots
	r.size, other.size = other.size, r.size
	r.live, other.live = other.live, r.live
}

// Release gives the block back. All slots must be dead: Release does not
// destroy values, and debug builds panic if a live slot remains. Releasing an
// empty Raw is a no-op.
func (r *Raw[T]) Release() {
	if r.slots == nil {
		return
	}
	if DebugChecks {
		if n := r.live.Count(); n > 0 {
			panic(fmt.Sprintf("memory: releasing block with %d live slots", n))
		}
	}
	trackRelease(r.size)
	r.slots, r.size, r.live = nil, 0, Bitmap{}
}

// MarkLive records that a value was constructed in slot i. Debug builds panic
// if the slot is already live; otherwise MarkLive does nothing.
func (r *Raw[T]) MarkLive(i int) {
	if !DebugChecks {
		return
	}
	if r.live.Get(i) {
		panic(fmt.Sprintf("memory: constructing over live slot %d", i))
	}
	r.live.Set(i, true)
}

// MarkDead records that the value in slot i was destroyed. Debug builds panic
// if the slot is not live; otherwise MarkDead does nothing.
func (r *Raw[T]) MarkDead(i int) {
	if !DebugChecks {
		return
	}
	if !r.live.Get(i) {
		panic(fmt.Sprintf("memory: destroying dead slot %d", i))
	}
	r.live.Set(i, false)
}

// Live reports how many slots are marked live. It is always 0 unless
// DebugChecks is set.
func (r *Raw[T]) Live() int {
	if !DebugChecks {
		return 0
	}
	return r.live.Count()
}

// noCopy makes go vet's copylocks check reject copies of Raw.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
