package vector

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/grafana/rawvec/pkg/memory"
)

// copyRange copy-constructs src[from:to] into the dead slots of dst starting
// at slot at. If a copy fails, every copy made so far is destroyed before the
// error is returned.
func copyRange[T any](tr traits, dst *memory.Raw[T], at int, src *memory.Raw[T], from, to int) error {
	for i := from; i < to; i++ {
		d := at + i - from
		if err := copyAt(tr, dst.At(d), src.At(i)); err != nil {
			destroyRange(tr, dst, at, d)
			return errors.Wrapf(err, "copying element %d", i)
		}
		dst.MarkLive(d)
	}
	return nil
}

// moveRange relocates src[from:to] into the dead slots of dst starting at
// slot at, leaving the source slots dead. If a move fails, the elements moved
// so far are moved back before the error is returned.
func moveRange[T any](tr traits, dst *memory.Raw[T], at int, src *memory.Raw[T], from, to int) error {
	for i := from; i < to; i++ {
		d := at + i - from
		if err := relocateAt(tr, dst.At(d), src.At(i)); err != nil {
			unmoveRange(tr, src, from, i, dst, at)
			return errors.Wrapf(err, "moving element %d", i)
		}
		src.MarkDead(i)
		dst.MarkLive(d)
	}
	return nil
}

// unmoveRange undoes moveRange for src[from:to]. There is no way to recover
// from a failure here, so it panics.
func unmoveRange[T any](tr traits, src *memory.Raw[T], from, to int, dst *memory.Raw[T], at int) {
	for i := to - 1; i >= from; i-- {
		d := at + i - from
		if err := relocateAt(tr, src.At(i), dst.At(d)); err != nil {
			panic(fmt.Sprintf("vector: rolling back relocation of element %d: %v", i, err))
		}
		dst.MarkDead(d)
		src.MarkLive(i)
	}
}

// destroyRange destroys the live elements in r[from:to], last first.
func destroyRange[T any](tr traits, r *memory.Raw[T], from, to int) {
	for i := to - 1; i >= from; i-- {
		destroyAt(tr, r.At(i))
		r.MarkDead(i)
	}
}

// relocate transfers the live elements of v into dst, leaving slot gap of dst
// free: elements before gap keep their index, the rest shift up by one. Pass
// gap == v.size to keep every index.
//
// On success the old block holds no live elements. On failure v is exactly as
// it was and dst holds no live elements.
func (v *Vector[T]) relocate(dst *memory.Raw[T], gap int) error {
	tr := v.traits()

	if tr.relocateByMove {
		if err := moveRange(tr, dst, 0, &v.data, 0, gap); err != nil {
			return err
		}
		if err := moveRange(tr, dst, gap+1, &v.data, gap, v.size); err != nil {
			unmoveRange(tr, &v.data, 0, gap, dst, 0)
			return err
		}
		return nil
	}

	// Copy everything first; the originals are only destroyed once the new
	// block is complete.
	if err := copyRange(tr, dst, 0, &v.data, 0, gap); err != nil {
		return err
	}
	if err := copyRange(tr, dst, gap+1, &v.data, gap, v.size); err != nil {
		destroyRange(tr, dst, 0, gap)
		return err
	}
	destroyRange(tr, &v.data, 0, v.size)
	return nil
}

// growthCap returns the capacity to grow to when a full vector needs one more
// slot.
func (v *Vector[T]) growthCap() int {
	return max(1, 2*v.data.Cap())
}

// grow moves v into a block of newCap slots, building a new element at index
// pos with build before any existing element is touched. It returns the new
// element. On failure v is unchanged.
func (v *Vector[T]) grow(newCap, pos int, build func(dst *T) error) (*T, error) {
	tr := v.traits()

	block, err := memory.Allocate[T](newCap, v.limit)
	if err != nil {
		return nil, err
	}
	if err := build(block.At(pos)); err != nil {
		block.Release()
		return nil, err
	}
	block.MarkLive(pos)

	if err := v.relocate(block, pos); err != nil {
		destroyRange(tr, block, pos, pos+1)
		block.Release()
		return nil, err
	}

	v.data.Swap(block)
	block.Release()
	v.size++
	return v.data.At(pos), nil
}
