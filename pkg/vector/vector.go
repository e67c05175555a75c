package vector

import (
	"fmt"
	"iter"

	"github.com/pkg/errors"

	"github.com/grafana/rawvec/pkg/memory"
)

// Vector is a contiguous, growable sequence of T stored in a single
// [memory.Raw] block. Slots [0, Len()) hold live elements; the rest of the
// block is dead.
//
// The zero value is an empty Vector with no storage. A Vector must not be
// copied; use [Vector.Clone] for a deep copy and [Vector.Take] to transfer
// ownership. Vectors are not safe for concurrent use.
//
// Pointers returned by At, PushBack, Insert and friends are invalidated by
// any operation that grows, swaps, moves or releases the Vector, and by
// operations that destroy the element they point to.
type Vector[T any] struct {
	data memory.Raw[T]
	size int

	settings
	tr traits
}

// New returns a Vector holding n default-constructed elements, with capacity
// n. If a construction fails, the elements built so far are destroyed and the
// storage is released.
func New[T any](n int, opts ...Option) (*Vector[T], error) {
	v := &Vector[T]{settings: newSettings(opts)}
	if err := v.Resize(n); err != nil {
		v.Release()
		return nil, err
	}
	return v, nil
}

// Len returns the number of elements in v.
func (v *Vector[T]) Len() int { return v.size }

// Cap returns the number of elements v can hold without growing.
func (v *Vector[T]) Cap() int { return v.data.Cap() }

// At returns the element at index i. i must be in [0, Len()): debug builds
// check this, release builds only fail for indices beyond Cap().
func (v *Vector[T]) At(i int) *T {
	if memory.DebugChecks && (i < 0 || i >= v.size) {
		panic(fmt.Sprintf("vector: index %d out of range [0, %d)", i, v.size))
	}
	return v.data.At(i)
}

// All returns an iterator over the indices and elements of v, in order.
func (v *Vector[T]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := 0; i < v.size; i++ {
			if !yield(i, v.data.At(i)) {
				return
			}
		}
	}
}

// Backward returns an iterator over the indices and elements of v, last
// first.
func (v *Vector[T]) Backward() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := v.size - 1; i >= 0; i-- {
			if !yield(i, v.data.At(i)) {
				return
			}
		}
	}
}

// Reserve grows the capacity of v to at least n. It does nothing if v can
// already hold n elements. If Reserve fails, v is unchanged.
func (v *Vector[T]) Reserve(n int) error {
	if n <= v.data.Cap() {
		return nil
	}

	block, err := memory.Allocate[T](n, v.limit)
	if err != nil {
		return err
	}
	if err := v.relocate(block, v.size); err != nil {
		block.Release()
		return err
	}
	v.data.Swap(block)
	block.Release()
	return nil
}

// Resize changes the length of v to n. Shrinking destroys the trailing
// elements and keeps the capacity. Growing reserves room for exactly n
// elements and default-constructs the new ones; if a construction fails the
// new elements are destroyed again and the length is unchanged.
func (v *Vector[T]) Resize(n int) error {
	if n < 0 {
		panic(fmt.Sprintf("vector: negative length %d", n))
	}
	tr := v.traits()

	if n < v.size {
		destroyRange(tr, &v.data, n, v.size)
		v.size = n
		return nil
	}

	if err := v.Reserve(n); err != nil {
		return err
	}
	for i := v.size; i < n; i++ {
		if err := constructAt(tr, v.data.At(i)); err != nil {
			destroyRange(tr, &v.data, v.size, i)
			return errors.Wrapf(err, "constructing element %d", i)
		}
		v.data.MarkLive(i)
	}
	v.size = n
	return nil
}

// PushBack appends a copy of value and returns the new element.
func (v *Vector[T]) PushBack(value T) (*T, error) {
	tr := v.traits()
	return v.insert(v.size, func(dst *T) error { return copyAt(tr, dst, &value) })
}

// PushBackMove appends src by moving it into v and returns the new element.
// src is left moved-from and still belongs to the caller.
func (v *Vector[T]) PushBackMove(src *T) (*T, error) {
	tr := v.traits()
	return v.insert(v.size, func(dst *T) error { return moveAt(tr, dst, src) })
}

// EmplaceBack appends an element constructed in place by init, which is
// handed a zeroed slot. A nil init default-constructs the element.
func (v *Vector[T]) EmplaceBack(init func(*T) error) (*T, error) {
	return v.insert(v.size, v.initializer(init))
}

// PopBack destroys the last element. It does nothing if v is empty.
func (v *Vector[T]) PopBack() {
	if v.size == 0 {
		return
	}
	v.size--
	destroyAt(v.traits(), v.data.At(v.size))
	v.data.MarkDead(v.size)
}

// Insert inserts a copy of value at index pos, shifting the elements at and
// after pos up by one, and returns the new element. pos must be in
// [0, Len()]. If Insert fails, v is unchanged.
func (v *Vector[T]) Insert(pos int, value T) (*T, error) {
	tr := v.traits()
	return v.insert(pos, func(dst *T) error { return copyAt(tr, dst, &value) })
}

// InsertMove is like Insert but moves src into v. src is left moved-from and
// still belongs to the caller.
func (v *Vector[T]) InsertMove(pos int, src *T) (*T, error) {
	tr := v.traits()
	return v.insert(pos, func(dst *T) error { return moveAt(tr, dst, src) })
}

// Emplace is like Insert but constructs the new element in place with init.
// A nil init default-constructs the element.
func (v *Vector[T]) Emplace(pos int, init func(*T) error) (*T, error) {
	return v.insert(pos, v.initializer(init))
}

func (v *Vector[T]) insert(pos int, build func(dst *T) error) (*T, error) {
	if pos < 0 || pos > v.size {
		panic(fmt.Sprintf("vector: insert position %d out of range [0, %d]", pos, v.size))
	}

	if v.size == v.data.Cap() {
		return v.grow(v.growthCap(), pos, build)
	}

	if pos == v.size {
		if err := build(v.data.At(pos)); err != nil {
			return nil, err
		}
		v.data.MarkLive(pos)
		v.size++
		return v.data.At(pos), nil
	}

	// Build the element aside so a failure leaves v untouched, then open the
	// gap. copy handles the overlapping ranges.
	var elem T
	if err := build(&elem); err != nil {
		return nil, err
	}
	slots := v.data.Slots(0, v.size+1)
	copy(slots[pos+1:], slots[pos:v.size])
	slots[pos] = elem
	v.data.MarkLive(v.size)
	v.size++
	return v.data.At(pos), nil
}

// Erase removes the element at index pos, shifting the elements after it down
// by one. It returns pos, the index of the element that now follows the
// removed one. pos must be in [0, Len()).
func (v *Vector[T]) Erase(pos int) int {
	if pos < 0 || pos >= v.size {
		panic(fmt.Sprintf("vector: erase position %d out of range [0, %d)", pos, v.size))
	}

	// Rotate the erased element to the end and destroy it there.
	slots := v.data.Slots(0, v.size)
	erased := slots[pos]
	copy(slots[pos:], slots[pos+1:])
	slots[v.size-1] = erased
	v.PopBack()
	return pos
}

// Clone returns a deep copy of v with capacity Len(). If a copy fails, the
// copies made so far are destroyed and v is unaffected.
func (v *Vector[T]) Clone() (*Vector[T], error) {
	return v.cloneWith(v.settings)
}

func (v *Vector[T]) cloneWith(s settings) (*Vector[T], error) {
	out := &Vector[T]{settings: s}
	if v.size == 0 {
		return out, nil
	}

	block, err := memory.Allocate[T](v.size, s.limit)
	if err != nil {
		return nil, err
	}
	if err := copyRange(v.traits(), block, 0, &v.data, 0, v.size); err != nil {
		block.Release()
		return nil, err
	}
	out.data.Swap(block)
	out.size = v.size
	return out, nil
}

// Take moves the contents of v into a new Vector. v is left empty with no
// storage.
func (v *Vector[T]) Take() *Vector[T] {
	out := &Vector[T]{settings: v.settings}
	out.swapStorage(v)
	return out
}

// Assign replaces the contents of v with copies of the elements of rhs.
//
// If rhs does not fit in the capacity of v, a full copy is built first and
// then swapped in, so a failure leaves v unchanged. Otherwise the existing
// elements are overwritten in place, extra elements are destroyed and missing
// ones are copy-constructed; a failure then leaves v valid but partially
// assigned.
func (v *Vector[T]) Assign(rhs *Vector[T]) error {
	if v == rhs {
		return nil
	}
	tr := v.traits()

	if rhs.size > v.data.Cap() {
		cp, err := rhs.cloneWith(v.settings)
		if err != nil {
			return err
		}
		v.swapStorage(cp)
		cp.Release()
		return nil
	}

	common := min(v.size, rhs.size)
	for i := 0; i < common; i++ {
		if err := assignCopy(tr, v.data.At(i), rhs.data.At(i)); err != nil {
			return errors.Wrapf(err, "assigning element %d", i)
		}
	}

	if rhs.size <= v.size {
		destroyRange(tr, &v.data, rhs.size, v.size)
	} else if err := copyRange(tr, &v.data, v.size, &rhs.data, v.size, rhs.size); err != nil {
		return err
	}
	v.size = rhs.size
	return nil
}

// MoveAssign transfers the contents of rhs to v by swapping the two vectors.
// rhs ends up holding the previous contents of v and is still responsible for
// releasing them.
func (v *Vector[T]) MoveAssign(rhs *Vector[T]) {
	v.Swap(rhs)
}

// Swap exchanges the contents and settings of v and other.
func (v *Vector[T]) Swap(other *Vector[T]) {
	v.swapStorage(other)
	v.settings, other.settings = other.settings, v.settings
}

func (v *Vector[T]) swapStorage(other *Vector[T]) {
	v.data.Swap(&other.data)
	v.size, other.size = other.size, v.size
}

// Release destroys every element, last first, and gives the storage back. v
// is left empty and may be reused.
func (v *Vector[T]) Release() {
	destroyRange(v.traits(), &v.data, 0, v.size)
	v.size = 0
	v.data.Release()
}

func (v *Vector[T]) initializer(init func(*T) error) func(dst *T) error {
	tr := v.traits()
	if init == nil {
		return func(dst *T) error { return constructAt(tr, dst) }
	}
	return func(dst *T) error {
		if err := init(dst); err != nil {
			reset(dst)
			return err
		}
		return nil
	}
}

func (v *Vector[T]) traits() traits {
	if !v.tr.resolved {
		v.tr = traitsOf[T]()
	}
	return v.tr
}
