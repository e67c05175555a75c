package vector

import (
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// Element lifecycle hooks. A Vector[T] checks once per element type whether
// *T implements each of these interfaces; types that implement none behave
// like plain Go values.

// Constructor is implemented by element types whose default value is more
// than the zero value. Construct is called on a zeroed slot. If it fails it
// must leave nothing behind that needs destroying.
type Constructor interface {
	Construct() error
}

// Destroyer is implemented by element types that release resources when
// their value is destroyed.
type Destroyer interface {
	Destroy()
}

// Copier is implemented by element types whose copies are deeper than an
// assignment. CopyFrom is called on a zeroed slot and must not modify src.
type Copier[T any] interface {
	CopyFrom(src *T) error
}

// Mover is implemented by element types that transfer ownership when moved.
// MoveFrom is called on a zeroed slot. On success src is left in a moved-from
// state that is still destroyed normally; on failure src must be unchanged.
type Mover[T any] interface {
	MoveFrom(src *T) error
}

// NoFailMover marks a [Mover] whose MoveFrom never returns an error.
type NoFailMover interface {
	MoveNeverFails()
}

// NoCopier marks element types that cannot be copied.
type NoCopier interface {
	CopyDisabled()
}

// traits describes which hooks an element type implements.
type traits struct {
	resolved bool

	construct bool
	copy      bool
	move      bool
	destroy   bool

	noFailMove bool
	noCopy     bool

	// relocateByMove selects move relocation when growing. Elements are
	// moved if that cannot fail, or if they cannot be copied at all.
	// Otherwise they are copied so the old block survives a failure intact.
	relocateByMove bool
}

const traitsCacheSize = 512

var traitsCache = func() *lru.Cache[reflect.Type, traits] {
	c, err := lru.New[reflect.Type, traits](traitsCacheSize)
	if err != nil {
		panic(err)
	}
	return c
}()

func traitsOf[T any]() traits {
	typ := reflect.TypeFor[T]()
	if tr, ok := traitsCache.Get(typ); ok {
		return tr
	}

	p := any((*T)(nil))
	tr := traits{resolved: true}
	_, tr.construct = p.(Constructor)
	_, tr.copy = p.(Copier[T])
	_, tr.move = p.(Mover[T])
	_, tr.destroy = p.(Destroyer)
	_, tr.noFailMove = p.(NoFailMover)
	_, tr.noCopy = p.(NoCopier)
	tr.relocateByMove = !tr.move || tr.noFailMove || tr.noCopy

	traitsCache.Add(typ, tr)
	return tr
}

// Lifecycle helpers. dst slots passed to the construct helpers are dead and
// zeroed; they are left dead and zeroed again when the helper fails.

func constructAt[T any](tr traits, dst *T) error {
	if !tr.construct {
		return nil
	}
	if err := any(dst).(Constructor).Construct(); err != nil {
		reset(dst)
		return err
	}
	return nil
}

func copyAt[T any](tr traits, dst, src *T) error {
	switch {
	case tr.noCopy:
		return errors.WithStack(ErrNotCopyable)
	case tr.copy:
		if err := any(dst).(Copier[T]).CopyFrom(src); err != nil {
			reset(dst)
			return err
		}
		return nil
	default:
		*dst = *src
		return nil
	}
}

// moveAt move-constructs dst from src. src stays owned by the caller: it is
// either moved-from or, for types without a Mover, reset to the zero value.
func moveAt[T any](tr traits, dst, src *T) error {
	if !tr.move {
		*dst = *src
		reset(src)
		return nil
	}
	if err := any(dst).(Mover[T]).MoveFrom(src); err != nil {
		reset(dst)
		return err
	}
	return nil
}

// relocateAt moves src into dst and leaves src dead.
func relocateAt[T any](tr traits, dst, src *T) error {
	if err := moveAt(tr, dst, src); err != nil {
		return err
	}
	if tr.move {
		destroyAt(tr, src)
	}
	return nil
}

func destroyAt[T any](tr traits, p *T) {
	if tr.destroy {
		any(p).(Destroyer).Destroy()
	}
	reset(p)
}

// assignCopy overwrites the live value at dst with a copy of src. dst is left
// untouched if the copy fails.
func assignCopy[T any](tr traits, dst, src *T) error {
	if dst == src {
		return nil
	}
	var tmp T
	if err := copyAt(tr, &tmp, src); err != nil {
		return err
	}
	destroyAt(tr, dst)
	*dst = tmp
	return nil
}

func reset[T any](p *T) {
	var zero T
	*p = zero
}
