// Package vector implements Vector, a contiguous growable sequence that
// manages the lifetime of its elements explicitly.
//
// A Vector owns one [memory.Raw] block. Elements are constructed into dead
// slots, destroyed when they are removed, and relocated into a new block when
// the vector grows. Element types take part in this through optional hooks
// implemented on *T: [Constructor], [Copier], [Mover], [Destroyer], and the
// markers [NoFailMover] and [NoCopier]. A type with no hooks is treated as a
// plain Go value: the zero value is its default, assignment copies it, and
// destroying it only clears the slot.
//
// # Failures
//
// Hooks report failures as errors, and so does storage allocation
// ([memory.ErrOutOfMemory]). Operations that can fail say what state they
// leave behind; most leave the vector exactly as it was. In particular,
// growth builds the new element and relocates the old ones into a fresh
// block before the old block is touched, and it picks the relocation method
// per element type:
//
//   - Elements are moved if moving cannot fail: the type has no Mover, its
//     Mover is a NoFailMover, or the type is a NoCopier and moving is the only
//     option.
//   - Otherwise elements are copied, and the originals are destroyed only once
//     every copy succeeded. A failed copy destroys the partial new block, so
//     neither the old elements nor any copies are lost or leaked.
//
// Within a block, elements are shifted by assignment, as the built-in copy
// does. Hooks are consulted when elements enter a block, leave it, or are
// overwritten with copies.
//
// Indexing outside [0, Len()) is a programming error. It is only checked in
// builds with the rawvec_debug tag; see [memory.DebugChecks].
package vector
