package vectortest

import "errors"

// ErrCopied is returned by MoveOnly.CopyFrom. Containers must never get that
// far: MoveOnly declares itself not copyable.
var ErrCopied = errors.New("vectortest: MoveOnly copied")

// Counted is copyable and has a move that may fail, so a vector relocates it
// by copying.
type Counted struct {
	Value int
	L     *Ledger

	movedFrom bool
}

// Construct implements vector.Constructor.
func (c *Counted) Construct() error {
	if err := Default.hook(OpConstruct); err != nil {
		return err
	}
	*c = Counted{}
	return nil
}

// CopyFrom implements vector.Copier.
func (c *Counted) CopyFrom(src *Counted) error {
	if err := ledgerOr(src.L).hook(OpCopy); err != nil {
		return err
	}
	*c = Counted{Value: src.Value, L: src.L}
	return nil
}

// MoveFrom implements vector.Mover.
func (c *Counted) MoveFrom(src *Counted) error {
	if err := ledgerOr(src.L).hook(OpMove); err != nil {
		return err
	}
	*c = Counted{Value: src.Value, L: src.L}
	src.Value, src.movedFrom = 0, true
	return nil
}

// Destroy implements vector.Destroyer.
func (c *Counted) Destroy() { ledgerOr(c.L).Destroys++ }

// MovedFrom reports whether c was the source of a move.
func (c *Counted) MovedFrom() bool { return c.movedFrom }

// Relocatable is like Counted but its move never fails, so a vector relocates
// it by moving. Its ledger's Fail hook is never consulted for moves.
type Relocatable struct {
	Value int
	L     *Ledger
}

// CopyFrom implements vector.Copier.
func (r *Relocatable) CopyFrom(src *Relocatable) error {
	if err := ledgerOr(src.L).hook(OpCopy); err != nil {
		return err
	}
	*r = Relocatable{Value: src.Value, L: src.L}
	return nil
}

// MoveFrom implements vector.Mover.
func (r *Relocatable) MoveFrom(src *Relocatable) error {
	ledgerOr(src.L).Moves++
	*r = Relocatable{Value: src.Value, L: src.L}
	src.Value = 0
	return nil
}

// MoveNeverFails implements vector.NoFailMover.
func (r *Relocatable) MoveNeverFails() {}

// Destroy implements vector.Destroyer.
func (r *Relocatable) Destroy() { ledgerOr(r.L).Destroys++ }

// MoveOnly cannot be copied. Its move may fail, but since moving is the only
// way to relocate it a vector moves it anyway.
type MoveOnly struct {
	Value int
	L     *Ledger
}

// CopyDisabled implements vector.NoCopier.
func (m *MoveOnly) CopyDisabled() {}

// CopyFrom counts the attempt and always fails.
func (m *MoveOnly) CopyFrom(src *MoveOnly) error {
	ledgerOr(src.L).Copies++
	return ErrCopied
}

// MoveFrom implements vector.Mover.
func (m *MoveOnly) MoveFrom(src *MoveOnly) error {
	if err := ledgerOr(src.L).hook(OpMove); err != nil {
		return err
	}
	*m = MoveOnly{Value: src.Value, L: src.L}
	src.Value = 0
	return nil
}

// Destroy implements vector.Destroyer.
func (m *MoveOnly) Destroy() { ledgerOr(m.L).Destroys++ }
