// Package vectortest provides instrumented element types for exercising
// vector.Vector: every hook call is counted in a Ledger, and hooks can be
// made to fail on demand.
package vectortest

import (
	"errors"
	"fmt"
)

// ErrInjected is returned by hooks that a Ledger told to fail.
var ErrInjected = errors.New("vectortest: injected fault")

// Op identifies a hook.
type Op int

const (
	OpConstruct Op = iota
	OpCopy
	OpMove
)

func (op Op) String() string {
	switch op {
	case OpConstruct:
		return "construct"
	case OpCopy:
		return "copy"
	case OpMove:
		return "move"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// Ledger counts hook calls for the elements that point to it. A Ledger is not
// safe for concurrent use.
type Ledger struct {
	Constructs int
	Copies     int
	Moves      int
	Destroys   int

	// Fail, when set, is consulted before every construct, copy and move. If it
	// returns true the hook fails with ErrInjected without being counted.
	Fail func(op Op) bool
}

// Default is the ledger of elements that were default-constructed, which
// have no ledger of their own yet.
var Default = &Ledger{}

// Reset clears the counters and the fault injector of l.
func (l *Ledger) Reset() { *l = Ledger{} }

// Live returns the number of elements created through hooks that have not
// been destroyed yet.
func (l *Ledger) Live() int {
	return l.Constructs + l.Copies + l.Moves - l.Destroys
}

func (l *Ledger) hook(op Op) error {
	if l.Fail != nil && l.Fail(op) {
		return fmt.Errorf("%w: %s", ErrInjected, op)
	}
	switch op {
	case OpConstruct:
		l.Constructs++
	case OpCopy:
		l.Copies++
	case OpMove:
		l.Moves++
	}
	return nil
}

// FailNth returns a fault injector that fails the n-th call (1-based) of op
// and lets every other call through.
func FailNth(op Op, n int) func(Op) bool {
	calls := 0
	return func(got Op) bool {
		if got != op {
			return false
		}
		calls++
		return calls == n
	}
}

// FailAlways returns a fault injector that fails every call of op.
func FailAlways(op Op) func(Op) bool {
	return func(got Op) bool { return got == op }
}

func ledgerOr(l *Ledger) *Ledger {
	if l == nil {
		return Default
	}
	return l
}
