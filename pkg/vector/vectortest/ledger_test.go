package vectortest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLedger_Live(t *testing.T) {
	var l Ledger

	src := Counted{Value: 4, L: &l}
	var cp, mv Counted
	require.NoError(t, cp.CopyFrom(&src))
	require.NoError(t, mv.MoveFrom(&cp))
	require.Equal(t, 2, l.Live())
	require.True(t, cp.MovedFrom())
	require.Equal(t, 4, mv.Value)

	cp.Destroy()
	mv.Destroy()
	require.Equal(t, 0, l.Live())
	require.Equal(t, 1, l.Copies)
	require.Equal(t, 1, l.Moves)
	require.Equal(t, 2, l.Destroys)
}

func TestFailNth(t *testing.T) {
	l := Ledger{Fail: FailNth(OpCopy, 2)}
	src := Counted{Value: 1, L: &l}

	var a, b, c Counted
	require.NoError(t, a.CopyFrom(&src))
	require.ErrorIs(t, b.CopyFrom(&src), ErrInjected)
	require.NoError(t, c.CopyFrom(&src))
	require.NoError(t, a.MoveFrom(&c), "other ops are not affected")
	require.Equal(t, 2, l.Copies, "failed hooks are not counted")
}

func TestFailAlways(t *testing.T) {
	Default.Reset()
	t.Cleanup(Default.Reset)
	Default.Fail = FailAlways(OpConstruct)

	var c Counted
	require.ErrorIs(t, c.Construct(), ErrInjected)
	require.Equal(t, 0, Default.Constructs)
}

func TestOp_String(t *testing.T) {
	require.Equal(t, "copy", OpCopy.String())
	require.Equal(t, "Op(7)", Op(7).String())
}
