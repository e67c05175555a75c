package memory_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grafana/rawvec/pkg/memory"
)

func TestAllocate(t *testing.T) {
	before := memory.Usage()

	r, err := memory.Allocate[int64](8, 0)
	require.NoError(t, err)
	require.Equal(t, 8, r.Cap())
	require.Equal(t, uint64(64), r.Bytes())

	during := memory.Usage()
	require.Equal(t, before.LiveBlocks+1, during.LiveBlocks)
	require.Equal(t, before.LiveBytes+64, during.LiveBytes)
	require.Equal(t, before.Allocations+1, during.Allocations)

	r.Release()
	require.Equal(t, 0, r.Cap())

	after := memory.Usage()
	require.Equal(t, before.LiveBlocks, after.LiveBlocks)
	require.Equal(t, before.LiveBytes, after.LiveBytes)
	require.Equal(t, before.Releases+1, after.Releases)
}

func TestAllocate_Zero(t *testing.T) {
	before := memory.Usage()

	r, err := memory.Allocate[string](0, 0)
	require.NoError(t, err)
	require.Equal(t, 0, r.Cap())
	require.Equal(t, before.Allocations, memory.Usage().Allocations, "zero-sized requests must not allocate")

	r.Release()
	require.Equal(t, before.Releases, memory.Usage().Releases)
}

func TestAllocate_Failures(t *testing.T) {
	tt := []struct {
		name  string
		alloc func() error
	}{
		{
			name: "over limit",
			alloc: func() error {
				_, err := memory.Allocate[int64](16, 64)
				return err
			},
		},
		{
			name: "over maximum block size",
			alloc: func() error {
				_, err := memory.Allocate[[1 << 20]byte](1<<21, 0)
				return err
			},
		},
		{
			name: "size overflow",
			alloc: func() error {
				_, err := memory.Allocate[[1 << 32]byte](1<<33, 0)
				return err
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			before := memory.Usage()

			err := tc.alloc()
			require.ErrorIs(t, err, memory.ErrOutOfMemory)

			after := memory.Usage()
			require.Equal(t, before.LiveBlocks, after.LiveBlocks, "failed allocations must not leave a block behind")
			require.Equal(t, before.Failures+1, after.Failures)
		})
	}
}

func TestAllocate_NegativePanics(t *testing.T) {
	require.Panics(t, func() { _, _ = memory.Allocate[int](-1, 0) })
}

func TestRaw_SlotAccess(t *testing.T) {
	r, err := memory.Allocate[int](4, 0)
	require.NoError(t, err)
	defer r.Release()

	for i := range r.Cap() {
		*r.At(i) = i * 10
	}

	// The one-past-the-end bound is a valid range limit.
	require.Equal(t, []int{0, 10, 20, 30}, r.Slots(0, r.Cap()))
	require.Empty(t, r.Slots(r.Cap(), r.Cap()))

	tail := r.Slots(2, 4)
	tail[0] = 99
	require.Equal(t, 99, *r.At(2), "Slots must alias the block")
}

func TestRaw_TakeAndSwap(t *testing.T) {
	a, err := memory.Allocate[int](4, 0)
	require.NoError(t, err)
	b, err := memory.Allocate[int](2, 0)
	require.NoError(t, err)

	*a.At(0) = 1
	*b.At(0) = 2

	a.Swap(b)
	require.Equal(t, 2, a.Cap())
	require.Equal(t, 4, b.Cap())
	require.Equal(t, 2, *a.At(0))
	require.Equal(t, 1, *b.At(0))

	c := b.Take()
	require.Equal(t, 0, b.Cap(), "source must be empty after Take")
	require.Equal(t, uint64(0), b.Bytes())
	require.Equal(t, 4, c.Cap())
	require.Equal(t, 1, *c.At(0))

	before := memory.Usage()
	b.Release() // empty, nothing to give back
	require.Equal(t, before.Releases, memory.Usage().Releases)

	a.Release()
	c.Release()
	require.Equal(t, before.LiveBlocks-2, memory.Usage().LiveBlocks)
}

func TestRaw_Occupancy(t *testing.T) {
	if !memory.DebugChecks {
		t.Skip("occupancy tracking requires -tags rawvec_debug")
	}

	r, err := memory.Allocate[int](4, 0)
	require.NoError(t, err)

	r.MarkLive(1)
	require.Equal(t, 1, r.Live())
	require.Panics(t, func() { r.MarkLive(1) }, "double construction")
	require.Panics(t, func() { r.MarkDead(2) }, "destroying a dead slot")
	require.Panics(t, r.Release, "releasing with live slots")

	r.MarkDead(1)
	require.Equal(t, 0, r.Live())
	require.Panics(t, func() { r.At(4) })
	require.Panics(t, func() { r.Slots(2, 5) })
	r.Release()
}
