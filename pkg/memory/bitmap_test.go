package memory_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grafana/rawvec/pkg/memory"
)

func TestBitmap_Resize(t *testing.T) {
	var bmap memory.Bitmap

	require.Equal(t, 0, bmap.Len(), "empty bitmaps should have no length")
	require.Equal(t, 0, bmap.Cap(), "empty bitmaps should have no capacity")

	// Growing one bit at a time crosses several byte boundaries.
	for i := range 20 {
		bmap.Resize(i + 1)
		bmap.Set(i, i%2 == 0)
		require.Equal(t, i+1, bmap.Len())
		require.GreaterOrEqual(t, bmap.Cap(), bmap.Len(), "capacity should always be greater or equal to length")
	}

	for i := range 20 {
		require.Equal(t, i%2 == 0, bmap.Get(i), "unexpected value at index %d", i)
	}
}

func TestBitmap_ResizeClearsRegrownBits(t *testing.T) {
	bmap := memory.NewBitmap(16)
	bmap.Resize(16)
	bmap.SetRange(0, 16, true)

	bmap.Resize(4)
	bmap.Resize(16)

	for i := range 16 {
		require.Equal(t, i < 4, bmap.Get(i), "unexpected value at index %d", i)
	}
}

func TestBitmap_SetRange(t *testing.T) {
	bmap := memory.NewBitmap(64)
	bmap.Resize(64)
	bmap.SetRange(0, 5, true)
	bmap.SetRange(7, 10, true)

	for i := range bmap.Len() {
		switch {
		case i < 5, i >= 7 && i < 10:
			require.True(t, bmap.Get(i), "bit %d should be true", i)
		default:
			require.False(t, bmap.Get(i), "bit %d should be false", i)
		}
	}
	require.Equal(t, 8, bmap.Count())
}

func TestBitmap_IterValues(t *testing.T) {
	bmap := memory.NewBitmap(128)
	bmap.Resize(128)

	set := []int{1, 3, 5, 65, 70, 127}
	for _, bit := range set {
		bmap.Set(bit, true)
	}

	require.Equal(t, set, slices.Collect(bmap.IterValues(true)))

	unset := slices.Collect(bmap.IterValues(false))
	require.Len(t, unset, 128-len(set))
	require.NotContains(t, unset, 65)
}

func TestBitmap_OutOfBounds(t *testing.T) {
	bmap := memory.NewBitmap(8)
	bmap.Resize(4)

	require.Panics(t, func() { bmap.Get(4) })
	require.Panics(t, func() { bmap.Set(-1, true) })
	require.Panics(t, func() { bmap.SetRange(2, 5, true) })
}
