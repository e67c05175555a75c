package unsafecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlockSize(t *testing.T) {
	size, ok := BlockSize[int32](10)
	require.True(t, ok)
	require.Equal(t, uint64(40), size)

	size, ok = BlockSize[struct{}](math.MaxInt)
	require.True(t, ok)
	require.Equal(t, uint64(0), size)

	_, ok = BlockSize[[16]byte](math.MaxInt)
	require.False(t, ok)

	_, ok = BlockSize[byte](-1)
	require.False(t, ok)
}
