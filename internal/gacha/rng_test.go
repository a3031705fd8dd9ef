package gacha

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeededRNGIsReplicable(t *testing.T) {
	a, b := NewSeededRNG(1), NewSeededRNG(1)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Float64(), b.Float64())
	}
}

func TestRNGRange(t *testing.T) {
	for _, rng := range []RandomSource{DefaultRNG(), NewSeededRNG(3)} {
		for i := 0; i < 10_000; i++ {
			v := rng.Float64()
			require.GreaterOrEqual(t, v, 0.0)
			require.Less(t, v, 1.0)
		}
	}
}

func TestFixedRNGClamps(t *testing.T) {
	require.Equal(t, 0.0, NewFixedRNG(-1).Float64())
	require.Less(t, NewFixedRNG(1).Float64(), 1.0)
	require.Equal(t, 0.3, NewFixedRNG(0.3).Float64())
}
