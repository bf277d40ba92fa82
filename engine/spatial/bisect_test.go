package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBisectProducesUniformBoundaries(t *testing.T) {
	bounds, err := Bisect(0, 80, Subdivisions)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 10, 20, 30, 40, 50, 60, 70, 80}, bounds)
}

func TestBisectIsStrictlyIncreasingWithExactEnds(t *testing.T) {
	ranges := [][2]float32{{-1, 1}, {-37.25, 1024.5}, {0, 0.001}, {1e6, 1e6 + 64}}
	for _, r := range ranges {
		bounds, err := Bisect(r[0], r[1], Subdivisions)
		require.NoError(t, err)
		require.Len(t, bounds, Subdivisions+1)
		assert.Equal(t, r[0], bounds[0])
		assert.Equal(t, r[1], bounds[Subdivisions])
		for i := 1; i < len(bounds); i++ {
			assert.Less(t, bounds[i-1], bounds[i])
		}
	}
}

func TestBisectRejectsBadInput(t *testing.T) {
	_, err := Bisect(0, 1, 6)
	assert.ErrorIs(t, err, ErrInvalidSubdivision)

	_, err = Bisect(0, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidSubdivision)

	_, err = Bisect(5, 5, 8)
	assert.ErrorIs(t, err, ErrDegenerateAxis)

	_, err = Bisect(1, 1.0000001, 1024)
	assert.ErrorIs(t, err, ErrDegenerateAxis)
}

func TestBisectSingleInterval(t *testing.T) {
	bounds, err := Bisect(-2, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []float32{-2, 3}, bounds)
}

func TestLocateHalfOpen(t *testing.T) {
	bounds, err := Bisect(0, 80, Subdivisions)
	require.NoError(t, err)

	cases := []struct {
		v       float32
		k       int
		clamped bool
	}{
		{0, 0, false},
		{9.99, 0, false},
		{10, 1, false},
		{45, 4, false},
		{70, 7, false},
		{80, 7, false},
		{-3, 0, true},
		{95, 7, true},
	}
	for _, c := range cases {
		k, clamped := locate(bounds, c.v)
		assert.Equal(t, c.k, k, "value %v", c.v)
		assert.Equal(t, c.clamped, clamped, "value %v", c.v)
	}
}
