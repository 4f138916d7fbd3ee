package epc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandFor(t *testing.T) {
	tests := []struct {
		score  int
		letter rune
		index  int
	}{
		{100, 'A', 0},
		{92, 'A', 0},
		{91, 'B', 1},
		{84, 'B', 1},
		{81, 'B', 1},
		{80, 'C', 2},
		{72, 'C', 2},
		{69, 'C', 2},
		{68, 'D', 3},
		{55, 'D', 3},
		{54, 'E', 4},
		{39, 'E', 4},
		{38, 'F', 5},
		{21, 'F', 5},
		{20, 'G', 6},
		{1, 'G', 6},
	}

	for _, tt := range tests {
		letter, index, err := BandFor(tt.score)
		require.NoError(t, err, tt.score)
		assert.Equal(t, string(tt.letter), string(letter), tt.score)
		assert.Equal(t, tt.index, index, tt.score)
	}
}

func TestBandFor_RejectsOutOfRange(t *testing.T) {
	for _, score := range []int{0, -1, 101, 1000} {
		_, _, err := BandFor(score)
		assert.ErrorIs(t, err, ErrScoreOutOfRange, score)

		_, err = YPosition(score)
		assert.ErrorIs(t, err, ErrScoreOutOfRange, score)
	}
}

func TestBandsCoverScaleWithoutOverlap(t *testing.T) {
	seen := make(map[int]rune)
	for i, b := range Bands {
		if i > 0 {
			assert.Equal(t, Bands[i-1].Min-1, b.Max, "band %c must sit directly below %c", b.Letter, Bands[i-1].Letter)
		}
		for s := b.Min; s <= b.Max; s++ {
			_, dup := seen[s]
			assert.False(t, dup, "score %d in two bands", s)
			seen[s] = b.Letter
		}
	}
	assert.Len(t, seen, MaxScore-MinScore+1)
}

func TestYPosition_CentredWithinBand(t *testing.T) {
	top, err := YPosition(100)
	require.NoError(t, err)
	assert.InDelta(t, 0.5/7, top, 1e-12)

	// every score of a band lands on the same spot
	a, _ := YPosition(81)
	b, _ := YPosition(91)
	assert.Equal(t, a, b)

	bottom, err := YPosition(1)
	require.NoError(t, err)
	assert.InDelta(t, 6.5/7, bottom, 1e-12)
	assert.Greater(t, bottom, top)
}

func TestBandLabel(t *testing.T) {
	assert.Equal(t, "(81-91)", Bands[1].Label())
}
