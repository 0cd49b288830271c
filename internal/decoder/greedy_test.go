package decoder

import (
	"math"
	"testing"

	"github.com/MeKo-Tech/beamdec/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollapsePath(t *testing.T) {
	// 0,0,blank,1,1,1,0,blank,0 -> 0,1,0,0 with first-emission timesteps
	path := []int{0, 0, 2, 1, 1, 1, 0, 2, 0}
	symbols, timesteps := CollapsePath(path, 2)
	assert.Equal(t, []int{0, 1, 0, 0}, symbols)
	assert.Equal(t, []int{0, 3, 6, 8}, timesteps)
}

func TestCollapsePath_AllBlanks(t *testing.T) {
	symbols, timesteps := CollapsePath([]int{2, 2, 2}, 2)
	assert.Empty(t, symbols)
	assert.Empty(t, timesteps)
}

func TestDecodeGreedy(t *testing.T) {
	ab := testAlphabet(t)
	probs := testutil.FlattenRows([][]float64{
		{0.1, 0.1, 0.8},
		{0.8, 0.1, 0.1},
		{0.7, 0.2, 0.1},
		{0.1, 0.8, 0.1},
	})
	h, err := DecodeGreedy(probs, 4, 3, ab)
	require.NoError(t, err)
	assert.Equal(t, "ab", h.Text)
	assert.Equal(t, []int{0, 1}, h.Tokens)
	assert.Equal(t, []int{1, 3}, h.Timesteps)
	assert.InDelta(t, math.Log(0.8*0.8*0.7*0.8), h.Score, 1e-9)
}

func TestDecodeGreedy_Validation(t *testing.T) {
	ab := testAlphabet(t)
	_, err := DecodeGreedy(nil, 1, 3, ab)
	assert.Error(t, err)

	_, err = DecodeGreedy(make([]float64, 4), 1, 4, ab)
	assert.Error(t, err)

	_, err = DecodeGreedy(nil, 0, 3, ab)
	assert.NoError(t, err)
}
