package benchmark

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/beamdec/internal/alphabet"
)

func TestSuite_RunAll(t *testing.T) {
	suite := NewSuite()
	calls := 0
	suite.Add("counting", func() error {
		calls++
		return nil
	})
	suite.Add("failing", func() error {
		return errors.New("boom")
	})

	results := suite.RunAll(3)
	require.Len(t, results, 2)

	assert.Equal(t, "counting", results[0].Name)
	require.NoError(t, results[0].Error)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, results[0].Iterations)

	require.Error(t, results[1].Error)
	assert.Contains(t, results[1].String(), "ERROR")
}

func TestSuite_RunByName(t *testing.T) {
	suite := NewSuite()
	suite.Add("only", func() error { return nil })

	res := suite.Run("only", 2)
	require.NoError(t, res.Error)
	assert.Equal(t, 2, res.Iterations)

	missing := suite.Run("absent", 1)
	require.Error(t, missing.Error)
}

func TestGetMemoryStats(t *testing.T) {
	stats := GetMemoryStats()
	assert.Positive(t, stats.AllocBytes)
	assert.NotEmpty(t, stats.String())
}

func TestDecodeBenchmark(t *testing.T) {
	ab, err := alphabet.New([]string{"a", "b", "c", " "})
	require.NoError(t, err)

	bench := NewDecodeBenchmark(ab, 20, []int{0, 4})
	results, err := bench.Run(2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "greedy", results[0].Name)
	assert.Equal(t, "beam-4", results[1].Name)
	for _, r := range results {
		require.NoError(t, r.Result.Error)
		assert.Positive(t, r.StepsPerSec)
	}
	assert.Equal(t, results, bench.Results())
}

func TestDecodeBenchmark_InvalidIterations(t *testing.T) {
	ab, err := alphabet.New([]string{"a"})
	require.NoError(t, err)

	_, err = NewDecodeBenchmark(ab, 5, []int{0}).Run(0)
	require.Error(t, err)
}

func TestSyntheticMatrix_Rows(t *testing.T) {
	m := syntheticMatrix(7, 4, 5)
	require.Len(t, m, 20)
	for t0 := 0; t0 < 4; t0++ {
		sum := 0.0
		for k := 0; k < 5; k++ {
			sum += m[t0*5+k]
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}
