package decoder

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSumExp(t *testing.T) {
	assert.InDelta(t, math.Log(0.3), logSumExp(math.Log(0.1), math.Log(0.2)), 1e-12)
	// identity element
	assert.Equal(t, math.Log(0.5), logSumExp(logZero, math.Log(0.5)))
	assert.Equal(t, math.Log(0.5), logSumExp(math.Log(0.5), logZero))
	assert.True(t, math.IsInf(logSumExp(logZero, logZero), -1))
	// no overflow for large magnitudes
	assert.InDelta(t, -1000+math.Log(2), logSumExp(-1000, -1000), 1e-9)
}

func TestSafeLog(t *testing.T) {
	assert.True(t, math.IsInf(safeLog(0), -1))
	assert.True(t, math.IsInf(safeLog(-1), -1))
	assert.InDelta(t, math.Log(0.25), safeLog(0.25), 1e-12)
}

func TestPathTrie_ExtendAndReconstruct(t *testing.T) {
	root := newPathTrieRoot()
	a := root.getChild(0, 0)
	ab := a.getChild(1, 1)
	aba := ab.getChild(0, 4)

	symbols, timesteps := aba.pathVec()
	assert.Equal(t, []int{0, 1, 0}, symbols)
	assert.Equal(t, []int{0, 1, 4}, timesteps)

	// extending with the same symbol returns the same node
	assert.Same(t, a, root.getChild(0, 7))
	assert.Same(t, ab, a.getChild(1, 7))
}

func TestPathTrie_Revive(t *testing.T) {
	root := newPathTrieRoot()
	a := root.getChild(0, 0)
	a.logProbNBCur = math.Log(0.5)
	var collected []*pathTrie
	root.promote(&collected)
	require.Len(t, collected, 2)

	a.alive = false
	// revived child keeps its identity but starts with no mass
	again := root.getChild(0, 3)
	assert.Same(t, a, again)
	assert.True(t, again.alive)
	assert.Equal(t, 3, again.timestep)
	assert.True(t, math.IsInf(again.logProbNB, -1))
	assert.True(t, math.IsInf(again.score, -1))
}

func TestPathTrie_ReleaseUnlinksDeadChain(t *testing.T) {
	root := newPathTrieRoot()
	a := root.getChild(0, 0)
	ab := a.getChild(1, 1)
	abc := ab.getChild(0, 2)

	// inner nodes already pruned from the beam, leaf still alive
	a.alive = false
	ab.alive = false
	require.Len(t, root.children, 1)

	// releasing the leaf cascades through its dead ancestors
	abc.release()
	assert.Empty(t, root.children)
	assert.Nil(t, abc.parent)
}

func TestPathTrie_ReleaseKeepsLiveBranches(t *testing.T) {
	root := newPathTrieRoot()
	a := root.getChild(0, 0)
	ab := a.getChild(1, 1)
	aa := a.getChild(0, 1)

	a.alive = false
	ab.release()

	// sibling aa keeps a alive in the trie
	assert.Contains(t, a.children, 0)
	assert.NotContains(t, a.children, 1)
	assert.Contains(t, root.children, 0)
	assert.True(t, aa.alive)
}

func TestPathTrie_PromoteDeterministicOrder(t *testing.T) {
	root := newPathTrieRoot()
	for sym := 9; sym >= 0; sym-- {
		root.getChild(sym, 0)
	}
	var collected []*pathTrie
	root.promote(&collected)
	require.Len(t, collected, 11)
	for i := 1; i < 11; i++ {
		assert.Equal(t, i-1, collected[i].symbol)
	}
}
