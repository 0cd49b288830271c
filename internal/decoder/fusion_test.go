package decoder

import (
	"math"
	"testing"

	"github.com/MeKo-Tech/beamdec/internal/alphabet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockScorer records calls and hands out a fixed log-prob per extension.
type mockScorer struct {
	charBased bool
	logProb   float64
	bonus     float64
	final     float64
	calls     []mockCall
}

type mockCall struct {
	prefix string
	symbol int
}

func (m *mockScorer) IsCharacterBased() bool { return m.charBased }

func (m *mockScorer) ScoreExtension(prefix string, symbol int) (float64, float64) {
	m.calls = append(m.calls, mockCall{prefix: prefix, symbol: symbol})
	return m.logProb, m.bonus
}

func (m *mockScorer) FinalScore(string) float64 { return m.final }

func (m *mockScorer) WordBonus() float64 { return m.bonus }

// spacedAlphabet puts " ", "a", "b" at indices 0..2 with blank at 3, so
// word-level fusion has a trigger symbol.
func spacedAlphabet(t *testing.T) *alphabet.Alphabet {
	t.Helper()
	ab, err := alphabet.New([]string{" ", "a", "b"})
	require.NoError(t, err)
	return ab
}

func TestFusion_CharLevelScoresEverySymbol(t *testing.T) {
	ab := spacedAlphabet(t)
	sc := &mockScorer{charBased: true, logProb: math.Log(0.5)}

	s, err := New(ab, 4, 1.0, 40, sc)
	require.NoError(t, err)

	// One step with 'a' dominant. Every non-blank candidate that survives
	// pruning triggers a scorer call.
	probs := []float64{0.1, 0.6, 0.2, 0.1}
	require.NoError(t, s.Next(probs, 1, ab.ClassCount()))

	require.NotEmpty(t, sc.calls)
	for _, c := range sc.calls {
		assert.Equal(t, "", c.prefix, "first-step extensions start from the empty prefix")
		assert.NotEqual(t, ab.BlankID(), c.symbol, "blank never reaches the scorer")
	}
}

func TestFusion_WordLevelScoresOnlyOnSpace(t *testing.T) {
	ab := spacedAlphabet(t)
	sc := &mockScorer{charBased: false, logProb: math.Log(0.5)}

	s, err := New(ab, 4, 1.0, 40, sc)
	require.NoError(t, err)

	// 'a' then space then 'b'. Only space extensions may reach the scorer.
	probs := []float64{
		0.05, 0.85, 0.05, 0.05,
		0.85, 0.05, 0.05, 0.05,
		0.05, 0.05, 0.85, 0.05,
	}
	require.NoError(t, s.Next(probs, 3, ab.ClassCount()))

	require.NotEmpty(t, sc.calls)
	for _, c := range sc.calls {
		assert.Equal(t, ab.SpaceID(), c.symbol)
	}
}

func TestFusion_ScoreShiftsRanking(t *testing.T) {
	ab := spacedAlphabet(t)

	// Ambiguous frame, 'a' slightly ahead of 'b'.
	probs := []float64{0.02, 0.50, 0.46, 0.02}

	neutral, err := New(ab, 4, 1.0, 40, nil)
	require.NoError(t, err)
	require.NoError(t, neutral.Next(probs, 1, ab.ClassCount()))
	require.Equal(t, "a", neutral.Decode()[0].Text)

	// A scorer that punishes everything except 'b' flips the ranking.
	bIdx := ab.Index("b")
	require.GreaterOrEqual(t, bIdx, 0)
	sc := &biasScorer{favored: bIdx}
	biased, err := New(ab, 4, 1.0, 40, sc)
	require.NoError(t, err)
	require.NoError(t, biased.Next(probs, 1, ab.ClassCount()))
	require.Equal(t, "b", biased.Decode()[0].Text)
}

func TestFusion_WordBonusLoosensPruning(t *testing.T) {
	ab := spacedAlphabet(t)

	// Fill a beam of 2, then feed a blank-dominated frame. Once the beam is
	// full, candidates below the worst-plus-blank bound stop being extended,
	// so the scorer never sees them. A word-insertion bonus widens that bound
	// by its own size, which keeps the marginal candidates in play.
	fill := []float64{0.05, 0.80, 0.10, 0.05}
	marginal := []float64{0.02, 0.04, 0.04, 0.90}

	run := func(bonus float64) int {
		sc := &mockScorer{charBased: true, bonus: bonus}
		s, err := New(ab, 2, 1.0, 40, sc)
		require.NoError(t, err)
		require.NoError(t, s.Next(fill, 1, ab.ClassCount()))
		before := len(sc.calls)
		require.NoError(t, s.Next(marginal, 1, ab.ClassCount()))
		return len(sc.calls) - before
	}

	assert.Zero(t, run(0), "marginal extensions fall below the bound")
	assert.Positive(t, run(5.0), "bonus-sized slack keeps them scoreable")
}

func TestFusion_FinalScoreAppliedOnDecode(t *testing.T) {
	ab := spacedAlphabet(t)
	sc := &mockScorer{charBased: true, logProb: 0, final: -2.5}

	s, err := New(ab, 2, 1.0, 40, sc)
	require.NoError(t, err)
	probs := []float64{0.05, 0.85, 0.05, 0.05}
	require.NoError(t, s.Next(probs, 1, ab.ClassCount()))

	hyps := s.Decode()
	require.NotEmpty(t, hyps)

	bare, err := New(ab, 2, 1.0, 40, nil)
	require.NoError(t, err)
	require.NoError(t, bare.Next(probs, 1, ab.ClassCount()))
	base := bare.Decode()

	require.Equal(t, base[0].Text, hyps[0].Text)
	assert.InDelta(t, base[0].Score+sc.final, hyps[0].Score, 1e-9)
}

// biasScorer is character based and steers mass toward one symbol.
type biasScorer struct {
	favored int
}

func (b *biasScorer) IsCharacterBased() bool { return true }

func (b *biasScorer) ScoreExtension(_ string, symbol int) (float64, float64) {
	if symbol == b.favored {
		return 0, 0
	}
	return math.Log(0.01), 0
}

func (b *biasScorer) FinalScore(string) float64 { return 0 }

func (b *biasScorer) WordBonus() float64 { return 0 }
