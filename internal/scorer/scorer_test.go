package scorer

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/beamdec/internal/alphabet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testARPA = `
\data\
ngram 1=5
ngram 2=3

\1-grams:
-1.0	<s>	-0.3
-1.0	</s>
-0.5	hello	-0.2
-0.7	world	-0.2
-2.0	<unk>

\2-grams:
-0.3	<s> hello
-0.4	hello world
-0.9	world </s>

\end\
`

func writeTestModel(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.arpa")
	require.NoError(t, os.WriteFile(path, []byte(testARPA), 0o600))
	return path
}

func testAlphabet(t *testing.T) *alphabet.Alphabet {
	t.Helper()
	ab, err := alphabet.New([]string{" ", "d", "e", "h", "l", "o", "r", "w"})
	require.NoError(t, err)
	return ab
}

func TestLoadARPA(t *testing.T) {
	m, err := loadARPA(strings.NewReader(testARPA))
	require.NoError(t, err)
	assert.Equal(t, 2, m.order)
	assert.Len(t, m.unigrams, 5)
	assert.Len(t, m.bigrams, 3)

	// base-10 -> natural log conversion
	assert.InDelta(t, -0.5*math.Ln10, m.unigrams["hello"].logProb, 1e-12)
	assert.InDelta(t, -0.4*math.Ln10, m.bigrams[[2]string{"hello", "world"}].logProb, 1e-12)
}

func TestLoadARPA_MissingData(t *testing.T) {
	_, err := loadARPA(strings.NewReader("no header here\n"))
	assert.Error(t, err)
}

func TestNGramModel_Backoff(t *testing.T) {
	m, err := loadARPA(strings.NewReader(testARPA))
	require.NoError(t, err)

	// exact bigram
	p := m.LogProb([]string{"hello"}, "world")
	assert.InDelta(t, -0.4*math.Ln10, p, 1e-12)

	// backoff through the history unigram
	p = m.LogProb([]string{"world"}, "hello")
	want := -0.2*math.Ln10 + -0.5*math.Ln10
	assert.InDelta(t, want, p, 1e-12)

	// unknown token falls back to <unk>
	p = m.LogProb(nil, "xyzzy")
	assert.InDelta(t, -2.0*math.Ln10, p, 1e-12)
}

func TestNGramScorer_WordMode(t *testing.T) {
	ab := testAlphabet(t)
	s, err := NewNGramScorer(writeTestModel(t), ab, Config{Alpha: 2.0, Beta: 0.5})
	require.NoError(t, err)
	assert.False(t, s.IsCharacterBased())
	assert.InDelta(t, 0.5, s.WordBonus(), 1e-12)

	// a space after "hello" completes the word "hello" with <s> history
	logP, bonus := s.ScoreExtension("hello", ab.SpaceID())
	assert.InDelta(t, 2.0*(-0.3*math.Ln10), logP, 1e-12)
	assert.InDelta(t, 0.5, bonus, 1e-12)

	// no completed word yet
	logP, bonus = s.ScoreExtension("", ab.SpaceID())
	assert.Zero(t, logP)
	assert.Zero(t, bonus)
}

func TestNGramScorer_FinalScore(t *testing.T) {
	ab := testAlphabet(t)
	s, err := NewNGramScorer(writeTestModel(t), ab, Config{Alpha: 1.0, Beta: 0.25})
	require.NoError(t, err)

	// trailing partial word is scored once at the end
	got := s.FinalScore("hello world")
	assert.InDelta(t, -0.4*math.Ln10+0.25, got, 1e-12)

	// ends at a boundary: nothing left to score
	assert.Zero(t, s.FinalScore("hello "))
	assert.Zero(t, s.FinalScore(""))
}

func TestNGramScorer_CharMode(t *testing.T) {
	ab := testAlphabet(t)
	s, err := NewNGramScorer(writeTestModel(t), ab, Config{Alpha: 1.0, Beta: 0.0, CharacterBased: true})
	require.NoError(t, err)
	assert.True(t, s.IsCharacterBased())

	// character models score every symbol; unseen chars hit <unk>
	logP, _ := s.ScoreExtension("he", ab.Index("l"))
	assert.InDelta(t, -2.0*math.Ln10, logP, 1e-12)

	// char mode has no end-of-utterance term
	assert.Zero(t, s.FinalScore("hello"))
}

func TestNewNGramScorer_Errors(t *testing.T) {
	ab := testAlphabet(t)
	_, err := NewNGramScorer("/nonexistent/lm.arpa", ab, Config{})
	assert.Error(t, err)

	_, err = NewNGramScorer(writeTestModel(t), nil, Config{})
	assert.Error(t, err)
}
