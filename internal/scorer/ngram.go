package scorer

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/MeKo-Tech/beamdec/internal/alphabet"
)

// logProbFloor is assigned to tokens the model has never seen and has no
// <unk> entry for. Roughly ln(1e-10).
const logProbFloor = -23.025850929940457

// NGramScorer fuses a backoff n-gram language model into beam search.
// Alpha weights the model log probability, Beta is the word-insertion bonus
// added on each scoring event.
type NGramScorer struct {
	model     *ngramModel
	ab        *alphabet.Alphabet
	alpha     float64
	beta      float64
	charBased bool
}

// Config holds NGramScorer construction parameters.
type Config struct {
	Alpha          float64 // language model weight
	Beta           float64 // word insertion bonus
	CharacterBased bool    // score per symbol instead of per word
}

// NewNGramScorer loads an ARPA model from path and wraps it for decoding.
func NewNGramScorer(path string, ab *alphabet.Alphabet, cfg Config) (*NGramScorer, error) {
	if ab == nil {
		return nil, errors.New("alphabet cannot be nil")
	}
	f, err := os.Open(path) //nolint:gosec // G304: opening a user-provided model file is expected
	if err != nil {
		return nil, fmt.Errorf("failed to open language model: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing language model file: %v\n", err)
		}
	}()

	model, err := loadARPA(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ARPA model %s: %w", path, err)
	}
	return &NGramScorer{
		model:     model,
		ab:        ab,
		alpha:     cfg.Alpha,
		beta:      cfg.Beta,
		charBased: cfg.CharacterBased,
	}, nil
}

// IsCharacterBased implements Scorer.
func (s *NGramScorer) IsCharacterBased() bool { return s.charBased }

// WordBonus implements Scorer.
func (s *NGramScorer) WordBonus() float64 { return s.beta }

// ScoreExtension implements Scorer. In character mode the candidate symbol
// itself is scored against the trailing characters of the prefix. In word
// mode the candidate is the space symbol, which completes the trailing word
// of the prefix; that word is scored against the preceding word history.
func (s *NGramScorer) ScoreExtension(prefix string, symbol int) (float64, float64) {
	if s.charBased {
		label := s.ab.Label(symbol)
		if label == "" {
			return 0, 0
		}
		history := charTokens(prefix)
		return s.alpha * s.model.LogProb(history, label), s.beta
	}

	words := strings.Fields(prefix)
	if len(words) == 0 {
		// a space after nothing completes no word
		return 0, 0
	}
	last := words[len(words)-1]
	history := append([]string{sentenceStart}, words[:len(words)-1]...)
	return s.alpha * s.model.LogProb(history, last), s.beta
}

// FinalScore implements Scorer. Word-based models score the trailing partial
// word of a hypothesis that did not end at a space.
func (s *NGramScorer) FinalScore(prefix string) float64 {
	if s.charBased {
		return 0
	}
	if prefix == "" || strings.HasSuffix(prefix, " ") {
		return 0
	}
	words := strings.Fields(prefix)
	if len(words) == 0 {
		return 0
	}
	last := words[len(words)-1]
	history := append([]string{sentenceStart}, words[:len(words)-1]...)
	return s.alpha*s.model.LogProb(history, last) + s.beta
}

// charTokens splits a prefix into per-rune tokens for character-level models.
func charTokens(s string) []string {
	tokens := make([]string, 0, len(s))
	for _, r := range s {
		tokens = append(tokens, string(r))
	}
	return tokens
}
