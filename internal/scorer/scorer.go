// Package scorer provides the optional language-model capability consumed by
// the beam-search decoder. A nil Scorer means pure-acoustic decoding.
package scorer

// Scorer evaluates hypothesis extensions with an external language model.
// Implementations must be safe for concurrent read-only use: the batch driver
// shares one Scorer across all workers, and nothing in the decode path
// mutates it.
type Scorer interface {
	// IsCharacterBased reports whether the model scores every emitted
	// symbol. Word-based scorers are queried only at word boundaries.
	IsCharacterBased() bool

	// ScoreExtension scores extending the decoded prefix text with the
	// candidate symbol. It returns the weighted language-model log
	// probability (natural log) and the word-insertion bonus to add to the
	// hypothesis score. The decoder calls this only when the fusion rule
	// applies (character-based mode, or the candidate is the space symbol).
	ScoreExtension(prefix string, symbol int) (logProb, bonus float64)

	// WordBonus returns the configured word-insertion bonus. The decoder
	// loosens its early-termination bound by this amount so a pending bonus
	// cannot prune an extension that would still make the beam.
	WordBonus() float64

	// FinalScore returns an end-of-utterance adjustment for a finished
	// hypothesis, e.g. scoring a trailing word that no space terminated.
	// Implementations without such a term return 0.
	FinalScore(prefix string) float64
}
