// Package decoder implements CTC prefix beam search with optional
// language-model fusion, plus a greedy best-path baseline and a parallel
// batch driver.
package decoder

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/MeKo-Tech/beamdec/internal/alphabet"
	"github.com/MeKo-Tech/beamdec/internal/mempool"
	"github.com/MeKo-Tech/beamdec/internal/scorer"
)

// Hypothesis is one ranked decode result.
type Hypothesis struct {
	Score     float64 `json:"score"`
	Text      string  `json:"text"`
	Tokens    []int   `json:"tokens,omitempty"`
	Timesteps []int   `json:"timesteps,omitempty"`
}

// DecoderState runs incremental CTC beam search over one utterance. It is
// not safe for concurrent use; each batch worker owns its own state.
type DecoderState struct {
	ab          *alphabet.Alphabet
	sc          scorer.Scorer
	beamSize    int
	cutoffProb  float64
	cutoffTopN  int
	blankID     int
	spaceID     int
	absTimeStep int

	root     *pathTrie
	prefixes []*pathTrie
}

// New creates and initializes a DecoderState. A nil scorer selects
// pure-acoustic decoding.
func New(ab *alphabet.Alphabet, beamSize int, cutoffProb float64, cutoffTopN int, sc scorer.Scorer) (*DecoderState, error) {
	s := &DecoderState{}
	if err := s.Init(ab, beamSize, cutoffProb, cutoffTopN, sc); err != nil {
		return nil, err
	}
	return s, nil
}

// Init validates the configuration and resets the state to a single empty
// hypothesis. Callers must check the error before using Next or Decode.
func (s *DecoderState) Init(ab *alphabet.Alphabet, beamSize int, cutoffProb float64, cutoffTopN int, sc scorer.Scorer) error {
	if ab == nil {
		return errors.New("alphabet cannot be nil")
	}
	if beamSize < 1 {
		return fmt.Errorf("beam size must be >= 1, got %d", beamSize)
	}
	if cutoffProb <= 0 || cutoffProb > 1 {
		return fmt.Errorf("cutoff probability must be in (0, 1], got %g", cutoffProb)
	}
	if cutoffTopN < 1 {
		return fmt.Errorf("cutoff top-n must be >= 1, got %d", cutoffTopN)
	}
	s.ab = ab
	s.sc = sc
	s.beamSize = beamSize
	s.cutoffProb = cutoffProb
	s.cutoffTopN = cutoffTopN
	s.blankID = ab.BlankID()
	s.spaceID = ab.SpaceID()
	s.Reset()
	return nil
}

// Reset discards all accumulated hypotheses so the state can decode a new
// utterance with the same configuration.
func (s *DecoderState) Reset() {
	s.absTimeStep = 0
	s.root = newPathTrieRoot()
	s.prefixes = s.prefixes[:0]
	s.prefixes = append(s.prefixes, s.root)
}

// Next feeds timeDim rows of classDim probabilities into the search. It may
// be called repeatedly with successive chunks of the same utterance; the
// beam carries over, which is what makes streaming work.
func (s *DecoderState) Next(probs []float64, timeDim, classDim int) error {
	if s.root == nil {
		return errors.New("decoder not initialized")
	}
	if timeDim < 0 || classDim < 1 {
		return fmt.Errorf("invalid dimensions %dx%d", timeDim, classDim)
	}
	if classDim != s.ab.ClassCount() {
		return fmt.Errorf("class dimension %d does not match alphabet classes %d", classDim, s.ab.ClassCount())
	}
	if len(probs) < timeDim*classDim {
		return fmt.Errorf("probability buffer has %d values, need %d", len(probs), timeDim*classDim)
	}

	for t := 0; t < timeDim; t++ {
		row := probs[t*classDim : (t+1)*classDim]
		s.step(row)
		s.absTimeStep++
	}
	return nil
}

// step expands every alive prefix with the pruned candidate set of one
// timestep, then re-ranks and prunes the beam.
func (s *DecoderState) step(row []float64) {
	candidates, logProbs := s.pruneRow(row)
	defer mempool.PutInt(candidates)
	defer mempool.PutFloat64(logProbs)

	// With a full beam the worst member extended by a blank bounds what any
	// candidate must beat to matter. The bound is loosened by a pending
	// word-insertion bonus, which an extension may still earn.
	minCutoff := logZero
	fullBeam := false
	if s.sc != nil && len(s.prefixes) == s.beamSize {
		worst := s.prefixes[len(s.prefixes)-1]
		minCutoff = worst.score + safeLog(row[s.blankID]) - math.Max(0, s.sc.WordBonus())
		fullBeam = true
	}

	for _, prefix := range s.prefixes {
		if !prefix.alive {
			continue
		}
		for i, c := range candidates {
			logProbC := logProbs[i]
			if fullBeam && logProbC+prefix.score < minCutoff {
				break
			}
			switch {
			case c == s.blankID:
				// blank extends the alignment without emitting text
				prefix.logProbBCur = logSumExp(prefix.logProbBCur, logProbC+prefix.score)
				continue
			case c == prefix.symbol:
				// repeat without an intervening blank collapses into the
				// same node
				prefix.logProbNBCur = logSumExp(prefix.logProbNBCur, logProbC+prefix.logProbNB)
			}

			// repeat-after-blank or a new symbol emits a character
			var logP float64
			switch {
			case c == prefix.symbol && !math.IsInf(prefix.logProbB, -1):
				logP = logProbC + prefix.logProbB
			case c != prefix.symbol:
				logP = logProbC + prefix.score
			default:
				continue
			}
			if math.IsInf(logP, -1) {
				// zero-mass extension, nothing to merge
				continue
			}

			child := prefix.getChild(c, s.absTimeStep)
			if s.sc != nil && (c == s.spaceID || s.sc.IsCharacterBased()) {
				symbols, _ := prefix.pathVec()
				lmLog, bonus := s.sc.ScoreExtension(s.ab.Decode(symbols), c)
				logP += lmLog + bonus
			}
			child.logProbNBCur = logSumExp(child.logProbNBCur, logP)
		}
	}

	// fold accumulators, collect alive nodes, and keep the top beamSize
	s.prefixes = s.prefixes[:0]
	s.root.promote(&s.prefixes)
	sort.SliceStable(s.prefixes, func(i, j int) bool {
		return s.prefixes[i].score > s.prefixes[j].score
	})
	if len(s.prefixes) > s.beamSize {
		for _, p := range s.prefixes[s.beamSize:] {
			p.release()
		}
		s.prefixes = s.prefixes[:s.beamSize]
	}
}

// pruneRow ranks the classes of one timestep by probability and keeps the
// smallest prefix of the ranking whose mass reaches cutoffProb, capped at
// cutoffTopN. Returned buffers belong to the mempool.
func (s *DecoderState) pruneRow(row []float64) ([]int, []float64) {
	n := len(row)
	idx := mempool.GetInt(n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return row[idx[a]] > row[idx[b]] })

	keep := len(idx)
	if s.cutoffProb < 1 || s.cutoffTopN < n {
		cum := 0.0
		for i, c := range idx {
			cum += row[c]
			if cum >= s.cutoffProb || i+1 >= s.cutoffTopN {
				keep = i + 1
				break
			}
		}
	}
	idx = idx[:keep]

	logProbs := mempool.GetFloat64(keep)
	for i, c := range idx {
		logProbs[i] = safeLog(row[c])
	}
	return idx, logProbs
}

// Decode snapshots the current beam as ranked hypotheses. It does not
// mutate state, so interleaving Decode with Next streams partial results.
func (s *DecoderState) Decode() []Hypothesis {
	if s.root == nil {
		return nil
	}
	hyps := make([]Hypothesis, 0, len(s.prefixes))
	for _, p := range s.prefixes {
		symbols, timesteps := p.pathVec()
		text := s.ab.Decode(symbols)
		score := p.score
		if s.sc != nil {
			score += s.sc.FinalScore(text)
		}
		hyps = append(hyps, Hypothesis{
			Score:     score,
			Text:      text,
			Tokens:    symbols,
			Timesteps: timesteps,
		})
	}
	sort.SliceStable(hyps, func(i, j int) bool { return hyps[i].Score > hyps[j].Score })
	if len(hyps) > s.beamSize {
		hyps = hyps[:s.beamSize]
	}
	return hyps
}

// BeamSize returns the configured beam width.
func (s *DecoderState) BeamSize() int { return s.beamSize }
