package decoder

import (
	"fmt"

	"github.com/MeKo-Tech/beamdec/internal/alphabet"
)

// argmax returns the index of the max value and the value.
func argmax(v []float64) (int, float64) {
	if len(v) == 0 {
		return -1, 0
	}
	idx := 0
	maxVal := v[0]
	for i := 1; i < len(v); i++ {
		if v[i] > maxVal {
			maxVal = v[i]
			idx = i
		}
	}
	return idx, maxVal
}

// CollapsePath removes blanks and repeated consecutive symbols from a raw
// per-timestep path, returning the emitted symbols and the timestep of each
// emission.
func CollapsePath(path []int, blank int) (symbols, timesteps []int) {
	symbols = make([]int, 0, len(path))
	timesteps = make([]int, 0, len(path))
	prev := -1
	for t, c := range path {
		if c == blank {
			prev = c
			continue
		}
		if c == prev {
			continue
		}
		symbols = append(symbols, c)
		timesteps = append(timesteps, t)
		prev = c
	}
	return symbols, timesteps
}

// DecodeGreedy performs best-path CTC decoding: argmax per timestep, then
// blank/repeat collapse. Its score is the log probability of the single best
// alignment, so it matches beam search on text (for beam width 1 without a
// scorer) but not on score, which sums over alignments.
func DecodeGreedy(probs []float64, timeDim, classDim int, ab *alphabet.Alphabet) (Hypothesis, error) {
	if ab == nil {
		return Hypothesis{}, fmt.Errorf("alphabet cannot be nil")
	}
	if classDim != ab.ClassCount() {
		return Hypothesis{}, fmt.Errorf("class dimension %d does not match alphabet classes %d", classDim, ab.ClassCount())
	}
	if len(probs) < timeDim*classDim {
		return Hypothesis{}, fmt.Errorf("probability buffer has %d values, need %d", len(probs), timeDim*classDim)
	}

	path := make([]int, timeDim)
	score := 0.0
	for t := 0; t < timeDim; t++ {
		row := probs[t*classDim : (t+1)*classDim]
		idx, p := argmax(row)
		path[t] = idx
		score += safeLog(p)
	}
	symbols, timesteps := CollapsePath(path, ab.BlankID())
	return Hypothesis{
		Score:     score,
		Text:      ab.Decode(symbols),
		Tokens:    symbols,
		Timesteps: timesteps,
	}, nil
}
