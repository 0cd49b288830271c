package decoder

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/MeKo-Tech/beamdec/internal/alphabet"
	"github.com/MeKo-Tech/beamdec/internal/scorer"
)

// BatchConfig configures the parallel batch driver.
type BatchConfig struct {
	BeamSize   int
	CutoffProb float64
	CutoffTopN int
	NumWorkers int // 0 = runtime.NumCPU()
}

// DecodeOne decodes a single utterance: construct a state, feed the whole
// matrix, return the ranked hypotheses.
func DecodeOne(probs []float64, timeDim, classDim int, ab *alphabet.Alphabet, cfg BatchConfig, sc scorer.Scorer) ([]Hypothesis, error) {
	state, err := New(ab, cfg.BeamSize, cfg.CutoffProb, cfg.CutoffTopN, sc)
	if err != nil {
		return nil, err
	}
	if err := state.Next(probs, timeDim, classDim); err != nil {
		return nil, err
	}
	return state.Decode(), nil
}

// decodeJob is a single sample handed to a worker.
type decodeJob struct {
	index   int
	probs   []float64
	timeDim int
}

// decodeResult carries a worker's output back by original index.
type decodeResult struct {
	index int
	hyps  []Hypothesis
	err   error
}

// DecodeBatch decodes independent samples across a fixed worker pool. Each
// worker owns one DecoderState and shares nothing mutable with its siblings;
// the scorer, if present, must tolerate concurrent read-only queries.
// Results are written into slots indexed by original batch position, so the
// returned order matches the input order regardless of completion order. A
// failing sample yields an empty hypothesis list at its index without
// disturbing the others.
func DecodeBatch(probsBatch [][]float64, seqLengths []int, classDim int, ab *alphabet.Alphabet, cfg BatchConfig, sc scorer.Scorer) ([][]Hypothesis, error) {
	if len(probsBatch) != len(seqLengths) {
		return nil, fmt.Errorf("batch size %d does not match %d sequence lengths", len(probsBatch), len(seqLengths))
	}
	// validate configuration once up front with a throwaway state
	if _, err := New(ab, cfg.BeamSize, cfg.CutoffProb, cfg.CutoffTopN, sc); err != nil {
		return nil, err
	}

	numWorkers := cfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(probsBatch) {
		numWorkers = len(probsBatch)
	}

	out := make([][]Hypothesis, len(probsBatch))
	if len(probsBatch) == 0 {
		return out, nil
	}

	jobs := make(chan decodeJob, len(probsBatch))
	results := make(chan decodeResult, len(probsBatch))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := New(ab, cfg.BeamSize, cfg.CutoffProb, cfg.CutoffTopN, sc)
			if err != nil {
				// configuration was validated above; this cannot happen
				for job := range jobs {
					results <- decodeResult{index: job.index, err: err}
				}
				return
			}
			for job := range jobs {
				state.Reset()
				hyps, err := decodeTask(state, job, classDim)
				results <- decodeResult{index: job.index, hyps: hyps, err: err}
			}
		}()
	}

	for i, probs := range probsBatch {
		jobs <- decodeJob{index: i, probs: probs, timeDim: seqLengths[i]}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if res.err != nil {
			slog.Warn("batch sample failed to decode", "index", res.index, "error", res.err)
			out[res.index] = []Hypothesis{}
			continue
		}
		out[res.index] = res.hyps
	}
	return out, nil
}

// decodeTask runs one sample start to finish on the worker's own state.
func decodeTask(state *DecoderState, job decodeJob, classDim int) ([]Hypothesis, error) {
	if job.timeDim < 0 {
		return nil, fmt.Errorf("negative sequence length %d", job.timeDim)
	}
	if job.timeDim == 0 {
		return []Hypothesis{}, nil
	}
	if err := state.Next(job.probs, job.timeDim, classDim); err != nil {
		return nil, err
	}
	return state.Decode(), nil
}
