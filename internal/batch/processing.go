package batch

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/MeKo-Tech/beamdec/internal/alphabet"
	"github.com/MeKo-Tech/beamdec/internal/decoder"
	"github.com/MeKo-Tech/beamdec/internal/matrix"
	"github.com/MeKo-Tech/beamdec/internal/scorer"
)

// processSingleFile loads one matrix file and runs the beam search over it.
func processSingleFile(path string, ab *alphabet.Alphabet, cfg *Config, sc scorer.Scorer) ([]decoder.Hypothesis, error) {
	m, err := matrix.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if m.TimeDim == 0 {
		return nil, fmt.Errorf("%s contains no time steps", path)
	}
	if m.ClassDim != ab.ClassCount() {
		return nil, fmt.Errorf("%s has %d classes, alphabet expects %d", path, m.ClassDim, ab.ClassCount())
	}

	hyps, err := decoder.DecodeOne(m.Data, m.TimeDim, m.ClassDim, ab, decoder.BatchConfig{
		BeamSize:   cfg.BeamWidth,
		CutoffProb: cfg.CutoffProb,
		CutoffTopN: cfg.CutoffTopN,
	}, sc)
	if err != nil {
		return nil, fmt.Errorf("decode failed for %s: %w", path, err)
	}

	if cfg.NumResults > 0 && len(hyps) > cfg.NumResults {
		hyps = hyps[:cfg.NumResults]
	}
	return hyps, nil
}

type fileJob struct {
	index int
	path  string
}

// processFilesParallel decodes matrix files across a fixed worker pool.
// Results keep the discovery order regardless of completion order. With
// ContinueOnError a failing file records its error and the run goes on;
// otherwise the first failure aborts the whole batch.
func processFilesParallel(paths []string, ab *alphabet.Alphabet, cfg *Config, sc scorer.Scorer) ([]FileResult, error) {
	numWorkers := cfg.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}

	results := make([]FileResult, len(paths))
	jobs := make(chan fileJob, len(paths))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				hyps, err := processSingleFile(job.path, ab, cfg, sc)
				fr := FileResult{File: job.path, Hypotheses: hyps}
				if err != nil {
					fr.Error = err.Error()
					slog.Warn("batch file failed", "file", job.path, "error", err)
				}
				results[job.index] = fr
			}
		}()
	}

	for i, path := range paths {
		jobs <- fileJob{index: i, path: path}
	}
	close(jobs)
	wg.Wait()

	if !cfg.ContinueOnError {
		for _, fr := range results {
			if fr.Error != "" {
				return nil, fmt.Errorf("batch processing failed: %s", fr.Error)
			}
		}
	}

	return results, nil
}
