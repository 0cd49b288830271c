package batch

// Package batch decodes directories of probability matrix files in parallel.

import (
	"errors"
	"fmt"
	"time"

	"github.com/MeKo-Tech/beamdec/internal/alphabet"
	"github.com/MeKo-Tech/beamdec/internal/scorer"
)

// ProcessBatch decodes a batch of matrix files with the given configuration.
func ProcessBatch(paths []string, cfg *Config) (*Result, error) {
	files, err := discoverMatrixFiles(paths, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover matrix files: %w", err)
	}

	if len(files) == 0 {
		return nil, errors.New("no matrix files found")
	}

	ab, err := alphabet.Load(cfg.AlphabetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load alphabet: %w", err)
	}

	var sc scorer.Scorer
	if cfg.LMPath != "" {
		ngram, err := scorer.NewNGramScorer(cfg.LMPath, ab, scorer.Config{
			Alpha:          cfg.Alpha,
			Beta:           cfg.Beta,
			CharacterBased: cfg.CharacterBased,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load language model: %w", err)
		}
		sc = ngram
	}

	startTime := time.Now()
	results, err := processFilesParallel(files, ab, cfg, sc)
	duration := time.Since(startTime)

	if err != nil {
		return nil, err
	}

	return &Result{
		Results:        results,
		Duration:       duration,
		WorkerCount:    cfg.Workers,
		ScorePrecision: cfg.ScorePrecision,
	}, nil
}
