package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

func main() {
	// Set up structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var (
		outDir    = flag.String("out", "testdata/matrices", "Output directory for generated fixtures")
		count     = flag.Int("count", 5, "Number of matrix files to generate")
		timesteps = flag.Int("timesteps", 50, "Timesteps per matrix")
		seed      = flag.Int64("seed", 1, "Random seed")
		help      = flag.Bool("h", false, "Show help")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate alphabet and probability matrix fixtures for beamdec testing.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(os.Stderr, "  %s                       # Generate the default fixture set\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -count 20 -seed 7     # Generate 20 matrices with a fixed seed\n", os.Args[0])
	}

	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	slog.Info("Starting test data generation", "dir", *outDir, "count", *count)

	if err := generate(*outDir, *count, *timesteps, *seed); err != nil {
		slog.Error("Test data generation failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Test data generation complete")
}

// labels is the fixture alphabet: lowercase letters, space and apostrophe,
// with the blank implied as the last class.
var labels = append(strings.Split("abcdefghijklmnopqrstuvwxyz", ""), " ", "'")

func generate(outDir string, count, timesteps int, seed int64) error {
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	alphabetPath := filepath.Join(outDir, "alphabet.txt")
	if err := os.WriteFile(alphabetPath, []byte(strings.Join(labels, "\n")+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write alphabet: %w", err)
	}
	slog.Info("Wrote alphabet", "path", alphabetPath, "labels", len(labels))

	classDim := len(labels) + 1
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec

	for i := 0; i < count; i++ {
		rows := randomMatrix(rng, timesteps, classDim)
		data, err := json.Marshal(rows)
		if err != nil {
			return fmt.Errorf("failed to marshal matrix: %w", err)
		}

		path := filepath.Join(outDir, fmt.Sprintf("utt%03d.json", i))
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		slog.Info("Wrote matrix", "path", path, "timesteps", timesteps, "classes", classDim)
	}

	return nil
}

// randomMatrix builds rows that favor one class per timestep with a bias
// toward the blank, which keeps the fixtures realistic for CTC decoding.
func randomMatrix(rng *rand.Rand, timesteps, classDim int) [][]float64 {
	rows := make([][]float64, timesteps)
	for t := 0; t < timesteps; t++ {
		peaked := classDim - 1 // blank
		if rng.Float64() > 0.4 {
			peaked = rng.Intn(classDim - 1)
		}
		peak := 0.5 + rng.Float64()*0.4
		rest := (1 - peak) / float64(classDim-1)

		row := make([]float64, classDim)
		for k := 0; k < classDim; k++ {
			if k == peaked {
				row[k] = peak
			} else {
				row[k] = rest
			}
		}
		rows[t] = row
	}
	return rows
}
