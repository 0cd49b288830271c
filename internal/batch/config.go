package batch

import (
	"fmt"
	"os"
	"time"

	"github.com/MeKo-Tech/beamdec/internal/decoder"
)

// Config holds all configuration for batch decoding.
type Config struct {
	// Alphabet and language model settings
	AlphabetPath   string
	LMPath         string
	Alpha          float64
	Beta           float64
	CharacterBased bool

	// Search settings
	BeamWidth  int
	CutoffProb float64
	CutoffTopN int
	NumResults int

	// Output settings
	Format         string
	OutputFile     string
	ScorePrecision int

	// Parallel processing settings
	Workers         int
	ContinueOnError bool

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Progress settings
	Quiet     bool
	ShowStats bool
}

// FileResult holds the decode outcome for a single matrix file.
type FileResult struct {
	File       string               `json:"file" yaml:"file"`
	Hypotheses []decoder.Hypothesis `json:"hypotheses,omitempty" yaml:"hypotheses,omitempty"`
	Error      string               `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result holds the result of a batch run.
type Result struct {
	Results     []FileResult
	Duration    time.Duration
	WorkerCount int

	// ScorePrecision controls score formatting in text and CSV output.
	// Zero means the default of four decimal places.
	ScorePrecision int
}

// FormatResults formats the batch results in the specified format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatBatchResults(r.Results, format, r.scorePrecision())
}

// SaveResults saves the formatted results to a file or stdout.
func (r *Result) SaveResults(format, outputFile string, quiet bool) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(os.Stdout, "Results written to %s\n", outputFile)
		}
	} else {
		_, _ = fmt.Fprint(os.Stdout, output)
	}

	return nil
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(quiet bool) {
	if quiet {
		return
	}
	var failed int
	for _, fr := range r.Results {
		if fr.Error != "" {
			failed++
		}
	}
	processed := len(r.Results) - failed
	avg := time.Duration(0)
	throughput := 0.0
	if processed > 0 && r.Duration > 0 {
		avg = r.Duration / time.Duration(processed)
		throughput = float64(processed) / r.Duration.Seconds()
	}
	_, _ = fmt.Fprintf(os.Stdout, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(os.Stdout, "  Total files: %d\n", len(r.Results))
	_, _ = fmt.Fprintf(os.Stdout, "  Decoded: %d\n", processed)
	_, _ = fmt.Fprintf(os.Stdout, "  Failed: %d\n", failed)
	_, _ = fmt.Fprintf(os.Stdout, "  Workers: %d\n", r.WorkerCount)
	_, _ = fmt.Fprintf(os.Stdout, "  Duration: %v\n", r.Duration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(os.Stdout, "  Avg per file: %v\n", avg.Round(time.Millisecond))
	_, _ = fmt.Fprintf(os.Stdout, "  Throughput: %.1f files/sec\n", throughput)
}

func (r *Result) scorePrecision() int {
	if r.ScorePrecision > 0 {
		return r.ScorePrecision
	}
	return 4
}
