package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/beamdec/internal/alphabet"
	"github.com/MeKo-Tech/beamdec/internal/benchmark"
)

func main() {
	var (
		alphabetPath = flag.String("alphabet", "", "Alphabet file (defaults to a built-in lowercase alphabet)")
		timesteps    = flag.Int("timesteps", 200, "Synthetic utterance length in timesteps")
		widths       = flag.String("beam-widths", "0,25,100,500", "Comma-separated beam widths (0 = greedy)")
		iterations   = flag.Int("iterations", 3, "Number of iterations per benchmark")
		outputFile   = flag.String("output", "", "Output file for results (optional)")
	)
	flag.Parse()

	fmt.Println("beamdec decode throughput benchmark")
	fmt.Println("===================================")

	ab, err := loadAlphabet(*alphabetPath)
	if err != nil {
		log.Fatalf("Failed to load alphabet: %v", err)
	}

	beamWidths, err := parseWidths(*widths)
	if err != nil {
		log.Fatalf("Invalid beam widths: %v", err)
	}

	fmt.Printf("Running %d beam configurations over %d timesteps, %d iterations each...\n\n",
		len(beamWidths), *timesteps, *iterations)

	bench := benchmark.NewDecodeBenchmark(ab, *timesteps, beamWidths)
	results, err := bench.Run(*iterations)
	if err != nil {
		log.Fatalf("Benchmark failed: %v", err)
	}

	bench.PrintDetailedResults()

	if *outputFile != "" {
		if err := saveResultsToFile(*outputFile, results); err != nil {
			log.Printf("Failed to save results to file: %v", err)
		} else {
			fmt.Printf("Results saved to: %s\n", *outputFile)
		}
	}
}

func loadAlphabet(path string) (*alphabet.Alphabet, error) {
	if path != "" {
		return alphabet.Load(path)
	}
	labels := strings.Split("abcdefghijklmnopqrstuvwxyz", "")
	labels = append(labels, " ", "'")
	return alphabet.New(labels)
}

func parseWidths(spec string) ([]int, error) {
	var widths []int
	for _, part := range strings.Split(spec, ",") {
		w, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		if w < 0 {
			return nil, fmt.Errorf("negative beam width %d", w)
		}
		widths = append(widths, w)
	}
	return widths, nil
}

func saveResultsToFile(filename string, results []benchmark.DecodeResult) error {
	file, err := os.Create(filename) //nolint:gosec
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, _ = fmt.Fprintln(file, "beamdec decode benchmark results")
	_, _ = fmt.Fprintln(file, "================================")
	_, _ = fmt.Fprintln(file)

	for _, result := range results {
		_, _ = fmt.Fprintf(file, "%s\n", result.String())
	}

	_, _ = fmt.Fprintln(file)
	_, _ = fmt.Fprintln(file, "CSV Format:")
	_, _ = fmt.Fprintln(file, "Name,Beam_Width,Iterations,Total_ms,Steps_Per_Sec")

	for _, result := range results {
		if result.Result.Error != nil {
			continue
		}
		totalMs := float64(result.Result.Duration.Nanoseconds()) / 1e6
		_, _ = fmt.Fprintf(file, "%s,%d,%d,%.2f,%.0f\n",
			result.Name,
			result.BeamWidth,
			result.Result.Iterations,
			totalMs,
			result.StepsPerSec,
		)
	}

	return nil
}
