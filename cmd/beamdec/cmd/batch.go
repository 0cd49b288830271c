package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/beamdec/internal/batch"
	"github.com/MeKo-Tech/beamdec/internal/config"
)

// batchCmd represents the batch command.
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Decode directories of probability matrix files in parallel",
	Long: `Decode many probability matrix files with a worker pool.

Arguments may be files or directories; directories are scanned for .json
and .csv matrices.

Examples:
  beamdec batch utterances/ --alphabet labels.txt
  beamdec batch utterances/ --alphabet labels.txt --recursive --workers 8
  beamdec batch a.json b.json --alphabet labels.txt --format csv --output results.csv`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input files or directories provided")
		}

		cfg := GetConfig()
		if cfg.AlphabetPath == "" {
			return errors.New("no alphabet file provided (use --alphabet)")
		}

		batchCfg, err := buildBatchConfig(cmd, cfg)
		if err != nil {
			return err
		}

		quiet, _ := cmd.Flags().GetBool("quiet")
		showStats, _ := cmd.Flags().GetBool("stats")

		result, err := batch.ProcessBatch(args, batchCfg)
		if err != nil {
			return fmt.Errorf("batch decoding failed: %w", err)
		}

		if err := result.SaveResults(batchCfg.Format, batchCfg.OutputFile, quiet); err != nil {
			return err
		}

		if showStats {
			result.PrintStats(quiet)
		}
		return nil
	},
}

// buildBatchConfig maps the global configuration plus batch flag overrides
// onto the batch package configuration.
func buildBatchConfig(cmd *cobra.Command, cfg *config.Config) (*batch.Config, error) {
	batchCfg := &batch.Config{
		AlphabetPath:    cfg.AlphabetPath,
		LMPath:          cfg.LM.Path,
		Alpha:           cfg.LM.Alpha,
		Beta:            cfg.LM.Beta,
		CharacterBased:  cfg.LM.CharacterBased,
		BeamWidth:       cfg.Decoder.BeamWidth,
		CutoffProb:      cfg.Decoder.CutoffProb,
		CutoffTopN:      cfg.Decoder.CutoffTopN,
		NumResults:      cfg.Output.NumResults,
		Format:          cfg.Output.Format,
		OutputFile:      cfg.Output.File,
		ScorePrecision:  cfg.Output.ScorePrecision,
		Workers:         cfg.Batch.Workers,
		ContinueOnError: cfg.Batch.ContinueOnError,
	}

	if cmd.Flags().Changed("lm") {
		batchCfg.LMPath, _ = cmd.Flags().GetString("lm")
	}
	if cmd.Flags().Changed("alpha") {
		batchCfg.Alpha, _ = cmd.Flags().GetFloat64("alpha")
	}
	if cmd.Flags().Changed("beta") {
		batchCfg.Beta, _ = cmd.Flags().GetFloat64("beta")
	}
	if cmd.Flags().Changed("char-lm") {
		batchCfg.CharacterBased, _ = cmd.Flags().GetBool("char-lm")
	}
	if cmd.Flags().Changed("beam-width") {
		batchCfg.BeamWidth, _ = cmd.Flags().GetInt("beam-width")
	}
	if cmd.Flags().Changed("cutoff-prob") {
		batchCfg.CutoffProb, _ = cmd.Flags().GetFloat64("cutoff-prob")
	}
	if cmd.Flags().Changed("cutoff-top-n") {
		batchCfg.CutoffTopN, _ = cmd.Flags().GetInt("cutoff-top-n")
	}
	if cmd.Flags().Changed("num-results") {
		batchCfg.NumResults, _ = cmd.Flags().GetInt("num-results")
	}
	if cmd.Flags().Changed("format") {
		batchCfg.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("output") {
		batchCfg.OutputFile, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("score-precision") {
		batchCfg.ScorePrecision, _ = cmd.Flags().GetInt("score-precision")
	}
	if cmd.Flags().Changed("workers") {
		batchCfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("continue-on-error") {
		batchCfg.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
	}

	batchCfg.Recursive, _ = cmd.Flags().GetBool("recursive")
	batchCfg.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	batchCfg.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")

	switch batchCfg.Format {
	case outputFormatText, outputFormatJSON, outputFormatYAML, outputFormatCSV:
	default:
		return nil, fmt.Errorf("invalid output format: %s", batchCfg.Format)
	}
	if batchCfg.BeamWidth < 1 {
		return nil, fmt.Errorf("invalid beam width: %d (must be at least 1)", batchCfg.BeamWidth)
	}

	return batchCfg, nil
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("format", "f", "text", "output format (text, json, yaml, csv)")
	batchCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	batchCmd.Flags().IntP("beam-width", "b", 100, "beam width for the prefix search")
	batchCmd.Flags().Float64("cutoff-prob", 1.0, "cumulative probability cutoff for pruning (0..1]")
	batchCmd.Flags().Int("cutoff-top-n", 40, "maximum classes considered per timestep")
	batchCmd.Flags().IntP("num-results", "n", 1, "number of hypotheses to report per file")
	batchCmd.Flags().Int("score-precision", 4, "decimal places for scores in text/csv output")
	batchCmd.Flags().String("lm", "", "ARPA n-gram language model file")
	batchCmd.Flags().Float64("alpha", 0.93, "language model weight")
	batchCmd.Flags().Float64("beta", 1.18, "word insertion bonus")
	batchCmd.Flags().Bool("char-lm", false, "score the language model per character instead of per word")
	batchCmd.Flags().IntP("workers", "w", 0, "number of decode workers (0=all CPUs)")
	batchCmd.Flags().Bool("continue-on-error", false, "record per-file errors instead of aborting")
	batchCmd.Flags().BoolP("recursive", "r", false, "scan directories recursively")
	batchCmd.Flags().StringSlice("include", nil, "glob patterns of file names to include")
	batchCmd.Flags().StringSlice("exclude", nil, "glob patterns of file names to exclude")
	batchCmd.Flags().BoolP("quiet", "q", false, "suppress non-result output")
	batchCmd.Flags().Bool("stats", false, "print processing statistics")
}
